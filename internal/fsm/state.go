package fsm

import (
	"errors"
	"fmt"
)

// StateID is the constraint for a closed enumeration of behavior states.
// Values must fit in a single byte so they can be sent over the wire as-is.
type StateID interface {
	~uint8
	String() string
}

// TimedState is a state identifier paired with its tick timer.
// One instance exists per identifier for the lifetime of a Registry.
type TimedState[S StateID] struct {
	ID    S
	Timer int
}

// Behavior is the per-tick callback bound to a state.
type Behavior[C any] func(ctx C)

// Predicate decides whether a transition fires. It must not mutate the stack.
type Predicate[C any] func(ctx C) bool

// Action runs once after a transition has been applied.
type Action[C any] func(ctx C)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("fsm configuration error")

// ConfigurationError reports a wiring bug detected while building a machine.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "fsm configuration: " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
