package fsm

import (
	"errors"
	"fmt"
)

// TransitionHook observes pops of non-transient states.
type TransitionHook[S StateID, C any] func(ctx C, popped bool, state S)

// Options configures a Machine.
type Options[S StateID, C any] struct {
	// Default is pushed whenever the stack would otherwise be empty.
	Default S
	// Transient states are never reported to OnStateTransition.
	Transient []S
	// OnStateTransition runs after a transition popped a non-transient state.
	OnStateTransition TransitionHook[S, C]
}

// Frame is one occurrence of a state on the stack.
// Scratch holds the frame's private data and is dropped with the frame.
type Frame[S StateID] struct {
	State   S
	scratch any
}

// Machine is a pushdown automaton over a Registry and TransitionTable.
// It is not safe for concurrent use.
type Machine[S StateID, C any] struct {
	registry  *Registry[S, C]
	table     *TransitionTable[S, C]
	stack     []Frame[S]
	fallback  S
	transient map[S]struct{}
	hook      TransitionHook[S, C]
}

// NewMachine validates the registry and table and returns a machine whose
// stack holds the default state.
func NewMachine[S StateID, C any](registry *Registry[S, C], table *TransitionTable[S, C], opts Options[S, C]) (*Machine[S, C], error) {
	if registry == nil || table == nil {
		return nil, configErrorf("nil registry or transition table")
	}

	errs := registry.validate()
	if table.registry != registry {
		errs = append(errs, configErrorf("transition table built for a different registry"))
	}
	errs = append(errs, table.errs...)
	if !registry.Has(opts.Default) {
		errs = append(errs, configErrorf("default state %s is not registered", opts.Default))
	}
	for _, id := range opts.Transient {
		if !registry.Has(id) {
			errs = append(errs, configErrorf("transient state %s is not registered", id))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("building state machine: %w", errors.Join(errs...))
	}

	m := &Machine[S, C]{
		registry:  registry,
		table:     table,
		stack:     make([]Frame[S], 0, 8),
		fallback:  opts.Default,
		transient: make(map[S]struct{}, len(opts.Transient)),
		hook:      opts.OnStateTransition,
	}
	for _, id := range opts.Transient {
		m.transient[id] = struct{}{}
	}
	m.FillIfEmpty()
	return m, nil
}

// CurrentState returns the TimedState on top of the stack.
func (m *Machine[S, C]) CurrentState() *TimedState[S] {
	if len(m.stack) == 0 {
		return nil
	}
	return m.registry.State(m.stack[len(m.stack)-1].State)
}

// State returns the TimedState for id regardless of the stack.
func (m *Machine[S, C]) State(id S) *TimedState[S] {
	return m.registry.State(id)
}

// Default returns the state used to refill an empty stack.
func (m *Machine[S, C]) Default() S {
	return m.fallback
}

// Depth returns the number of frames on the stack.
func (m *Machine[S, C]) Depth() int {
	return len(m.stack)
}

// Push enters id on top of the stack and resets its timer.
func (m *Machine[S, C]) Push(id S) {
	st := m.registry.State(id)
	if st == nil {
		panic(fmt.Sprintf("fsm: push of unregistered state %d", uint8(id)))
	}
	st.Timer = 0
	m.stack = append(m.stack, Frame[S]{State: id})
}

// Pop removes the top frame. The exposed state keeps its timer.
func (m *Machine[S, C]) Pop() (S, bool) {
	var zero S
	if len(m.stack) == 0 {
		return zero, false
	}
	top := m.stack[len(m.stack)-1]
	m.stack[len(m.stack)-1] = Frame[S]{}
	m.stack = m.stack[:len(m.stack)-1]
	return top.State, true
}

// FillIfEmpty pushes the default state onto an empty stack.
func (m *Machine[S, C]) FillIfEmpty() bool {
	if len(m.stack) > 0 {
		return false
	}
	m.Push(m.fallback)
	return true
}

// AdvanceTimer increments the timer of the current state.
func (m *Machine[S, C]) AdvanceTimer() {
	if st := m.CurrentState(); st != nil {
		st.Timer++
	}
}

// PerformBehaviors runs the behavior bound to the current state.
// Calling it on an empty stack is a programming error.
func (m *Machine[S, C]) PerformBehaviors(ctx C) {
	if len(m.stack) == 0 {
		panic("fsm: PerformBehaviors on empty stack")
	}
	m.registry.behavior(m.stack[len(m.stack)-1].State)(ctx)
}

// PerformStateTransitionCheck applies at most one transition for the current
// state. It reports whether a transition fired.
func (m *Machine[S, C]) PerformStateTransitionCheck(ctx C) bool {
	if len(m.stack) == 0 {
		m.FillIfEmpty()
		return false
	}

	current := m.stack[len(m.stack)-1].State
	for _, rule := range m.table.rules[current] {
		if !rule.Predicate(ctx) {
			continue
		}
		m.apply(ctx, current, rule)
		return true
	}
	return false
}

func (m *Machine[S, C]) apply(ctx C, current S, rule TransitionRule[S, C]) {
	popped := false
	switch {
	case rule.Interrupt:
		m.Push(rule.To.ID)
	case rule.To.pop:
		m.Pop()
		popped = true
	default:
		m.Pop()
		popped = true
		m.Push(rule.To.ID)
	}
	m.FillIfEmpty()

	if popped && m.hook != nil {
		if _, skip := m.transient[current]; !skip {
			m.hook(ctx, true, current)
		}
	}
	if rule.Action != nil {
		rule.Action(ctx)
	}
}

// Stack returns the state ids from top to bottom.
func (m *Machine[S, C]) Stack() []S {
	out := make([]S, len(m.stack))
	for i, f := range m.stack {
		out[len(m.stack)-1-i] = f.State
	}
	return out
}

// ReplaceStack installs ids (top first) as the whole stack in one step.
// Frames in the longest common bottom prefix keep their scratch; only the
// frames above it are rebuilt. Timers are left untouched; an empty input
// leaves the default state.
func (m *Machine[S, C]) ReplaceStack(topFirst []S) error {
	for _, id := range topFirst {
		if !m.registry.Has(id) {
			return fmt.Errorf("replace stack: unregistered state %d", uint8(id))
		}
	}
	n := len(topFirst)
	keep := 0
	for keep < min(n, len(m.stack)) && m.stack[keep].State == topFirst[n-1-keep] {
		keep++
	}
	clear(m.stack[keep:])
	m.stack = m.stack[:keep]
	for i := n - 1 - keep; i >= 0; i-- {
		m.stack = append(m.stack, Frame[S]{State: topFirst[i]})
	}
	m.FillIfEmpty()
	return nil
}

// Reset clears the stack down to the default state.
func (m *Machine[S, C]) Reset() {
	clear(m.stack)
	m.stack = m.stack[:0]
	m.FillIfEmpty()
}

// Scratch returns the top frame's scratch value of type T, allocating it on
// first use. A frame holding a different type gets a fresh T.
func Scratch[T any, S StateID, C any](m *Machine[S, C]) *T {
	if len(m.stack) == 0 {
		return new(T)
	}
	f := &m.stack[len(m.stack)-1]
	if v, ok := f.scratch.(*T); ok {
		return v
	}
	v := new(T)
	f.scratch = v
	return v
}
