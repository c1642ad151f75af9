package boss

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/udisondev/bossengine/internal/ai"
	"github.com/udisondev/bossengine/internal/fsm"
)

// Config describes a new actor.
type Config struct {
	Name      string
	Tunables  Tunables
	World     TargetFinder
	Effects   Effects
	Position  Vec2
	MaxHealth int
	// Replica actors run behaviors and timers but never evaluate transitions;
	// their stack comes from ApplySnapshot.
	Replica bool
}

// Snapshot is the replicated shape of an actor: stack top first, history
// oldest first, plus the scalar timer and phase.
type Snapshot struct {
	Stack   []StateID
	History []StateID
	Timer   int32
	Phase   Phase
}

// Actor hosts one boss: its behavior stack, context and history.
// Tick and every other method except SetTunables must be called from a single
// goroutine.
type Actor struct {
	name     string
	replica  bool
	ctx      *Context
	machine  *fsm.Machine[StateID, *Context]
	tunables atomic.Pointer[Tunables]
	ticks    uint64
}

// NewActor wires the state machine and starts the actor in SpawnAnimation.
func NewActor(cfg Config) (*Actor, error) {
	if err := cfg.Tunables.Validate(); err != nil {
		return nil, fmt.Errorf("boss %q: %w", cfg.Name, err)
	}
	m, err := buildMachine()
	if err != nil {
		return nil, fmt.Errorf("boss %q: %w", cfg.Name, err)
	}

	effects := cfg.Effects
	if effects == nil {
		effects = noopEffects{}
	}

	a := &Actor{
		name:    cfg.Name,
		replica: cfg.Replica,
		machine: m,
		ctx: &Context{
			Position:   cfg.Position,
			Health:     cfg.MaxHealth,
			MaxHealth:  cfg.MaxHealth,
			NextAttack: StateNone,
			machine:    m,
			world:      cfg.World,
			effects:    effects,
		},
	}
	t := cfg.Tunables
	a.tunables.Store(&t)
	a.ctx.tunables = &t

	m.Pop()
	m.Push(StateSpawnAnimation)

	return a, nil
}

// Name returns the actor's name.
func (a *Actor) Name() string {
	return a.name
}

// Tick advances the actor by one simulation step.
func (a *Actor) Tick() {
	c := a.ctx
	c.tunables = a.tunables.Load()
	a.ticks++

	if c.teleportCooldown > 0 {
		c.teleportCooldown--
	}
	c.acquireTarget()

	before := c.State()
	a.machine.PerformBehaviors(c)
	a.machine.AdvanceTimer()

	if !a.replica && a.machine.PerformStateTransitionCheck(c) {
		c.NetDirty = true
		a.logTransition(before)
	}

	c.Position = c.Position.Add(c.Velocity)
}

func (a *Actor) logTransition(from StateID) {
	to := a.ctx.State()
	switch to {
	case StatePhaseTransition:
		slog.Info("boss phase changed",
			"boss", a.name,
			"phase", a.ctx.Phase,
			"health", a.ctx.Health)
	case StateVanish, StateDeath:
		slog.Info("boss entered terminal state",
			"boss", a.name,
			"state", to,
			"from", from)
	default:
		if ai.IsDebugEnabled() {
			slog.Debug("boss state transition",
				"boss", a.name,
				"from", from,
				"to", to,
				"depth", a.machine.Depth(),
				"tick", a.ticks)
		}
	}
}

// CurrentState returns the state on top of the stack.
func (a *Actor) CurrentState() StateID {
	return a.ctx.State()
}

// CurrentTimer returns the timer of the current state.
func (a *Actor) CurrentTimer() int {
	return a.ctx.Timer()
}

// Phase returns the current phase.
func (a *Actor) Phase() Phase {
	return a.ctx.Phase
}

// Context exposes the actor context for collaborators that read or write
// actor attributes between ticks.
func (a *Actor) Context() *Context {
	return a.ctx
}

// Stack returns the stack, top first.
func (a *Actor) Stack() []StateID {
	return a.machine.Stack()
}

// History returns completed states, oldest first.
func (a *Actor) History() []StateID {
	return a.ctx.History.Entries()
}

// Finished reports whether the actor reached a terminal outcome.
func (a *Actor) Finished() bool {
	return a.ctx.Dead || a.ctx.Despawned
}

// SetHealth updates health. Health feeds the Death rule and the phase.
func (a *Actor) SetHealth(current int) {
	a.ctx.Health = max(current, 0)
}

// SetTunables swaps tunables for subsequent ticks. Safe to call concurrently
// with Tick.
func (a *Actor) SetTunables(t Tunables) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("boss %q: %w", a.name, err)
	}
	a.tunables.Store(&t)
	return nil
}

// RequestTeleport makes the teleport interrupt fire on the next eligible tick.
func (a *Actor) RequestTeleport() {
	a.ctx.teleportRequested = true
}

// ForcePop removes the current frame from outside the transition table. It
// exists for states that have no exit of their own.
func (a *Actor) ForcePop() StateID {
	popped, _ := a.machine.Pop()
	a.machine.FillIfEmpty()
	a.ctx.NetDirty = true
	slog.Warn("boss state force-popped",
		"boss", a.name,
		"state", popped,
		"now", a.ctx.State())
	return popped
}

// ResetToDefault drops the stack down to the default state.
func (a *Actor) ResetToDefault() {
	a.machine.Reset()
	a.ctx.NetDirty = true
}

// Dirty reports whether a resync was requested.
func (a *Actor) Dirty() bool {
	return a.ctx.NetDirty
}

// ClearDirty acknowledges a resync.
func (a *Actor) ClearDirty() {
	a.ctx.NetDirty = false
}

// Snapshot captures the replicated state.
func (a *Actor) Snapshot() Snapshot {
	return Snapshot{
		Stack:   a.machine.Stack(),
		History: a.ctx.History.Entries(),
		Timer:   int32(a.ctx.Timer()),
		Phase:   a.ctx.Phase,
	}
}

// FrameTimers returns the timer of every frame, top first. Frames sharing a
// state report the same timer.
func (a *Actor) FrameTimers() []int32 {
	stack := a.machine.Stack()
	out := make([]int32, len(stack))
	for i, id := range stack {
		out[i] = int32(a.machine.State(id).Timer)
	}
	return out
}

// RestoreFrameTimers sets frame timers from timers (top first), bottom frame
// first so the topmost occurrence of a shared state wins. Extra entries on
// either side are ignored.
func (a *Actor) RestoreFrameTimers(timers []int32) {
	stack := a.machine.Stack()
	for i := min(len(stack), len(timers)) - 1; i >= 0; i-- {
		a.machine.State(stack[i]).Timer = int(max(timers[i], 0))
	}
}

// ApplySnapshot installs a replicated state in one step. Phase never moves
// backwards.
func (a *Actor) ApplySnapshot(s Snapshot) error {
	for _, id := range s.Stack {
		if !id.Valid() {
			return fmt.Errorf("apply snapshot: invalid state %d", uint8(id))
		}
	}
	if err := a.machine.ReplaceStack(s.Stack); err != nil {
		return fmt.Errorf("apply snapshot: %w", err)
	}
	a.ctx.History.Replace(s.History)
	a.machine.CurrentState().Timer = int(max(s.Timer, 0))
	if s.Phase > a.ctx.Phase {
		a.ctx.Phase = s.Phase
	}
	return nil
}
