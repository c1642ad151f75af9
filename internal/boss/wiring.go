package boss

import (
	"errors"
	"fmt"

	"github.com/udisondev/bossengine/internal/fsm"
)

type (
	registry = fsm.Registry[StateID, *Context]
	table    = fsm.TransitionTable[StateID, *Context]
)

// transientStates never enter the history: they overlay or separate attacks.
var transientStates = []StateID{
	StateSpawnAnimation,
	StateResetCycle,
	StateTeleport,
	StatePhaseTransition,
}

func registerBehaviors(r *registry) error {
	behaviors := map[StateID]fsm.Behavior[*Context]{
		StateSpawnAnimation:    spawnAnimation,
		StateResetCycle:        resetCycle,
		StateDashCharge:        dashCharge,
		StateProjectileBarrage: projectileBarrage,
		StateSlamDown:          slamDown,
		StateSummonMinions:     summonMinions,
		StateTeleport:          teleport,
		StatePhaseTransition:   phaseTransition,
		StateVanish:            vanish,
		StateDeath:             death,
	}

	var errs []error
	for _, s := range AllStates() {
		fn, ok := behaviors[s]
		if !ok {
			errs = append(errs, fmt.Errorf("no behavior for %s", s))
			continue
		}
		if err := r.RegisterStateBehavior(s, fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func timerAtLeast(ticks func(c *Context) int) fsm.Predicate[*Context] {
	return func(c *Context) bool { return c.Timer() >= ticks(c) }
}

// registerTransitions declares the whole transition table. Global rules come
// first so they preempt every per-state exit.
func registerTransitions(t *table) {
	pop := fsm.Pop[StateID]()

	t.ApplyToAllStatesExcept(fsm.To(StateDeath), false,
		func(c *Context) bool { return c.Health <= 0 && c.MaxHealth > 0 },
		func(c *Context) {
			c.Velocity = Vec2{}
			c.effects.PlayCue("death_start")
		},
		StateDeath)

	t.ApplyToAllStatesExcept(fsm.To(StateVanish), false,
		func(c *Context) bool { return !c.HasTarget },
		func(c *Context) { c.effects.PlayCue("vanish") },
		StateDeath, StateVanish, StateSpawnAnimation)

	t.ApplyToAllStatesExcept(fsm.To(StatePhaseTransition), false,
		func(c *Context) bool { return c.TargetPhase() > c.Phase },
		func(c *Context) {
			c.advancePhase()
			c.NextAttack = StateNone
			c.effects.PlayCue("phase_shift")
		},
		StateDeath, StateVanish, StateSpawnAnimation, StateTeleport, StatePhaseTransition)

	t.ApplyToAllStatesExcept(fsm.To(StateTeleport), true,
		func(c *Context) bool {
			if !c.HasTarget {
				return false
			}
			if c.teleportRequested {
				return true
			}
			return c.teleportCooldown == 0 && c.DistanceToTarget() > c.tunables.Teleport.TriggerDistance
		},
		func(c *Context) {
			c.teleportRequested = false
			c.teleportCooldown = c.tunables.Teleport.Cooldown
		},
		StateDeath, StateVanish, StateSpawnAnimation, StateTeleport, StatePhaseTransition)

	t.RegisterTransition(StateSpawnAnimation, pop, false,
		timerAtLeast(func(c *Context) int { return c.tunables.Spawn.Duration }), nil)

	for _, attack := range []StateID{StateDashCharge, StateProjectileBarrage, StateSlamDown, StateSummonMinions} {
		t.RegisterTransition(StateResetCycle, fsm.To(attack), false,
			func(c *Context) bool {
				return c.NextAttack == attack && c.Timer() >= c.tunables.Reset.Delay.At(c.Phase)
			},
			func(c *Context) { c.NextAttack = StateNone })
	}

	t.RegisterTransition(StateDashCharge, pop, false,
		timerAtLeast(func(c *Context) int {
			return c.tunables.Dash.CycleLength(c.Phase) * c.tunables.Dash.Count.At(c.Phase)
		}), nil)

	t.RegisterTransition(StateProjectileBarrage, pop, false,
		timerAtLeast(func(c *Context) int { return c.tunables.Barrage.Duration.At(c.Phase) }), nil)

	t.RegisterTransition(StateSlamDown, pop, false,
		timerAtLeast(func(c *Context) int { return c.tunables.Slam.Total(c.Phase) }), nil)

	t.RegisterTransition(StateSummonMinions, pop, false,
		timerAtLeast(func(c *Context) int { return c.tunables.Summon.Duration.At(c.Phase) }), nil)

	t.RegisterTransition(StateTeleport, pop, false,
		timerAtLeast(func(c *Context) int { return c.tunables.Teleport.Duration }), nil)

	t.RegisterTransition(StatePhaseTransition, pop, false,
		timerAtLeast(func(c *Context) int { return c.tunables.PhaseTransition.Duration }), nil)

	// Vanish and Death are terminal: no exits.
}

// onStateTransition runs after a non-transient state was popped.
func onStateTransition(c *Context, _ bool, popped StateID) {
	c.History.Add(popped)
	c.NextAttack = StateNone
	c.retarget = true
	c.NetDirty = true
}

func buildMachine() (*fsm.Machine[StateID, *Context], error) {
	r := fsm.NewRegistry[StateID, *Context](AllStates()...)
	if err := registerBehaviors(r); err != nil {
		return nil, fmt.Errorf("registering behaviors: %w", err)
	}
	t := fsm.NewTransitionTable(r)
	registerTransitions(t)

	return fsm.NewMachine(r, t, fsm.Options[StateID, *Context]{
		Default:           StateResetCycle,
		Transient:         transientStates,
		OnStateTransition: onStateTransition,
	})
}
