package boss

import (
	"math"

	"github.com/udisondev/bossengine/internal/fsm"
)

// Vec2 is a world-space vector.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2           { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2           { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2      { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64              { return math.Hypot(v.X, v.Y) }
func (v Vec2) DistanceTo(o Vec2) float64 { return v.Sub(o).Len() }

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Rotate returns v rotated by rad radians.
func (v Vec2) Rotate(rad float64) Vec2 {
	sin, cos := math.Sincos(rad)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// Target is an interaction partner of the boss.
type Target struct {
	ID       uint32
	Position Vec2
	Alive    bool
}

// TargetFinder resolves targets from the surrounding world.
type TargetFinder interface {
	Target(id uint32) (Target, bool)
	Nearest(from Vec2, maxRange float64) (Target, bool)
}

// Effects receives the presentation side effects of behaviors.
type Effects interface {
	SpawnProjectile(from, velocity Vec2)
	SpawnMinion(at Vec2)
	PlayCue(cue string)
}

type noopEffects struct{}

func (noopEffects) SpawnProjectile(Vec2, Vec2) {}
func (noopEffects) SpawnMinion(Vec2)           {}
func (noopEffects) PlayCue(string)             {}

// Context is the mutable surface shared by behaviors, predicates and actions.
type Context struct {
	Position Vec2
	Velocity Vec2

	Target    Target
	HasTarget bool

	Health    int
	MaxHealth int
	Phase     Phase

	// NetDirty requests a resync after the current tick.
	NetDirty bool
	// Despawned and Dead are terminal flags raised by Vanish and Death.
	Despawned bool
	Dead      bool

	// NextAttack is picked by ResetCycle and consumed by its transitions.
	NextAttack StateID

	History History

	attackCursor      int
	teleportCooldown  int
	teleportRequested bool
	retarget          bool

	tunables *Tunables
	machine  *fsm.Machine[StateID, *Context]
	world    TargetFinder
	effects  Effects
}

// Timer returns the timer of the current state.
func (c *Context) Timer() int {
	return c.machine.CurrentState().Timer
}

// State returns the current state.
func (c *Context) State() StateID {
	return c.machine.CurrentState().ID
}

// Tunables returns the tunables in effect for this tick.
func (c *Context) Tunables() *Tunables {
	return c.tunables
}

// HealthFraction returns current health over max health.
func (c *Context) HealthFraction() float64 {
	if c.MaxHealth <= 0 {
		return 1
	}
	return float64(c.Health) / float64(c.MaxHealth)
}

// TargetPhase is the phase the current health calls for.
func (c *Context) TargetPhase() Phase {
	return PhaseFor(c.HealthFraction(), c.tunables.PhaseThresholds)
}

// DistanceToTarget returns the distance to the target, or +Inf without one.
func (c *Context) DistanceToTarget() float64 {
	if !c.HasTarget {
		return math.Inf(1)
	}
	return c.Position.DistanceTo(c.Target.Position)
}

// DirectionToTarget returns the unit vector toward the target.
func (c *Context) DirectionToTarget() Vec2 {
	if !c.HasTarget {
		return Vec2{}
	}
	return c.Target.Position.Sub(c.Position).Normalize()
}

func (c *Context) advancePhase() {
	if tp := c.TargetPhase(); tp > c.Phase {
		c.Phase++
	}
}

// acquireTarget keeps the current target while it stays valid unless a
// re-acquisition was requested.
func (c *Context) acquireTarget() {
	if c.world == nil {
		c.HasTarget = false
		return
	}
	rng := c.tunables.TargetRange

	if c.HasTarget && !c.retarget {
		if t, ok := c.world.Target(c.Target.ID); ok && t.Alive && c.Position.DistanceTo(t.Position) <= rng {
			c.Target = t
			return
		}
	}
	c.retarget = false

	t, ok := c.world.Nearest(c.Position, rng)
	c.Target, c.HasTarget = t, ok && t.Alive
}

// chooseNextAttack walks the phase pattern and skips a repeat of the last
// completed attack when the pattern offers an alternative.
func (c *Context) chooseNextAttack() StateID {
	pattern := c.tunables.Pattern(c.Phase)
	if len(pattern) == 0 {
		return StateNone
	}
	last := c.History.Last()
	for i := range pattern {
		idx := (c.attackCursor + i) % len(pattern)
		if pattern[idx] != last || len(pattern) == 1 {
			c.attackCursor = (idx + 1) % len(pattern)
			return pattern[idx]
		}
	}
	c.attackCursor = (c.attackCursor + 1) % len(pattern)
	return pattern[0]
}
