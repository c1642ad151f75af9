package boss

import (
	"math"

	"github.com/udisondev/bossengine/internal/fsm"
)

type dashScratch struct {
	dir Vec2
}

type slamScratch struct {
	anchor Vec2
}

func spawnAnimation(c *Context) {
	sp := c.tunables.Spawn
	progress := float64(c.Timer()) / float64(sp.Duration)
	c.Velocity = Vec2{0, sp.DescentSpeed * math.Max(0, 1-progress)}
	if c.Timer() == 0 {
		c.effects.PlayCue("spawn_roar")
	}
}

func resetCycle(c *Context) {
	if c.NextAttack == StateNone {
		c.NextAttack = c.chooseNextAttack()
	}
	if !c.HasTarget {
		c.Velocity = c.Velocity.Scale(0.9)
		return
	}
	rt := c.tunables.Reset
	hover := c.Target.Position.Add(Vec2{0, -rt.HoverHeight})
	desired := hover.Sub(c.Position).Normalize().Scale(rt.HoverSpeed.At(c.Phase))
	if c.Position.DistanceTo(hover) < rt.HoverSpeed.At(c.Phase) {
		desired = Vec2{}
	}
	c.Velocity = c.Velocity.Add(desired.Sub(c.Velocity).Scale(0.12))
}

func dashCharge(c *Context) {
	d := c.tunables.Dash
	p := c.Phase
	s := fsm.Scratch[dashScratch](c.machine)

	windUp := d.WindUp.At(p)
	t := c.Timer() % d.CycleLength(p)
	switch {
	case t < windUp:
		if t == 0 {
			c.effects.PlayCue("dash_windup")
		}
		s.dir = c.DirectionToTarget()
		c.Velocity = c.Velocity.Scale(0.88)
	case t == windUp:
		c.Velocity = s.dir.Scale(d.Speed.At(p))
		c.NetDirty = true
	case t < windUp+d.DashTime.At(p):
	default:
		c.Velocity = c.Velocity.Scale(0.85)
	}
}

func projectileBarrage(c *Context) {
	b := c.tunables.Barrage
	p := c.Phase
	c.Velocity = c.Velocity.Scale(0.92)

	t := c.Timer()
	if t == 0 || t%b.VolleyInterval.At(p) != 0 {
		return
	}
	n := b.ProjectilesPerVolley.At(p)
	aim := c.DirectionToTarget()
	if aim == (Vec2{}) {
		aim = Vec2{0, 1}
	}
	speed := b.ProjectileSpeed.At(p)
	for i := range n {
		offset := 0.0
		if n > 1 {
			offset = b.Spread * (float64(i)/float64(n-1) - 0.5)
		}
		c.effects.SpawnProjectile(c.Position, aim.Rotate(offset).Scale(speed))
	}
	c.effects.PlayCue("barrage_volley")
}

func slamDown(c *Context) {
	sl := c.tunables.Slam
	p := c.Phase
	s := fsm.Scratch[slamScratch](c.machine)

	rise := sl.RiseTime.At(p)
	t := c.Timer()
	switch {
	case t < rise:
		if t == 0 {
			s.anchor = c.Target.Position.Add(Vec2{0, -sl.RiseHeight})
		}
		c.Velocity = s.anchor.Sub(c.Position).Scale(0.1)
	case t == rise:
		c.Velocity = Vec2{0, sl.SlamSpeed.At(p)}
		c.effects.PlayCue("slam")
		c.NetDirty = true
	case t < rise+sl.SlamTime.At(p):
	default:
		c.Velocity = c.Velocity.Scale(0.8)
	}
}

func summonMinions(c *Context) {
	su := c.tunables.Summon
	p := c.Phase
	c.Velocity = c.Velocity.Scale(0.9)
	if c.Timer() != su.Delay.At(p) {
		return
	}
	n := su.Count.At(p)
	for i := range n {
		angle := 2 * math.Pi * float64(i) / float64(n)
		c.effects.SpawnMinion(c.Position.Add(Vec2{120, 0}.Rotate(angle)))
	}
	c.effects.PlayCue("summon")
}

func teleport(c *Context) {
	tp := c.tunables.Teleport
	c.Velocity = Vec2{}
	switch c.Timer() {
	case 0:
		c.effects.PlayCue("teleport_out")
	case tp.Duration / 2:
		side := 1.0
		if c.Position.X < c.Target.Position.X {
			side = -1
		}
		c.Position = c.Target.Position.Add(Vec2{side * tp.Offset, -tp.Offset / 2})
		c.effects.PlayCue("teleport_in")
		c.NetDirty = true
	}
}

func phaseTransition(c *Context) {
	c.Velocity = c.Velocity.Scale(0.9)
}

func vanish(c *Context) {
	v := c.tunables.Vanish
	c.Velocity = Vec2{0, -v.Speed}
	if c.Timer() >= v.Duration && !c.Despawned {
		c.Despawned = true
		c.NetDirty = true
	}
}

func death(c *Context) {
	c.Velocity = Vec2{}
	if c.Timer() >= c.tunables.Death.Duration && !c.Dead {
		c.Dead = true
		c.effects.PlayCue("death")
		c.NetDirty = true
	}
}
