// Package arena is a deterministic stand-in world for a boss encounter:
// players circle a center point and chip away at the boss every tick.
package arena

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/udisondev/bossengine/internal/ai"
	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/config"
)

type player struct {
	id    uint32
	angle float64
	alive bool
}

// Arena implements boss.TargetFinder and boss.Effects. Step, Target and
// Nearest run on the tick goroutine; the effect counters may be read from
// anywhere.
type Arena struct {
	cfg     config.ArenaConfig
	center  boss.Vec2
	players []player
	ticks   int

	alive       atomic.Int64
	projectiles atomic.Int64
	minions     atomic.Int64
	cues        atomic.Int64
}

// New places cfg.Players players evenly on a circle around center.
func New(cfg config.ArenaConfig, center boss.Vec2) *Arena {
	a := &Arena{cfg: cfg, center: center}
	for i := range cfg.Players {
		a.players = append(a.players, player{
			id:    uint32(i + 1),
			angle: 2 * math.Pi * float64(i) / float64(cfg.Players),
			alive: true,
		})
	}
	a.alive.Store(int64(len(a.players)))
	return a
}

func (a *Arena) position(p player) boss.Vec2 {
	return a.center.Add(boss.Vec2{X: a.cfg.Radius}.Rotate(p.angle))
}

// Step advances the players one tick and applies scripted damage to actor.
func (a *Arena) Step(actor *boss.Actor) {
	a.ticks++
	for i := range a.players {
		a.players[i].angle += a.cfg.AngularSpeed
		if a.cfg.LeaveAfterTicks > 0 && a.ticks >= a.cfg.LeaveAfterTicks && a.players[i].alive {
			a.players[i].alive = false
			slog.Info("player left arena", "player", a.players[i].id, "tick", a.ticks)
		}
	}
	a.alive.Store(int64(a.Alive()))

	c := actor.Context()
	if a.cfg.DamagePerTick > 0 && c.HasTarget && !actor.Finished() {
		actor.SetHealth(c.Health - a.cfg.DamagePerTick)
	}
}

// Alive returns the number of players still in the arena.
func (a *Arena) Alive() int {
	n := 0
	for _, p := range a.players {
		if p.alive {
			n++
		}
	}
	return n
}

func (a *Arena) Target(id uint32) (boss.Target, bool) {
	for _, p := range a.players {
		if p.id == id {
			return boss.Target{ID: p.id, Position: a.position(p), Alive: p.alive}, true
		}
	}
	return boss.Target{}, false
}

func (a *Arena) Nearest(from boss.Vec2, maxRange float64) (boss.Target, bool) {
	best, bestDist, found := boss.Target{}, math.Inf(1), false
	for _, p := range a.players {
		if !p.alive {
			continue
		}
		pos := a.position(p)
		if d := from.DistanceTo(pos); d <= maxRange && d < bestDist {
			best, bestDist, found = boss.Target{ID: p.id, Position: pos, Alive: true}, d, true
		}
	}
	return best, found
}

func (a *Arena) SpawnProjectile(_, _ boss.Vec2) { a.projectiles.Add(1) }
func (a *Arena) SpawnMinion(_ boss.Vec2)        { a.minions.Add(1) }

func (a *Arena) PlayCue(cue string) {
	a.cues.Add(1)
	if ai.IsDebugEnabled() {
		slog.Debug("boss cue", "cue", cue)
	}
}

// Stats is a point-in-time view of the players and spawned effects.
type Stats struct {
	Players     int64 `json:"players"`
	Projectiles int64 `json:"projectiles"`
	Minions     int64 `json:"minions"`
	Cues        int64 `json:"cues"`
}

// Stats returns the live player count and effect counters.
func (a *Arena) Stats() Stats {
	return Stats{
		Players:     a.alive.Load(),
		Projectiles: a.projectiles.Load(),
		Minions:     a.minions.Load(),
		Cues:        a.cues.Load(),
	}
}
