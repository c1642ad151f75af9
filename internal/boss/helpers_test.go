package boss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeWorld struct {
	targets map[uint32]Target
}

func newFakeWorld(targets ...Target) *fakeWorld {
	w := &fakeWorld{targets: make(map[uint32]Target)}
	for _, t := range targets {
		w.targets[t.ID] = t
	}
	return w
}

func (w *fakeWorld) Target(id uint32) (Target, bool) {
	t, ok := w.targets[id]
	return t, ok
}

func (w *fakeWorld) Nearest(from Vec2, maxRange float64) (Target, bool) {
	best, bestDist, found := Target{}, math.Inf(1), false
	for _, t := range w.targets {
		if !t.Alive {
			continue
		}
		if d := from.DistanceTo(t.Position); d <= maxRange && d < bestDist {
			best, bestDist, found = t, d, true
		}
	}
	return best, found
}

type recordingEffects struct {
	projectiles int
	minions     int
	cues        []string
}

func (e *recordingEffects) SpawnProjectile(Vec2, Vec2) { e.projectiles++ }
func (e *recordingEffects) SpawnMinion(Vec2)           { e.minions++ }
func (e *recordingEffects) PlayCue(cue string)         { e.cues = append(e.cues, cue) }

// testTunables shortens every duration so scenarios run in a few dozen ticks.
func testTunables(t *testing.T) Tunables {
	t.Helper()
	tun := DefaultTunables()
	tun.AttackPatterns = [][]string{
		{"DashCharge", "ProjectileBarrage", "SlamDown"},
		{"SummonMinions", "DashCharge"},
	}
	tun.Spawn.Duration = 5
	tun.Reset.Delay = ByPhase[int]{3, 2}
	tun.Dash = DashTunables{
		WindUp:   ByPhase[int]{2},
		DashTime: ByPhase[int]{2},
		Cooldown: ByPhase[int]{1},
		Count:    ByPhase[int]{2},
		Speed:    ByPhase[float64]{10},
	}
	tun.Barrage.Duration = ByPhase[int]{6}
	tun.Barrage.VolleyInterval = ByPhase[int]{2}
	tun.Barrage.ProjectilesPerVolley = ByPhase[int]{3}
	tun.Slam.RiseTime = ByPhase[int]{2}
	tun.Slam.SlamTime = ByPhase[int]{2}
	tun.Slam.Recovery = ByPhase[int]{2}
	tun.Summon = SummonTunables{
		Delay:    ByPhase[int]{1},
		Duration: ByPhase[int]{4},
		Count:    ByPhase[int]{2},
	}
	tun.Teleport.Duration = 4
	tun.Teleport.TriggerDistance = 10000
	tun.Teleport.Cooldown = 10
	tun.PhaseTransition.Duration = 3
	tun.Vanish.Duration = 3
	tun.Death.Duration = 3
	require.NoError(t, tun.Validate())
	return tun
}

type testRig struct {
	actor   *Actor
	world   *fakeWorld
	effects *recordingEffects
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	world := newFakeWorld(Target{ID: 7, Position: Vec2{0, 0}, Alive: true})
	effects := &recordingEffects{}
	a, err := NewActor(Config{
		Name:      "test-boss",
		Tunables:  testTunables(t),
		World:     world,
		Effects:   effects,
		Position:  Vec2{0, -100},
		MaxHealth: 100,
	})
	require.NoError(t, err)
	return &testRig{actor: a, world: world, effects: effects}
}

func (r *testRig) tick(n int) {
	for range n {
		r.actor.Tick()
	}
}

// tickUntil ticks until the actor is in state s, failing after limit ticks.
func (r *testRig) tickUntil(t *testing.T, s StateID, limit int) int {
	t.Helper()
	for i := 1; i <= limit; i++ {
		r.actor.Tick()
		if r.actor.CurrentState() == s {
			return i
		}
	}
	t.Fatalf("state %s not reached within %d ticks (now %s)", s, limit, r.actor.CurrentState())
	return 0
}
