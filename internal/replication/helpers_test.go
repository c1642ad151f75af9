package replication

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/bossengine/internal/boss"
)

type staticWorld struct {
	target boss.Target
}

func (w staticWorld) Target(id uint32) (boss.Target, bool) {
	return w.target, id == w.target.ID
}

func (w staticWorld) Nearest(from boss.Vec2, maxRange float64) (boss.Target, bool) {
	return w.target, from.DistanceTo(w.target.Position) <= maxRange
}

type recordingSink struct {
	events [][][]byte
}

func (s *recordingSink) Broadcast(frames [][]byte) {
	s.events = append(s.events, frames)
}

func newActor(t *testing.T, replica bool) *boss.Actor {
	t.Helper()
	var world boss.TargetFinder
	if !replica {
		world = staticWorld{target: boss.Target{ID: 1, Position: boss.Vec2{X: 100}, Alive: true}}
	}
	a, err := boss.NewActor(boss.Config{
		Name:      "warden",
		Tunables:  boss.DefaultTunables(),
		World:     world,
		MaxHealth: 1000,
		Replica:   replica,
	})
	require.NoError(t, err)
	return a
}

// tickUntilState ticks a until its current state is want.
func tickUntilState(t *testing.T, a *boss.Actor, want boss.StateID, limit int) {
	t.Helper()
	for range limit {
		if a.CurrentState() == want {
			return
		}
		a.Tick()
	}
	require.Equal(t, want, a.CurrentState(), "state not reached in %d ticks", limit)
}
