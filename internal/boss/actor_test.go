package boss

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bossengine/internal/fsm"
)

func TestActor_SpawnThenAttackCycle(t *testing.T) {
	r := newTestRig(t)
	a := r.actor

	assert.Equal(t, StateSpawnAnimation, a.CurrentState())

	r.tick(5)
	assert.Equal(t, StateResetCycle, a.CurrentState())
	assert.Equal(t, 0, a.CurrentTimer())
	assert.Empty(t, a.History(), "spawn animation is transient")

	r.tick(3)
	assert.Equal(t, StateDashCharge, a.CurrentState())
	assert.Equal(t, 0, a.CurrentTimer())

	r.tick(10)
	assert.Equal(t, StateResetCycle, a.CurrentState())
	assert.Equal(t, []StateID{StateDashCharge}, a.History())

	r.tick(3)
	assert.Equal(t, StateProjectileBarrage, a.CurrentState())

	r.tick(6)
	assert.Equal(t, StateResetCycle, a.CurrentState())
	assert.Equal(t, 6, r.effects.projectiles, "two volleys of three")

	r.tick(3)
	assert.Equal(t, StateSlamDown, a.CurrentState())
	r.tick(6)
	assert.Equal(t, []StateID{StateDashCharge, StateProjectileBarrage, StateSlamDown}, a.History())
}

func TestActor_TeleportInterruptResumesAttack(t *testing.T) {
	r := newTestRig(t)
	a := r.actor
	r.tick(8)
	require.Equal(t, StateDashCharge, a.CurrentState())

	r.tick(3)
	require.Equal(t, 3, a.CurrentTimer())

	a.RequestTeleport()
	r.tick(1)
	assert.Equal(t, StateTeleport, a.CurrentState())
	assert.Equal(t, 0, a.CurrentTimer())
	assert.Empty(t, cmp.Diff([]StateID{StateTeleport, StateDashCharge}, a.Stack()))

	r.tick(4)
	assert.Equal(t, StateDashCharge, a.CurrentState())
	assert.Equal(t, 4, a.CurrentTimer(), "dash timer must survive the teleport")
	assert.Empty(t, a.History())
	assert.Contains(t, r.effects.cues, "teleport_in")

	r.tick(6)
	assert.Equal(t, StateResetCycle, a.CurrentState())
	assert.Equal(t, []StateID{StateDashCharge}, a.History())
}

func TestActor_TeleportMovesNearTarget(t *testing.T) {
	r := newTestRig(t)
	a := r.actor
	r.tick(8)
	a.Context().Position = Vec2{3000, 0}
	a.RequestTeleport()
	r.tick(1)
	require.Equal(t, StateTeleport, a.CurrentState())

	r.tick(3)
	assert.Less(t, a.Context().DistanceToTarget(), 600.0)
	assert.True(t, a.Dirty())
}

func TestActor_PhaseTransition(t *testing.T) {
	r := newTestRig(t)
	a := r.actor
	r.tick(8)
	require.Equal(t, StateDashCharge, a.CurrentState())

	a.SetHealth(50)
	r.tick(1)
	assert.Equal(t, StatePhaseTransition, a.CurrentState())
	assert.Equal(t, Phase(1), a.Phase())
	assert.Equal(t, []StateID{StateDashCharge}, a.History(), "interrupted attack counts as completed")

	r.tick(3)
	assert.Equal(t, StateResetCycle, a.CurrentState())

	r.tick(1)
	assert.Equal(t, StateSummonMinions, a.Context().NextAttack, "phase 1 pattern, dash skipped as a repeat")

	a.SetHealth(100)
	r.tick(20)
	assert.Equal(t, Phase(1), a.Phase(), "phase never decreases")
}

func TestActor_TargetLostVanishes(t *testing.T) {
	r := newTestRig(t)
	a := r.actor
	r.tick(6)
	require.Equal(t, StateResetCycle, a.CurrentState())

	delete(r.world.targets, 7)
	r.tick(1)
	assert.Equal(t, StateVanish, a.CurrentState())

	r.tick(4)
	assert.True(t, a.Context().Despawned)
	assert.True(t, a.Finished())
	assert.Equal(t, StateVanish, a.CurrentState(), "vanish has no exit")
}

func TestActor_SpawnIgnoresMissingTarget(t *testing.T) {
	r := newTestRig(t)
	delete(r.world.targets, 7)

	r.tick(4)
	assert.Equal(t, StateSpawnAnimation, r.actor.CurrentState())
	r.tick(1)
	assert.Equal(t, StateResetCycle, r.actor.CurrentState())
	r.tick(1)
	assert.Equal(t, StateVanish, r.actor.CurrentState())
}

func TestActor_DeathPreemptsEverything(t *testing.T) {
	r := newTestRig(t)
	a := r.actor
	r.tick(8)
	a.SetHealth(0)

	r.tick(1)
	assert.Equal(t, StateDeath, a.CurrentState())
	r.tick(4)
	assert.True(t, a.Context().Dead)
	assert.Contains(t, r.effects.cues, "death")
}

func TestActor_ForcePop(t *testing.T) {
	r := newTestRig(t)
	a := r.actor
	r.tick(8)
	require.Equal(t, StateDashCharge, a.CurrentState())

	popped := a.ForcePop()
	assert.Equal(t, StateDashCharge, popped)
	assert.Equal(t, StateResetCycle, a.CurrentState())
	assert.Equal(t, 1, len(a.Stack()))
}

func TestActor_ReplicaAppliesSnapshotWithoutDeciding(t *testing.T) {
	r := newTestRig(t)
	src := r.actor
	r.tick(8)
	src.RequestTeleport()
	r.tick(3)
	require.Equal(t, StateTeleport, src.CurrentState())

	replica, err := NewActor(Config{Name: "replica", Tunables: testTunables(t), MaxHealth: 100, Replica: true})
	require.NoError(t, err)

	snap := src.Snapshot()
	require.NoError(t, replica.ApplySnapshot(snap))
	assert.Equal(t, src.Stack(), replica.Stack())
	assert.Equal(t, src.History(), replica.History())
	assert.Equal(t, src.CurrentTimer(), replica.CurrentTimer())

	for range 50 {
		replica.Tick()
	}
	assert.Equal(t, src.Stack(), replica.Stack(), "replica never transitions on its own")
	assert.Equal(t, src.CurrentTimer()+50, replica.CurrentTimer())
}

func TestActor_ApplySnapshotRejectsInvalidState(t *testing.T) {
	r := newTestRig(t)
	before := r.actor.Stack()

	err := r.actor.ApplySnapshot(Snapshot{Stack: []StateID{StateDashCharge, StateID(42)}})
	require.Error(t, err)
	assert.Equal(t, before, r.actor.Stack())
}

func TestActor_ApplySnapshotPhaseMonotonic(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.actor.ApplySnapshot(Snapshot{Stack: []StateID{StateResetCycle}, Phase: 1}))
	require.NoError(t, r.actor.ApplySnapshot(Snapshot{Stack: []StateID{StateResetCycle}, Phase: 0}))
	assert.Equal(t, Phase(1), r.actor.Phase())
}

func TestActor_SetTunablesRejectsInvalid(t *testing.T) {
	r := newTestRig(t)
	bad := testTunables(t)
	bad.AttackPatterns = [][]string{{"Teleport"}}
	assert.Error(t, r.actor.SetTunables(bad))

	bad = testTunables(t)
	bad.Dash.WindUp = ByPhase[int]{-2}
	bad.Dash.DashTime = ByPhase[int]{1}
	bad.Dash.Cooldown = ByPhase[int]{1}
	assert.Error(t, r.actor.SetTunables(bad))

	r.tickUntil(t, StateDashCharge, 100)
	assert.NotPanics(t, func() { r.tick(20) })
}

func TestNewActor_BuildsValidMachine(t *testing.T) {
	_, err := buildMachine()
	require.NoError(t, err)
}

func TestActor_ApplyOwnSnapshotKeepsFrameScratch(t *testing.T) {
	r := newTestRig(t)
	r.tickUntil(t, StateDashCharge, 20)
	r.tick(1)

	dir := fsm.Scratch[dashScratch](r.actor.machine).dir
	require.NotEqual(t, Vec2{}, dir)

	require.NoError(t, r.actor.ApplySnapshot(r.actor.Snapshot()))
	assert.Equal(t, dir, fsm.Scratch[dashScratch](r.actor.machine).dir)
}
