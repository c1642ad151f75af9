package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBossSnapshotRepository_SaveLoad(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewBossSnapshotRepository(pool)
	ctx := context.Background()

	id := uuid.New()
	row := BossSnapshotRow{
		ActorID:     id,
		BossName:    "Warden",
		Stack:       []byte{6, 2, 1},
		History:     []byte{2, 3},
		Timer:       17,
		FrameTimers: []int32{17, 40, 0},
		Phase:       1,
		Health:      4200,
	}
	require.NoError(t, repo.Save(ctx, row))

	got, found, err := repo.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, row.Stack, got.Stack)
	assert.Equal(t, row.History, got.History)
	assert.Equal(t, row.Timer, got.Timer)
	assert.Equal(t, row.FrameTimers, got.FrameTimers)
	assert.Equal(t, row.Phase, got.Phase)
	assert.Equal(t, row.Health, got.Health)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestBossSnapshotRepository_SaveOverwrites(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewBossSnapshotRepository(pool)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, repo.Save(ctx, BossSnapshotRow{ActorID: id, BossName: "Warden", Stack: []byte{1}, History: []byte{}}))
	require.NoError(t, repo.Save(ctx, BossSnapshotRow{ActorID: id, BossName: "Warden", Stack: []byte{8}, History: []byte{2}, Phase: 1}))

	got, found, err := repo.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{8}, got.Stack)
	assert.Empty(t, got.FrameTimers)
	assert.Equal(t, int32(1), got.Phase)
}

func TestBossSnapshotRepository_LoadMissing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewBossSnapshotRepository(pool)

	_, found, err := repo.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBossSnapshotRepository_Delete(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewBossSnapshotRepository(pool)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, repo.Save(ctx, BossSnapshotRow{ActorID: id, BossName: "Warden", Stack: []byte{1}, History: []byte{}}))
	require.NoError(t, repo.Delete(ctx, id))

	_, found, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}
