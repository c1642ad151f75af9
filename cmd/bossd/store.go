package main

import (
	"context"

	"github.com/google/uuid"

	"github.com/udisondev/bossengine/internal/db"
	"github.com/udisondev/bossengine/internal/encounter"
)

// snapshotStore adapts the snapshot repository to encounter.SnapshotStore.
type snapshotStore struct {
	repo *db.BossSnapshotRepository
}

func (s snapshotStore) SaveSnapshot(ctx context.Context, row encounter.SnapshotRow) error {
	return s.repo.Save(ctx, db.BossSnapshotRow{
		ActorID:     row.ActorID,
		BossName:    row.BossName,
		Stack:       row.Stack,
		History:     row.History,
		Timer:       row.Timer,
		FrameTimers: row.FrameTimers,
		Phase:       row.Phase,
		Health:      row.Health,
	})
}

func (s snapshotStore) LoadSnapshot(ctx context.Context, actorID uuid.UUID) (encounter.SnapshotRow, bool, error) {
	row, found, err := s.repo.Load(ctx, actorID)
	if err != nil || !found {
		return encounter.SnapshotRow{}, found, err
	}
	return encounter.SnapshotRow{
		ActorID:     row.ActorID,
		BossName:    row.BossName,
		Stack:       row.Stack,
		History:     row.History,
		Timer:       row.Timer,
		FrameTimers: row.FrameTimers,
		Phase:       row.Phase,
		Health:      row.Health,
	}, true, nil
}
