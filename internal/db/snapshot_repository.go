package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BossSnapshotRow is a row of boss_snapshots. Stack holds state ids top first,
// one byte each; History holds completed state ids oldest first; FrameTimers
// holds one timer per stack frame, top first.
type BossSnapshotRow struct {
	ActorID     uuid.UUID
	BossName    string
	Stack       []byte
	History     []byte
	Timer       int32
	FrameTimers []int32
	Phase       int32
	Health      int32
	UpdatedAt   time.Time
}

// BossSnapshotRepository persists the last known state of each boss actor.
type BossSnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewBossSnapshotRepository creates a new BossSnapshotRepository.
func NewBossSnapshotRepository(pool *pgxpool.Pool) *BossSnapshotRepository {
	return &BossSnapshotRepository{pool: pool}
}

// Save inserts or replaces the snapshot for row.ActorID.
func (r *BossSnapshotRepository) Save(ctx context.Context, row BossSnapshotRow) error {
	if row.History == nil {
		row.History = []byte{}
	}
	if row.FrameTimers == nil {
		row.FrameTimers = []int32{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO boss_snapshots (actor_id, boss_name, stack, history, timer, frame_timers, phase, health, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (actor_id) DO UPDATE SET
		   boss_name    = EXCLUDED.boss_name,
		   stack        = EXCLUDED.stack,
		   history      = EXCLUDED.history,
		   timer        = EXCLUDED.timer,
		   frame_timers = EXCLUDED.frame_timers,
		   phase        = EXCLUDED.phase,
		   health       = EXCLUDED.health,
		   updated_at   = now()`,
		row.ActorID, row.BossName, row.Stack, row.History, row.Timer, row.FrameTimers, row.Phase, row.Health)
	if err != nil {
		return fmt.Errorf("upsert boss_snapshots %s: %w", row.ActorID, err)
	}
	return nil
}

// Load returns the snapshot for actorID. found is false if none was stored.
func (r *BossSnapshotRepository) Load(ctx context.Context, actorID uuid.UUID) (row BossSnapshotRow, found bool, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT actor_id, boss_name, stack, history, timer, frame_timers, phase, health, updated_at
		 FROM boss_snapshots WHERE actor_id = $1`, actorID,
	).Scan(&row.ActorID, &row.BossName, &row.Stack, &row.History, &row.Timer, &row.FrameTimers, &row.Phase, &row.Health, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return BossSnapshotRow{}, false, nil
	}
	if err != nil {
		return BossSnapshotRow{}, false, fmt.Errorf("query boss_snapshots %s: %w", actorID, err)
	}
	return row, true, nil
}

// Delete removes the snapshot for actorID.
func (r *BossSnapshotRepository) Delete(ctx context.Context, actorID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM boss_snapshots WHERE actor_id = $1`, actorID); err != nil {
		return fmt.Errorf("delete boss_snapshots %s: %w", actorID, err)
	}
	return nil
}
