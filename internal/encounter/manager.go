package encounter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/bossengine/internal/boss"
)

// SnapshotStore provides persistence for encounter snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, row SnapshotRow) error
	LoadSnapshot(ctx context.Context, actorID uuid.UUID) (SnapshotRow, bool, error)
}

// SnapshotRow mirrors db.BossSnapshotRow for decoupling. Stack is top first,
// History oldest first, one state id per byte. FrameTimers holds the timer of
// each stack frame, top first, so interrupted states resume where they paused.
type SnapshotRow struct {
	ActorID     uuid.UUID
	BossName    string
	Stack       []byte
	History     []byte
	Timer       int32
	FrameTimers []int32
	Phase       int32
	Health      int32
}

// Manager tracks encounters, restores them from the store and saves them
// periodically. A nil store disables persistence.
type Manager struct {
	store    SnapshotStore
	interval time.Duration

	mu         sync.RWMutex
	encounters map[uuid.UUID]*Encounter

	saveNow chan struct{}
}

// NewManager creates an encounter manager saving every interval.
func NewManager(store SnapshotStore, interval time.Duration) *Manager {
	return &Manager{
		store:      store,
		interval:   interval,
		encounters: make(map[uuid.UUID]*Encounter),
		saveNow:    make(chan struct{}, 1),
	}
}

// Add restores e from its stored snapshot, if any, and starts tracking it.
// Call before the encounter is ticked.
func (m *Manager) Add(ctx context.Context, e *Encounter) error {
	if m.store != nil {
		if err := m.restore(ctx, e); err != nil {
			return err
		}
	}
	e.onFinish = func(*Encounter) { m.requestSave() }

	m.mu.Lock()
	m.encounters[e.id] = e
	m.mu.Unlock()
	return nil
}

func (m *Manager) restore(ctx context.Context, e *Encounter) error {
	row, found, err := m.store.LoadSnapshot(ctx, e.id)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", e.Name(), err)
	}
	if !found {
		slog.Info("no stored snapshot, starting fresh", "boss", e.Name())
		return nil
	}

	snap := boss.Snapshot{
		Stack:   stateIDs(row.Stack),
		History: stateIDs(row.History),
		Timer:   row.Timer,
		Phase:   boss.Phase(row.Phase),
	}
	if err := e.actor.ApplySnapshot(snap); err != nil {
		// Rows from a build with a different state order land here.
		slog.Warn("stored snapshot rejected, starting fresh", "boss", e.Name(), "err", err)
		return nil
	}
	e.actor.RestoreFrameTimers(row.FrameTimers)
	e.actor.SetHealth(int(row.Health))
	e.actor.Context().NetDirty = true
	e.record()

	slog.Info("encounter restored",
		"boss", e.Name(),
		"state", e.actor.CurrentState(),
		"depth", len(snap.Stack),
		"phase", snap.Phase,
		"health", row.Health)
	return nil
}

// Get returns the encounter with id.
func (m *Manager) Get(id uuid.UUID) (*Encounter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.encounters[id]
	return e, ok
}

// Encounters returns all tracked encounters.
func (m *Manager) Encounters() []*Encounter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Encounter, 0, len(m.encounters))
	for _, e := range m.encounters {
		out = append(out, e)
	}
	return out
}

func (m *Manager) requestSave() {
	select {
	case m.saveNow <- struct{}{}:
	default:
	}
}

// RunSaveLoop saves every encounter each interval and whenever one finishes.
// Blocks until ctx is canceled, then saves once more.
func (m *Manager) RunSaveLoop(ctx context.Context) error {
	if m.store == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("encounter save loop started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			m.saveAll(final)
			cancel()
			slog.Info("encounter save loop stopping")
			return ctx.Err()
		case <-ticker.C:
			m.saveAll(ctx)
		case <-m.saveNow:
			m.saveAll(ctx)
		}
	}
}

// saveAll persists every encounter and returns the number saved.
func (m *Manager) saveAll(ctx context.Context) int {
	saved := 0
	for _, e := range m.Encounters() {
		if err := m.store.SaveSnapshot(ctx, e.Row()); err != nil {
			slog.Error("save encounter snapshot", "boss", e.Name(), "err", err)
			continue
		}
		saved++
	}
	if saved > 0 {
		slog.Debug("encounter snapshots saved", "count", saved)
	}
	return saved
}

func stateIDs(raw []byte) []boss.StateID {
	out := make([]boss.StateID, len(raw))
	for i, b := range raw {
		out[i] = boss.StateID(b)
	}
	return out
}
