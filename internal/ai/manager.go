package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultTickInterval is one simulation frame at 60 Hz.
const DefaultTickInterval = time.Second / 60

// TickManager drives every registered controller at a fixed interval.
type TickManager struct {
	controllers     sync.Map // uuid.UUID -> Controller
	controllerCount atomic.Int32
	interval        time.Duration
	ticks           atomic.Uint64

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTickManager creates a tick manager. interval <= 0 selects DefaultTickInterval.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickManager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register starts controller and adds it to the tick loop. Registering an id
// twice replaces and stops the previous controller.
func (m *TickManager) Register(id uuid.UUID, controller Controller) {
	controller.Start()
	if prev, loaded := m.controllers.Swap(id, controller); loaded {
		prev.(Controller).Stop()
	} else {
		m.controllerCount.Add(1)
	}

	slog.Debug("controller registered", "id", id)
}

// Unregister removes and stops the controller.
func (m *TickManager) Unregister(id uuid.UUID) {
	value, ok := m.controllers.LoadAndDelete(id)
	if !ok {
		return
	}
	m.controllerCount.Add(-1)
	value.(Controller).Stop()

	slog.Debug("controller unregistered", "id", id)
}

// Start runs the tick loop until ctx is canceled or Stop is called.
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped")
			return nil

		case <-ticker.C:
			m.TickAll()
		}
	}
}

// Stop ends the tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// TickAll advances every controller by one step.
func (m *TickManager) TickAll() {
	count := 0
	m.controllers.Range(func(_, value any) bool {
		value.(Controller).Tick()
		count++
		return true
	})

	n := m.ticks.Add(1)
	if count > 0 && IsDebugEnabled() {
		slog.Debug("tick completed", "controllers", count, "tick", n)
	}
}

// Ticks returns the number of completed ticks.
func (m *TickManager) Ticks() uint64 {
	return m.ticks.Load()
}

// Count returns the number of registered controllers.
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns the controller registered under id.
func (m *TickManager) GetController(id uuid.UUID) (Controller, error) {
	value, ok := m.controllers.Load(id)
	if !ok {
		return nil, fmt.Errorf("controller not found for id %s", id)
	}
	return value.(Controller), nil
}
