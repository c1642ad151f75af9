package replication

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/crypto"
	"github.com/udisondev/bossengine/internal/netsync"
)

// Replica mirrors an authoritative actor. Frames may arrive on any goroutine;
// they are buffered and applied in one step at the start of the next Tick, so
// the replica's own tick never observes a half-applied stack.
type Replica struct {
	actor  *boss.Actor
	cipher *crypto.FrameCipher

	mu          sync.Mutex
	stack       *netsync.Frame
	timer       *netsync.Frame
	resetNeeded bool

	applied atomic.Int64
	desyncs atomic.Int64
}

// NewReplica wraps a replica-mode actor.
func NewReplica(actor *boss.Actor, cipher *crypto.FrameCipher) *Replica {
	return &Replica{actor: actor, cipher: cipher}
}

// Actor returns the mirrored actor. Only the ticking goroutine may use it.
func (r *Replica) Actor() *boss.Actor {
	return r.actor
}

// Receive decodes one frame and buffers it. A desync is logged and makes the
// next tick fall back to the default state.
func (r *Replica) Receive(data []byte) error {
	if r.cipher != nil {
		opened, err := r.cipher.Open(data)
		if err != nil {
			return fmt.Errorf("opening sync frame: %w", err)
		}
		data = opened
	}

	f, err := netsync.Decode(data)
	if err != nil {
		if errors.Is(err, netsync.ErrDesync) {
			r.desyncs.Add(1)
			slog.Error("boss sync desync, falling back to default state",
				"boss", r.actor.Name(),
				"err", err)
			r.mu.Lock()
			r.stack, r.timer, r.resetNeeded = nil, nil, true
			r.mu.Unlock()
		}
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch f.Op {
	case netsync.OpStackSync:
		r.stack = &f
		r.resetNeeded = false
	case netsync.OpTimerSync:
		r.timer = &f
	}
	return nil
}

// Tick applies buffered frames and advances the mirrored actor.
func (r *Replica) Tick() {
	r.applyPending()
	r.actor.Tick()
}

func (r *Replica) applyPending() {
	r.mu.Lock()
	stack, timer, reset := r.stack, r.timer, r.resetNeeded
	r.stack, r.timer, r.resetNeeded = nil, nil, false
	r.mu.Unlock()

	if reset {
		r.actor.ResetToDefault()
		r.actor.ClearDirty()
	}

	if stack == nil && timer == nil {
		return
	}

	snap := r.actor.Snapshot()
	if stack != nil {
		snap.Stack, snap.History, snap.Timer = stack.Stack, stack.History, 0
	}
	if timer != nil {
		snap.Timer, snap.Phase = timer.Timer, timer.Phase
	}
	if err := r.actor.ApplySnapshot(snap); err != nil {
		r.desyncs.Add(1)
		slog.Error("applying boss snapshot", "boss", r.actor.Name(), "err", err)
		r.actor.ResetToDefault()
		return
	}
	r.actor.ClearDirty()
	r.applied.Add(1)
}

// Stats returns applied snapshot and desync counts.
func (r *Replica) Stats() (applied, desyncs int64) {
	return r.applied.Load(), r.desyncs.Load()
}
