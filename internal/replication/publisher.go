package replication

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/crypto"
	"github.com/udisondev/bossengine/internal/netsync"
)

// Sink receives the frames of one resync event.
type Sink interface {
	Broadcast(frames [][]byte)
}

// Publisher turns dirty actors into resync events. A limiter bounds the resync
// rate; a denied resync leaves the actor dirty so it goes out on a later tick.
type Publisher struct {
	sink    Sink
	limiter *rate.Limiter
	cipher  *crypto.FrameCipher

	sent     atomic.Int64
	deferred atomic.Int64
}

// NewPublisher creates a publisher. A nil cipher sends frames in the clear;
// a zero limit disables rate limiting.
func NewPublisher(sink Sink, perSecond float64, burst int, cipher *crypto.FrameCipher) *Publisher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Publisher{
		sink:    sink,
		limiter: rate.NewLimiter(limit, max(burst, 1)),
		cipher:  cipher,
	}
}

// Publish sends a resync for a if it is dirty and the limiter allows it.
func (p *Publisher) Publish(a *boss.Actor) (bool, error) {
	if !a.Dirty() {
		return false, nil
	}
	if !p.limiter.Allow() {
		p.deferred.Add(1)
		return false, nil
	}
	if err := p.PublishSnapshot(a.Snapshot()); err != nil {
		return false, err
	}
	a.ClearDirty()
	return true, nil
}

// PublishSnapshot sends s unconditionally.
func (p *Publisher) PublishSnapshot(s boss.Snapshot) error {
	frames, err := SealFrames(p.cipher, netsync.EncodeSnapshot(s))
	if err != nil {
		return err
	}
	p.sink.Broadcast(frames)
	p.sent.Add(1)
	return nil
}

// Stats returns the number of sent and rate-deferred resyncs.
func (p *Publisher) Stats() (sent, deferred int64) {
	return p.sent.Load(), p.deferred.Load()
}

// SealFrames encrypts each frame when cipher is set.
func SealFrames(cipher *crypto.FrameCipher, frames [][]byte) ([][]byte, error) {
	if cipher == nil {
		return frames, nil
	}
	out := make([][]byte, len(frames))
	for i, f := range frames {
		sealed, err := cipher.Seal(f)
		if err != nil {
			return nil, fmt.Errorf("sealing frame %d: %w", i, err)
		}
		out[i] = sealed
	}
	return out, nil
}
