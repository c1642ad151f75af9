// Package encounter runs authoritative boss actors: it ticks them, publishes
// resyncs, accepts external commands and persists their state.
package encounter

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/udisondev/bossengine/internal/boss"
)

const commandQueueSize = 32

var (
	// ErrStopped is returned by Do after the encounter was unregistered.
	ErrStopped = errors.New("encounter stopped")
	// ErrBusy is returned by Do when the command queue is full.
	ErrBusy = errors.New("encounter command queue full")
)

// World is the environment stepped before each actor tick.
type World interface {
	Step(actor *boss.Actor)
}

// Publisher sends resyncs for dirty actors.
type Publisher interface {
	Publish(actor *boss.Actor) (bool, error)
}

// ActorID derives a stable actor id from the boss name, so a restarted
// server finds the row it saved before.
func ActorID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("boss:"+name))
}

// record is what the tick goroutine shares with readers.
type record struct {
	snapshot  boss.Snapshot
	timers    []int32
	state     boss.StateID
	health    int
	maxHealth int
	finished  bool
	tick      uint64
}

// Encounter hosts one authoritative actor. It implements ai.Controller.
type Encounter struct {
	id        uuid.UUID
	actor     *boss.Actor
	world     World
	publisher Publisher

	commands chan func(*boss.Actor)
	stopped  atomic.Bool
	ticks    uint64
	finished bool
	latest   atomic.Pointer[record]

	// onFinish runs on the tick goroutine when the actor first finishes.
	onFinish func(*Encounter)
}

// New creates an encounter for actor. world and publisher may be nil.
func New(actor *boss.Actor, world World, publisher Publisher) *Encounter {
	e := &Encounter{
		id:        ActorID(actor.Name()),
		actor:     actor,
		world:     world,
		publisher: publisher,
		commands:  make(chan func(*boss.Actor), commandQueueSize),
	}
	e.record()
	return e
}

// ID returns the actor id.
func (e *Encounter) ID() uuid.UUID {
	return e.id
}

// Name returns the boss name.
func (e *Encounter) Name() string {
	return e.actor.Name()
}

func (e *Encounter) Start() {
	slog.Info("encounter started", "boss", e.actor.Name(), "id", e.id)
}

func (e *Encounter) Stop() {
	e.stopped.Store(true)
	slog.Info("encounter stopped", "boss", e.actor.Name(), "ticks", e.ticks)
}

// Do queues fn to run against the actor at the start of the next tick.
func (e *Encounter) Do(fn func(*boss.Actor)) error {
	if e.stopped.Load() {
		return ErrStopped
	}
	select {
	case e.commands <- fn:
		return nil
	default:
		return ErrBusy
	}
}

// Tick runs queued commands, steps the world and the actor, then publishes.
func (e *Encounter) Tick() {
	if e.stopped.Load() {
		return
	}

	for drained := false; !drained; {
		select {
		case fn := <-e.commands:
			fn(e.actor)
		default:
			drained = true
		}
	}

	if e.world != nil {
		e.world.Step(e.actor)
	}
	e.actor.Tick()
	e.ticks++

	if e.publisher != nil {
		if _, err := e.publisher.Publish(e.actor); err != nil {
			slog.Error("publishing boss resync", "boss", e.actor.Name(), "err", err)
		}
	}

	e.record()

	if !e.finished && e.actor.Finished() {
		e.finished = true
		ctx := e.actor.Context()
		slog.Info("encounter finished",
			"boss", e.actor.Name(),
			"dead", ctx.Dead,
			"despawned", ctx.Despawned,
			"ticks", e.ticks)
		if e.onFinish != nil {
			e.onFinish(e)
		}
	}
}

func (e *Encounter) record() {
	ctx := e.actor.Context()
	e.latest.Store(&record{
		snapshot:  e.actor.Snapshot(),
		timers:    e.actor.FrameTimers(),
		state:     e.actor.CurrentState(),
		health:    ctx.Health,
		maxHealth: ctx.MaxHealth,
		finished:  e.actor.Finished(),
		tick:      e.ticks,
	})
}

// Status is a JSON-friendly view of the latest tick.
type Status struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Stack     []string  `json:"stack"`
	History   []string  `json:"history"`
	Timer     int32     `json:"timer"`
	Phase     int       `json:"phase"`
	Health    int       `json:"health"`
	MaxHealth int       `json:"max_health"`
	Finished  bool      `json:"finished"`
	Tick      uint64    `json:"tick"`
}

// Status returns the state recorded after the latest tick. Safe to call from
// any goroutine.
func (e *Encounter) Status() Status {
	r := e.latest.Load()
	return Status{
		ID:        e.id,
		Name:      e.actor.Name(),
		State:     r.state.String(),
		Stack:     stateNames(r.snapshot.Stack),
		History:   stateNames(r.snapshot.History),
		Timer:     r.snapshot.Timer,
		Phase:     int(r.snapshot.Phase),
		Health:    r.health,
		MaxHealth: r.maxHealth,
		Finished:  r.finished,
		Tick:      r.tick,
	}
}

// Row returns the persistence row of the latest tick.
func (e *Encounter) Row() SnapshotRow {
	r := e.latest.Load()
	return SnapshotRow{
		ActorID:     e.id,
		BossName:    e.actor.Name(),
		Stack:       stateBytes(r.snapshot.Stack),
		History:     stateBytes(r.snapshot.History),
		Timer:       r.snapshot.Timer,
		FrameTimers: r.timers,
		Phase:       int32(r.snapshot.Phase),
		Health:      int32(r.health),
	}
}

func stateNames(ids []boss.StateID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stateBytes(ids []boss.StateID) []byte {
	out := make([]byte, len(ids))
	for i, id := range ids {
		out[i] = byte(id)
	}
	return out
}
