// Package netsync encodes boss state for passive replicas.
//
// Every frame starts with an opcode and a protocol version byte. A resync
// event produces a stack frame followed by a timer frame:
//
//	OpStackSync: count u32, ids [u8; count] (top first),
//	             historyCount u32, history [i32; historyCount] (oldest first)
//	OpTimerSync: timer i32, phase i32
//
// All integers are little-endian.
package netsync

import (
	"errors"
	"fmt"

	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/packet"
)

const (
	OpStackSync byte = 0x01
	OpTimerSync byte = 0x02

	// Version is bumped whenever the frame layout or the StateID order changes.
	Version byte = 1

	// MaxStackDepth bounds decoded stacks; deeper stacks are rejected as corrupt.
	MaxStackDepth = 64
)

// ErrDesync is matched by every DesyncError.
var ErrDesync = errors.New("boss state desync")

// DesyncError reports a decoded state identifier outside the closed enumeration.
type DesyncError struct {
	Field string
	Index int
	Value int64
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("desync: %s[%d] = %d is not a valid state", e.Field, e.Index, e.Value)
}

func (e *DesyncError) Is(target error) bool {
	return target == ErrDesync
}

// Frame is a decoded sync frame. Only the fields of its opcode are set.
type Frame struct {
	Op      byte
	Stack   []boss.StateID
	History []boss.StateID
	Timer   int32
	Phase   boss.Phase
}

// EncodeStack builds an OpStackSync frame.
func EncodeStack(stack, history []boss.StateID) []byte {
	w := packet.Get()
	defer w.Put()

	_ = w.WriteByte(OpStackSync)
	_ = w.WriteByte(Version)
	w.WriteUint(uint32(len(stack)))
	for _, id := range stack {
		_ = w.WriteByte(byte(id))
	}
	w.WriteUint(uint32(len(history)))
	for _, id := range history {
		w.WriteInt(int32(id))
	}
	return w.CopyBytes()
}

// EncodeTimer builds an OpTimerSync frame.
func EncodeTimer(timer int32, phase boss.Phase) []byte {
	w := packet.Get()
	defer w.Put()

	_ = w.WriteByte(OpTimerSync)
	_ = w.WriteByte(Version)
	w.WriteInt(timer)
	w.WriteInt(int32(phase))
	return w.CopyBytes()
}

// EncodeSnapshot returns the frames of one resync event, stack frame first.
func EncodeSnapshot(s boss.Snapshot) [][]byte {
	return [][]byte{
		EncodeStack(s.Stack, s.History),
		EncodeTimer(s.Timer, s.Phase),
	}
}

// Decode parses a single frame.
func Decode(data []byte) (Frame, error) {
	r := packet.NewReader(data)

	op, err := r.ReadByte()
	if err != nil {
		return Frame{}, fmt.Errorf("reading opcode: %w", err)
	}
	ver, err := r.ReadByte()
	if err != nil {
		return Frame{}, fmt.Errorf("reading version: %w", err)
	}
	if ver != Version {
		return Frame{}, fmt.Errorf("unsupported sync version %d (want %d)", ver, Version)
	}

	f := Frame{Op: op}
	switch op {
	case OpStackSync:
		err = decodeStack(r, &f)
	case OpTimerSync:
		err = decodeTimer(r, &f)
	default:
		return Frame{}, fmt.Errorf("unknown sync opcode 0x%02X", op)
	}
	if err != nil {
		return Frame{}, err
	}
	if r.Remaining() != 0 {
		return Frame{}, fmt.Errorf("sync opcode 0x%02X: %d trailing bytes at offset %d", op, r.Remaining(), r.Position())
	}
	return f, nil
}

func decodeStack(r *packet.Reader, f *Frame) error {
	count, err := r.ReadUint()
	if err != nil {
		return fmt.Errorf("reading stack count: %w", err)
	}
	if count > MaxStackDepth {
		return fmt.Errorf("stack count %d exceeds %d", count, MaxStackDepth)
	}
	raw, err := r.ReadBytes(int(count))
	if err != nil {
		return fmt.Errorf("reading stack: %w", err)
	}
	f.Stack = make([]boss.StateID, count)
	for i, b := range raw {
		id := boss.StateID(b)
		if !id.Valid() {
			return &DesyncError{Field: "stack", Index: i, Value: int64(b)}
		}
		f.Stack[i] = id
	}

	hcount, err := r.ReadUint()
	if err != nil {
		return fmt.Errorf("reading history count: %w", err)
	}
	if hcount > boss.HistoryCapacity {
		return fmt.Errorf("history count %d exceeds %d", hcount, boss.HistoryCapacity)
	}
	f.History = make([]boss.StateID, hcount)
	for i := range f.History {
		v, err := r.ReadInt()
		if err != nil {
			return fmt.Errorf("reading history[%d]: %w", i, err)
		}
		if v < 0 || v > 0xFF || !boss.StateID(v).Valid() {
			return &DesyncError{Field: "history", Index: i, Value: int64(v)}
		}
		f.History[i] = boss.StateID(v)
	}
	return nil
}

func decodeTimer(r *packet.Reader, f *Frame) error {
	timer, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading timer: %w", err)
	}
	phase, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading phase: %w", err)
	}
	if timer < 0 || phase < 0 {
		return fmt.Errorf("negative timer %d or phase %d", timer, phase)
	}
	f.Timer = timer
	f.Phase = boss.Phase(phase)
	return nil
}
