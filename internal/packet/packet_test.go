package packet

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_LittleEndian(t *testing.T) {
	w := NewWriter(16)
	require.NoError(t, w.WriteByte(0x42))
	w.WriteShort(0x1234)
	w.WriteInt(-2)
	w.WriteUint(0xDEADBEEF)

	b := w.Bytes()
	require.Len(t, b, 11)
	assert.Equal(t, byte(0x42), b[0])
	assert.Equal(t, uint16(0x1234), binary.LittleEndian.Uint16(b[1:]))
	assert.Equal(t, int32(-2), int32(binary.LittleEndian.Uint32(b[3:])))
	assert.Equal(t, uint32(0xDEADBEEF), binary.LittleEndian.Uint32(b[7:]))
}

func TestReader_RoundTrip(t *testing.T) {
	w := Get()
	defer w.Put()

	require.NoError(t, w.WriteByte(7))
	w.WriteShort(513)
	w.WriteInt(-123456)
	w.WriteUint(42)
	w.WriteBytes([]byte{1, 2, 3})

	r := NewReader(w.CopyBytes())
	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(7), b)

	s, err := r.ReadShort()
	require.NoError(t, err)
	assert.Equal(t, uint16(513), s)

	i, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, int32(-123456), i)

	u, err := r.ReadUint()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), u)

	raw, err := r.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)
	assert.Equal(t, 0, r.Remaining())
}

func TestReader_ShortData(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})

	_, err := r.ReadInt()
	assert.Error(t, err)
	_, err = r.ReadBytes(4)
	assert.Error(t, err)
	_, err = r.ReadBytes(-1)
	assert.Error(t, err)

	_, err = r.ReadShort()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Position())
	_, err = r.ReadShort()
	assert.Error(t, err)
}

func TestGet_ReturnsResetWriter(t *testing.T) {
	w := Get()
	w.WriteInt(99)
	w.Put()

	w2 := Get()
	defer w2.Put()
	assert.Equal(t, 0, w2.Len())
}
