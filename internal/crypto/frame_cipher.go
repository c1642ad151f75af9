// Package crypto seals sync frames with Blowfish.
package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blowfish"

	"github.com/udisondev/bossengine/internal/packet"
)

// ErrChecksum is returned when an opened frame fails its checksum.
var ErrChecksum = errors.New("frame checksum mismatch")

const (
	lengthSize   = 2
	checksumSize = 4
)

// FrameCipher seals whole frames: a 2-byte length, the payload, zero padding
// and a 4-byte XOR checksum, encrypted together block by block (ECB).
type FrameCipher struct {
	bf *blowfish.Cipher
}

// NewFrameCipher creates a FrameCipher for key (4..56 bytes).
func NewFrameCipher(key []byte) (*FrameCipher, error) {
	bf, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating blowfish cipher: %w", err)
	}
	return &FrameCipher{bf: bf}, nil
}

// Seal returns an encrypted copy of payload.
func (c *FrameCipher) Seal(payload []byte) ([]byte, error) {
	if len(payload) > 0xFFFF {
		return nil, fmt.Errorf("seal: payload too large (%d bytes)", len(payload))
	}
	size := lengthSize + len(payload) + checksumSize
	if rem := size % blowfish.BlockSize; rem != 0 {
		size += blowfish.BlockSize - rem
	}

	w := packet.NewWriter(size)
	w.WriteShort(uint16(len(payload)))
	w.WriteBytes(payload)
	w.WriteBytes(make([]byte, size-checksumSize-w.Len()))
	w.WriteUint(xorWords(w.Bytes()))

	out := w.Bytes()
	for i := 0; i < size; i += blowfish.BlockSize {
		c.bf.Encrypt(out[i:i+blowfish.BlockSize], out[i:i+blowfish.BlockSize])
	}
	return out, nil
}

// Open decrypts a sealed frame and returns its payload.
func (c *FrameCipher) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < blowfish.BlockSize || len(sealed)%blowfish.BlockSize != 0 {
		return nil, fmt.Errorf("open: invalid sealed size %d", len(sealed))
	}

	buf := make([]byte, len(sealed))
	for i := 0; i < len(buf); i += blowfish.BlockSize {
		c.bf.Decrypt(buf[i:i+blowfish.BlockSize], sealed[i:i+blowfish.BlockSize])
	}

	// The trailing word cancels every other word when intact.
	if xorWords(buf) != 0 {
		return nil, ErrChecksum
	}
	r := packet.NewReader(buf)
	n, err := r.ReadShort()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	payload, err := r.ReadBytes(int(n))
	if err != nil || r.Remaining() < checksumSize {
		return nil, fmt.Errorf("open: payload length %d exceeds frame", n)
	}
	return payload, nil
}

// xorWords folds b, whose length is a multiple of 4, into one 32-bit word.
func xorWords(b []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(b); i += 4 {
		sum ^= binary.LittleEndian.Uint32(b[i:])
	}
	return sum
}
