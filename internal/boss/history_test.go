package boss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_KeepsMostRecentInOrder(t *testing.T) {
	var h History
	assert.Equal(t, StateNone, h.Last())

	seq := []StateID{
		StateDashCharge, StateSlamDown, StateProjectileBarrage, StateSummonMinions,
		StateDashCharge, StateSlamDown, StateProjectileBarrage, StateSummonMinions,
		StateSlamDown, StateDashCharge, StateProjectileBarrage,
	}
	for _, s := range seq {
		h.Add(s)
	}

	assert.Equal(t, HistoryCapacity, h.Len())
	assert.Equal(t, seq[len(seq)-HistoryCapacity:], h.Entries())
	assert.Equal(t, StateProjectileBarrage, h.Last())
	assert.NotContains(t, h.Entries(), StateDeath)
}

func TestHistory_ReplaceTruncatesToCapacity(t *testing.T) {
	var h History
	in := make([]StateID, 0, 12)
	for i := range 12 {
		in = append(in, StateID(i%4)+StateDashCharge)
	}
	h.Replace(in)

	assert.Equal(t, in[4:], h.Entries())

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Entries())
}
