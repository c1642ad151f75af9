package boss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByPhase_At(t *testing.T) {
	v := ByPhase[int]{40, 28}

	assert.Equal(t, 40, v.At(0))
	assert.Equal(t, 28, v.At(1))
	assert.Equal(t, 28, v.At(5), "clamps to last value")
	assert.Equal(t, 40, v.At(-1))
	assert.Equal(t, 0, ByPhase[int]{}.At(1))
	assert.Equal(t, 1.5, ByPhase[float64]{1.5}.At(3))
}

func TestPhaseFor(t *testing.T) {
	thresholds := []float64{0.6, 0.25}

	tests := []struct {
		health float64
		want   Phase
	}{
		{1.0, 0},
		{0.61, 0},
		{0.6, 1},
		{0.3, 1},
		{0.25, 2},
		{0, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PhaseFor(tt.health, thresholds), "health %v", tt.health)
	}
}
