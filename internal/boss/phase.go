package boss

// Phase is the coarse progress of a fight. It never decreases for an actor.
type Phase int

// ByPhase holds one tunable value per phase. Phases past the end reuse the
// last value.
type ByPhase[T int | float64] []T

// At returns the value for phase p.
func (b ByPhase[T]) At(p Phase) T {
	var zero T
	if len(b) == 0 {
		return zero
	}
	i := int(p)
	if i < 0 {
		i = 0
	}
	if i >= len(b) {
		i = len(b) - 1
	}
	return b[i]
}

// PhaseFor returns the phase reached at the given health fraction.
// thresholds[i] is the fraction at or below which phase i+1 begins.
func PhaseFor(healthFraction float64, thresholds []float64) Phase {
	p := Phase(0)
	for i, th := range thresholds {
		if healthFraction <= th {
			p = Phase(i + 1)
		}
	}
	return p
}
