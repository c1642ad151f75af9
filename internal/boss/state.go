package boss

// StateID identifies one boss behavior state. Values are sent on the wire as a
// single byte, so the order below is part of the sync protocol.
type StateID uint8

const (
	StateSpawnAnimation StateID = iota
	StateResetCycle
	StateDashCharge
	StateProjectileBarrage
	StateSlamDown
	StateSummonMinions
	StateTeleport
	StatePhaseTransition
	StateVanish
	StateDeath

	stateCount
)

// StateNone marks "no state" in history slots and attack selection.
const StateNone StateID = 0xFF

var stateNames = [stateCount]string{
	StateSpawnAnimation:    "SpawnAnimation",
	StateResetCycle:        "ResetCycle",
	StateDashCharge:        "DashCharge",
	StateProjectileBarrage: "ProjectileBarrage",
	StateSlamDown:          "SlamDown",
	StateSummonMinions:     "SummonMinions",
	StateTeleport:          "Teleport",
	StatePhaseTransition:   "PhaseTransition",
	StateVanish:            "Vanish",
	StateDeath:             "Death",
}

func (s StateID) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	if s == StateNone {
		return "None"
	}
	return "Unknown"
}

// Valid reports whether s is a member of the closed state set.
func (s StateID) Valid() bool {
	return s < stateCount
}

// IsAttack reports whether s is a selectable attack.
func (s StateID) IsAttack() bool {
	switch s {
	case StateDashCharge, StateProjectileBarrage, StateSlamDown, StateSummonMinions:
		return true
	}
	return false
}

// AllStates returns every state in declaration order.
func AllStates() []StateID {
	out := make([]StateID, 0, stateCount)
	for s := range stateCount {
		out = append(out, s)
	}
	return out
}

// ParseStateID resolves a state name as written in tunables files.
func ParseStateID(name string) (StateID, bool) {
	for s, n := range stateNames {
		if n == name {
			return StateID(s), true
		}
	}
	return StateNone, false
}
