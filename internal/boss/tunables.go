package boss

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tunables holds every numeric knob of the boss, keyed by phase where it matters.
type Tunables struct {
	// PhaseThresholds[i] is the health fraction at which phase i+1 starts.
	PhaseThresholds []float64 `yaml:"phase_thresholds"`
	// AttackPatterns lists attack state names cycled through in each phase.
	AttackPatterns [][]string `yaml:"attack_patterns"`
	// TargetRange bounds target acquisition.
	TargetRange float64 `yaml:"target_range"`

	Spawn           SpawnTunables           `yaml:"spawn"`
	Reset           ResetTunables           `yaml:"reset"`
	Dash            DashTunables            `yaml:"dash"`
	Barrage         BarrageTunables         `yaml:"barrage"`
	Slam            SlamTunables            `yaml:"slam"`
	Summon          SummonTunables          `yaml:"summon"`
	Teleport        TeleportTunables        `yaml:"teleport"`
	PhaseTransition PhaseTransitionTunables `yaml:"phase_transition"`
	Vanish          VanishTunables          `yaml:"vanish"`
	Death           DeathTunables           `yaml:"death"`

	patterns [][]StateID
}

type SpawnTunables struct {
	Duration     int     `yaml:"duration"`
	DescentSpeed float64 `yaml:"descent_speed"`
}

type ResetTunables struct {
	Delay       ByPhase[int]     `yaml:"delay"`
	HoverSpeed  ByPhase[float64] `yaml:"hover_speed"`
	HoverHeight float64          `yaml:"hover_height"`
}

type DashTunables struct {
	WindUp   ByPhase[int]     `yaml:"wind_up"`
	DashTime ByPhase[int]     `yaml:"dash_time"`
	Cooldown ByPhase[int]     `yaml:"cooldown"`
	Count    ByPhase[int]     `yaml:"count"`
	Speed    ByPhase[float64] `yaml:"speed"`
}

// CycleLength is the number of ticks one dash takes in phase p.
func (d DashTunables) CycleLength(p Phase) int {
	return d.WindUp.At(p) + d.DashTime.At(p) + d.Cooldown.At(p)
}

type BarrageTunables struct {
	Duration             ByPhase[int]     `yaml:"duration"`
	VolleyInterval       ByPhase[int]     `yaml:"volley_interval"`
	ProjectilesPerVolley ByPhase[int]     `yaml:"projectiles_per_volley"`
	ProjectileSpeed      ByPhase[float64] `yaml:"projectile_speed"`
	Spread               float64          `yaml:"spread"`
}

type SlamTunables struct {
	RiseTime   ByPhase[int]     `yaml:"rise_time"`
	SlamTime   ByPhase[int]     `yaml:"slam_time"`
	Recovery   ByPhase[int]     `yaml:"recovery"`
	RiseHeight float64          `yaml:"rise_height"`
	SlamSpeed  ByPhase[float64] `yaml:"slam_speed"`
}

// Total is the full length of a slam in phase p.
func (s SlamTunables) Total(p Phase) int {
	return s.RiseTime.At(p) + s.SlamTime.At(p) + s.Recovery.At(p)
}

type SummonTunables struct {
	Delay    ByPhase[int] `yaml:"delay"`
	Duration ByPhase[int] `yaml:"duration"`
	Count    ByPhase[int] `yaml:"count"`
}

type TeleportTunables struct {
	Duration        int     `yaml:"duration"`
	TriggerDistance float64 `yaml:"trigger_distance"`
	Cooldown        int     `yaml:"cooldown"`
	Offset          float64 `yaml:"offset"`
}

type PhaseTransitionTunables struct {
	Duration int `yaml:"duration"`
}

type VanishTunables struct {
	Duration int     `yaml:"duration"`
	Speed    float64 `yaml:"speed"`
}

type DeathTunables struct {
	Duration int `yaml:"duration"`
}

// DefaultTunables returns the reference tuning for a two-phase fight.
func DefaultTunables() Tunables {
	t := Tunables{
		PhaseThresholds: []float64{0.6},
		AttackPatterns: [][]string{
			{"DashCharge", "ProjectileBarrage", "SlamDown"},
			{"DashCharge", "SummonMinions", "ProjectileBarrage", "SlamDown", "DashCharge"},
		},
		TargetRange: 4800,
		Spawn: SpawnTunables{
			Duration:     120,
			DescentSpeed: 4,
		},
		Reset: ResetTunables{
			Delay:       ByPhase[int]{45, 30},
			HoverSpeed:  ByPhase[float64]{9, 12},
			HoverHeight: 320,
		},
		Dash: DashTunables{
			WindUp:   ByPhase[int]{40, 28},
			DashTime: ByPhase[int]{30, 24},
			Cooldown: ByPhase[int]{20, 14},
			Count:    ByPhase[int]{3, 4},
			Speed:    ByPhase[float64]{26, 33},
		},
		Barrage: BarrageTunables{
			Duration:             ByPhase[int]{240, 210},
			VolleyInterval:       ByPhase[int]{30, 20},
			ProjectilesPerVolley: ByPhase[int]{5, 7},
			ProjectileSpeed:      ByPhase[float64]{11, 14},
			Spread:               0.9,
		},
		Slam: SlamTunables{
			RiseTime:   ByPhase[int]{50, 40},
			SlamTime:   ByPhase[int]{25, 20},
			Recovery:   ByPhase[int]{45, 30},
			RiseHeight: 480,
			SlamSpeed:  ByPhase[float64]{30, 38},
		},
		Summon: SummonTunables{
			Delay:    ByPhase[int]{30, 24},
			Duration: ByPhase[int]{90, 75},
			Count:    ByPhase[int]{2, 4},
		},
		Teleport: TeleportTunables{
			Duration:        36,
			TriggerDistance: 2200,
			Cooldown:        180,
			Offset:          400,
		},
		PhaseTransition: PhaseTransitionTunables{Duration: 150},
		Vanish:          VanishTunables{Duration: 180, Speed: 18},
		Death:           DeathTunables{Duration: 200},
	}
	if err := t.Validate(); err != nil {
		panic(fmt.Sprintf("boss: default tunables invalid: %v", err))
	}
	return t
}

// Validate checks the tunables and resolves attack pattern names.
func (t *Tunables) Validate() error {
	var errs []error

	for i, th := range t.PhaseThresholds {
		if th <= 0 || th >= 1 {
			errs = append(errs, fmt.Errorf("phase_thresholds[%d]: %v out of (0,1)", i, th))
		}
		if i > 0 && th >= t.PhaseThresholds[i-1] {
			errs = append(errs, fmt.Errorf("phase_thresholds[%d]: must be strictly decreasing", i))
		}
	}

	if len(t.AttackPatterns) == 0 {
		errs = append(errs, errors.New("attack_patterns: at least one phase required"))
	}
	patterns := make([][]StateID, len(t.AttackPatterns))
	for p, names := range t.AttackPatterns {
		if len(names) == 0 {
			errs = append(errs, fmt.Errorf("attack_patterns[%d]: empty", p))
			continue
		}
		for _, name := range names {
			s, ok := ParseStateID(name)
			if !ok || !s.IsAttack() {
				errs = append(errs, fmt.Errorf("attack_patterns[%d]: %q is not an attack", p, name))
				continue
			}
			patterns[p] = append(patterns[p], s)
		}
	}

	positive := map[string]int{
		"spawn.duration":            t.Spawn.Duration,
		"teleport.duration":         t.Teleport.Duration,
		"phase_transition.duration": t.PhaseTransition.Duration,
		"vanish.duration":           t.Vanish.Duration,
		"death.duration":            t.Death.Duration,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %d", name, v))
		}
	}
	phased := map[string]ByPhase[int]{
		"reset.delay":                    t.Reset.Delay,
		"dash.count":                     t.Dash.Count,
		"dash.dash_time":                 t.Dash.DashTime,
		"barrage.duration":               t.Barrage.Duration,
		"barrage.volley_interval":        t.Barrage.VolleyInterval,
		"barrage.projectiles_per_volley": t.Barrage.ProjectilesPerVolley,
		"slam.slam_time":                 t.Slam.SlamTime,
		"summon.duration":                t.Summon.Duration,
	}
	for name, v := range phased {
		if len(v) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one value required", name))
			continue
		}
		for i, x := range v {
			if x <= 0 {
				errs = append(errs, fmt.Errorf("%s[%d]: must be positive, got %d", name, i, x))
			}
		}
	}

	nonNegative := map[string]ByPhase[int]{
		"dash.wind_up":   t.Dash.WindUp,
		"dash.cooldown":  t.Dash.Cooldown,
		"slam.rise_time": t.Slam.RiseTime,
		"slam.recovery":  t.Slam.Recovery,
		"summon.delay":   t.Summon.Delay,
	}
	for name, v := range nonNegative {
		if len(v) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one value required", name))
			continue
		}
		for i, x := range v {
			if x < 0 {
				errs = append(errs, fmt.Errorf("%s[%d]: must not be negative, got %d", name, i, x))
			}
		}
	}
	for p := range Phase(t.phaseSpan()) {
		if n := t.Dash.CycleLength(p); n <= 0 {
			errs = append(errs, fmt.Errorf("dash: cycle length in phase %d must be positive, got %d", p, n))
		}
	}
	// Teleport repositions at duration/2, which must differ from the first tick.
	if t.Teleport.Duration == 1 {
		errs = append(errs, errors.New("teleport.duration: must be at least 2"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	t.patterns = patterns
	return nil
}

// phaseSpan is the number of phases whose values can differ: every phase
// reachable through the thresholds plus any extra per-phase entries.
func (t *Tunables) phaseSpan() int {
	n := max(len(t.PhaseThresholds)+1, len(t.AttackPatterns))
	for _, v := range []ByPhase[int]{t.Dash.WindUp, t.Dash.DashTime, t.Dash.Cooldown} {
		n = max(n, len(v))
	}
	return n
}

// Pattern returns the attack cycle for phase p.
func (t *Tunables) Pattern(p Phase) []StateID {
	if len(t.patterns) == 0 {
		return nil
	}
	i := min(max(int(p), 0), len(t.patterns)-1)
	return t.patterns[i]
}

// ParseTunables decodes YAML on top of the defaults and validates the result.
func ParseTunables(data []byte) (Tunables, error) {
	t := DefaultTunables()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parsing tunables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("validating tunables: %w", err)
	}
	return t, nil
}

// LoadTunables reads tunables from path. A missing file yields the defaults.
func LoadTunables(path string) (Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTunables(), nil
		}
		return Tunables{}, fmt.Errorf("reading tunables %s: %w", path, err)
	}
	t, err := ParseTunables(data)
	if err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
