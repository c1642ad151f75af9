package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// LogConfig selects the log level and optional rotated log file.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	// File is the rotated log file; empty logs to stdout only.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// SyncConfig bounds and secures replication traffic.
type SyncConfig struct {
	MaxResyncsPerSecond float64       `yaml:"max_resyncs_per_second"` // 0 disables the limit
	Burst               int           `yaml:"burst"`
	BlowfishKey         string        `yaml:"blowfish_key"` // empty sends frames in the clear
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	OutboxSize          int           `yaml:"outbox_size"`
}

// PersistenceConfig controls snapshot saving.
type PersistenceConfig struct {
	Enabled bool `yaml:"enabled"`
	// SaveInterval is the period of the save loop; terminal states are saved
	// as soon as they are reached.
	SaveInterval time.Duration `yaml:"save_interval"`
}

// ArenaConfig drives the built-in stand-in world: players circling the boss
// and steady scripted damage.
type ArenaConfig struct {
	Players       int     `yaml:"players"`
	Radius        float64 `yaml:"radius"`
	AngularSpeed  float64 `yaml:"angular_speed"` // radians per tick
	DamagePerTick int     `yaml:"damage_per_tick"`
	// LeaveAfterTicks makes every player leave after N ticks; 0 keeps them.
	LeaveAfterTicks int `yaml:"leave_after_ticks"`
}

// BossServer holds all configuration for the authoritative boss daemon.
type BossServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	Log LogConfig `yaml:"log"`

	// Simulation
	BossName     string        `yaml:"boss_name"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// TunablesPath is watched and hot reloaded; empty uses built-in tunables.
	TunablesPath string `yaml:"tunables_path"`
	MaxHealth    int    `yaml:"max_health"`

	Arena       ArenaConfig       `yaml:"arena"`
	Database    DatabaseConfig    `yaml:"database"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Sync        SyncConfig        `yaml:"sync"`
}

// DefaultBossServer returns BossServer config with sensible defaults.
func DefaultBossServer() BossServer {
	return BossServer{
		BindAddress: "0.0.0.0",
		Port:        7780,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		BossName:     "Warden",
		TickInterval: time.Second / 60,
		MaxHealth:    12000,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "bossengine",
			Password: "bossengine",
			DBName:   "bossengine",
			SSLMode:  "disable",
		},
		Arena: ArenaConfig{
			Players:       3,
			Radius:        900,
			AngularSpeed:  0.004,
			DamagePerTick: 1,
		},
		Persistence: PersistenceConfig{
			Enabled:      false,
			SaveInterval: time.Minute,
		},
		Sync: SyncConfig{
			MaxResyncsPerSecond: 30,
			Burst:               4,
			WriteTimeout:        5 * time.Second,
			OutboxSize:          64,
		},
	}
}

// Validate checks values that have no sensible fallback.
func (c BossServer) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.MaxHealth <= 0 {
		return fmt.Errorf("max_health must be positive, got %d", c.MaxHealth)
	}
	if c.Persistence.Enabled && c.Persistence.SaveInterval <= 0 {
		return fmt.Errorf("persistence.save_interval must be positive, got %s", c.Persistence.SaveInterval)
	}
	if c.Arena.Players < 0 || c.Arena.DamagePerTick < 0 {
		return fmt.Errorf("arena players and damage_per_tick must not be negative")
	}
	if k := len(c.Sync.BlowfishKey); k != 0 && (k < 4 || k > 56) {
		return fmt.Errorf("sync.blowfish_key must be 4..56 bytes, got %d", k)
	}
	return nil
}

// LoadBossServer loads boss daemon config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadBossServer(path string) (BossServer, error) {
	cfg := DefaultBossServer()
	if err := load(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Replica holds configuration for a passive replica.
type Replica struct {
	ServerURL    string        `yaml:"server_url"`
	BossName     string        `yaml:"boss_name"`
	TickInterval time.Duration `yaml:"tick_interval"`
	BlowfishKey  string        `yaml:"blowfish_key"`
	// TunablesPath should match the server's so mirrored behaviors look alike.
	TunablesPath string `yaml:"tunables_path"`
	// ReconnectDelay is the pause between dial attempts.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	// StatusEvery logs the mirrored state every N ticks; 0 disables it.
	StatusEvery int `yaml:"status_every"`

	Log LogConfig `yaml:"log"`
}

// DefaultReplica returns Replica config with sensible defaults.
func DefaultReplica() Replica {
	return Replica{
		ServerURL:      "ws://127.0.0.1:7780/sync",
		BossName:       "Warden",
		TickInterval:   time.Second / 60,
		ReconnectDelay: 2 * time.Second,
		StatusEvery:    300,
		Log:            LogConfig{Level: "info"},
	}
}

// LoadReplica loads replica config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadReplica(path string) (Replica, error) {
	cfg := DefaultReplica()
	if err := load(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.TickInterval <= 0 {
		return cfg, fmt.Errorf("tick_interval must be positive, got %s", cfg.TickInterval)
	}
	return cfg, nil
}

func load(path string, cfg any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}
