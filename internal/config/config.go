package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Stats      StatsConfig      `yaml:"stats"`
	Penalties  PenaltyConfig    `yaml:"penalties"`
	Clock      ClockConfig      `yaml:"clock"`
	Actions    []ActionConfig   `yaml:"actions"`
	Simulation SimulationConfig `yaml:"simulation"`
	Output     OutputConfig     `yaml:"output"`
	Database   DatabaseConfig   `yaml:"database"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
}

// StatsConfig holds the per-stat bounds, starting values and base decay rates.
// It is read once before a session starts and never mutated afterwards.
type StatsConfig struct {
	MaxHunger    int `yaml:"max_hunger"`
	MaxSleep     int `yaml:"max_sleep"`
	MaxHappiness int `yaml:"max_happiness"`
	MaxWillpower int `yaml:"max_willpower"`

	InitialHunger    int `yaml:"initial_hunger"`
	InitialSleep     int `yaml:"initial_sleep"`
	InitialHappiness int `yaml:"initial_happiness"`
	InitialWillpower int `yaml:"initial_willpower"`
	InitialMoney     int `yaml:"initial_money"`

	// Per game hour.
	BaseHungerDecayRate float64 `yaml:"base_hunger_decay_rate"`
	BaseSleepDecayRate  float64 `yaml:"base_sleep_decay_rate"`
}

// PenaltyConfig holds the cascade rates, per game hour.
type PenaltyConfig struct {
	HappinessPenaltyRate float64 `yaml:"happiness_penalty_rate"`
	WillpowerPenaltyRate float64 `yaml:"willpower_penalty_rate"`
}

// ClockConfig holds game clock settings.
type ClockConfig struct {
	BaseRate  float64 `yaml:"base_rate"` // game hours per real second at 1x
	StartDay  int     `yaml:"start_day"`
	StartHour float64 `yaml:"start_hour"`
	Speed     float64 `yaml:"speed"`
}

// ActionConfig describes one player action in the catalog.
type ActionConfig struct {
	Name             string         `yaml:"name"`
	Hours            float64        `yaml:"hours"`
	MinHours         int            `yaml:"min_hours"`
	MaxHours         int            `yaml:"max_hours"`
	Restore          map[string]int `yaml:"restore"`
	RestorePerHour   map[string]int `yaml:"restore_per_hour"`
	HappinessCost    int            `yaml:"happiness_cost"`
	WillpowerCost    int            `yaml:"willpower_cost"`
	Money            int            `yaml:"money"`
	EmploymentChance float64        `yaml:"employment_chance"`
}

// SimulationConfig holds driver settings.
type SimulationConfig struct {
	FPS              int     `yaml:"fps"`
	MaxDays          int     `yaml:"max_days"`
	SampleEveryHours float64 `yaml:"sample_every_hours"`
	Locale           string  `yaml:"locale"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Report   string `yaml:"report"`
	Timeline string `yaml:"timeline"`
}

// DatabaseConfig holds PostgreSQL connection settings for result export.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLiteConfig holds the local result database path.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LoadConfig reads configuration from a YAML file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := LoadConfigWithDefaults()
	// A file that lists actions replaces the default catalog rather than merging into it.
	cfg.Actions = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Actions == nil {
		cfg.Actions = DefaultActions()
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithDefaults returns a Config with default values.
func LoadConfigWithDefaults() *Config {
	cfg := &Config{
		Stats: DefaultStats(),
		Penalties: PenaltyConfig{
			HappinessPenaltyRate: 10,
			WillpowerPenaltyRate: 15,
		},
		Clock: ClockConfig{
			BaseRate:  0.1,
			StartDay:  1,
			StartHour: 8,
			Speed:     1,
		},
		Actions: DefaultActions(),
		Simulation: SimulationConfig{
			FPS:              60,
			MaxDays:          30,
			SampleEveryHours: 1,
			Locale:           "en",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "postgres",
			SSLMode: "prefer",
		},
	}

	applyEnvOverrides(cfg)
	return cfg
}

// DefaultStats returns the stock player stat definition.
func DefaultStats() StatsConfig {
	return StatsConfig{
		MaxHunger:           100,
		MaxSleep:            100,
		MaxHappiness:        100,
		MaxWillpower:        100,
		InitialHunger:       80,
		InitialSleep:        80,
		InitialHappiness:    50,
		InitialWillpower:    50,
		InitialMoney:        100,
		BaseHungerDecayRate: 2.0,
		BaseSleepDecayRate:  1.5,
	}
}

// DefaultActions returns the stock action catalog.
func DefaultActions() []ActionConfig {
	return []ActionConfig{
		{
			Name:           "sleep",
			Hours:          7,
			MinHours:       1,
			MaxHours:       24,
			Restore:        map[string]int{"willpower": 5},
			RestorePerHour: map[string]int{"sleep": 15},
		},
		{
			Name:    "eat",
			Hours:   1,
			Restore: map[string]int{"hunger": 40},
			Money:   -10,
		},
		{
			Name:          "work",
			Hours:         8,
			HappinessCost: 10,
			WillpowerCost: 10,
			Money:         80,
		},
		{
			Name:             "study",
			Hours:            3,
			WillpowerCost:    15,
			EmploymentChance: 2.5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFESIM_SPEED"); v != "" {
		if speed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Clock.Speed = speed
		}
	}
	if v := os.Getenv("LIFESIM_LOCALE"); v != "" {
		cfg.Simulation.Locale = v
	}
	if v := os.Getenv("PGHOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PGPORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PGUSER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PGPASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PGDATABASE"); v != "" {
		cfg.Database.DBName = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Stats.Validate(); err != nil {
		return err
	}
	if err := c.Penalties.Validate(); err != nil {
		return err
	}
	if c.Clock.BaseRate <= 0 || !isFinite(c.Clock.BaseRate) {
		return fmt.Errorf("clock.base_rate must be > 0")
	}
	if c.Clock.StartDay < 1 {
		return fmt.Errorf("clock.start_day must be >= 1")
	}
	if c.Clock.StartHour < 0 || c.Clock.StartHour >= 24 {
		return fmt.Errorf("clock.start_hour must be in [0, 24)")
	}
	if c.Clock.Speed < 0 || !isFinite(c.Clock.Speed) {
		return fmt.Errorf("clock.speed must be >= 0")
	}

	seen := make(map[string]bool, len(c.Actions))
	for i := range c.Actions {
		a := &c.Actions[i]
		if err := a.Validate(); err != nil {
			return fmt.Errorf("actions[%d]: %w", i, err)
		}
		if seen[a.Name] {
			return fmt.Errorf("actions[%d]: duplicate action name %q", i, a.Name)
		}
		seen[a.Name] = true
	}

	if c.Simulation.FPS < 1 {
		return fmt.Errorf("simulation.fps must be >= 1")
	}
	if c.Simulation.MaxDays < 1 {
		return fmt.Errorf("simulation.max_days must be >= 1")
	}
	if c.Simulation.SampleEveryHours <= 0 {
		return fmt.Errorf("simulation.sample_every_hours must be > 0")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	return nil
}

// Validate checks the stat definition for errors.
func (s *StatsConfig) Validate() error {
	limits := []struct {
		name         string
		max, initial int
	}{
		{"hunger", s.MaxHunger, s.InitialHunger},
		{"sleep", s.MaxSleep, s.InitialSleep},
		{"happiness", s.MaxHappiness, s.InitialHappiness},
		{"willpower", s.MaxWillpower, s.InitialWillpower},
	}
	for _, l := range limits {
		if l.max <= 0 {
			return fmt.Errorf("stats.max_%s must be > 0", l.name)
		}
		if l.initial < 0 || l.initial > l.max {
			return fmt.Errorf("stats.initial_%s must be between 0 and %d", l.name, l.max)
		}
	}
	if s.BaseHungerDecayRate < 0 || !isFinite(s.BaseHungerDecayRate) {
		return fmt.Errorf("stats.base_hunger_decay_rate must be >= 0")
	}
	if s.BaseSleepDecayRate < 0 || !isFinite(s.BaseSleepDecayRate) {
		return fmt.Errorf("stats.base_sleep_decay_rate must be >= 0")
	}
	return nil
}

// Validate checks the penalty rates for errors.
func (p *PenaltyConfig) Validate() error {
	if p.HappinessPenaltyRate < 0 || !isFinite(p.HappinessPenaltyRate) {
		return fmt.Errorf("penalties.happiness_penalty_rate must be >= 0")
	}
	if p.WillpowerPenaltyRate < 0 || !isFinite(p.WillpowerPenaltyRate) {
		return fmt.Errorf("penalties.willpower_penalty_rate must be >= 0")
	}
	return nil
}

// Validate checks an action definition for errors. Stat names are checked by
// the actions package, which owns the mapping to the stat enumeration.
func (a *ActionConfig) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("action name is required")
	}
	if a.Hours < 0 || !isFinite(a.Hours) {
		return fmt.Errorf("action %q: hours must be >= 0", a.Name)
	}
	if a.MinHours < 0 || a.MaxHours < 0 {
		return fmt.Errorf("action %q: min_hours and max_hours must be >= 0", a.Name)
	}
	if a.MaxHours > 0 && a.MinHours > a.MaxHours {
		return fmt.Errorf("action %q: min_hours must be <= max_hours", a.Name)
	}
	if a.HappinessCost < 0 || a.WillpowerCost < 0 {
		return fmt.Errorf("action %q: costs must be >= 0", a.Name)
	}
	return nil
}

// Variable reports whether the action accepts a requested duration.
func (a *ActionConfig) Variable() bool {
	return a.MaxHours > 0
}

// ConnectionString returns a PostgreSQL connection string.
func (d *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s",
		d.Host, d.Port, d.User, d.DBName)
	if d.Password != "" {
		connStr += fmt.Sprintf(" password=%s", d.Password)
	}
	if d.SSLMode != "" {
		connStr += fmt.Sprintf(" sslmode=%s", d.SSLMode)
	}
	return connStr
}

// Marshal renders the config back to YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
