package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "LIFESIM_SPEED", "LIFESIM_LOCALE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigWithDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfigWithDefaults()

	// Stat defaults
	if cfg.Stats.MaxHunger != 100 {
		t.Errorf("expected max hunger 100, got %d", cfg.Stats.MaxHunger)
	}
	if cfg.Stats.InitialHunger != 80 || cfg.Stats.InitialSleep != 80 {
		t.Errorf("expected initial hunger/sleep 80/80, got %d/%d", cfg.Stats.InitialHunger, cfg.Stats.InitialSleep)
	}
	if cfg.Stats.InitialHappiness != 50 || cfg.Stats.InitialWillpower != 50 {
		t.Errorf("expected initial happiness/willpower 50/50, got %d/%d", cfg.Stats.InitialHappiness, cfg.Stats.InitialWillpower)
	}
	if cfg.Stats.InitialMoney != 100 {
		t.Errorf("expected initial money 100, got %d", cfg.Stats.InitialMoney)
	}
	if cfg.Stats.BaseHungerDecayRate != 2.0 {
		t.Errorf("expected hunger decay 2.0, got %v", cfg.Stats.BaseHungerDecayRate)
	}
	if cfg.Stats.BaseSleepDecayRate != 1.5 {
		t.Errorf("expected sleep decay 1.5, got %v", cfg.Stats.BaseSleepDecayRate)
	}

	// Penalty defaults
	if cfg.Penalties.HappinessPenaltyRate != 10 {
		t.Errorf("expected happiness penalty 10, got %v", cfg.Penalties.HappinessPenaltyRate)
	}
	if cfg.Penalties.WillpowerPenaltyRate != 15 {
		t.Errorf("expected willpower penalty 15, got %v", cfg.Penalties.WillpowerPenaltyRate)
	}

	// Clock defaults
	if cfg.Clock.BaseRate != 0.1 {
		t.Errorf("expected base rate 0.1, got %v", cfg.Clock.BaseRate)
	}
	if cfg.Clock.StartDay != 1 || cfg.Clock.StartHour != 8 {
		t.Errorf("expected start day 1 hour 8, got %d %v", cfg.Clock.StartDay, cfg.Clock.StartHour)
	}

	if len(cfg.Actions) != 4 {
		t.Errorf("expected 4 default actions, got %d", len(cfg.Actions))
	}
	if cfg.Simulation.Locale != "en" {
		t.Errorf("expected locale 'en', got %q", cfg.Simulation.Locale)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadConfigValidYAML(t *testing.T) {
	clearEnv(t)

	yaml := `
stats:
  max_hunger: 120
  max_sleep: 100
  max_happiness: 100
  max_willpower: 100
  initial_hunger: 100
  initial_sleep: 90
  initial_happiness: 60
  initial_willpower: 40
  initial_money: 0
  base_hunger_decay_rate: 3
  base_sleep_decay_rate: 1

penalties:
  happiness_penalty_rate: 20
  willpower_penalty_rate: 5

clock:
  base_rate: 0.2
  start_day: 3
  start_hour: 6
  speed: 2

simulation:
  fps: 30
  max_days: 7
  sample_every_hours: 2
  locale: ko

output:
  report: report.json
  timeline: timeline.csv
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Stats.MaxHunger != 120 {
		t.Errorf("expected max hunger 120, got %d", cfg.Stats.MaxHunger)
	}
	if cfg.Stats.BaseHungerDecayRate != 3 {
		t.Errorf("expected hunger decay 3, got %v", cfg.Stats.BaseHungerDecayRate)
	}
	if cfg.Penalties.HappinessPenaltyRate != 20 {
		t.Errorf("expected happiness penalty 20, got %v", cfg.Penalties.HappinessPenaltyRate)
	}
	if cfg.Clock.StartDay != 3 || cfg.Clock.Speed != 2 {
		t.Errorf("expected start day 3 speed 2, got %d %v", cfg.Clock.StartDay, cfg.Clock.Speed)
	}
	if cfg.Simulation.FPS != 30 {
		t.Errorf("expected fps 30, got %d", cfg.Simulation.FPS)
	}
	if cfg.Output.Report != "report.json" {
		t.Errorf("expected report 'report.json', got %q", cfg.Output.Report)
	}
	// No actions key keeps the default catalog.
	if len(cfg.Actions) != 4 {
		t.Errorf("expected default actions, got %d", len(cfg.Actions))
	}
}

func TestLoadConfigActionsReplaceDefaults(t *testing.T) {
	clearEnv(t)

	yaml := `
actions:
  - name: nap
    hours: 1
    restore:
      sleep: 10
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(cfg.Actions))
	}
	if cfg.Actions[0].Name != "nap" || cfg.Actions[0].Restore["sleep"] != 10 {
		t.Errorf("unexpected action: %+v", cfg.Actions[0])
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGHOST", "envhost")
	t.Setenv("PGPORT", "5434")
	t.Setenv("PGUSER", "envuser")
	t.Setenv("PGPASSWORD", "envpass")
	t.Setenv("PGDATABASE", "envdb")
	t.Setenv("LIFESIM_SPEED", "4")
	t.Setenv("LIFESIM_LOCALE", "ko")

	cfg := LoadConfigWithDefaults()

	if cfg.Database.Host != "envhost" {
		t.Errorf("expected host 'envhost', got %q", cfg.Database.Host)
	}
	if cfg.Database.Port != 5434 {
		t.Errorf("expected port 5434, got %d", cfg.Database.Port)
	}
	if cfg.Database.User != "envuser" {
		t.Errorf("expected user 'envuser', got %q", cfg.Database.User)
	}
	if cfg.Database.Password != "envpass" {
		t.Errorf("expected password 'envpass', got %q", cfg.Database.Password)
	}
	if cfg.Database.DBName != "envdb" {
		t.Errorf("expected dbname 'envdb', got %q", cfg.Database.DBName)
	}
	if cfg.Clock.Speed != 4 {
		t.Errorf("expected speed 4, got %v", cfg.Clock.Speed)
	}
	if cfg.Simulation.Locale != "ko" {
		t.Errorf("expected locale 'ko', got %q", cfg.Simulation.Locale)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(tmpFile, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	_, err := LoadConfig(tmpFile)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "zero max hunger",
			modify:  func(c *Config) { c.Stats.MaxHunger = 0 },
			wantErr: "stats.max_hunger must be > 0",
		},
		{
			name:    "initial above max",
			modify:  func(c *Config) { c.Stats.InitialSleep = 101 },
			wantErr: "stats.initial_sleep must be between 0 and 100",
		},
		{
			name:    "negative decay",
			modify:  func(c *Config) { c.Stats.BaseHungerDecayRate = -1 },
			wantErr: "stats.base_hunger_decay_rate must be >= 0",
		},
		{
			name:    "negative penalty",
			modify:  func(c *Config) { c.Penalties.WillpowerPenaltyRate = -1 },
			wantErr: "penalties.willpower_penalty_rate must be >= 0",
		},
		{
			name:    "zero base rate",
			modify:  func(c *Config) { c.Clock.BaseRate = 0 },
			wantErr: "clock.base_rate must be > 0",
		},
		{
			name:    "start hour out of range",
			modify:  func(c *Config) { c.Clock.StartHour = 24 },
			wantErr: "clock.start_hour must be in [0, 24)",
		},
		{
			name:    "negative speed",
			modify:  func(c *Config) { c.Clock.Speed = -2 },
			wantErr: "clock.speed must be >= 0",
		},
		{
			name:    "duplicate action",
			modify:  func(c *Config) { c.Actions = append(c.Actions, ActionConfig{Name: "eat"}) },
			wantErr: `actions[4]: duplicate action name "eat"`,
		},
		{
			name:    "unnamed action",
			modify:  func(c *Config) { c.Actions[0].Name = "" },
			wantErr: "actions[0]: action name is required",
		},
		{
			name:    "zero fps",
			modify:  func(c *Config) { c.Simulation.FPS = 0 },
			wantErr: "simulation.fps must be >= 1",
		},
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Database.Port = 0 },
			wantErr: "database.port must be between 1 and 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			cfg := LoadConfigWithDefaults()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Errorf("expected error containing %q", tt.wantErr)
				return
			}
			if err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestActionVariable(t *testing.T) {
	for _, a := range DefaultActions() {
		want := a.Name == "sleep"
		if a.Variable() != want {
			t.Errorf("action %q: expected Variable()=%v", a.Name, want)
		}
	}
}

func TestMarshal(t *testing.T) {
	clearEnv(t)

	data, err := LoadConfigWithDefaults().Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "base_hunger_decay_rate: 2") {
		t.Errorf("expected marshalled config to contain decay rate, got:\n%s", data)
	}
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "myhost",
		Port:     5432,
		User:     "myuser",
		Password: "mypass",
		DBName:   "mydb",
		SSLMode:  "require",
	}

	connStr := db.ConnectionString()
	expected := "host=myhost port=5432 user=myuser dbname=mydb password=mypass sslmode=require"
	if connStr != expected {
		t.Errorf("expected %q, got %q", expected, connStr)
	}
}
