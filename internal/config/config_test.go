package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.StartingCash != 100000.0 {
		t.Errorf("starting cash = %.2f, want 100000.00", cfg.Trading.StartingCash)
	}
	if cfg.Trading.Commission != 0 {
		t.Errorf("commission = %.2f, want 0", cfg.Trading.Commission)
	}
	if cfg.Risk.MaxPositionSize != 5000.0 {
		t.Errorf("max position size = %.2f, want 5000.00", cfg.Risk.MaxPositionSize)
	}
	if cfg.Risk.MaxDailyLoss != 1000.0 {
		t.Errorf("max daily loss = %.2f, want 1000.00", cfg.Risk.MaxDailyLoss)
	}
	if cfg.Data.RequestTimeout != 5*time.Second {
		t.Errorf("request timeout = %s, want 5s", cfg.Data.RequestTimeout)
	}
	if cfg.Data.UseMock {
		t.Error("use_mock should default to false")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Storage.JournalPath == "" {
		t.Error("journal path should default under the config dir")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[trading]
starting_cash = 250000.0
commission = 4.95

[risk]
max_position_size = 10000.0

[data]
use_mock = true

[storage]
journal_path = "/tmp/custom-journal.db"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.StartingCash != 250000.0 {
		t.Errorf("starting cash = %.2f, want 250000.00", cfg.Trading.StartingCash)
	}
	if cfg.Trading.Commission != 4.95 {
		t.Errorf("commission = %.2f, want 4.95", cfg.Trading.Commission)
	}
	if cfg.Risk.MaxPositionSize != 10000.0 {
		t.Errorf("max position size = %.2f, want 10000.00", cfg.Risk.MaxPositionSize)
	}
	// Unset keys keep their defaults.
	if cfg.Risk.MaxDailyLoss != 1000.0 {
		t.Errorf("max daily loss = %.2f, want default 1000.00", cfg.Risk.MaxDailyLoss)
	}
	if !cfg.Data.UseMock {
		t.Error("use_mock should be true")
	}
	if cfg.Storage.JournalPath != "/tmp/custom-journal.db" {
		t.Errorf("journal path = %s, want /tmp/custom-journal.db", cfg.Storage.JournalPath)
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAPER_STARTING_CASH", "50000")
	t.Setenv("RISK_MAX_POSITION_SIZE", "2500")
	t.Setenv("RISK_MAX_DAILY_LOSS", "500")
	t.Setenv("DATA_REQUEST_TIMEOUT", "10s")
	t.Setenv("USE_MOCK_DATA", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APCA_API_KEY_ID", "test-key")
	t.Setenv("APCA_API_SECRET_KEY", "test-secret")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.StartingCash != 50000.0 {
		t.Errorf("starting cash = %.2f, want 50000.00", cfg.Trading.StartingCash)
	}
	if cfg.Risk.MaxPositionSize != 2500.0 {
		t.Errorf("max position size = %.2f, want 2500.00", cfg.Risk.MaxPositionSize)
	}
	if cfg.Risk.MaxDailyLoss != 500.0 {
		t.Errorf("max daily loss = %.2f, want 500.00", cfg.Risk.MaxDailyLoss)
	}
	if cfg.Data.RequestTimeout != 10*time.Second {
		t.Errorf("request timeout = %s, want 10s", cfg.Data.RequestTimeout)
	}
	if !cfg.Data.UseMock {
		t.Error("use_mock should be true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Alpaca.APIKey != "test-key" || cfg.Alpaca.APISecret != "test-secret" {
		t.Errorf("alpaca credentials not picked up: %+v", cfg.Alpaca)
	}
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv("PAPER_STARTING_CASH", "plenty")
	t.Setenv("DATA_REQUEST_TIMEOUT", "soon")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.StartingCash != 100000.0 {
		t.Errorf("starting cash = %.2f, want default 100000.00", cfg.Trading.StartingCash)
	}
	if cfg.Data.RequestTimeout != 5*time.Second {
		t.Errorf("request timeout = %s, want default 5s", cfg.Data.RequestTimeout)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Trading: TradingConfig{StartingCash: 100000},
			Risk:    RiskConfig{MaxPositionSize: 5000, MaxDailyLoss: 1000},
			Data:    DataConfig{RequestTimeout: 5 * time.Second},
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero starting cash", func(c *Config) { c.Trading.StartingCash = 0 }},
		{"negative commission", func(c *Config) { c.Trading.Commission = -1 }},
		{"zero position size", func(c *Config) { c.Risk.MaxPositionSize = 0 }},
		{"zero daily loss", func(c *Config) { c.Risk.MaxDailyLoss = 0 }},
		{"zero timeout", func(c *Config) { c.Data.RequestTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
