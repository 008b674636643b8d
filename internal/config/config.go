// Package config provides configuration management for the paper trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	apperrors "paper-trader/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Trading TradingConfig `mapstructure:"trading"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Data    DataConfig    `mapstructure:"data"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Alpaca  AlpacaConfig  `mapstructure:"alpaca"`
}

// TradingConfig holds account-level trading configuration.
type TradingConfig struct {
	StartingCash float64 `mapstructure:"starting_cash"`
	Commission   float64 `mapstructure:"commission"`
}

// RiskConfig holds risk management configuration.
type RiskConfig struct {
	MaxPositionSize float64 `mapstructure:"max_position_size"`
	MaxDailyLoss    float64 `mapstructure:"max_daily_loss"`
}

// DataConfig holds market-data configuration.
type DataConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UseMock        bool          `mapstructure:"use_mock"`
}

// StorageConfig holds journal persistence configuration.
type StorageConfig struct {
	JournalPath string `mapstructure:"journal_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// AlpacaConfig holds credentials and endpoints for the Alpaca data API.
type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	DataURL   string `mapstructure:"data_url"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/paper-trader"
	}
	return filepath.Join(home, ".config", "paper-trader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config file is not an error; defaults and environment overrides apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.Storage.JournalPath == "" {
		cfg.Storage.JournalPath = filepath.Join(configDir, "journal.db")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trading.starting_cash", 100000.0)
	v.SetDefault("trading.commission", 0.0)
	v.SetDefault("risk.max_position_size", 5000.0)
	v.SetDefault("risk.max_daily_loss", 1000.0)
	v.SetDefault("data.request_timeout", 5*time.Second)
	v.SetDefault("data.use_mock", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAPER_STARTING_CASH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.StartingCash = f
		}
	}
	if v := os.Getenv("RISK_MAX_POSITION_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.MaxPositionSize = f
		}
	}
	if v := os.Getenv("RISK_MAX_DAILY_LOSS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.MaxDailyLoss = f
		}
	}
	if v := os.Getenv("DATA_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Data.RequestTimeout = d
		}
	}
	if v := os.Getenv("USE_MOCK_DATA"); v != "" {
		cfg.Data.UseMock = v == "1" || v == "true" || v == "TRUE" || v == "yes"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars used by the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Trading.StartingCash <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "starting cash must be positive, got %.2f", c.Trading.StartingCash)
	}
	if c.Trading.Commission < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "commission must be non-negative, got %.2f", c.Trading.Commission)
	}
	if c.Risk.MaxPositionSize <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max position size must be positive, got %.2f", c.Risk.MaxPositionSize)
	}
	if c.Risk.MaxDailyLoss <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max daily loss must be positive, got %.2f", c.Risk.MaxDailyLoss)
	}
	if c.Data.RequestTimeout <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "data request timeout must be positive, got %s", c.Data.RequestTimeout)
	}
	return nil
}
