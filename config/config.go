// Package config loads the folio configuration file.
//
// The file is YAML. Absent keys take their default value, and a few keys can
// be overridden from the environment, optionally populated from a .env file
// sitting next to the configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Ledger backends.
const (
	LedgerJSONL = "jsonl"
	LedgerWAL   = "wal"
)

// Price backends.
const (
	PricesCSV    = "csv"
	PricesSQLite = "sqlite"
)

// Config is the folio configuration.
type Config struct {
	DataDir      string             `yaml:"data_dir"`
	Currency     string             `yaml:"currency"`
	Ledger       LedgerConfig       `yaml:"ledger"`
	Prices       PricesConfig       `yaml:"prices"`
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage"`
	Refresh      RefreshConfig      `yaml:"refresh"`
	Log          LogConfig          `yaml:"log"`
}

// LedgerConfig selects where portfolio records are persisted.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // jsonl or wal
	Path    string `yaml:"path"`    // file for jsonl, directory for wal
}

// PricesConfig selects where daily closes are stored.
type PricesConfig struct {
	Backend string `yaml:"backend"` // csv or sqlite
	Path    string `yaml:"path"`    // folder for csv, database file for sqlite
}

type AlphaVantageConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxRetries int    `yaml:"max_retries"`
}

type RefreshConfig struct {
	Schedule string `yaml:"schedule"` // standard 5 fields cron spec
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
		// the .env file never overrides variables already set
		_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := []struct {
		env string
		dst *string
	}{
		{"STOCKFOLIO_DATA_DIR", &c.DataDir},
		{"STOCKFOLIO_CURRENCY", &c.Currency},
		{"STOCKFOLIO_LEDGER_BACKEND", &c.Ledger.Backend},
		{"STOCKFOLIO_PRICES_BACKEND", &c.Prices.Backend},
		{"STOCKFOLIO_LOG_LEVEL", &c.Log.Level},
		{"STOCKFOLIO_REFRESH_SCHEDULE", &c.Refresh.Schedule},
		{"ALPHAVANTAGE_API_KEY", &c.AlphaVantage.APIKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("STOCKFOLIO_LOG_DEVELOPMENT"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STOCKFOLIO_LOG_DEVELOPMENT: %w", err)
		}
		c.Log.Development = dev
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = ".folio"
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = LedgerJSONL
	}
	if c.Ledger.Path == "" {
		if c.Ledger.Backend == LedgerWAL {
			c.Ledger.Path = filepath.Join(c.DataDir, "ledger")
		} else {
			c.Ledger.Path = filepath.Join(c.DataDir, "ledger.jsonl")
		}
	}
	if c.Prices.Backend == "" {
		c.Prices.Backend = PricesCSV
	}
	if c.Prices.Path == "" {
		if c.Prices.Backend == PricesSQLite {
			c.Prices.Path = filepath.Join(c.DataDir, "prices.db")
		} else {
			c.Prices.Path = filepath.Join(c.DataDir, "stocks")
		}
	}
	if c.AlphaVantage.MaxRetries == 0 {
		c.AlphaVantage.MaxRetries = 3
	}
	if c.Refresh.Schedule == "" {
		c.Refresh.Schedule = "30 22 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// CacheDir is the folder for cached provider answers.
func (c *Config) CacheDir() string { return filepath.Join(c.DataDir, "cache") }

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case LedgerJSONL, LedgerWAL:
	default:
		return fmt.Errorf("unknown ledger backend %q (want %s or %s)", c.Ledger.Backend, LedgerJSONL, LedgerWAL)
	}
	switch c.Prices.Backend {
	case PricesCSV, PricesSQLite:
	default:
		return fmt.Errorf("unknown prices backend %q (want %s or %s)", c.Prices.Backend, PricesCSV, PricesSQLite)
	}
	if c.Currency == "" {
		return errors.New("currency is required")
	}
	if c.AlphaVantage.MaxRetries < 0 {
		return fmt.Errorf("alphavantage.max_retries must not be negative, got %d", c.AlphaVantage.MaxRetries)
	}
	if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.Refresh.Schedule, err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
