package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"STOCKFOLIO_DATA_DIR",
	"STOCKFOLIO_CURRENCY",
	"STOCKFOLIO_LEDGER_BACKEND",
	"STOCKFOLIO_PRICES_BACKEND",
	"STOCKFOLIO_LOG_LEVEL",
	"STOCKFOLIO_LOG_DEVELOPMENT",
	"STOCKFOLIO_REFRESH_SCHEDULE",
	"ALPHAVANTAGE_API_KEY",
}

// clearEnv unsets every overriding variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ".folio", cfg.DataDir)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, LedgerJSONL, cfg.Ledger.Backend)
	assert.Equal(t, filepath.Join(".folio", "ledger.jsonl"), cfg.Ledger.Path)
	assert.Equal(t, PricesCSV, cfg.Prices.Backend)
	assert.Equal(t, filepath.Join(".folio", "stocks"), cfg.Prices.Path)
	assert.Equal(t, 3, cfg.AlphaVantage.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(".folio", "cache"), cfg.CacheDir())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "folio.yaml")
	writeFile(t, path, `
data_dir: /var/folio
currency: EUR
ledger:
  backend: wal
prices:
  backend: sqlite
  path: /tmp/prices.db
alphavantage:
  api_key: secret
  max_retries: 5
refresh:
  schedule: "0 18 * * *"
log:
  level: debug
  development: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, LedgerWAL, cfg.Ledger.Backend)
	assert.Equal(t, filepath.Join("/var/folio", "ledger"), cfg.Ledger.Path)
	assert.Equal(t, "/tmp/prices.db", cfg.Prices.Path)
	assert.Equal(t, "secret", cfg.AlphaVantage.APIKey)
	assert.Equal(t, 5, cfg.AlphaVantage.MaxRetries)
	assert.Equal(t, "0 18 * * *", cfg.Refresh.Schedule)
	assert.True(t, cfg.Log.Development)

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1), "debug should be enabled")
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	writeFile(t, path, "currency: EUR\nprices:\n  backend: csv\n")
	writeFile(t, filepath.Join(dir, ".env"), "ALPHAVANTAGE_API_KEY=from-dotenv\nSTOCKFOLIO_CURRENCY=JPY\n")
	t.Setenv("STOCKFOLIO_CURRENCY", "GBP")
	t.Setenv("STOCKFOLIO_PRICES_BACKEND", "sqlite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cfg.Currency, "process environment wins over .env")
	assert.Equal(t, "from-dotenv", cfg.AlphaVantage.APIKey)
	assert.Equal(t, PricesSQLite, cfg.Prices.Backend)
}

func TestLoad_Malformed(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "folio.yaml")
	writeFile(t, path, "ledger: [not, a, map]\n")
	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("STOCKFOLIO_LOG_DEVELOPMENT", "maybe")
	_, err = Load("")
	assert.ErrorContains(t, err, "STOCKFOLIO_LOG_DEVELOPMENT")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"ledger backend", func(c *Config) { c.Ledger.Backend = "s3" }, "unknown ledger backend"},
		{"prices backend", func(c *Config) { c.Prices.Backend = "redis" }, "unknown prices backend"},
		{"currency", func(c *Config) { c.Currency = "" }, "currency is required"},
		{"retries", func(c *Config) { c.AlphaVantage.MaxRetries = -1 }, "max_retries"},
		{"schedule", func(c *Config) { c.Refresh.Schedule = "every day" }, "invalid refresh schedule"},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
