package config

import (
	"os"
	"path/filepath"
	"testing"

	optionpl "github.com/etnz/optionpl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if _, err := cfg.Location(); err != nil {
		t.Skipf("no time zone database: %v", err)
	}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "America/Los_Angeles", cfg.Timezone)
	assert.Equal(t, optionpl.DefaultInstrumentPaths, cfg.InstrumentPaths())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
timezone = "UTC"
log_level = "debug"

[import]
orders = "export/orders.json"
strike_path = "$.contract.strike"
on_error = "skip"

[reconcile]
workers = 8
on_error = "skip"

[postgres]
dsn = "postgres://localhost/opl?sslmode=disable"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "export/orders.json", cfg.Import.Orders)
	assert.Equal(t, "$.contract.strike", cfg.InstrumentPaths().Strike)
	assert.Equal(t, optionpl.SkipInstrument, cfg.ImportPolicy())
	// untouched values keep their defaults
	assert.Equal(t, "option_instruments.json", cfg.Import.Instruments)
	assert.Equal(t, "$.expiration_date", cfg.InstrumentPaths().Expiration)
	assert.Equal(t, "option_ledger", cfg.Postgres.Table)

	opts := cfg.Options()
	assert.Equal(t, 8, opts.Workers)
	assert.Equal(t, optionpl.SkipInstrument, opts.OnError)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Import, cfg.Import)
	assert.Equal(t, optionpl.AbortRun, cfg.ImportPolicy())

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPL_TIMEZONE", "Europe/Paris")
	t.Setenv("OPL_RECONCILE_WORKERS", "2")
	t.Setenv("OPL_IMPORT_CACHE_SIZE", "50")
	t.Setenv("OPL_POSTGRES_DSN", "postgres://db/opl")
	t.Setenv("OPL_RECONCILE_ON_ERROR", "skip")
	t.Setenv("OPL_IMPORT_ON_ERROR", "skip")

	path := writeFile(t, `
timezone = "UTC"
[reconcile]
workers = 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Paris", cfg.Timezone)
	assert.Equal(t, 2, cfg.Reconcile.Workers)
	assert.Equal(t, int64(50), cfg.Import.CacheSize)
	assert.Equal(t, "postgres://db/opl", cfg.Postgres.DSN)
	assert.Equal(t, "skip", cfg.Reconcile.OnError)
	assert.Equal(t, "skip", cfg.Import.OnError)

	// unparsable numbers are ignored
	t.Setenv("OPL_RECONCILE_WORKERS", "many")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Reconcile.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "unknown log_level"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "unknown timezone"},
		{"no currency", func(c *Config) { c.Currency = "" }, "currency must not be empty"},
		{"no workers", func(c *Config) { c.Reconcile.Workers = 0 }, "workers must be >= 1"},
		{"bad policy", func(c *Config) { c.Reconcile.OnError = "retry" }, "on_error must be abort or skip"},
		{"bad import policy", func(c *Config) { c.Import.OnError = "ignore" }, "import: on_error must be abort or skip"},
		{"bad path", func(c *Config) { c.Import.TypePath = "type" }, "type_path must be a JSONPath"},
		{"no cache", func(c *Config) { c.Import.CacheSize = 0 }, "cache_size must be > 0"},
		{"no table", func(c *Config) { c.Postgres.Table = "" }, "table must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Timezone = "UTC"
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Defaults()

	logger, err := cfg.NewLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "debug must be disabled at info level")

	logger, err = cfg.NewLogger(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "verbose enables debug")

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger(false)
	assert.Error(t, err)
}
