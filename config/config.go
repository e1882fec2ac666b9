// Package config holds the settings of the opl tool: where the broker
// export lives, how the reconciliation runs, and where ledgers are
// published.
package config

import (
	"fmt"
	"strings"
	"time"

	optionpl "github.com/etnz/optionpl"
)

// Config is the full configuration of the opl tool.
type Config struct {
	// Timezone is the IANA zone used to derive today's date.
	Timezone string `toml:"timezone"`
	// Currency of the broker account.
	Currency string `toml:"currency"`
	LogLevel string `toml:"log_level"`

	Import    ImportConfig    `toml:"import"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Assistant AssistantConfig `toml:"assistant"`
}

// ImportConfig locates the broker export.
type ImportConfig struct {
	Orders      string `toml:"orders"`
	Instruments string `toml:"instruments"`
	// CacheSize bounds the number of instruments kept in memory.
	CacheSize int64 `toml:"cache_size"`
	// JSONPath expressions that read an instrument document.
	KeyPath        string `toml:"key_path"`
	ExpirationPath string `toml:"expiration_path"`
	StrikePath     string `toml:"strike_path"`
	TypePath       string `toml:"type_path"`
	// OnError is "abort" or "skip" an order that cannot be converted.
	OnError string `toml:"on_error"`
}

// ReconcileConfig tunes the lot matching pass.
type ReconcileConfig struct {
	Fills   string `toml:"fills"`
	Workers int    `toml:"workers"`
	// OnError is "abort" or "skip".
	OnError string `toml:"on_error"`
}

// PostgresConfig is the ledger publication target.
type PostgresConfig struct {
	DSN   string `toml:"dsn"`
	Table string `toml:"table"`
}

// AssistantConfig configures the Gemini assistant.
type AssistantConfig struct {
	Model  string `toml:"model"`
	APIKey string `toml:"api_key"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Timezone: "America/Los_Angeles",
		Currency: optionpl.DefaultCurrency,
		LogLevel: "info",
		Import: ImportConfig{
			Orders:         "option_orders.json",
			Instruments:    "option_instruments.json",
			CacheSize:      10000,
			KeyPath:        optionpl.DefaultInstrumentPaths.Key,
			ExpirationPath: optionpl.DefaultInstrumentPaths.Expiration,
			StrikePath:     optionpl.DefaultInstrumentPaths.Strike,
			TypePath:       optionpl.DefaultInstrumentPaths.Type,
			OnError:        optionpl.AbortRun.String(),
		},
		Reconcile: ReconcileConfig{
			Fills:   "fills.jsonl",
			Workers: 4,
			OnError: optionpl.AbortRun.String(),
		},
		Postgres: PostgresConfig{
			Table: "option_ledger",
		},
		Assistant: AssistantConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the config and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("unknown timezone %q: %v", c.Timezone, err))
	}
	if c.Currency == "" {
		errs = append(errs, "currency must not be empty")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if c.Import.CacheSize <= 0 {
		errs = append(errs, "import: cache_size must be > 0")
	}
	for name, path := range map[string]string{
		"key_path":        c.Import.KeyPath,
		"expiration_path": c.Import.ExpirationPath,
		"strike_path":     c.Import.StrikePath,
		"type_path":       c.Import.TypePath,
	} {
		if !strings.HasPrefix(path, "$") {
			errs = append(errs, fmt.Sprintf("import: %s must be a JSONPath starting with $, got %q", name, path))
		}
	}
	if _, err := optionpl.ParseErrorPolicy(c.Import.OnError); err != nil {
		errs = append(errs, "import: on_error must be abort or skip")
	}
	if c.Reconcile.Workers < 1 {
		errs = append(errs, fmt.Sprintf("reconcile: workers must be >= 1, got %d", c.Reconcile.Workers))
	}
	if _, err := optionpl.ParseErrorPolicy(c.Reconcile.OnError); err != nil {
		errs = append(errs, "reconcile: on_error must be abort or skip")
	}
	if c.Postgres.Table == "" {
		errs = append(errs, "postgres: table must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// InstrumentPaths returns the JSONPath expressions of instrument documents.
func (c *Config) InstrumentPaths() optionpl.InstrumentPaths {
	return optionpl.InstrumentPaths{
		Key:        c.Import.KeyPath,
		Expiration: c.Import.ExpirationPath,
		Strike:     c.Import.StrikePath,
		Type:       c.Import.TypePath,
	}
}

// ImportPolicy returns what to do with orders that cannot be converted.
// The config must be valid.
func (c *Config) ImportPolicy() optionpl.ErrorPolicy {
	policy, _ := optionpl.ParseErrorPolicy(c.Import.OnError)
	return policy
}

// Options returns the reconciliation options. The config must be valid.
func (c *Config) Options() *optionpl.Options {
	policy, _ := optionpl.ParseErrorPolicy(c.Reconcile.OnError)
	return &optionpl.Options{
		Workers: c.Reconcile.Workers,
		OnError: policy,
	}
}
