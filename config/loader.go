package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies OPL_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned
// Config has NOT been validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads OPL_* environment variables and overwrites the
// corresponding fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Timezone, "OPL_TIMEZONE")
	setStr(&cfg.Currency, "OPL_CURRENCY")
	setStr(&cfg.LogLevel, "OPL_LOG_LEVEL")

	setStr(&cfg.Import.Orders, "OPL_IMPORT_ORDERS")
	setStr(&cfg.Import.Instruments, "OPL_IMPORT_INSTRUMENTS")
	setInt64(&cfg.Import.CacheSize, "OPL_IMPORT_CACHE_SIZE")
	setStr(&cfg.Import.OnError, "OPL_IMPORT_ON_ERROR")

	setStr(&cfg.Reconcile.Fills, "OPL_RECONCILE_FILLS")
	setInt(&cfg.Reconcile.Workers, "OPL_RECONCILE_WORKERS")
	setStr(&cfg.Reconcile.OnError, "OPL_RECONCILE_ON_ERROR")

	setStr(&cfg.Postgres.DSN, "OPL_POSTGRES_DSN")
	setStr(&cfg.Postgres.Table, "OPL_POSTGRES_TABLE")

	setStr(&cfg.Assistant.Model, "OPL_ASSISTANT_MODEL")
	setStr(&cfg.Assistant.APIKey, "OPL_ASSISTANT_API_KEY")
	setStr(&cfg.Assistant.APIKey, "GEMINI_API_KEY")
}

// Each helper only mutates the target when the variable is present and
// non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
