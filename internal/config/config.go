// Package config loads runtime configuration from an optional YAML
// file with environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/auditkit/ismsp/internal/store"
)

// EnvDBPath overrides the database path when set, regardless of what
// the config file says.
const EnvDBPath = "ISMS_DB_PATH"

// Thresholds are the compliance tier cut-offs as percentages.
type Thresholds struct {
	OK   float64 `yaml:"ok"`
	Warn float64 `yaml:"warn"`
}

// Config is the full runtime configuration.
type Config struct {
	// DBPath is the SQLite database file. Created on first open.
	DBPath string `yaml:"db_path"`

	// Workers bounds the dispatch pool size.
	Workers int `yaml:"workers"`

	// Thresholds set the compliance tiers.
	Thresholds Thresholds `yaml:"thresholds"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DBPath:     "data/isms_p.db",
		Workers:    4,
		Thresholds: Thresholds{OK: 80, Warn: 50},
	}
}

// Load reads the YAML file at path, layered over defaults. An empty
// path skips the file and returns defaults. The ISMS_DB_PATH
// environment variable, when set, wins over both.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if env := os.Getenv(EnvDBPath); env != "" {
		cfg.DBPath = env
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.Thresholds.OK < c.Thresholds.Warn {
		return fmt.Errorf("config: thresholds.ok (%.1f) must be >= thresholds.warn (%.1f)",
			c.Thresholds.OK, c.Thresholds.Warn)
	}
	return nil
}

// StoreThresholds converts the configured cut-offs into the store's
// threshold type.
func (c Config) StoreThresholds() store.Thresholds {
	return store.Thresholds{OK: c.Thresholds.OK, Warn: c.Thresholds.Warn}
}
