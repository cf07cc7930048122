// Package config loads the engine's runtime configuration from YAML:
// default framework, team capacity, and storage backend selection.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sprintdeck/prioritizer/internal/engine"
	"github.com/sprintdeck/prioritizer/internal/storage"
	"github.com/sprintdeck/prioritizer/internal/storage/postgres"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// Config is the runtime configuration for the prioritizer
type Config struct {
	// DefaultFramework is used when an analysis request names none
	DefaultFramework types.Framework `yaml:"default_framework"`

	// TeamCapacityPerQuarter is the assumed per-team capacity used by
	// conflict detection, in the same cost unit as jobSize/effort
	TeamCapacityPerQuarter float64 `yaml:"team_capacity_per_quarter"`

	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	// Backend is "sqlite" (default) or "postgres"
	Backend string `yaml:"backend"`
	// Path is the SQLite database file path
	Path string `yaml:"path"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		DefaultFramework:       types.FrameworkWSJF,
		TeamCapacityPerQuarter: engine.DefaultTeamCapacity,
		Storage: StorageConfig{
			Backend: string(storage.BackendSQLite),
			Path:    ".prioritizer/scores.db",
		},
	}
}

// Load reads a YAML config file, applying defaults for unset fields.
// A missing file is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for invalid values
func (c *Config) Validate() error {
	if c.DefaultFramework != "" && !c.DefaultFramework.IsValid() {
		return fmt.Errorf("invalid default_framework: %q", c.DefaultFramework)
	}
	if c.TeamCapacityPerQuarter < 0 {
		return fmt.Errorf("team_capacity_per_quarter cannot be negative (got %v)", c.TeamCapacityPerQuarter)
	}
	switch storage.Backend(c.Storage.Backend) {
	case storage.BackendSQLite, storage.BackendPostgres, "":
	default:
		return fmt.Errorf("invalid storage backend: %q", c.Storage.Backend)
	}
	return nil
}

// StorageConfig builds the storage.Config for this runtime config
func (c *Config) StorageConfig() *storage.Config {
	out := &storage.Config{
		Backend: storage.Backend(c.Storage.Backend),
		Path:    c.Storage.Path,
	}
	if out.Backend == "" {
		out.Backend = storage.BackendSQLite
	}

	if out.Backend == storage.BackendPostgres {
		pg := postgres.DefaultConfig()
		if c.Storage.Postgres.Host != "" {
			pg.Host = c.Storage.Postgres.Host
		}
		if c.Storage.Postgres.Port != 0 {
			pg.Port = c.Storage.Postgres.Port
		}
		if c.Storage.Postgres.Database != "" {
			pg.Database = c.Storage.Postgres.Database
		}
		if c.Storage.Postgres.User != "" {
			pg.User = c.Storage.Postgres.User
		}
		if c.Storage.Postgres.Password != "" {
			pg.Password = c.Storage.Postgres.Password
		}
		if c.Storage.Postgres.SSLMode != "" {
			pg.SSLMode = c.Storage.Postgres.SSLMode
		}
		out.Postgres = pg
	}
	return out
}
