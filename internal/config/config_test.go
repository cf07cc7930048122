package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/prioritizer/internal/storage"
	"github.com/sprintdeck/prioritizer/internal/types"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, types.FrameworkWSJF, cfg.DefaultFramework)
	assert.Equal(t, 20.0, cfg.TeamCapacityPerQuarter)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_framework: rice
team_capacity_per_quarter: 35
storage:
  backend: postgres
  postgres:
    host: db.internal
    database: backlog
    user: engine
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, types.FrameworkRICE, cfg.DefaultFramework)
	assert.Equal(t, 35.0, cfg.TeamCapacityPerQuarter)

	sc := cfg.StorageConfig()
	assert.Equal(t, storage.BackendPostgres, sc.Backend)
	require.NotNil(t, sc.Postgres)
	assert.Equal(t, "db.internal", sc.Postgres.Host)
	assert.Equal(t, "backlog", sc.Postgres.Database)
	assert.Equal(t, 5432, sc.Postgres.Port, "unset port falls back to default")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad framework", "default_framework: kano\n"},
		{"negative capacity", "team_capacity_per_quarter: -3\n"},
		{"bad backend", "storage:\n  backend: dynamodb\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestStorageConfigDefaultsToSQLite(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = ""
	sc := cfg.StorageConfig()
	assert.Equal(t, storage.BackendSQLite, sc.Backend)
}
