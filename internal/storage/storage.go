package storage

import (
	"context"
	"fmt"

	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/storage/postgres"
	"github.com/sprintdeck/prioritizer/internal/storage/sqlite"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// Storage defines the persistence interface for the prioritization engine.
// Every call carries an explicit organizationId; there is no ambient
// organization context.
type Storage interface {
	// Story signal rows - the key-value-like store the engine reads
	// candidates from. Writing rows is collaborator territory (ingestion,
	// estimators); the engine only reads, the CLI imports for seeding.
	SaveStorySignals(ctx context.Context, orgID string, row *signals.RawStorySignals) error
	LoadStoryCandidates(ctx context.Context, orgID, projectID string) ([]signals.RawStorySignals, error)

	// Manual overrides, keyed (org, project, story, framework)
	SaveManualOverride(ctx context.Context, orgID, projectID, storyID string, framework types.Framework, override *signals.ManualOverride) error
	LoadManualOverrides(ctx context.Context, orgID, projectID string, framework types.Framework) (map[string]*signals.ManualOverride, error)

	// Score records, unique per (org, story, framework).
	// The automatic path never touches override-protected fields; each
	// skipped field comes back as an OverrideConflict for the run's
	// diagnostics. The manual path always sets the protection flag.
	UpsertAutomaticScore(ctx context.Context, orgID string, record *types.ScoreRecord) ([]types.OverrideConflict, error)
	UpsertManualScore(ctx context.Context, orgID, storyID string, framework types.Framework, fields types.ManualScoreFields) error
	GetStoryScores(ctx context.Context, orgID, storyID string) ([]*types.ScoreRecord, error)

	// Analysis reports: create once, read many
	SaveReport(ctx context.Context, report *types.AnalysisReport) error
	GetReport(ctx context.Context, orgID, reportID string) (*types.AnalysisReport, error)

	// Lifecycle
	Close() error
}

// Backend selects a storage implementation
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Config holds storage configuration
type Config struct {
	// Backend selects sqlite (default) or postgres
	Backend Backend
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
	// Postgres holds connection settings when Backend is postgres
	Postgres *postgres.Config
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendSQLite,
		Path:    ".prioritizer/scores.db",
	}
}

// NewStorage creates a storage backend from config
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case BackendPostgres:
		return postgres.New(ctx, cfg.Postgres)
	case BackendSQLite, "":
		path := cfg.Path
		if path == "" {
			path = ".prioritizer/scores.db"
		}
		return sqlite.New(path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}
