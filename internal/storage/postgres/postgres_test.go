package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/prioritizer/internal/types"
)

// getTestConfig returns a config for testing based on environment variables
func getTestConfig() *Config {
	cfg := DefaultConfig()

	if host := os.Getenv("PRIORITIZER_TEST_PG_HOST"); host != "" {
		cfg.Host = host
	}
	if db := os.Getenv("PRIORITIZER_TEST_PG_DATABASE"); db != "" {
		cfg.Database = db
	}
	if user := os.Getenv("PRIORITIZER_TEST_PG_USER"); user != "" {
		cfg.User = user
	}
	if pass := os.Getenv("PRIORITIZER_TEST_PG_PASSWORD"); pass != "" {
		cfg.Password = pass
	}

	return cfg
}

// setupTestStorage creates a test storage and cleans up the database
func setupTestStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	ctx := context.Background()

	storage, err := New(ctx, getTestConfig())
	if err != nil {
		t.Skipf("Skipping PostgreSQL test (database not available): %v", err)
	}

	_, err = storage.pool.Exec(ctx, `
		TRUNCATE TABLE score_records, analysis_reports, manual_overrides, story_signals CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean up test database: %v", err)
	}

	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func f(v float64) *float64 { return &v }

func TestUpsertAutomaticScoreIdempotent(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	rec := &types.ScoreRecord{StoryID: "story-1", Framework: types.FrameworkWSJF, Score: f(4.0), Rank: 1}
	conflicts, err := storage.UpsertAutomaticScore(ctx, "org-1", rec)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	rec.Score = f(4.25)
	rec.Rank = 2
	conflicts, err = storage.UpsertAutomaticScore(ctx, "org-1", rec)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	scores, err := storage.GetStoryScores(ctx, "org-1", "story-1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.NotNil(t, scores[0].Score)
	assert.Equal(t, 4.25, *scores[0].Score)
}

func TestManualOverrideProtection(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	err := storage.UpsertManualScore(ctx, "org-1", "story-1", types.FrameworkWSJF, types.ManualScoreFields{Score: f(9.5)})
	require.NoError(t, err)

	conflicts, err := storage.UpsertAutomaticScore(ctx, "org-1",
		&types.ScoreRecord{StoryID: "story-1", Framework: types.FrameworkWSJF, Score: f(2.0), Rank: 5})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "score", conflicts[0].Field)

	scores, err := storage.GetStoryScores(ctx, "org-1", "story-1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.NotNil(t, scores[0].Score)
	assert.Equal(t, 9.5, *scores[0].Score)
	assert.Equal(t, 5, scores[0].Rank)
	assert.True(t, scores[0].IsManualOverride)
}

func TestReportImmutability(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	report := &types.AnalysisReport{
		ReportID:       "rpt-1",
		OrganizationID: "org-1",
		ProjectID:      "proj-1",
		Config:         types.AnalysisConfig{Framework: types.FrameworkRICE},
	}
	require.NoError(t, storage.SaveReport(ctx, report))
	assert.Error(t, storage.SaveReport(ctx, report), "same report id cannot be written twice")

	got, err := storage.GetReport(ctx, "org-1", "rpt-1")
	require.NoError(t, err)
	assert.Equal(t, types.FrameworkRICE, got.Config.Framework)
}
