package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// SaveStorySignals upserts one raw story signal row. The payload is
// stored as JSON: story storage is key-value territory, not the engine's
// relational model.
func (s *SQLiteStorage) SaveStorySignals(ctx context.Context, orgID string, row *signals.RawStorySignals) error {
	if orgID == "" {
		return fmt.Errorf("organization id is required")
	}
	if row.StoryID == "" {
		return fmt.Errorf("story id is required")
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal story signals for %s: %w", row.StoryID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO story_signals (org_id, project_id, story_id, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (org_id, story_id) DO UPDATE SET
			project_id = excluded.project_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, orgID, row.ProjectID, row.StoryID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save story signals for %s: %w", row.StoryID, err)
	}
	return nil
}

// LoadStoryCandidates returns the raw signal rows for one project,
// ordered by story id so analysis input order is stable.
func (s *SQLiteStorage) LoadStoryCandidates(ctx context.Context, orgID, projectID string) ([]signals.RawStorySignals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM story_signals
		WHERE org_id = ? AND project_id = ?
		ORDER BY story_id ASC
	`, orgID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story candidates for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []signals.RawStorySignals
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		var raw signals.RawStorySignals
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal story row: %w", err)
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

// SaveManualOverride upserts the manual override row for one story and
// framework.
func (s *SQLiteStorage) SaveManualOverride(ctx context.Context, orgID, projectID, storyID string, framework types.Framework, override *signals.ManualOverride) error {
	if !framework.IsValid() {
		return fmt.Errorf("unknown framework: %q", framework)
	}
	payload, err := json.Marshal(override)
	if err != nil {
		return fmt.Errorf("failed to marshal override for %s: %w", storyID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO manual_overrides (org_id, project_id, story_id, framework, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id, story_id, framework) DO UPDATE SET
			project_id = excluded.project_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, orgID, projectID, storyID, framework, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save override for %s/%s: %w", storyID, framework, err)
	}
	return nil
}

// LoadManualOverrides returns the overrides for one project and
// framework, keyed by story id.
func (s *SQLiteStorage) LoadManualOverrides(ctx context.Context, orgID, projectID string, framework types.Framework) (map[string]*signals.ManualOverride, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT story_id, payload FROM manual_overrides
		WHERE org_id = ? AND project_id = ? AND framework = ?
	`, orgID, projectID, framework)
	if err != nil {
		if err == sql.ErrNoRows {
			return map[string]*signals.ManualOverride{}, nil
		}
		return nil, fmt.Errorf("failed to load overrides for project %s: %w", projectID, err)
	}
	defer rows.Close()

	out := make(map[string]*signals.ManualOverride)
	for rows.Next() {
		var storyID, payload string
		if err := rows.Scan(&storyID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		var ov signals.ManualOverride
		if err := json.Unmarshal([]byte(payload), &ov); err != nil {
			return nil, fmt.Errorf("failed to unmarshal override for %s: %w", storyID, err)
		}
		out[storyID] = &ov
	}
	return out, rows.Err()
}
