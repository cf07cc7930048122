package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sprintdeck/prioritizer/internal/types"
)

// UpsertAutomaticScore writes a computed score record. The write is
// atomic on (org, story, framework); last writer wins for computed
// fields. Override-protected fields are never touched: each one the
// record tried to set comes back as an OverrideConflict so the run can
// record it as a diagnostic instead of failing.
//
// Automatic and manual writes are two distinct paths on purpose, so the
// protection invariant is structural rather than convention-based.
func (s *SQLiteStorage) UpsertAutomaticScore(ctx context.Context, orgID string, record *types.ScoreRecord) ([]types.OverrideConflict, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var isManual bool
	var manualFieldsJSON string
	err = tx.QueryRowContext(ctx, `
		SELECT is_manual_override, manual_fields FROM score_records
		WHERE org_id = ? AND story_id = ? AND framework = ?
	`, orgID, record.StoryID, record.Framework).Scan(&isManual, &manualFieldsJSON)

	if err == sql.ErrNoRows {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO score_records (
				org_id, story_id, framework, project_id, score, category, rank,
				unscoreable, unscoreable_reason, heuristic_derived,
				is_manual_override, manual_fields, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '[]', ?, ?)
		`, orgID, record.StoryID, record.Framework, record.ProjectID,
			nullFloat(record.Score), nullCategory(record.Category), record.Rank,
			record.Unscoreable, record.UnscoreableReason, record.HeuristicDerived,
			now, now)
		if err != nil {
			// A concurrent run may have inserted the row between our read
			// and write. Retry once as an update.
			if isUniqueConstraintError(err) {
				return s.UpsertAutomaticScore(ctx, orgID, record)
			}
			return nil, fmt.Errorf("failed to insert score record for %s/%s: %w", record.StoryID, record.Framework, err)
		}
		return nil, tx.Commit()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read score record for %s/%s: %w", record.StoryID, record.Framework, err)
	}

	var manualFields []string
	if isManual {
		if err := json.Unmarshal([]byte(manualFieldsJSON), &manualFields); err != nil {
			return nil, fmt.Errorf("failed to parse manual fields for %s/%s: %w", record.StoryID, record.Framework, err)
		}
	}
	protected := make(map[string]bool, len(manualFields))
	for _, f := range manualFields {
		protected[f] = true
	}

	var conflicts []types.OverrideConflict
	conflict := func(field string) types.OverrideConflict {
		return types.OverrideConflict{StoryID: record.StoryID, Framework: record.Framework, Field: field}
	}

	// Build the column list dynamically: protected columns stay untouched.
	query := `UPDATE score_records SET project_id = ?, rank = ?, unscoreable = ?, unscoreable_reason = ?, heuristic_derived = ?, updated_at = ?`
	args := []interface{}{record.ProjectID, record.Rank, record.Unscoreable, record.UnscoreableReason, record.HeuristicDerived, now}

	if protected["score"] {
		if record.Score != nil {
			conflicts = append(conflicts, conflict("score"))
		}
	} else {
		query += `, score = ?`
		args = append(args, nullFloat(record.Score))
	}
	if protected["category"] {
		if record.Category != nil {
			conflicts = append(conflicts, conflict("category"))
		}
	} else {
		query += `, category = ?`
		args = append(args, nullCategory(record.Category))
	}

	query += ` WHERE org_id = ? AND story_id = ? AND framework = ?`
	args = append(args, orgID, record.StoryID, record.Framework)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update score record for %s/%s: %w", record.StoryID, record.Framework, err)
	}
	return conflicts, tx.Commit()
}

// UpsertManualScore writes an explicit human score. It always sets the
// override-protection flag and adds the written fields to the protected
// set, so later automatic recomputes leave them alone.
func (s *SQLiteStorage) UpsertManualScore(ctx context.Context, orgID, storyID string, framework types.Framework, fields types.ManualScoreFields) error {
	if !framework.IsValid() {
		return fmt.Errorf("unknown framework: %q", framework)
	}
	newFields := fields.FieldNames()
	if len(newFields) == 0 {
		return fmt.Errorf("manual score write for %s/%s sets no fields", storyID, framework)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var manualFieldsJSON string
	err = tx.QueryRowContext(ctx, `
		SELECT manual_fields FROM score_records
		WHERE org_id = ? AND story_id = ? AND framework = ?
	`, orgID, storyID, framework).Scan(&manualFieldsJSON)

	if err == sql.ErrNoRows {
		fieldsJSON, merr := json.Marshal(newFields)
		if merr != nil {
			return fmt.Errorf("failed to marshal manual fields: %w", merr)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO score_records (
				org_id, story_id, framework, score, category,
				is_manual_override, manual_fields, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
		`, orgID, storyID, framework,
			nullFloat(fields.Score), nullCategory(fields.Category),
			string(fieldsJSON), now, now)
		if err != nil {
			if isUniqueConstraintError(err) {
				return s.UpsertManualScore(ctx, orgID, storyID, framework, fields)
			}
			return fmt.Errorf("failed to insert manual score for %s/%s: %w", storyID, framework, err)
		}
		return tx.Commit()
	}
	if err != nil {
		return fmt.Errorf("failed to read score record for %s/%s: %w", storyID, framework, err)
	}

	var existing []string
	if err := json.Unmarshal([]byte(manualFieldsJSON), &existing); err != nil {
		return fmt.Errorf("failed to parse manual fields for %s/%s: %w", storyID, framework, err)
	}
	merged := mergeFields(existing, newFields)
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal manual fields: %w", err)
	}

	query := `UPDATE score_records SET is_manual_override = 1, manual_fields = ?, updated_at = ?`
	args := []interface{}{string(mergedJSON), now}
	if fields.Score != nil {
		query += `, score = ?`
		args = append(args, *fields.Score)
	}
	if fields.Category != nil {
		query += `, category = ?`
		args = append(args, string(*fields.Category))
	}
	query += ` WHERE org_id = ? AND story_id = ? AND framework = ?`
	args = append(args, orgID, storyID, framework)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update manual score for %s/%s: %w", storyID, framework, err)
	}
	return tx.Commit()
}

// GetStoryScores returns all score records for one story across
// frameworks, ordered by framework for stable output.
func (s *SQLiteStorage) GetStoryScores(ctx context.Context, orgID, storyID string) ([]*types.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT story_id, framework, project_id, score, category, rank,
		       unscoreable, unscoreable_reason, heuristic_derived,
		       is_manual_override, manual_fields, created_at, updated_at
		FROM score_records
		WHERE org_id = ? AND story_id = ?
		ORDER BY framework ASC
	`, orgID, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores for story %s: %w", storyID, err)
	}
	defer rows.Close()

	var out []*types.ScoreRecord
	for rows.Next() {
		rec, err := scanScoreRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanScoreRecord(rows *sql.Rows) (*types.ScoreRecord, error) {
	var rec types.ScoreRecord
	var score sql.NullFloat64
	var category sql.NullString
	var manualFieldsJSON string

	err := rows.Scan(
		&rec.StoryID, &rec.Framework, &rec.ProjectID, &score, &category, &rec.Rank,
		&rec.Unscoreable, &rec.UnscoreableReason, &rec.HeuristicDerived,
		&rec.IsManualOverride, &manualFieldsJSON, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan score record: %w", err)
	}

	if score.Valid {
		rec.Score = &score.Float64
	}
	if category.Valid && category.String != "" {
		cat := types.MoscowCategory(category.String)
		rec.Category = &cat
	}
	if err := json.Unmarshal([]byte(manualFieldsJSON), &rec.ManualFields); err != nil {
		return nil, fmt.Errorf("failed to parse manual fields for %s: %w", rec.StoryID, err)
	}
	if len(rec.ManualFields) == 0 {
		rec.ManualFields = nil
	}
	return &rec, nil
}

func mergeFields(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(added))
	for _, f := range existing {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	for _, f := range added {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	return merged
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullCategory(v *types.MoscowCategory) interface{} {
	if v == nil {
		return nil
	}
	return string(*v)
}
