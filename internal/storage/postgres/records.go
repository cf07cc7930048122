package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// SaveStorySignals upserts one raw story signal row
func (s *PostgresStorage) SaveStorySignals(ctx context.Context, orgID string, row *signals.RawStorySignals) error {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO story_signals (org_id, project_id, story_id, payload, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (org_id, story_id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			payload = EXCLUDED.payload,
			updated_at = now()
	`, orgID, row.ProjectID, row.StoryID, payload)
	if err != nil {
		return fmt.Errorf("failed to save story signals for %s: %w", row.StoryID, err)
	}
	return nil
}

// LoadStoryCandidates returns the raw signal rows for one project,
// ordered by story id so analysis input order is stable
func (s *PostgresStorage) LoadStoryCandidates(ctx context.Context, orgID, projectID string) ([]signals.RawStorySignals, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM story_signals
		WHERE org_id = $1 AND project_id = $2
		ORDER BY story_id ASC
	`, orgID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story candidates for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []signals.RawStorySignals
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		var raw signals.RawStorySignals
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal story row: %w", err)
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

// SaveManualOverride upserts the manual override row for one story and framework
func (s *PostgresStorage) SaveManualOverride(ctx context.Context, orgID, projectID, storyID string, framework types.Framework, override *signals.ManualOverride) error {
	if !framework.IsValid() {
		return fmt.Errorf("unknown framework: %q", framework)
	}
	payload, err := json.Marshal(override)
	if err != nil {
		return fmt.Errorf("failed to marshal override for %s: %w", storyID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO manual_overrides (org_id, project_id, story_id, framework, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (org_id, story_id, framework) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			payload = EXCLUDED.payload,
			updated_at = now()
	`, orgID, projectID, storyID, framework, payload)
	if err != nil {
		return fmt.Errorf("failed to save override for %s/%s: %w", storyID, framework, err)
	}
	return nil
}

// LoadManualOverrides returns the overrides for one project and
// framework, keyed by story id
func (s *PostgresStorage) LoadManualOverrides(ctx context.Context, orgID, projectID string, framework types.Framework) (map[string]*signals.ManualOverride, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT story_id, payload FROM manual_overrides
		WHERE org_id = $1 AND project_id = $2 AND framework = $3
	`, orgID, projectID, framework)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides for project %s: %w", projectID, err)
	}
	defer rows.Close()

	out := make(map[string]*signals.ManualOverride)
	for rows.Next() {
		var storyID string
		var payload []byte
		if err := rows.Scan(&storyID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		var ov signals.ManualOverride
		if err := json.Unmarshal(payload, &ov); err != nil {
			return nil, fmt.Errorf("failed to unmarshal override for %s: %w", storyID, err)
		}
		out[storyID] = &ov
	}
	return out, rows.Err()
}

// UpsertAutomaticScore writes a computed score record. The existing row
// is locked for the duration of the transaction so concurrent recomputes
// serialize on the (org, story, framework) key. Override-protected
// fields are skipped and reported, never overwritten.
func (s *PostgresStorage) UpsertAutomaticScore(ctx context.Context, orgID string, record *types.ScoreRecord) ([]types.OverrideConflict, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var isManual bool
	var manualFields []string
	err = tx.QueryRow(ctx, `
		SELECT is_manual_override, manual_fields FROM score_records
		WHERE org_id = $1 AND story_id = $2 AND framework = $3
		FOR UPDATE
	`, orgID, record.StoryID, record.Framework).Scan(&isManual, &manualFields)

	now := time.Now().UTC()

	if errors.Is(err, pgx.ErrNoRows) {
		// INSERT ... ON CONFLICT DO NOTHING covers the race with a
		// concurrent first writer; zero rows means retry as an update.
		tag, ierr := tx.Exec(ctx, `
			INSERT INTO score_records (
				org_id, story_id, framework, project_id, score, category, rank,
				unscoreable, unscoreable_reason, heuristic_derived,
				is_manual_override, manual_fields, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, '[]', $11, $11)
			ON CONFLICT (org_id, story_id, framework) DO NOTHING
		`, orgID, record.StoryID, record.Framework, record.ProjectID,
			record.Score, categoryArg(record.Category), record.Rank,
			record.Unscoreable, record.UnscoreableReason, record.HeuristicDerived, now)
		if ierr != nil {
			return nil, fmt.Errorf("failed to insert score record for %s/%s: %w", record.StoryID, record.Framework, ierr)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit score record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return s.UpsertAutomaticScore(ctx, orgID, record)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read score record for %s/%s: %w", record.StoryID, record.Framework, err)
	}

	protected := make(map[string]bool, len(manualFields))
	if isManual {
		for _, f := range manualFields {
			protected[f] = true
		}
	}

	var conflicts []types.OverrideConflict
	query := `UPDATE score_records SET project_id = $1, rank = $2, unscoreable = $3, unscoreable_reason = $4, heuristic_derived = $5, updated_at = $6`
	args := []interface{}{record.ProjectID, record.Rank, record.Unscoreable, record.UnscoreableReason, record.HeuristicDerived, now}

	if protected["score"] {
		if record.Score != nil {
			conflicts = append(conflicts, types.OverrideConflict{StoryID: record.StoryID, Framework: record.Framework, Field: "score"})
		}
	} else {
		args = append(args, record.Score)
		query += fmt.Sprintf(", score = $%d", len(args))
	}
	if protected["category"] {
		if record.Category != nil {
			conflicts = append(conflicts, types.OverrideConflict{StoryID: record.StoryID, Framework: record.Framework, Field: "category"})
		}
	} else {
		args = append(args, categoryArg(record.Category))
		query += fmt.Sprintf(", category = $%d", len(args))
	}

	args = append(args, orgID, record.StoryID, record.Framework)
	query += fmt.Sprintf(" WHERE org_id = $%d AND story_id = $%d AND framework = $%d", len(args)-2, len(args)-1, len(args))

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update score record for %s/%s: %w", record.StoryID, record.Framework, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit score record: %w", err)
	}
	return conflicts, nil
}

// UpsertManualScore writes an explicit human score, always setting the
// protection flag and extending the protected field set
func (s *PostgresStorage) UpsertManualScore(ctx context.Context, orgID, storyID string, framework types.Framework, fields types.ManualScoreFields) error {
	if !framework.IsValid() {
		return fmt.Errorf("unknown framework: %q", framework)
	}
	newFields := fields.FieldNames()
	if len(newFields) == 0 {
		return fmt.Errorf("manual score write for %s/%s sets no fields", storyID, framework)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing []string
	err = tx.QueryRow(ctx, `
		SELECT manual_fields FROM score_records
		WHERE org_id = $1 AND story_id = $2 AND framework = $3
		FOR UPDATE
	`, orgID, storyID, framework).Scan(&existing)

	now := time.Now().UTC()

	if errors.Is(err, pgx.ErrNoRows) {
		fieldsJSON, merr := json.Marshal(newFields)
		if merr != nil {
			return fmt.Errorf("failed to marshal manual fields: %w", merr)
		}
		tag, ierr := tx.Exec(ctx, `
			INSERT INTO score_records (
				org_id, story_id, framework, score, category,
				is_manual_override, manual_fields, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $7)
			ON CONFLICT (org_id, story_id, framework) DO NOTHING
		`, orgID, storyID, framework, fields.Score, categoryArg(fields.Category), fieldsJSON, now)
		if ierr != nil {
			return fmt.Errorf("failed to insert manual score for %s/%s: %w", storyID, framework, ierr)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit manual score: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return s.UpsertManualScore(ctx, orgID, storyID, framework, fields)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read score record for %s/%s: %w", storyID, framework, err)
	}

	seen := make(map[string]bool, len(existing))
	merged := append([]string{}, existing...)
	for _, f := range existing {
		seen[f] = true
	}
	for _, f := range newFields {
		if !seen[f] {
			merged = append(merged, f)
		}
	}
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal manual fields: %w", err)
	}

	query := `UPDATE score_records SET is_manual_override = TRUE, manual_fields = $1, updated_at = $2`
	args := []interface{}{mergedJSON, now}
	if fields.Score != nil {
		args = append(args, *fields.Score)
		query += fmt.Sprintf(", score = $%d", len(args))
	}
	if fields.Category != nil {
		args = append(args, string(*fields.Category))
		query += fmt.Sprintf(", category = $%d", len(args))
	}
	args = append(args, orgID, storyID, framework)
	query += fmt.Sprintf(" WHERE org_id = $%d AND story_id = $%d AND framework = $%d", len(args)-2, len(args)-1, len(args))

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update manual score for %s/%s: %w", storyID, framework, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit manual score: %w", err)
	}
	return nil
}

// GetStoryScores returns all score records for one story across frameworks
func (s *PostgresStorage) GetStoryScores(ctx context.Context, orgID, storyID string) ([]*types.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT story_id, framework, project_id, score, category, rank,
		       unscoreable, unscoreable_reason, heuristic_derived,
		       is_manual_override, manual_fields, created_at, updated_at
		FROM score_records
		WHERE org_id = $1 AND story_id = $2
		ORDER BY framework ASC
	`, orgID, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores for story %s: %w", storyID, err)
	}
	defer rows.Close()

	var out []*types.ScoreRecord
	for rows.Next() {
		var rec types.ScoreRecord
		var score *float64
		var category *string
		var manualFields []string

		err := rows.Scan(
			&rec.StoryID, &rec.Framework, &rec.ProjectID, &score, &category, &rec.Rank,
			&rec.Unscoreable, &rec.UnscoreableReason, &rec.HeuristicDerived,
			&rec.IsManualOverride, &manualFields, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		rec.Score = score
		if category != nil && *category != "" {
			cat := types.MoscowCategory(*category)
			rec.Category = &cat
		}
		if len(manualFields) > 0 {
			rec.ManualFields = manualFields
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// SaveReport stores one analysis report; reports are immutable
func (s *PostgresStorage) SaveReport(ctx context.Context, report *types.AnalysisReport) error {
	if report.ReportID == "" {
		return fmt.Errorf("report id is required")
	}
	if report.OrganizationID == "" {
		return fmt.Errorf("organization id is required")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", report.ReportID, err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_reports (org_id, report_id, project_id, framework, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (org_id, report_id) DO NOTHING
	`, report.OrganizationID, report.ReportID, report.ProjectID, report.Config.Framework, payload, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ReportID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %s already exists", report.ReportID)
	}
	return nil
}

// GetReport loads one report by id
func (s *PostgresStorage) GetReport(ctx context.Context, orgID, reportID string) (*types.AnalysisReport, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM analysis_reports
		WHERE org_id = $1 AND report_id = $2
	`, orgID, reportID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("report not found: %s", reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", reportID, err)
	}

	var report types.AnalysisReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", reportID, err)
	}
	return &report, nil
}

func categoryArg(v *types.MoscowCategory) interface{} {
	if v == nil {
		return nil
	}
	return string(*v)
}
