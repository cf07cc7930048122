package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sprintdeck/prioritizer/internal/types"
)

// SaveReport stores one analysis report. Reports are immutable: a second
// save with the same report id is rejected rather than overwritten.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report *types.AnalysisReport) error {
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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_reports (org_id, report_id, project_id, framework, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.OrganizationID, report.ReportID, report.ProjectID, report.Config.Framework, string(payload), report.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("report %s already exists", report.ReportID)
		}
		return fmt.Errorf("failed to save report %s: %w", report.ReportID, err)
	}
	return nil
}

// GetReport loads one report by id
func (s *SQLiteStorage) GetReport(ctx context.Context, orgID, reportID string) (*types.AnalysisReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM analysis_reports
		WHERE org_id = ? AND report_id = ?
	`, orgID, reportID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found: %s", reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", reportID, err)
	}

	var report types.AnalysisReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", reportID, err)
	}
	return &report, nil
}
