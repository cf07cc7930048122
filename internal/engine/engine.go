// Package engine orchestrates one backlog analysis run: resolve signals,
// score, rank, detect conflicts, analyze capacity, summarize, persist.
// The computation itself is pure and single-threaded; all I/O happens at
// the boundary, before and after.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sprintdeck/prioritizer/internal/alignment"
	"github.com/sprintdeck/prioritizer/internal/capacity"
	"github.com/sprintdeck/prioritizer/internal/conflicts"
	"github.com/sprintdeck/prioritizer/internal/ranking"
	"github.com/sprintdeck/prioritizer/internal/scoring"
	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/storage"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// DefaultTeamCapacity is the assumed per-team capacity per quarter, in
// the same abstract cost unit as jobSize/effort, used by conflict
// detection when no quarterly budget is configured.
const DefaultTeamCapacity = 20.0

// Config holds engine configuration
type Config struct {
	Store storage.Storage
	// TeamCapacity is the per-team per-quarter capacity used by conflict
	// detection. Zero means DefaultTeamCapacity.
	TeamCapacity float64
}

// Engine runs prioritization analyses. Invocations are independent and
// share no mutable state, so one Engine is safe for concurrent use.
type Engine struct {
	store        storage.Storage
	teamCapacity float64
}

// New creates an engine from config
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("engine requires a storage backend")
	}
	capacityPerTeam := cfg.TeamCapacity
	if capacityPerTeam <= 0 {
		capacityPerTeam = DefaultTeamCapacity
	}
	return &Engine{store: cfg.Store, teamCapacity: capacityPerTeam}, nil
}

// RunAnalysis is the single analysis entry point. It loads the project's
// story candidates and overrides, runs the full scoring pipeline, and
// persists the report plus one score record per story.
//
// A persistence failure after successful computation still returns the
// report, with Persisted=false and a *types.PersistenceError, so callers
// can retry the save without recomputing.
func (e *Engine) RunAnalysis(ctx context.Context, orgID, projectID string, cfg types.AnalysisConfig) (*types.AnalysisReport, error) {
	if orgID == "" {
		return nil, &types.InputError{Field: "organization_id", Reason: "organization id is required"}
	}
	if projectID == "" {
		return nil, &types.InputError{Field: "project_id", Reason: "project id is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rows, err := e.store.LoadStoryCandidates(ctx, orgID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story candidates: %w", err)
	}
	overrides, err := e.store.LoadManualOverrides(ctx, orgID, projectID, cfg.Framework)
	if err != nil {
		return nil, fmt.Errorf("failed to load manual overrides: %w", err)
	}

	report := e.compute(orgID, projectID, cfg, rows, overrides)

	if perr := e.persist(ctx, report); perr != nil {
		report.Persisted = false
		return report, perr
	}
	report.Persisted = true
	return report, nil
}

// compute is the pure pipeline: no I/O, no clock beyond the report
// timestamp, deterministic for fixed inputs.
func (e *Engine) compute(orgID, projectID string, cfg types.AnalysisConfig, rows []signals.RawStorySignals, overrides map[string]*signals.ManualOverride) *types.AnalysisReport {
	candidates := signals.ResolveAll(rows, overrides, cfg.Framework)
	ranked := ranking.Rank(candidates, cfg.Framework)
	capReport := capacity.Analyze(ranked.Scored, cfg.QuarterlyBudget)

	topN := len(ranked.Scored)
	if capReport.ConstraintApplied {
		topN = capReport.CutLine
	}
	teamCapacity := e.teamCapacity
	if cfg.QuarterlyBudget != nil {
		teamCapacity = *cfg.QuarterlyBudget
	}
	found := conflicts.Detect(ranked.Scored, topN, teamCapacity)

	report := &types.AnalysisReport{
		ReportID:       uuid.NewString(),
		OrganizationID: orgID,
		ProjectID:      projectID,
		Config:         cfg,
		Ranked:         ranked.Scored,
		Unscoreable:    ranked.Unscoreable,
		Conflicts:      found,
		Capacity:       capReport,
		Alignment:      alignment.Align(ranked.Scored, cfg),
		Confidence:     alignment.Confidence(ranked.Scored),
		CreatedAt:      time.Now().UTC(),
	}

	for i := range candidates {
		if candidates[i].Incomplete {
			report.Diagnostics = append(report.Diagnostics, types.Diagnostic{
				StoryID:   candidates[i].StoryID,
				Framework: cfg.Framework,
				Message:   fmt.Sprintf("missing signals for fields: %v", candidates[i].MissingFields),
			})
		}
	}

	report.Summary = Summarize(report)
	return report
}

// persist writes the per-story score records and then the report itself.
// Override conflicts from the automatic upserts land in the report's
// diagnostics before it is saved.
func (e *Engine) persist(ctx context.Context, report *types.AnalysisReport) error {
	wrap := func(err error) error {
		return &types.PersistenceError{
			OrganizationID: report.OrganizationID,
			ReportID:       report.ReportID,
			Err:            err,
		}
	}

	for _, rec := range buildScoreRecords(report) {
		overrideConflicts, err := e.store.UpsertAutomaticScore(ctx, report.OrganizationID, rec)
		if err != nil {
			return wrap(err)
		}
		for _, c := range overrideConflicts {
			report.Diagnostics = append(report.Diagnostics, c.Diagnostic())
		}
	}

	report.Persisted = true
	if err := e.store.SaveReport(ctx, report); err != nil {
		return wrap(err)
	}
	return nil
}

// buildScoreRecords maps the report's ranked and unscoreable sections to
// persistable records. Numeric scores are rounded to 2 decimals here, at
// the persistence boundary; ranking already happened at full precision.
func buildScoreRecords(report *types.AnalysisReport) []*types.ScoreRecord {
	framework := report.Config.Framework
	records := make([]*types.ScoreRecord, 0, len(report.Ranked)+len(report.Unscoreable))

	for i := range report.Ranked {
		entry := &report.Ranked[i]
		rec := &types.ScoreRecord{
			StoryID:          entry.Story.StoryID,
			ProjectID:        entry.Story.ProjectID,
			Framework:        framework,
			Rank:             entry.Rank,
			HeuristicDerived: entry.HeuristicDerived,
		}
		if framework == types.FrameworkMoscow {
			rec.Category = entry.Category
		} else {
			rounded := scoring.Round2(entry.Score)
			rec.Score = &rounded
		}
		records = append(records, rec)
	}

	for i := range report.Unscoreable {
		entry := &report.Unscoreable[i]
		records = append(records, &types.ScoreRecord{
			StoryID:           entry.Story.StoryID,
			ProjectID:         entry.Story.ProjectID,
			Framework:         framework,
			Unscoreable:       true,
			UnscoreableReason: entry.Reason,
		})
	}
	return records
}

// GetStoryScores returns the persisted score records for one story
// across all frameworks.
func (e *Engine) GetStoryScores(ctx context.Context, orgID, storyID string) ([]*types.ScoreRecord, error) {
	if orgID == "" {
		return nil, &types.InputError{Field: "organization_id", Reason: "organization id is required"}
	}
	return e.store.GetStoryScores(ctx, orgID, storyID)
}

// UpsertManualScore is the explicit manual override path. It always sets
// the override-protection flag on the record.
func (e *Engine) UpsertManualScore(ctx context.Context, orgID, storyID string, framework types.Framework, fields types.ManualScoreFields) error {
	if orgID == "" {
		return &types.InputError{Field: "organization_id", Reason: "organization id is required"}
	}
	if !framework.IsValid() {
		return &types.InputError{Field: "framework", Reason: fmt.Sprintf("unknown framework: %q", framework)}
	}
	return e.store.UpsertManualScore(ctx, orgID, storyID, framework, fields)
}
