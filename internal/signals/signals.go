// Package signals merges raw story signal rows, manual overrides, and
// priority-label heuristics into one canonical StoryCandidate per story.
// Resolution is pure and in-memory; all I/O happens at the caller.
package signals

import (
	"github.com/sprintdeck/prioritizer/internal/types"
)

// Signal field names, shared with provenance maps and score persistence.
const (
	FieldBusinessValue    = "business_value"
	FieldTimeCriticality  = "time_criticality"
	FieldRiskReduction    = "risk_reduction"
	FieldJobSize          = "job_size"
	FieldReach            = "reach"
	FieldImpact           = "impact"
	FieldConfidence       = "confidence"
	FieldEffort           = "effort"
	FieldMoscow           = "moscow"
	FieldQuarterlyRevenue = "quarterly_revenue"
)

// Confidence units accepted from estimator signals. The canonical unit is
// a 0-1 fraction; percent sources are divided by 100 exactly once, here at
// the resolution boundary, so downstream code never re-normalizes.
const (
	UnitFraction = "fraction"
	UnitPercent  = "percent"
)

// Priority-label heuristic values. Used as the last fallback for
// value-like fields when neither an override nor an estimate exists.
var labelValues = map[string]float64{
	"critical": 10,
	"high":     8,
	"medium":   5,
	"low":      3,
}

// EstimatorOutput is the most recent automated estimate for a story, as
// produced by the impact/effort estimator collaborators.
type EstimatorOutput struct {
	BusinessValue   *float64 `json:"business_value,omitempty"`
	TimeCriticality *float64 `json:"time_criticality,omitempty"`
	RiskReduction   *float64 `json:"risk_reduction,omitempty"`
	Reach           *float64 `json:"reach,omitempty"`
	Impact          *float64 `json:"impact,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	ConfidenceUnit  string   `json:"confidence_unit,omitempty"` // fraction (default) or percent
	Effort          *float64 `json:"effort,omitempty"`
	// SuggestedJobSize comes from the effort estimator; EffortAsJobSize
	// marks the impact estimator's effort field as usable for job size.
	SuggestedJobSize *float64 `json:"suggested_job_size,omitempty"`
}

// RawStorySignals is one raw story row as loaded from the storage
// collaborator, before resolution.
type RawStorySignals struct {
	StoryID   string   `json:"story_id"`
	ProjectID string   `json:"project_id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags,omitempty"`

	PriorityLabel string `json:"priority_label,omitempty"` // critical, high, medium, low
	StoryPoints   *int   `json:"story_points,omitempty"`

	Estimate *EstimatorOutput `json:"estimate,omitempty"`

	TeamDependency   string   `json:"team_dependency,omitempty"`
	QuarterlyRevenue *float64 `json:"quarterly_revenue,omitempty"`
}

// ManualOverride carries human-entered values for a story. Every field set
// here wins over any automated or heuristic signal. Confidence is already
// a 0-1 fraction; the write path normalizes before storing.
type ManualOverride struct {
	BusinessValue    *float64              `json:"business_value,omitempty"`
	TimeCriticality  *float64              `json:"time_criticality,omitempty"`
	RiskReduction    *float64              `json:"risk_reduction,omitempty"`
	JobSize          *float64              `json:"job_size,omitempty"`
	Reach            *float64              `json:"reach,omitempty"`
	Impact           *float64              `json:"impact,omitempty"`
	Confidence       *float64              `json:"confidence,omitempty"`
	Effort           *float64              `json:"effort,omitempty"`
	ManualWSJF       *float64              `json:"manual_wsjf,omitempty"`
	ManualRICE       *float64              `json:"manual_rice,omitempty"`
	Moscow           *types.MoscowCategory `json:"moscow,omitempty"`
	QuarterlyRevenue *float64              `json:"quarterly_revenue,omitempty"`
}

// Resolve merges one raw signal row with its optional manual override into
// a canonical StoryCandidate. Precedence per field, highest first:
// manual override, latest estimator output, priority-label heuristic.
// Fields with no signal of any kind stay nil.
func Resolve(raw RawStorySignals, override *ManualOverride) types.StoryCandidate {
	c := types.StoryCandidate{
		StoryID:          raw.StoryID,
		ProjectID:        raw.ProjectID,
		Title:            raw.Title,
		Tags:             raw.Tags,
		StoryPoints:      raw.StoryPoints,
		TeamDependency:   raw.TeamDependency,
		QuarterlyRevenue: raw.QuarterlyRevenue,
		Provenance:       make(map[string]types.Provenance),
	}
	if raw.QuarterlyRevenue != nil {
		c.Provenance[FieldQuarterlyRevenue] = types.ProvenanceEstimator
	}

	est := raw.Estimate
	labelVal, hasLabel := labelValues[raw.PriorityLabel]

	// Value-like fields fall back to the priority-label heuristic.
	c.BusinessValue, c.Provenance[FieldBusinessValue] = resolveWithLabel(
		overrideField(override, func(o *ManualOverride) *float64 { return o.BusinessValue }),
		estimateField(est, func(e *EstimatorOutput) *float64 { return e.BusinessValue }),
		labelVal, hasLabel)
	c.TimeCriticality, c.Provenance[FieldTimeCriticality] = resolveWithLabel(
		overrideField(override, func(o *ManualOverride) *float64 { return o.TimeCriticality }),
		estimateField(est, func(e *EstimatorOutput) *float64 { return e.TimeCriticality }),
		labelVal, hasLabel)
	c.Impact, c.Provenance[FieldImpact] = resolveWithLabel(
		overrideField(override, func(o *ManualOverride) *float64 { return o.Impact }),
		estimateField(est, func(e *EstimatorOutput) *float64 { return e.Impact }),
		labelVal, hasLabel)

	// Fields with no meaningful label fallback resolve override -> estimate.
	c.RiskReduction, c.Provenance[FieldRiskReduction] = resolve2(
		overrideField(override, func(o *ManualOverride) *float64 { return o.RiskReduction }),
		estimateField(est, func(e *EstimatorOutput) *float64 { return e.RiskReduction }))
	c.Reach, c.Provenance[FieldReach] = resolve2(
		overrideField(override, func(o *ManualOverride) *float64 { return o.Reach }),
		estimateField(est, func(e *EstimatorOutput) *float64 { return e.Reach }))
	c.Effort, c.Provenance[FieldEffort] = resolve2(
		overrideField(override, func(o *ManualOverride) *float64 { return o.Effort }),
		estimateField(est, func(e *EstimatorOutput) *float64 { return e.Effort }))

	c.Confidence, c.Provenance[FieldConfidence] = resolveConfidence(override, est)
	c.JobSize, c.Provenance[FieldJobSize] = resolveJobSize(raw, override)

	if override != nil {
		c.ManualWSJF = override.ManualWSJF
		c.ManualRICE = override.ManualRICE
		if override.Moscow != nil {
			c.Moscow = override.Moscow
			c.Provenance[FieldMoscow] = types.ProvenanceManual
		}
		if override.QuarterlyRevenue != nil {
			c.QuarterlyRevenue = override.QuarterlyRevenue
			c.Provenance[FieldQuarterlyRevenue] = types.ProvenanceManual
		}
	}

	// Without a manual category, MoSCoW falls back to the priority label.
	// The label provenance marks the classification as heuristic-derived.
	if c.Moscow == nil {
		if cat, ok := MoscowFromLabel(raw.PriorityLabel); ok {
			c.Moscow = &cat
			c.Provenance[FieldMoscow] = types.ProvenanceLabel
		}
	}

	// Drop the "none" entries so provenance only names resolved fields.
	for field, p := range c.Provenance {
		if p == types.ProvenanceNone {
			delete(c.Provenance, field)
		}
	}

	return c
}

// ResolveAll resolves a full story set and flags candidates missing fields
// the chosen framework requires. Flagged stories stay in the output; the
// report surfaces them instead of silently defaulting anything to zero.
func ResolveAll(rows []RawStorySignals, overrides map[string]*ManualOverride, framework types.Framework) []types.StoryCandidate {
	candidates := make([]types.StoryCandidate, 0, len(rows))
	for _, raw := range rows {
		c := Resolve(raw, overrides[raw.StoryID])
		c.MissingFields = missingFields(&c, framework)
		c.Incomplete = len(c.MissingFields) > 0
		candidates = append(candidates, c)
	}
	return candidates
}

// RequiredFields lists the signal fields a framework needs to score a story.
// Value/Effort requires only business value: its denominator clamps to 1,
// trading precision for universal coverage.
func RequiredFields(framework types.Framework) []string {
	switch framework {
	case types.FrameworkWSJF:
		return []string{FieldBusinessValue, FieldTimeCriticality, FieldRiskReduction, FieldJobSize}
	case types.FrameworkRICE:
		return []string{FieldReach, FieldImpact, FieldConfidence, FieldEffort}
	case types.FrameworkMoscow:
		return []string{FieldMoscow}
	case types.FrameworkValueEffort:
		return []string{FieldBusinessValue}
	}
	return nil
}

func missingFields(c *types.StoryCandidate, framework types.Framework) []string {
	var missing []string
	for _, field := range RequiredFields(framework) {
		if !hasField(c, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func hasField(c *types.StoryCandidate, field string) bool {
	switch field {
	case FieldBusinessValue:
		return c.BusinessValue != nil
	case FieldTimeCriticality:
		return c.TimeCriticality != nil
	case FieldRiskReduction:
		return c.RiskReduction != nil
	case FieldJobSize:
		return c.JobSize != nil
	case FieldReach:
		return c.Reach != nil
	case FieldImpact:
		return c.Impact != nil
	case FieldConfidence:
		return c.Confidence != nil
	case FieldEffort:
		return c.Effort != nil
	case FieldMoscow:
		return c.Moscow != nil
	}
	return false
}

func overrideField(o *ManualOverride, get func(*ManualOverride) *float64) *float64 {
	if o == nil {
		return nil
	}
	return get(o)
}

func estimateField(e *EstimatorOutput, get func(*EstimatorOutput) *float64) *float64 {
	if e == nil {
		return nil
	}
	return get(e)
}

func resolveWithLabel(ov, est *float64, labelVal float64, hasLabel bool) (*float64, types.Provenance) {
	if ov != nil {
		v := *ov
		return &v, types.ProvenanceManual
	}
	if est != nil {
		v := *est
		return &v, types.ProvenanceEstimator
	}
	if hasLabel {
		v := labelVal
		return &v, types.ProvenanceLabel
	}
	return nil, types.ProvenanceNone
}

func resolve2(ov, est *float64) (*float64, types.Provenance) {
	if ov != nil {
		v := *ov
		return &v, types.ProvenanceManual
	}
	if est != nil {
		v := *est
		return &v, types.ProvenanceEstimator
	}
	return nil, types.ProvenanceNone
}

// resolveConfidence normalizes to the canonical 0-1 fraction. Manual
// overrides are already fractions; estimator signals declare their unit
// and percent values divide by 100 exactly once, here.
func resolveConfidence(override *ManualOverride, est *EstimatorOutput) (*float64, types.Provenance) {
	if override != nil && override.Confidence != nil {
		v := *override.Confidence
		return &v, types.ProvenanceManual
	}
	if est != nil && est.Confidence != nil {
		v := *est.Confidence
		if est.ConfidenceUnit == UnitPercent {
			v = v / 100
		}
		return &v, types.ProvenanceEstimator
	}
	return nil, types.ProvenanceNone
}

// resolveJobSize walks the job-size fallback chain: manual override,
// effort-estimator suggestion, impact-estimator effort, raw story points.
func resolveJobSize(raw RawStorySignals, override *ManualOverride) (*float64, types.Provenance) {
	if override != nil && override.JobSize != nil {
		v := *override.JobSize
		return &v, types.ProvenanceManual
	}
	if raw.Estimate != nil {
		if raw.Estimate.SuggestedJobSize != nil {
			v := *raw.Estimate.SuggestedJobSize
			return &v, types.ProvenanceEstimator
		}
		if raw.Estimate.Effort != nil {
			v := *raw.Estimate.Effort
			return &v, types.ProvenanceEstimator
		}
	}
	if raw.StoryPoints != nil {
		v := float64(*raw.StoryPoints)
		return &v, types.ProvenanceStoryPts
	}
	return nil, types.ProvenanceNone
}

// MoscowFromLabel derives a MoSCoW category from a priority label when no
// manual category exists. The result is a heuristic, and scorers mark it
// as such in their output.
func MoscowFromLabel(label string) (types.MoscowCategory, bool) {
	switch label {
	case "critical":
		return types.MoscowMust, true
	case "high":
		return types.MoscowShould, true
	case "medium":
		return types.MoscowCould, true
	case "low":
		return types.MoscowWont, true
	}
	return "", false
}
