package types

import (
	"fmt"
	"time"
)

// Framework identifies a prioritization framework
type Framework string

const (
	FrameworkWSJF        Framework = "wsjf"
	FrameworkRICE        Framework = "rice"
	FrameworkMoscow      Framework = "moscow"
	FrameworkValueEffort Framework = "value_effort"
)

// IsValid checks if the framework value is valid
func (f Framework) IsValid() bool {
	switch f {
	case FrameworkWSJF, FrameworkRICE, FrameworkMoscow, FrameworkValueEffort:
		return true
	}
	return false
}

// MoscowCategory is a MoSCoW classification bucket
type MoscowCategory string

const (
	MoscowMust   MoscowCategory = "must"
	MoscowShould MoscowCategory = "should"
	MoscowCould  MoscowCategory = "could"
	MoscowWont   MoscowCategory = "wont"
)

// IsValid checks if the category value is valid
func (m MoscowCategory) IsValid() bool {
	switch m {
	case MoscowMust, MoscowShould, MoscowCould, MoscowWont:
		return true
	}
	return false
}

// Provenance records where a resolved signal value came from
type Provenance string

const (
	ProvenanceManual    Provenance = "manual"    // human-entered override
	ProvenanceEstimator Provenance = "estimator" // automated estimator output
	ProvenanceLabel     Provenance = "label"     // priority-label heuristic
	ProvenanceStoryPts  Provenance = "story_points"
	ProvenanceNone      Provenance = "none"
)

// CompetitivePressure is the configured market pressure level
type CompetitivePressure string

const (
	PressureLow    CompetitivePressure = "low"
	PressureMedium CompetitivePressure = "medium"
	PressureHigh   CompetitivePressure = "high"
)

// IsValid checks if the pressure value is valid
func (p CompetitivePressure) IsValid() bool {
	switch p {
	case PressureLow, PressureMedium, PressureHigh:
		return true
	}
	return false
}

// StoryCandidate is one unit of backlog work considered for prioritization.
// Signal fields are pointers: nil means "no signal of any kind", which is
// distinct from zero. Zero is a real value and is never used for "unknown".
type StoryCandidate struct {
	StoryID   string `json:"story_id"`
	ProjectID string `json:"project_id"`

	Title       string   `json:"title"`
	Tags        []string `json:"tags,omitempty"`
	StoryPoints *int     `json:"story_points,omitempty"`

	BusinessValue    *float64        `json:"business_value,omitempty"`
	TimeCriticality  *float64        `json:"time_criticality,omitempty"`
	RiskReduction    *float64        `json:"risk_reduction,omitempty"`
	JobSize          *float64        `json:"job_size,omitempty"`
	Reach            *float64        `json:"reach,omitempty"`
	Impact           *float64        `json:"impact,omitempty"`
	Confidence       *float64        `json:"confidence,omitempty"` // 0-1 fraction
	Effort           *float64        `json:"effort,omitempty"`
	ManualWSJF       *float64        `json:"manual_wsjf,omitempty"`
	ManualRICE       *float64        `json:"manual_rice,omitempty"`
	Moscow           *MoscowCategory `json:"moscow,omitempty"`
	TeamDependency   string          `json:"team_dependency,omitempty"`
	QuarterlyRevenue *float64        `json:"quarterly_revenue,omitempty"`

	// Provenance maps signal field name -> where its resolved value came
	// from. Retained through scoring so reports can show what the ranking
	// rests on.
	Provenance map[string]Provenance `json:"provenance,omitempty"`

	// Incomplete is set when a field the chosen framework requires has no
	// signal of any kind. The story is still carried through the pipeline.
	Incomplete    bool     `json:"incomplete,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// HasManualSignal reports whether any of the candidate's signals came from
// a human-entered override
func (s *StoryCandidate) HasManualSignal() bool {
	for _, p := range s.Provenance {
		if p == ProvenanceManual {
			return true
		}
	}
	return false
}

// AnalysisConfig holds the parameters for one analysis invocation
type AnalysisConfig struct {
	Framework           Framework           `json:"framework"`
	StrategicFocus      string              `json:"strategic_focus,omitempty"` // growth, retention, compliance, ...
	MarketSegment       string              `json:"market_segment,omitempty"`
	CompetitivePressure CompetitivePressure `json:"competitive_pressure,omitempty"`
	QuarterlyBudget     *float64            `json:"quarterly_budget,omitempty"` // abstract cost units
}

// Validate checks if the config has valid field values
func (c *AnalysisConfig) Validate() error {
	if !c.Framework.IsValid() {
		return &InputError{Field: "framework", Reason: fmt.Sprintf("unknown framework: %q", c.Framework)}
	}
	if c.CompetitivePressure != "" && !c.CompetitivePressure.IsValid() {
		return &InputError{Field: "competitive_pressure", Reason: fmt.Sprintf("unknown pressure level: %q", c.CompetitivePressure)}
	}
	if c.QuarterlyBudget != nil && *c.QuarterlyBudget < 0 {
		return &InputError{Field: "quarterly_budget", Reason: fmt.Sprintf("budget cannot be negative (got %v)", *c.QuarterlyBudget)}
	}
	return nil
}

// ScoreRecord is the persisted score for one (story, framework) pair.
// The pair is unique: recomputation updates the existing record in place.
// Records are never deleted by the engine.
type ScoreRecord struct {
	StoryID   string    `json:"story_id"`
	ProjectID string    `json:"project_id"`
	Framework Framework `json:"framework"`

	Score    *float64        `json:"score,omitempty"`    // rounded to 2 decimals
	Category *MoscowCategory `json:"category,omitempty"` // moscow only
	Rank     int             `json:"rank"`               // 1-based; 0 for unscoreable

	Unscoreable       bool   `json:"unscoreable,omitempty"`
	UnscoreableReason string `json:"unscoreable_reason,omitempty"`
	HeuristicDerived  bool   `json:"heuristic_derived,omitempty"`

	// IsManualOverride protects the record: automatic recomputes may only
	// touch fields not named in ManualFields.
	IsManualOverride bool     `json:"is_manual_override,omitempty"`
	ManualFields     []string `json:"manual_fields,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the record has valid field values
func (r *ScoreRecord) Validate() error {
	if r.StoryID == "" {
		return &InputError{Field: "story_id", Reason: "story id is required"}
	}
	if !r.Framework.IsValid() {
		return &InputError{Field: "framework", Reason: fmt.Sprintf("unknown framework: %q", r.Framework)}
	}
	if r.Unscoreable && r.Score != nil {
		return &InputError{Field: "score", Reason: "unscoreable record cannot carry a score"}
	}
	return nil
}

// ManualScoreFields carries the values of an explicit manual score write.
// Only non-nil fields are set; each one becomes override-protected.
type ManualScoreFields struct {
	Score    *float64        `json:"score,omitempty"`
	Category *MoscowCategory `json:"category,omitempty"`
}

// FieldNames lists which protected fields this write sets
func (m ManualScoreFields) FieldNames() []string {
	var names []string
	if m.Score != nil {
		names = append(names, "score")
	}
	if m.Category != nil {
		names = append(names, "category")
	}
	return names
}

// IsManualField reports whether the named field is override-protected
func (r *ScoreRecord) IsManualField(field string) bool {
	for _, f := range r.ManualFields {
		if f == field {
			return true
		}
	}
	return false
}

// ScoredStory is one ranked entry: the candidate plus its computed score
type ScoredStory struct {
	Story            StoryCandidate  `json:"story"`
	Score            float64         `json:"score"` // full precision; rounded only at persistence
	Category         *MoscowCategory `json:"category,omitempty"`
	HeuristicDerived bool            `json:"heuristic_derived,omitempty"`
	Rank             int             `json:"rank"` // assigned by the ranking engine, 1-based
}

// UnscoreableStory is a story excluded from the ranked section, with the
// reason it could not be scored under the chosen framework
type UnscoreableStory struct {
	Story  StoryCandidate `json:"story"`
	Reason string         `json:"reason"`
}

// ConflictSeverity grades how far over capacity a conflicting set lands
type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// Conflict records two or more highly-ranked stories that cannot all be
// delivered in the same period by the same team. The detector flags the
// tension; it does not resolve it.
type Conflict struct {
	StoryIDs         []string         `json:"story_ids"`
	SharedConstraint string           `json:"shared_constraint"` // team dependency value
	CombinedCost     float64          `json:"combined_cost"`
	TeamCapacity     float64          `json:"team_capacity"`
	OvershootPct     float64          `json:"overshoot_pct"`
	Severity         ConflictSeverity `json:"severity"`
}

// CapacityReport is the result of walking the ranked list against a ceiling
type CapacityReport struct {
	// ConstraintApplied distinguishes "no budget configured" from
	// "everything fit within a real budget".
	ConstraintApplied bool     `json:"constraint_applied"`
	Ceiling           float64  `json:"ceiling,omitempty"`
	CutLine           int      `json:"cut_line"` // index of the first excluded item; len(list) if all fit
	IncludedIDs       []string `json:"included_ids"`
	ExcludedIDs       []string `json:"excluded_ids"`
	ConsumedCost      float64  `json:"consumed_cost"`
	// ValueSpendRatio is revenue delivered per cost unit spent for the
	// included set; nil when no revenue signals exist.
	ValueSpendRatio *float64 `json:"value_spend_ratio,omitempty"`
}

// ConfidenceBand buckets stories by estimate confidence
type ConfidenceBand string

const (
	BandHigh    ConfidenceBand = "high"   // >= 0.8
	BandMedium  ConfidenceBand = "medium" // 0.5 - 0.79
	BandLow     ConfidenceBand = "low"    // < 0.5
	BandUnknown ConfidenceBand = "unknown"
)

// ConfidenceSummary reports how much of the ranking rests on solid
// estimates versus heuristic fallback
type ConfidenceSummary struct {
	Counts map[ConfidenceBand]int `json:"counts"`
	Total  int                    `json:"total"`
}

// StrategicAlignment scores the ranked set against the configured focus
type StrategicAlignment struct {
	TopN         int     `json:"top_n"`
	AlignedCount int     `json:"aligned_count"`
	Proportion   float64 `json:"proportion"`
	Narrative    string  `json:"narrative"`
}

// Diagnostic records a non-fatal condition from an analysis run, with
// enough context to act on without re-running the analysis
type Diagnostic struct {
	StoryID   string    `json:"story_id,omitempty"`
	Framework Framework `json:"framework,omitempty"`
	Field     string    `json:"field,omitempty"`
	Message   string    `json:"message"`
}

// AnalysisReport is the immutable output of one analysis run.
// Lifecycle: create once, read many.
type AnalysisReport struct {
	ReportID       string `json:"report_id"`
	OrganizationID string `json:"organization_id"`
	ProjectID      string `json:"project_id"`

	Config      AnalysisConfig     `json:"config"`
	Ranked      []ScoredStory      `json:"ranked"`
	Unscoreable []UnscoreableStory `json:"unscoreable,omitempty"`
	Conflicts   []Conflict         `json:"conflicts,omitempty"`
	Capacity    CapacityReport     `json:"capacity"`
	Alignment   StrategicAlignment `json:"alignment"`
	Confidence  ConfidenceSummary  `json:"confidence"`
	Summary     string             `json:"summary"`
	Diagnostics []Diagnostic       `json:"diagnostics,omitempty"`

	// Persisted is false when computation succeeded but the save failed;
	// callers can retry persistence without recomputing.
	Persisted bool      `json:"persisted"`
	CreatedAt time.Time `json:"created_at"`
}
