// Package scoring implements the four prioritization framework
// calculators: WSJF, RICE, MoSCoW, and Value/Effort. Scorers are pure
// functions of a resolved StoryCandidate; no side effects, no I/O.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// ReasonZeroJobSize is the unscoreable reason for WSJF stories whose job
// size is absent or non-positive.
const ReasonZeroJobSize = "missing or zero jobSize"

// ReasonZeroEffort is the RICE counterpart.
const ReasonZeroEffort = "missing or zero effort"

// Result is the outcome of scoring one candidate under one framework.
// Score keeps full precision; rounding happens only at persistence so
// tie-breaks never wobble on premature rounding.
type Result struct {
	Score            float64
	Category         *types.MoscowCategory
	HeuristicDerived bool
	Unscoreable      bool
	Reason           string
}

// Score computes the framework score for one candidate. A story lacking
// required signals comes back Unscoreable with the missing fields named;
// it is never scored as zero or infinity.
func Score(c *types.StoryCandidate, framework types.Framework) Result {
	switch framework {
	case types.FrameworkWSJF:
		return scoreWSJF(c)
	case types.FrameworkRICE:
		return scoreRICE(c)
	case types.FrameworkMoscow:
		return scoreMoscow(c)
	case types.FrameworkValueEffort:
		return scoreValueEffort(c)
	}
	return Result{Unscoreable: true, Reason: fmt.Sprintf("unknown framework: %s", framework)}
}

// scoreWSJF computes (businessValue + timeCriticality + riskReduction) / jobSize.
// A manually entered WSJF score short-circuits the formula.
func scoreWSJF(c *types.StoryCandidate) Result {
	if c.ManualWSJF != nil {
		return Result{Score: *c.ManualWSJF}
	}
	if c.JobSize == nil || *c.JobSize <= 0 {
		return Result{Unscoreable: true, Reason: ReasonZeroJobSize}
	}
	if missing := missingOf(c, signals.FieldBusinessValue, signals.FieldTimeCriticality, signals.FieldRiskReduction); missing != "" {
		return Result{Unscoreable: true, Reason: missing}
	}
	return Result{Score: (*c.BusinessValue + *c.TimeCriticality + *c.RiskReduction) / *c.JobSize}
}

// scoreRICE computes (reach * impact * confidence) / effort.
// A manually entered RICE score short-circuits the formula.
func scoreRICE(c *types.StoryCandidate) Result {
	if c.ManualRICE != nil {
		return Result{Score: *c.ManualRICE}
	}
	if c.Effort == nil || *c.Effort <= 0 {
		return Result{Unscoreable: true, Reason: ReasonZeroEffort}
	}
	if missing := missingOf(c, signals.FieldReach, signals.FieldImpact, signals.FieldConfidence); missing != "" {
		return Result{Unscoreable: true, Reason: missing}
	}
	return Result{Score: (*c.Reach * *c.Impact * *c.Confidence) / *c.Effort}
}

// scoreMoscow classifies rather than scores. The category comes straight
// from a manual setting when present; otherwise the resolver has already
// derived one from the priority label, and the result is flagged as
// heuristic-derived. The ordinal score exists only to order categories.
func scoreMoscow(c *types.StoryCandidate) Result {
	if c.Moscow == nil {
		return Result{Unscoreable: true, Reason: "missing fields: " + signals.FieldMoscow}
	}
	cat := *c.Moscow
	return Result{
		Score:            moscowOrdinal(cat),
		Category:         &cat,
		HeuristicDerived: c.Provenance[signals.FieldMoscow] == types.ProvenanceLabel,
	}
}

// scoreValueEffort computes businessValue / max(effort, jobSize, 1).
// The clamped denominator keeps every story computable, trading precision
// for coverage when richer signals are absent.
func scoreValueEffort(c *types.StoryCandidate) Result {
	if c.BusinessValue == nil {
		return Result{Unscoreable: true, Reason: "missing fields: " + signals.FieldBusinessValue}
	}
	denom := 1.0
	if c.Effort != nil && *c.Effort > denom {
		denom = *c.Effort
	}
	if c.JobSize != nil && *c.JobSize > denom {
		denom = *c.JobSize
	}
	return Result{Score: *c.BusinessValue / denom}
}

func moscowOrdinal(cat types.MoscowCategory) float64 {
	switch cat {
	case types.MoscowMust:
		return 4
	case types.MoscowShould:
		return 3
	case types.MoscowCould:
		return 2
	case types.MoscowWont:
		return 1
	}
	return 0
}

func missingOf(c *types.StoryCandidate, fields ...string) string {
	var missing []string
	for _, field := range fields {
		switch field {
		case signals.FieldBusinessValue:
			if c.BusinessValue == nil {
				missing = append(missing, field)
			}
		case signals.FieldTimeCriticality:
			if c.TimeCriticality == nil {
				missing = append(missing, field)
			}
		case signals.FieldRiskReduction:
			if c.RiskReduction == nil {
				missing = append(missing, field)
			}
		case signals.FieldReach:
			if c.Reach == nil {
				missing = append(missing, field)
			}
		case signals.FieldImpact:
			if c.Impact == nil {
				missing = append(missing, field)
			}
		case signals.FieldConfidence:
			if c.Confidence == nil {
				missing = append(missing, field)
			}
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "missing fields: " + strings.Join(missing, ", ")
}

// Round2 rounds to 2 decimal places for persistence. Ranking always uses
// the full-precision score.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
