// Package capacity walks a ranked story list against a budget ceiling and
// reports where the cut line falls. The ceiling is an abstract cost unit,
// the same unit jobSize and effort are expressed in for the organization.
package capacity

import (
	"github.com/sprintdeck/prioritizer/internal/types"
)

// Analyze accumulates cost down the ranked list until the ceiling is
// exhausted. The cut line is the index of the first item that no longer
// fits; everything after it is excluded even if a later, smaller item
// would squeeze in, because the line is a ranked cut, not a bin-packing.
// Without a budget, all items are included and ConstraintApplied is false
// so callers can tell "no constraint" apart from "everything fit".
func Analyze(ranked []types.ScoredStory, budget *float64) types.CapacityReport {
	report := types.CapacityReport{
		IncludedIDs: []string{},
		ExcludedIDs: []string{},
	}

	if budget == nil {
		report.CutLine = len(ranked)
		for i := range ranked {
			report.IncludedIDs = append(report.IncludedIDs, ranked[i].Story.StoryID)
			report.ConsumedCost += ItemCost(&ranked[i].Story)
		}
		report.ValueSpendRatio = valueSpendRatio(ranked, len(ranked), report.ConsumedCost)
		return report
	}

	report.ConstraintApplied = true
	report.Ceiling = *budget
	report.CutLine = len(ranked)

	consumed := 0.0
	for i := range ranked {
		cost := ItemCost(&ranked[i].Story)
		if consumed+cost > *budget {
			report.CutLine = i
			for j := i; j < len(ranked); j++ {
				report.ExcludedIDs = append(report.ExcludedIDs, ranked[j].Story.StoryID)
			}
			break
		}
		consumed += cost
		report.IncludedIDs = append(report.IncludedIDs, ranked[i].Story.StoryID)
	}
	report.ConsumedCost = consumed
	report.ValueSpendRatio = valueSpendRatio(ranked, report.CutLine, consumed)
	return report
}

// ItemCost is the capacity cost of one story: job size when present,
// effort as fallback, zero when the story carries no cost signal at all.
func ItemCost(s *types.StoryCandidate) float64 {
	if s.JobSize != nil {
		return *s.JobSize
	}
	if s.Effort != nil {
		return *s.Effort
	}
	return 0
}

// valueSpendRatio computes revenue delivered per cost unit spent for the
// included set. Nil when no included story carries a revenue signal or
// when nothing was spent.
func valueSpendRatio(ranked []types.ScoredStory, cutLine int, consumed float64) *float64 {
	if consumed <= 0 {
		return nil
	}
	revenue := 0.0
	found := false
	for i := 0; i < cutLine && i < len(ranked); i++ {
		if ranked[i].Story.QuarterlyRevenue != nil {
			revenue += *ranked[i].Story.QuarterlyRevenue
			found = true
		}
	}
	if !found {
		return nil
	}
	ratio := revenue / consumed
	return &ratio
}
