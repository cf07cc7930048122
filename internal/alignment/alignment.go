// Package alignment scores a ranked story set against the configured
// strategic context and rolls per-story confidence up into summary bands.
package alignment

import (
	"fmt"
	"strings"

	"github.com/sprintdeck/prioritizer/internal/types"
)

// DefaultTopN is how many top-ranked items the alignment proportion
// considers when the list is long enough.
const DefaultTopN = 10

// Confidence band edges. Stories at or above the high edge are high;
// between medium edge and high edge medium; below that low; missing
// confidence lands in unknown.
const (
	HighBandEdge   = 0.8
	MediumBandEdge = 0.5
)

// Align reports what share of the top-ranked items carry tags matching
// the configured strategic focus or market segment, as a proportion and a
// short narrative rather than one opaque number.
func Align(ranked []types.ScoredStory, cfg types.AnalysisConfig) types.StrategicAlignment {
	topN := DefaultTopN
	if len(ranked) < topN {
		topN = len(ranked)
	}

	aligned := 0
	for i := 0; i < topN; i++ {
		if matchesFocus(&ranked[i].Story, cfg) {
			aligned++
		}
	}

	a := types.StrategicAlignment{
		TopN:         topN,
		AlignedCount: aligned,
	}
	if topN > 0 {
		a.Proportion = float64(aligned) / float64(topN)
	}
	a.Narrative = narrative(a, cfg)
	return a
}

func matchesFocus(s *types.StoryCandidate, cfg types.AnalysisConfig) bool {
	for _, tag := range s.Tags {
		if cfg.StrategicFocus != "" && strings.EqualFold(tag, cfg.StrategicFocus) {
			return true
		}
		if cfg.MarketSegment != "" && strings.EqualFold(tag, cfg.MarketSegment) {
			return true
		}
	}
	return false
}

// narrative is deterministic given the same inputs: reports must be
// reproducible, so there is no sampled or generated text here.
func narrative(a types.StrategicAlignment, cfg types.AnalysisConfig) string {
	focus := cfg.StrategicFocus
	if focus == "" {
		focus = "the stated focus"
	}
	if a.TopN == 0 {
		return fmt.Sprintf("No ranked items to assess against %s.", focus)
	}

	base := fmt.Sprintf("%d of top %d items align with %s", a.AlignedCount, a.TopN, focus)
	var assessment string
	switch {
	case a.Proportion >= 0.7:
		assessment = "the backlog leads strongly toward the strategic goal"
	case a.Proportion >= 0.4:
		assessment = "strategic coverage is moderate; review the unaligned leaders"
	default:
		assessment = "top-ranked work is mostly off-strategy; consider re-weighting"
	}
	if cfg.CompetitivePressure == types.PressureHigh {
		assessment += " (high competitive pressure raises the cost of drift)"
	}
	return fmt.Sprintf("%s; %s.", base, assessment)
}

// Confidence buckets the ranked stories into confidence bands. The counts
// tell a reader how much of the ranking rests on solid estimates versus
// heuristic fallback.
func Confidence(ranked []types.ScoredStory) types.ConfidenceSummary {
	summary := types.ConfidenceSummary{
		Counts: map[types.ConfidenceBand]int{
			types.BandHigh:    0,
			types.BandMedium:  0,
			types.BandLow:     0,
			types.BandUnknown: 0,
		},
		Total: len(ranked),
	}
	for i := range ranked {
		summary.Counts[BandFor(ranked[i].Story.Confidence)]++
	}
	return summary
}

// BandFor maps a 0-1 confidence fraction to its band; nil is unknown.
func BandFor(confidence *float64) types.ConfidenceBand {
	switch {
	case confidence == nil:
		return types.BandUnknown
	case *confidence >= HighBandEdge:
		return types.BandHigh
	case *confidence >= MediumBandEdge:
		return types.BandMedium
	default:
		return types.BandLow
	}
}
