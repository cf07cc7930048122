// Package ranking orders scored stories within a framework with
// deterministic tie-breaks, so identical inputs always produce identical
// output order.
package ranking

import (
	"math"
	"sort"

	"github.com/sprintdeck/prioritizer/internal/scoring"
	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// Ranked is the output of one ranking pass: the scored section ordered
// best-first, and the unscoreable tail in original input order.
type Ranked struct {
	Scored      []types.ScoredStory
	Unscoreable []types.UnscoreableStory
}

// Rank scores every candidate under the framework and sorts the scoreable
// ones. Sort key: score descending. Ties break on (1) manual-override
// confidence descending, (2) job size/effort ascending (smaller wins
// first), (3) story id ascending. Unscoreable stories are appended after
// the ranked section, keeping their input order.
func Rank(candidates []types.StoryCandidate, framework types.Framework) Ranked {
	var out Ranked
	for i := range candidates {
		c := candidates[i]
		res := scoring.Score(&c, framework)
		if res.Unscoreable {
			out.Unscoreable = append(out.Unscoreable, types.UnscoreableStory{Story: c, Reason: res.Reason})
			continue
		}
		out.Scored = append(out.Scored, types.ScoredStory{
			Story:            c,
			Score:            res.Score,
			Category:         res.Category,
			HeuristicDerived: res.HeuristicDerived,
		})
	}

	sort.SliceStable(out.Scored, func(i, j int) bool {
		a, b := &out.Scored[i], &out.Scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ac, bc := manualConfidence(&a.Story), manualConfidence(&b.Story)
		if ac != bc {
			return ac > bc
		}
		acost, bcost := tieBreakCost(&a.Story), tieBreakCost(&b.Story)
		if acost != bcost {
			return acost < bcost
		}
		return a.Story.StoryID < b.Story.StoryID
	})

	for i := range out.Scored {
		out.Scored[i].Rank = i + 1
	}
	return out
}

// manualConfidence returns the story's confidence when it was entered by a
// human, and -1 otherwise, so manually vouched-for stories win ties.
func manualConfidence(s *types.StoryCandidate) float64 {
	if s.Provenance[signals.FieldConfidence] != types.ProvenanceManual {
		return -1
	}
	if s.Confidence == nil {
		return -1
	}
	return *s.Confidence
}

// tieBreakCost prefers smaller, faster wins on equal scores. Job size is
// the primary cost signal, effort the fallback; a story with neither sorts
// after one with either.
func tieBreakCost(s *types.StoryCandidate) float64 {
	if s.JobSize != nil {
		return *s.JobSize
	}
	if s.Effort != nil {
		return *s.Effort
	}
	return math.MaxFloat64
}
