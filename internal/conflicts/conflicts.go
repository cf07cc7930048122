// Package conflicts scans the top of a ranked story list for competing
// high-priority items that cannot all proceed: stories sharing a team
// dependency whose combined cost exceeds what that team can deliver in
// one period. It flags tension; resolving it is a planner's job.
package conflicts

import (
	"sort"

	"github.com/sprintdeck/prioritizer/internal/capacity"
	"github.com/sprintdeck/prioritizer/internal/types"
)

// Detect examines the first topN ranked stories (pass len(ranked) when no
// capacity constraint applies) and returns one conflict per team whose
// highly-ranked stories together overrun teamCapacity. Conflicts come back
// ordered by severity, worst first, then by constraint name for a
// deterministic report.
func Detect(ranked []types.ScoredStory, topN int, teamCapacity float64) []types.Conflict {
	if topN > len(ranked) {
		topN = len(ranked)
	}
	if topN < 2 || teamCapacity <= 0 {
		return nil
	}

	byTeam := make(map[string][]*types.ScoredStory)
	for i := 0; i < topN; i++ {
		team := ranked[i].Story.TeamDependency
		if team == "" {
			continue
		}
		byTeam[team] = append(byTeam[team], &ranked[i])
	}

	var found []types.Conflict
	for team, stories := range byTeam {
		if len(stories) < 2 {
			continue
		}
		combined := 0.0
		ids := make([]string, 0, len(stories))
		for _, s := range stories {
			combined += capacity.ItemCost(&s.Story)
			ids = append(ids, s.Story.StoryID)
		}
		if combined <= teamCapacity {
			continue
		}
		overshoot := (combined - teamCapacity) / teamCapacity * 100
		found = append(found, types.Conflict{
			StoryIDs:         ids,
			SharedConstraint: team,
			CombinedCost:     combined,
			TeamCapacity:     teamCapacity,
			OvershootPct:     overshoot,
			Severity:         severityFor(overshoot),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].OvershootPct != found[j].OvershootPct {
			return found[i].OvershootPct > found[j].OvershootPct
		}
		return found[i].SharedConstraint < found[j].SharedConstraint
	})
	return found
}

// severityFor grades percentage overshoot on a three-level ordinal:
// up to 25% over is low, up to 75% medium, beyond that high.
func severityFor(overshootPct float64) types.ConflictSeverity {
	switch {
	case overshootPct <= 25:
		return types.SeverityLow
	case overshootPct <= 75:
		return types.SeverityMedium
	default:
		return types.SeverityHigh
	}
}
