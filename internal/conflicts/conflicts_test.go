package conflicts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/prioritizer/internal/types"
)

func f(v float64) *float64 { return &v }

func ranked(stories ...types.StoryCandidate) []types.ScoredStory {
	out := make([]types.ScoredStory, len(stories))
	for i, s := range stories {
		out[i] = types.ScoredStory{Story: s, Rank: i + 1}
	}
	return out
}

func story(id, team string, cost float64) types.StoryCandidate {
	return types.StoryCandidate{StoryID: id, TeamDependency: team, JobSize: f(cost)}
}

func TestDetectSharedDependencyOverCapacity(t *testing.T) {
	list := ranked(
		story("s-1", "payments", 8),
		story("s-2", "payments", 7),
		story("s-3", "mobile", 4),
	)

	found := Detect(list, len(list), 10)
	require.Len(t, found, 1)

	c := found[0]
	assert.ElementsMatch(t, []string{"s-1", "s-2"}, c.StoryIDs)
	assert.Equal(t, "payments", c.SharedConstraint)
	assert.Equal(t, 15.0, c.CombinedCost)
	assert.Equal(t, 10.0, c.TeamCapacity)
	assert.InDelta(t, 50.0, c.OvershootPct, 1e-9)
	assert.Equal(t, types.SeverityMedium, c.Severity)
}

func TestDetectNoConflictWithinCapacity(t *testing.T) {
	list := ranked(
		story("s-1", "payments", 4),
		story("s-2", "payments", 5),
	)
	assert.Empty(t, Detect(list, len(list), 10), "combined cost within capacity is not a conflict")
}

func TestDetectRespectsTopN(t *testing.T) {
	list := ranked(
		story("s-1", "payments", 8),
		story("s-2", "mobile", 3),
		story("s-3", "payments", 7), // below the cut line
	)

	assert.Empty(t, Detect(list, 2, 10), "stories below the cut line do not conflict")
	assert.Len(t, Detect(list, 3, 10), 1)
}

func TestDetectIgnoresStoriesWithoutDependency(t *testing.T) {
	list := ranked(
		story("s-1", "", 8),
		story("s-2", "", 9),
	)
	assert.Empty(t, Detect(list, len(list), 10))
}

func TestDetectSeverityBands(t *testing.T) {
	tests := []struct {
		name     string
		costs    [2]float64
		capacity float64
		want     types.ConflictSeverity
	}{
		{"just over is low", [2]float64{6, 6}, 10, types.SeverityLow},        // 20% over
		{"half over is medium", [2]float64{8, 7}, 10, types.SeverityMedium},  // 50% over
		{"double is high", [2]float64{10, 10}, 10, types.SeverityHigh},       // 100% over
		{"boundary 25 is low", [2]float64{6.25, 6.25}, 10, types.SeverityLow}, // exactly 25% over
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := ranked(
				story("s-1", "core", tt.costs[0]),
				story("s-2", "core", tt.costs[1]),
			)
			found := Detect(list, len(list), tt.capacity)
			require.Len(t, found, 1)
			assert.Equal(t, tt.want, found[0].Severity)
		})
	}
}

func TestDetectOrdersWorstFirst(t *testing.T) {
	list := ranked(
		story("a-1", "alpha", 6),
		story("a-2", "alpha", 6), // 20% over
		story("b-1", "beta", 10),
		story("b-2", "beta", 10), // 100% over
	)

	found := Detect(list, len(list), 10)
	require.Len(t, found, 2)
	assert.Equal(t, "beta", found[0].SharedConstraint)
	assert.Equal(t, "alpha", found[1].SharedConstraint)
}

func TestDetectThreeWayConflict(t *testing.T) {
	list := ranked(
		story("s-1", "core", 5),
		story("s-2", "core", 5),
		story("s-3", "core", 5),
	)

	found := Detect(list, len(list), 10)
	require.Len(t, found, 1)
	assert.Len(t, found[0].StoryIDs, 3)
	assert.Equal(t, types.SeverityMedium, found[0].Severity) // 50% over
}
