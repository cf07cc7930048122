package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/types"
)

func f(v float64) *float64 { return &v }

func wsjfStory(bv, tc, rr, jobSize float64) types.StoryCandidate {
	return types.StoryCandidate{
		StoryID:         "s",
		BusinessValue:   f(bv),
		TimeCriticality: f(tc),
		RiskReduction:   f(rr),
		JobSize:         f(jobSize),
	}
}

func TestScoreWSJF(t *testing.T) {
	// Spec scenario: A(8,5,3,4) -> 4.0, B(5,5,5,5) -> 3.0
	a := wsjfStory(8, 5, 3, 4)
	res := Score(&a, types.FrameworkWSJF)
	assert.False(t, res.Unscoreable)
	assert.Equal(t, 4.0, res.Score)

	b := wsjfStory(5, 5, 5, 5)
	res = Score(&b, types.FrameworkWSJF)
	assert.Equal(t, 3.0, res.Score)
}

func TestScoreWSJFDivisionSafety(t *testing.T) {
	tests := []struct {
		name  string
		story types.StoryCandidate
	}{
		{"zero job size", wsjfStory(8, 5, 3, 0)},
		{"negative job size", wsjfStory(8, 5, 3, -2)},
		{
			"missing job size",
			types.StoryCandidate{StoryID: "s", BusinessValue: f(8), TimeCriticality: f(5), RiskReduction: f(3)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(&tt.story, types.FrameworkWSJF)
			require.True(t, res.Unscoreable, "must be excluded, never scored as 0 or Inf")
			assert.Equal(t, ReasonZeroJobSize, res.Reason)
			assert.False(t, math.IsInf(res.Score, 0))
		})
	}
}

func TestScoreWSJFMissingNumerator(t *testing.T) {
	story := types.StoryCandidate{StoryID: "s", BusinessValue: f(8), JobSize: f(4)}
	res := Score(&story, types.FrameworkWSJF)
	require.True(t, res.Unscoreable)
	assert.Equal(t, "missing fields: time_criticality, risk_reduction", res.Reason)
}

func TestScoreWSJFManualOverride(t *testing.T) {
	// A manual WSJF score wins even when the formula inputs are absent.
	story := types.StoryCandidate{StoryID: "s", ManualWSJF: f(12.5)}
	res := Score(&story, types.FrameworkWSJF)
	assert.False(t, res.Unscoreable)
	assert.Equal(t, 12.5, res.Score)
}

func TestScoreRICE(t *testing.T) {
	story := types.StoryCandidate{
		StoryID:    "s",
		Reach:      f(1000),
		Impact:     f(2),
		Confidence: f(0.8),
		Effort:     f(4),
	}
	res := Score(&story, types.FrameworkRICE)
	assert.False(t, res.Unscoreable)
	assert.InDelta(t, 400.0, res.Score, 1e-9)
}

func TestScoreRICEDivisionSafety(t *testing.T) {
	story := types.StoryCandidate{
		StoryID:    "s",
		Reach:      f(1000),
		Impact:     f(2),
		Confidence: f(0.8),
		Effort:     f(0),
	}
	res := Score(&story, types.FrameworkRICE)
	require.True(t, res.Unscoreable)
	assert.Equal(t, ReasonZeroEffort, res.Reason)

	story.Effort = nil
	res = Score(&story, types.FrameworkRICE)
	require.True(t, res.Unscoreable)
	assert.Equal(t, ReasonZeroEffort, res.Reason)
}

func TestScoreMoscow(t *testing.T) {
	must := types.MoscowMust
	could := types.MoscowCould

	manual := types.StoryCandidate{
		StoryID:    "s",
		Moscow:     &must,
		Provenance: map[string]types.Provenance{signals.FieldMoscow: types.ProvenanceManual},
	}
	res := Score(&manual, types.FrameworkMoscow)
	require.NotNil(t, res.Category)
	assert.Equal(t, types.MoscowMust, *res.Category)
	assert.False(t, res.HeuristicDerived)

	derived := types.StoryCandidate{
		StoryID:    "s",
		Moscow:     &could,
		Provenance: map[string]types.Provenance{signals.FieldMoscow: types.ProvenanceLabel},
	}
	res = Score(&derived, types.FrameworkMoscow)
	require.NotNil(t, res.Category)
	assert.Equal(t, types.MoscowCould, *res.Category)
	assert.True(t, res.HeuristicDerived, "label-derived classification is marked heuristic")

	none := types.StoryCandidate{StoryID: "s"}
	res = Score(&none, types.FrameworkMoscow)
	assert.True(t, res.Unscoreable)
}

func TestScoreMoscowOrdering(t *testing.T) {
	// Category ordinals order Must > Should > Could > Wont for ranking.
	cats := []types.MoscowCategory{types.MoscowMust, types.MoscowShould, types.MoscowCould, types.MoscowWont}
	var last float64 = math.Inf(1)
	for _, cat := range cats {
		c := cat
		story := types.StoryCandidate{StoryID: "s", Moscow: &c}
		res := Score(&story, types.FrameworkMoscow)
		assert.Less(t, res.Score, last)
		last = res.Score
	}
}

func TestScoreValueEffort(t *testing.T) {
	tests := []struct {
		name  string
		story types.StoryCandidate
		want  float64
	}{
		{
			name:  "uses larger of effort and job size",
			story: types.StoryCandidate{StoryID: "s", BusinessValue: f(8), Effort: f(2), JobSize: f(4)},
			want:  2.0,
		},
		{
			name:  "clamps denominator to 1 when signals are absent",
			story: types.StoryCandidate{StoryID: "s", BusinessValue: f(8)},
			want:  8.0,
		},
		{
			name:  "clamps denominator to 1 when effort is fractional",
			story: types.StoryCandidate{StoryID: "s", BusinessValue: f(8), Effort: f(0.5)},
			want:  8.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(&tt.story, types.FrameworkValueEffort)
			require.False(t, res.Unscoreable, "value/effort never excludes on division grounds")
			assert.InDelta(t, tt.want, res.Score, 1e-9)
		})
	}

	missing := types.StoryCandidate{StoryID: "s"}
	res := Score(&missing, types.FrameworkValueEffort)
	assert.True(t, res.Unscoreable, "still needs a business value signal")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.33, Round2(10.0/3.0))
	assert.Equal(t, 4.0, Round2(4.0))
	assert.Equal(t, 0.67, Round2(2.0/3.0))
}
