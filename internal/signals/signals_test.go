package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/prioritizer/internal/types"
)

func f(v float64) *float64 { return &v }

func TestResolvePrecedence(t *testing.T) {
	raw := RawStorySignals{
		StoryID:       "story-1",
		ProjectID:     "proj-1",
		Title:         "Checkout redesign",
		PriorityLabel: "high",
		Estimate: &EstimatorOutput{
			BusinessValue: f(6),
			Reach:         f(500),
		},
	}
	override := &ManualOverride{BusinessValue: f(9)}

	c := Resolve(raw, override)

	require.NotNil(t, c.BusinessValue)
	assert.Equal(t, 9.0, *c.BusinessValue, "manual override wins over estimator")
	assert.Equal(t, types.ProvenanceManual, c.Provenance[FieldBusinessValue])

	require.NotNil(t, c.Reach)
	assert.Equal(t, 500.0, *c.Reach)
	assert.Equal(t, types.ProvenanceEstimator, c.Provenance[FieldReach])

	// No override or estimate for time criticality: label heuristic applies.
	require.NotNil(t, c.TimeCriticality)
	assert.Equal(t, 8.0, *c.TimeCriticality, "high label maps to 8")
	assert.Equal(t, types.ProvenanceLabel, c.Provenance[FieldTimeCriticality])
}

func TestResolveLabelHeuristicValues(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"critical", 10},
		{"high", 8},
		{"medium", 5},
		{"low", 3},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			c := Resolve(RawStorySignals{StoryID: "s", PriorityLabel: tt.label}, nil)
			require.NotNil(t, c.BusinessValue)
			assert.Equal(t, tt.want, *c.BusinessValue)
		})
	}

	// Unknown label yields no signal, not zero.
	c := Resolve(RawStorySignals{StoryID: "s", PriorityLabel: "urgent-ish"}, nil)
	assert.Nil(t, c.BusinessValue)
}

func TestResolveJobSizeChain(t *testing.T) {
	points := 5

	tests := []struct {
		name     string
		raw      RawStorySignals
		override *ManualOverride
		want     *float64
		prov     types.Provenance
	}{
		{
			name:     "override wins",
			raw:      RawStorySignals{StoryID: "s", Estimate: &EstimatorOutput{SuggestedJobSize: f(8)}, StoryPoints: &points},
			override: &ManualOverride{JobSize: f(3)},
			want:     f(3),
			prov:     types.ProvenanceManual,
		},
		{
			name: "effort estimator suggestion next",
			raw:  RawStorySignals{StoryID: "s", Estimate: &EstimatorOutput{SuggestedJobSize: f(8), Effort: f(4)}, StoryPoints: &points},
			want: f(8),
			prov: types.ProvenanceEstimator,
		},
		{
			name: "impact estimator effort next",
			raw:  RawStorySignals{StoryID: "s", Estimate: &EstimatorOutput{Effort: f(4)}, StoryPoints: &points},
			want: f(4),
			prov: types.ProvenanceEstimator,
		},
		{
			name: "raw story points last",
			raw:  RawStorySignals{StoryID: "s", StoryPoints: &points},
			want: f(5),
			prov: types.ProvenanceStoryPts,
		},
		{
			name: "nothing yields nil, never zero",
			raw:  RawStorySignals{StoryID: "s"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Resolve(tt.raw, tt.override)
			if tt.want == nil {
				assert.Nil(t, c.JobSize)
				_, present := c.Provenance[FieldJobSize]
				assert.False(t, present)
				return
			}
			require.NotNil(t, c.JobSize)
			assert.Equal(t, *tt.want, *c.JobSize)
			assert.Equal(t, tt.prov, c.Provenance[FieldJobSize])
		})
	}
}

func TestResolveConfidenceNormalization(t *testing.T) {
	// Percent-unit estimator signal divides by 100 once.
	c := Resolve(RawStorySignals{
		StoryID:  "s",
		Estimate: &EstimatorOutput{Confidence: f(85), ConfidenceUnit: UnitPercent},
	}, nil)
	require.NotNil(t, c.Confidence)
	assert.InDelta(t, 0.85, *c.Confidence, 1e-9)

	// Fraction-unit signal passes through untouched.
	c = Resolve(RawStorySignals{
		StoryID:  "s",
		Estimate: &EstimatorOutput{Confidence: f(0.6), ConfidenceUnit: UnitFraction},
	}, nil)
	require.NotNil(t, c.Confidence)
	assert.InDelta(t, 0.6, *c.Confidence, 1e-9)

	// Manual override is already canonical and is never re-normalized.
	c = Resolve(RawStorySignals{
		StoryID:  "s",
		Estimate: &EstimatorOutput{Confidence: f(85), ConfidenceUnit: UnitPercent},
	}, &ManualOverride{Confidence: f(0.4)})
	require.NotNil(t, c.Confidence)
	assert.InDelta(t, 0.4, *c.Confidence, 1e-9)
}

func TestResolveMoscowFallback(t *testing.T) {
	must := types.MoscowMust

	c := Resolve(RawStorySignals{StoryID: "s", PriorityLabel: "medium"}, &ManualOverride{Moscow: &must})
	require.NotNil(t, c.Moscow)
	assert.Equal(t, types.MoscowMust, *c.Moscow)
	assert.Equal(t, types.ProvenanceManual, c.Provenance[FieldMoscow])

	c = Resolve(RawStorySignals{StoryID: "s", PriorityLabel: "medium"}, nil)
	require.NotNil(t, c.Moscow)
	assert.Equal(t, types.MoscowCould, *c.Moscow)
	assert.Equal(t, types.ProvenanceLabel, c.Provenance[FieldMoscow])

	c = Resolve(RawStorySignals{StoryID: "s"}, nil)
	assert.Nil(t, c.Moscow)
}

func TestResolveAllFlagsIncomplete(t *testing.T) {
	rows := []RawStorySignals{
		{
			StoryID: "complete",
			Estimate: &EstimatorOutput{
				BusinessValue:    f(8),
				TimeCriticality:  f(5),
				RiskReduction:    f(3),
				SuggestedJobSize: f(4),
			},
		},
		{StoryID: "empty"},
	}

	candidates := ResolveAll(rows, nil, types.FrameworkWSJF)
	require.Len(t, candidates, 2)

	assert.False(t, candidates[0].Incomplete)
	assert.Empty(t, candidates[0].MissingFields)

	assert.True(t, candidates[1].Incomplete, "story with no signals is flagged, not zero-filled")
	assert.ElementsMatch(t, []string{
		FieldBusinessValue, FieldTimeCriticality, FieldRiskReduction, FieldJobSize,
	}, candidates[1].MissingFields)
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{FieldBusinessValue, FieldTimeCriticality, FieldRiskReduction, FieldJobSize}, RequiredFields(types.FrameworkWSJF))
	assert.Equal(t, []string{FieldReach, FieldImpact, FieldConfidence, FieldEffort}, RequiredFields(types.FrameworkRICE))
	assert.Equal(t, []string{FieldMoscow}, RequiredFields(types.FrameworkMoscow))
	assert.Equal(t, []string{FieldBusinessValue}, RequiredFields(types.FrameworkValueEffort))
}
