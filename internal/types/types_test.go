package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameworkIsValid(t *testing.T) {
	valid := []Framework{FrameworkWSJF, FrameworkRICE, FrameworkMoscow, FrameworkValueEffort}
	for _, f := range valid {
		assert.True(t, f.IsValid(), "framework %s should be valid", f)
	}
	assert.False(t, Framework("kano").IsValid())
	assert.False(t, Framework("").IsValid())
}

func TestAnalysisConfigValidate(t *testing.T) {
	negative := -5.0
	positive := 40.0

	tests := []struct {
		name    string
		config  AnalysisConfig
		wantErr bool
	}{
		{
			name:   "valid wsjf config",
			config: AnalysisConfig{Framework: FrameworkWSJF, StrategicFocus: "growth"},
		},
		{
			name:   "valid config with budget and pressure",
			config: AnalysisConfig{Framework: FrameworkRICE, CompetitivePressure: PressureHigh, QuarterlyBudget: &positive},
		},
		{
			name:    "unknown framework rejected",
			config:  AnalysisConfig{Framework: "kano"},
			wantErr: true,
		},
		{
			name:    "negative budget rejected",
			config:  AnalysisConfig{Framework: FrameworkWSJF, QuarterlyBudget: &negative},
			wantErr: true,
		},
		{
			name:    "unknown pressure rejected",
			config:  AnalysisConfig{Framework: FrameworkWSJF, CompetitivePressure: "extreme"},
			wantErr: true,
		},
		{
			name:   "empty pressure allowed",
			config: AnalysisConfig{Framework: FrameworkMoscow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				var inputErr *InputError
				assert.ErrorAs(t, err, &inputErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScoreRecordValidate(t *testing.T) {
	score := 4.0

	rec := ScoreRecord{StoryID: "story-1", Framework: FrameworkWSJF, Score: &score}
	assert.NoError(t, rec.Validate())

	rec = ScoreRecord{Framework: FrameworkWSJF}
	assert.Error(t, rec.Validate(), "missing story id should be rejected")

	rec = ScoreRecord{StoryID: "story-1", Framework: "bogus"}
	assert.Error(t, rec.Validate())

	rec = ScoreRecord{StoryID: "story-1", Framework: FrameworkWSJF, Unscoreable: true, Score: &score}
	assert.Error(t, rec.Validate(), "unscoreable record cannot also carry a score")
}

func TestScoreRecordIsManualField(t *testing.T) {
	rec := ScoreRecord{
		StoryID:          "story-1",
		Framework:        FrameworkWSJF,
		IsManualOverride: true,
		ManualFields:     []string{"score"},
	}
	assert.True(t, rec.IsManualField("score"))
	assert.False(t, rec.IsManualField("rank"))
}

func TestHasManualSignal(t *testing.T) {
	s := StoryCandidate{
		Provenance: map[string]Provenance{
			"business_value": ProvenanceEstimator,
			"job_size":       ProvenanceStoryPts,
		},
	}
	assert.False(t, s.HasManualSignal())

	s.Provenance["effort"] = ProvenanceManual
	assert.True(t, s.HasManualSignal())
}
