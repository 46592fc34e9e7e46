package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadRecordClone(t *testing.T) {
	lead := LeadRecord{"name": "Jane Doe", "company_name": "Acme Analytics"}

	clone := lead.Clone()
	clone["name"] = "Changed"

	assert.Equal(t, "Jane Doe", lead.Get("name"))
	assert.Equal(t, "Changed", clone.Get("name"))
}

func TestLeadRecordGet(t *testing.T) {
	lead := LeadRecord{"name": "Jane", "employee_count": 500, "missing": nil}

	assert.Equal(t, "Jane", lead.Get("name"))
	assert.Equal(t, "500", lead.Get("employee_count"))
	assert.Equal(t, "", lead.Get("missing"))
	assert.Equal(t, "", lead.Get("unknown"))
}

func TestLeadRecordDetailsSorted(t *testing.T) {
	lead := LeadRecord{"b_key": "2", "a_key": "1"}

	assert.Equal(t, "a_key: 1\nb_key: 2\n", lead.Details())
}

func TestScoreResultValidate(t *testing.T) {
	valid := ScoreResult{
		Score:         80,
		NextStep:      NextStepActivelyEngage,
		TalkingPoints: []string{"a", "b", "c"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *ScoreResult)
	}{
		{"score below range", func(r *ScoreResult) { r.Score = -1 }},
		{"score above range", func(r *ScoreResult) { r.Score = 101 }},
		{"unknown next step", func(r *ScoreResult) { r.NextStep = "Maybe Engage" }},
		{"too few talking points", func(r *ScoreResult) { r.TalkingPoints = []string{"a", "b"} }},
		{"no talking points", func(r *ScoreResult) { r.TalkingPoints = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestScoreResultNurtureIsValid(t *testing.T) {
	r := ScoreResult{
		Score:         10,
		NextStep:      NextStepNurture,
		TalkingPoints: []string{"a", "b", "c"},
	}
	assert.NoError(t, r.Validate())
}
