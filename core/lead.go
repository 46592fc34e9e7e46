package core

import (
	"fmt"
	"sort"
	"strings"
)

// LeadRecord is a mapping of free-form lead attributes (name, email,
// company_name, company_website, lead_source, job_title,
// project_description, ...). Records are treated as immutable once ingested;
// Clone before handing a record to another stage.
type LeadRecord map[string]any

// Clone returns a shallow copy so downstream stages never share the map.
func (l LeadRecord) Clone() LeadRecord {
	c := make(LeadRecord, len(l))
	for k, v := range l {
		c[k] = v
	}
	return c
}

// Get returns the string form of an attribute, or "" when absent.
func (l LeadRecord) Get(key string) string {
	v, ok := l[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Details renders the record as stable "key: value" lines for embedding in
// prompts. Keys are sorted so identical records produce identical text.
func (l LeadRecord) Details() string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, l.Get(k))
	}
	return b.String()
}

// NextStep enumerates the two engagement recommendations the scoring stage
// may produce. No other values are valid.
const (
	NextStepNurture        = "Nurture"
	NextStepActivelyEngage = "Actively Engage"
)

// ScoreResult field bounds.
const (
	ScoreMin         = 0
	ScoreMax         = 100
	MinTalkingPoints = 3
)

// ScoreResult is the structured output of the scoring stage. All fields must
// be present and well-typed before publication; malformed results are never
// published downstream.
type ScoreResult struct {
	Score         int      `json:"score"`
	NextStep      string   `json:"next_step"`
	TalkingPoints []string `json:"talking_points"`
}

// Validate checks the ScoreResult invariants: score in [0,100], next_step one
// of the two enumerated literals, at least three talking points.
func (r ScoreResult) Validate() error {
	if r.Score < ScoreMin || r.Score > ScoreMax {
		return fmt.Errorf("score %d outside [%d,%d]", r.Score, ScoreMin, ScoreMax)
	}
	if r.NextStep != NextStepNurture && r.NextStep != NextStepActivelyEngage {
		return fmt.Errorf("next_step %q is not %q or %q", r.NextStep, NextStepNurture, NextStepActivelyEngage)
	}
	if len(r.TalkingPoints) < MinTalkingPoints {
		return fmt.Errorf("talking_points has %d entries, need at least %d", len(r.TalkingPoints), MinTalkingPoints)
	}
	return nil
}
