package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratusdb/leadflow/model"
)

func TestSyntheticRecordToolPromptsWithLeadDetails(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText(`{"contact": {"name": "Jane Doe"}}`)

	st := NewSyntheticRecordTool(mock)

	result, err := st.Call(testToolContext(), map[string]any{"lead_details": "Jane Doe, Acme Analytics"})
	require.NoError(t, err)
	assert.Equal(t, `{"contact": {"name": "Jane Doe"}}`, result)
}

func TestSyntheticEnrichmentToolEmbedsSampleShape(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")

	st := NewSyntheticEnrichmentTool(mock)

	// With nothing enqueued the mock echoes the prompt, which must carry the
	// lead details and the worked example payload.
	result, err := st.Call(testToolContext(), map[string]any{"lead_details": "Jane Doe, Acme Analytics"})
	require.NoError(t, err)

	text, ok := result.(string)
	require.True(t, ok)
	assert.Contains(t, text, "Jane Doe, Acme Analytics")
	assert.Contains(t, text, "key_decision_makers")
	assert.Contains(t, text, "funding_info")
}

func TestSyntheticToolsRequireLeadDetails(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")

	for _, tl := range []Tool{NewSyntheticRecordTool(mock), NewSyntheticEnrichmentTool(mock)} {
		_, err := tl.Call(testToolContext(), map[string]any{})
		assert.Error(t, err, "tool %s", tl.Name())
	}
}
