package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratusdb/leadflow/bus"
	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/extract"
	"github.com/stratusdb/leadflow/model"
)

func testLead() core.LeadRecord {
	return core.LeadRecord{
		"name":            "Jane Doe",
		"company_name":    "Tiger Analytics",
		"company_website": "https://www.tigeranalytics.com/",
	}
}

func TestIngestionControllerPublishesReport(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText("Research report: strong fit for real-time analytics.")

	pub := bus.NewInMemoryPublisher()
	c := NewIngestionController(mock, pub)

	err := c.Process(context.Background(), "run-1", Input{Lead: testLead()})
	require.NoError(t, err)

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, TopicIngestionOutput, published[0].Topic)

	payload, ok := published[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Research report: strong fit for real-time analytics.", payload["content"])

	leadData, ok := payload["lead_data"].(map[string]any)
	require.True(t, ok)
	lead, ok := leadData["lead"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", lead["name"])
}

func TestIngestionControllerRendersLeadIntoTask(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	// Nothing enqueued: the mock echoes the rendered task back, which must
	// contain the lead's attributes.
	pub := bus.NewInMemoryPublisher()
	c := NewIngestionController(mock, pub)

	err := c.Process(context.Background(), "run-1", Input{Lead: testLead()})
	require.NoError(t, err)

	published := pub.Published()
	require.Len(t, published, 1)

	payload := published[0].Payload.(map[string]any)
	content, ok := payload["content"].(string)
	require.True(t, ok)
	assert.Contains(t, content, "Tiger Analytics")
	assert.Contains(t, content, "StratusAI Warehouse")
}

func TestIngestionControllerSurvivesWebsiteFailure(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueToolCall("call-1", "get_company_website_information", `{"company_website_url": "https://example.invalid"}`)
	mock.EnqueueText("Research report: site data unavailable, assessed from form responses only.")

	pub := bus.NewInMemoryPublisher()
	c := NewIngestionController(mock, pub)

	err := c.Process(context.Background(), "run-1", Input{Lead: testLead()})
	require.NoError(t, err)

	published := pub.Published()
	require.Len(t, published, 1)

	payload := published[0].Payload.(map[string]any)
	content, ok := payload["content"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, content)
}

func TestScoringControllerPublishesValidatedVerdict(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText(`Verdict follows: {"score": 85, "next_step": "Actively Engage", "talking_points": ["real-time analytics", "multi-cloud", "migration from Snowflake"]}`)

	pub := bus.NewInMemoryPublisher()
	c := NewScoringController(mock, pub)

	err := c.Process(context.Background(), "run-1", Input{Lead: testLead(), Content: "research report"})
	require.NoError(t, err)

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, TopicScoringOutput, published[0].Topic)

	payload, ok := published[0].Payload.(map[string]any)
	require.True(t, ok)

	eval, ok := payload["lead_evaluation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(85), eval["score"])
	assert.Equal(t, core.NextStepActivelyEngage, eval["next_step"])

	leadData, ok := payload["lead_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", leadData["name"])
}

func TestScoringControllerRejectsMissingJSON(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText("I cannot produce a score for this lead.")

	pub := bus.NewInMemoryPublisher()
	c := NewScoringController(mock, pub)

	err := c.Process(context.Background(), "run-1", Input{Lead: testLead(), Content: "report"})
	assert.ErrorIs(t, err, extract.ErrNoJSONObject)
	assert.Empty(t, pub.Published())
}

func TestScoringControllerRejectsSchemaViolation(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText(`{"score": "not-a-number", "next_step": "Nurture", "talking_points": ["a", "b", "c"]}`)

	pub := bus.NewInMemoryPublisher()
	c := NewScoringController(mock, pub)

	err := c.Process(context.Background(), "run-1", Input{Lead: testLead(), Content: "report"})
	assert.ErrorIs(t, err, extract.ErrSchema)
	assert.Empty(t, pub.Published())
}

func TestOutreachControllerPublishesPlan(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText("Email Jane with a migration-focused pitch.")

	pub := bus.NewInMemoryPublisher()
	c := NewOutreachController(mock, pub)

	err := c.Process(context.Background(), "run-1", Input{
		Lead:    testLead(),
		Content: `{"score": 85, "next_step": "Actively Engage"}`,
	})
	require.NoError(t, err)

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, TopicOutreachOutput, published[0].Topic)

	payload := published[0].Payload.(map[string]any)
	assert.Equal(t, "Email Jane with a migration-focused pitch.", payload["outreach_plan"])
}

func TestControllerTopicOverride(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText("report")

	pub := bus.NewInMemoryPublisher()
	c := NewIngestionController(mock, pub, func(o *Options) {
		o.Topic = "custom-topic"
	})

	require.Equal(t, "custom-topic", c.Topic())

	err := c.Process(context.Background(), "run-1", Input{Lead: testLead()})
	require.NoError(t, err)

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "custom-topic", published[0].Topic)
}
