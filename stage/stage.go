package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stratusdb/leadflow/agent"
	"github.com/stratusdb/leadflow/bus"
	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/internal/util"
	"github.com/stratusdb/leadflow/logging"
	"github.com/stratusdb/leadflow/model"
	"github.com/stratusdb/leadflow/tool"
)

// Input carries what a stage needs to process one lead.
type Input struct {
	// Lead is the raw lead record as submitted.
	Lead core.LeadRecord
	// Content is the upstream stage's textual output. Empty for the first
	// stage in the pipeline.
	Content string
}

// Options configures a Controller beyond its stage-defining fields.
type Options struct {
	// Topic overrides the stage's default output topic.
	Topic string
	// MaxTurns overrides the loop's turn cap.
	MaxTurns int
	Logger   logging.Logger
}

// Controller runs one pipeline stage. It renders the task from its template,
// drives the reasoning loop, builds the output payload, and publishes it.
// Controllers are immutable after construction and safe for concurrent use.
type Controller struct {
	name         string
	instruction  string
	taskTemplate string
	loop         *agent.Loop
	publisher    bus.Publisher
	topic        string
	buildPayload func(raw string, in Input) (map[string]any, error)
	logger       logging.Logger
}

func newController(
	name, instruction, taskTemplate, defaultTopic string,
	llm model.Model,
	tools tool.Set,
	publisher bus.Publisher,
	buildPayload func(raw string, in Input) (map[string]any, error),
	optFns ...func(o *Options),
) *Controller {
	opts := Options{
		Topic:    defaultTopic,
		MaxTurns: agent.DefaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	loop := agent.NewLoop(llm, tools, func(o *agent.LoopOptions) {
		o.MaxTurns = opts.MaxTurns
		o.Logger = opts.Logger
	})

	return &Controller{
		name:         name,
		instruction:  instruction,
		taskTemplate: taskTemplate,
		loop:         loop,
		publisher:    publisher,
		topic:        opts.Topic,
		buildPayload: buildPayload,
		logger:       opts.Logger,
	}
}

// Name returns the stage name used in logs and run records.
func (c *Controller) Name() string { return c.name }

// Topic returns the stage's output topic.
func (c *Controller) Topic() string { return c.topic }

// Process runs the stage for one lead. Any failure, whether in the loop, in
// output extraction, or in publication, is returned to the caller and no
// message reaches the output topic.
func (c *Controller) Process(ctx context.Context, runID string, in Input) error {
	task, err := c.renderTask(in)
	if err != nil {
		return fmt.Errorf("stage %s: failed to render task: %w", c.name, err)
	}

	c.logger.Info("stage.process.start", "stage", c.name, "run", runID)

	raw, err := c.loop.Run(ctx, runID, c.instruction, task)
	if err != nil {
		c.logger.Error("stage.process.loop_failed", "stage", c.name, "run", runID, "error", err.Error())
		return fmt.Errorf("stage %s: %w", c.name, err)
	}

	payload, err := c.buildPayload(raw, in)
	if err != nil {
		c.logger.Error("stage.process.invalid_output", "stage", c.name, "run", runID, "error", err.Error())
		return fmt.Errorf("stage %s: %w", c.name, err)
	}

	if err := c.publisher.Publish(ctx, c.topic, payload); err != nil {
		return fmt.Errorf("stage %s: %w", c.name, err)
	}

	c.logger.Info("stage.process.published", "stage", c.name, "run", runID, "topic", c.topic)

	return nil
}

// renderTask fills the task template with the lead details and any upstream
// content.
func (c *Controller) renderTask(in Input) (string, error) {
	return util.RenderTemplate(c.taskTemplate, map[string]any{
		"lead_details": leadDetailsJSON(in.Lead),
		"content":      in.Content,
	})
}

// leadDetailsJSON renders the lead record as indented JSON for prompt
// embedding. Marshal failure falls back to the flat key listing.
func leadDetailsJSON(lead core.LeadRecord) string {
	data, err := json.MarshalIndent(lead, "", "  ")
	if err != nil {
		return lead.Details()
	}

	return string(data)
}
