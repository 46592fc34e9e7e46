// Package leadflow provides a high-level façade over the lead qualification
// pipeline: reasoning-backed stages (ingestion research, scoring, outreach
// planning), the supervised runner that executes them, and the bus that
// hands output from one stage to the next. Most applications interact with
// this package by:
//  1. Creating a Pipeline via New() with a model and optional overrides
//  2. Serving the HTTP trigger surface (Serve) or driving stages directly
//     (IngestLead, ScoreLead, PlanOutreach)
//  3. Inspecting run outcomes through WaitRun / RunStatus
//
// All defaults are safe for local development: an in-process publisher
// stands in for the broker and the no-op logger keeps output quiet.
// Production deployments supply a Kafka-backed publisher and a structured
// logger.
package leadflow

import (
	"context"

	"github.com/stratusdb/leadflow/bus"
	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/logging"
	"github.com/stratusdb/leadflow/model"
	"github.com/stratusdb/leadflow/runner"
	"github.com/stratusdb/leadflow/server"
	"github.com/stratusdb/leadflow/stage"
)

// Options configures the Pipeline instance.
type Options struct {
	// Publisher receives stage output (defaults to an in-process publisher).
	Publisher bus.Publisher

	// MaxConcurrentRuns bounds how many leads are processed at once.
	MaxConcurrentRuns int

	// MaxTurns caps the reasoning loop for every stage.
	MaxTurns int

	// Addr is the HTTP listen address for Serve.
	Addr string

	// Topic overrides (defaults follow the stage package constants).
	IngestionTopic string
	ScoringTopic   string
	OutreachTopic  string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Pipeline is the high-level façade aggregating the stages, runner, and
// trigger server.
type Pipeline struct {
	ingestion *stage.Controller
	scoring   *stage.Controller
	outreach  *stage.Controller
	runner    *runner.Runner
	server    *server.Server
	publisher bus.Publisher
}

// New creates a Pipeline over the given reasoning model with optional
// overrides.
func New(llm model.Model, optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		Publisher:         bus.NewInMemoryPublisher(),
		MaxConcurrentRuns: runner.DefaultMaxConcurrent,
		MaxTurns:          0,
		Addr:              server.DefaultAddr,
		IngestionTopic:    stage.TopicIngestionOutput,
		ScoringTopic:      stage.TopicScoringOutput,
		OutreachTopic:     stage.TopicOutreachOutput,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	stageOpts := func(topic string) func(o *stage.Options) {
		return func(o *stage.Options) {
			o.Topic = topic
			o.Logger = opts.Logger
			if opts.MaxTurns > 0 {
				o.MaxTurns = opts.MaxTurns
			}
		}
	}

	ingestion := stage.NewIngestionController(llm, opts.Publisher, stageOpts(opts.IngestionTopic))
	scoring := stage.NewScoringController(llm, opts.Publisher, stageOpts(opts.ScoringTopic))
	outreach := stage.NewOutreachController(llm, opts.Publisher, stageOpts(opts.OutreachTopic))

	run := runner.New(func(o *runner.Options) {
		o.MaxConcurrent = opts.MaxConcurrentRuns
		o.Logger = opts.Logger
	})

	srv := server.New(ingestion, scoring, outreach, run, func(o *server.Options) {
		o.Addr = opts.Addr
		o.Logger = opts.Logger
	})

	return &Pipeline{
		ingestion: ingestion,
		scoring:   scoring,
		outreach:  outreach,
		runner:    run,
		server:    srv,
		publisher: opts.Publisher,
	}
}

// IngestLead submits a lead to the research stage and returns the run ID.
func (p *Pipeline) IngestLead(ctx context.Context, lead core.LeadRecord) string {
	return p.runner.Submit(ctx, p.ingestion.Name(), func(runCtx context.Context, runID string) error {
		return p.ingestion.Process(runCtx, runID, stage.Input{Lead: lead})
	})
}

// ScoreLead submits a lead plus its research report to the scoring stage and
// returns the run ID.
func (p *Pipeline) ScoreLead(ctx context.Context, lead core.LeadRecord, content string) string {
	return p.runner.Submit(ctx, p.scoring.Name(), func(runCtx context.Context, runID string) error {
		return p.scoring.Process(runCtx, runID, stage.Input{Lead: lead, Content: content})
	})
}

// PlanOutreach submits a lead plus its scoring verdict to the outreach stage
// and returns the run ID.
func (p *Pipeline) PlanOutreach(ctx context.Context, lead core.LeadRecord, evaluation string) string {
	return p.runner.Submit(ctx, p.outreach.Name(), func(runCtx context.Context, runID string) error {
		return p.outreach.Process(runCtx, runID, stage.Input{Lead: lead, Content: evaluation})
	})
}

// WaitRun blocks until the run finishes and returns its error, if any.
func (p *Pipeline) WaitRun(ctx context.Context, runID string) error {
	return p.runner.Wait(ctx, runID)
}

// RunStatus returns a snapshot of the run.
func (p *Pipeline) RunStatus(runID string) (runner.Snapshot, error) {
	return p.runner.Status(runID)
}

// Serve starts the HTTP trigger surface and blocks until shutdown.
func (p *Pipeline) Serve() error {
	return p.server.ListenAndServe()
}

// Shutdown stops the HTTP listener and waits for in-flight runs to drain.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if err := p.server.Shutdown(ctx); err != nil {
		return err
	}

	return p.runner.Shutdown(ctx)
}
