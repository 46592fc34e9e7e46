// Command leadflow runs the lead qualification pipeline as an HTTP service:
// per-stage trigger endpoints in front of reasoning-backed research,
// scoring, and outreach planning stages, publishing their output to Kafka.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/stratusdb/leadflow"
	"github.com/stratusdb/leadflow/bus"
	"github.com/stratusdb/leadflow/bus/kafka"
	"github.com/stratusdb/leadflow/logging"
	"github.com/stratusdb/leadflow/model"
	"github.com/stratusdb/leadflow/model/anthropic"
	"github.com/stratusdb/leadflow/model/openai"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "leadflow",
		Short:        "Lead qualification pipeline of reasoning agents",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())

	return cmd
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline's HTTP trigger endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}

			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	return cmd
}

func serve(ctx context.Context, cfg Config) error {
	logger := newLogger(cfg)

	llm, err := newModel(cfg)
	if err != nil {
		return err
	}

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	pipeline := leadflow.New(llm, func(o *leadflow.Options) {
		o.Publisher = publisher
		o.MaxConcurrentRuns = cfg.MaxConcurrentRuns
		o.MaxTurns = cfg.MaxTurns
		o.Addr = cfg.Addr
		o.IngestionTopic = cfg.Topics.Ingestion
		o.ScoringTopic = cfg.Topics.Scoring
		o.OutreachTopic = cfg.Topics.Outreach
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- pipeline.Serve() }()

	logger.Info("leadflow.started", "addr", cfg.Addr, "provider", cfg.Provider)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("leadflow.shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return pipeline.Shutdown(shutdownCtx)
}

func newLogger(cfg Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

func newModel(cfg Config) (model.Model, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newPublisher(cfg Config, logger logging.Logger) (bus.Publisher, func()) {
	if !cfg.Kafka.Enabled {
		logger.Warn("leadflow.publisher.in_memory", "reason", "kafka disabled in config")
		return bus.NewInMemoryPublisher(), func() {}
	}

	p := kafka.NewPublisher(cfg.Kafka.Brokers, func(o *kafka.PublisherOptions) {
		o.Logger = logger
	})

	return p, func() { _ = p.Close() }
}
