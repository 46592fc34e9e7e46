package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stratusdb/leadflow/runner"
	"github.com/stratusdb/leadflow/server"
	"github.com/stratusdb/leadflow/stage"
)

// Config is the YAML configuration for the leadflow service. Every field has
// a working default so a minimal file only needs the provider section.
type Config struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	Addr              string `yaml:"addr"`
	MaxConcurrentRuns int    `yaml:"max_concurrent_runs"`
	MaxTurns          int    `yaml:"max_turns"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
	} `yaml:"kafka"`

	Topics struct {
		Ingestion string `yaml:"ingestion"`
		Scoring   string `yaml:"scoring"`
		Outreach  string `yaml:"outreach"`
	} `yaml:"topics"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	cfg := Config{
		Provider:          "anthropic",
		Addr:              server.DefaultAddr,
		MaxConcurrentRuns: runner.DefaultMaxConcurrent,
	}

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	cfg.Topics.Ingestion = stage.TopicIngestionOutput
	cfg.Topics.Scoring = stage.TopicScoringOutput
	cfg.Topics.Outreach = stage.TopicOutreachOutput

	return cfg
}

// LoadConfig reads and validates a YAML config file, applying defaults for
// anything left unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown provider %q (expected anthropic or openai)", c.Provider)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka is enabled but no brokers are configured")
	}

	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max_concurrent_runs must be at least 1")
	}

	return nil
}
