// Package kafka provides a bus.Publisher backed by a Kafka cluster.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/stratusdb/leadflow/logging"
)

// PublisherOptions configures the Kafka publisher.
type PublisherOptions struct {
	// BatchTimeout caps how long the writer buffers before flushing. Stage
	// outputs are low volume, so flush quickly.
	BatchTimeout time.Duration
	Logger       logging.Logger
}

// Publisher writes stage output payloads to Kafka topics as JSON values.
type Publisher struct {
	writer *kafka.Writer
	logger logging.Logger
}

// NewPublisher creates a publisher connected to the given brokers. Topics
// are chosen per message, so one writer serves the whole pipeline.
func NewPublisher(brokers []string, optFns ...func(o *PublisherOptions)) *Publisher {
	opts := PublisherOptions{
		BatchTimeout: 100 * time.Millisecond,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: opts.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &Publisher{
		writer: writer,
		logger: opts.Logger,
	}
}

// Publish marshals the payload to JSON and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Value: data,
	})
	if err != nil {
		p.logger.Error("bus.kafka.publish_failed", "topic", topic, "error", err.Error())
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}

	p.logger.Info("bus.kafka.published", "topic", topic, "bytes", len(data))

	return nil
}

// Close flushes buffered messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
