// Package kafka implements the eventstream Publisher on a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/cardinalpay/sift/pkg/eventstream"
)

// Config holds connection settings for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses. Required.
	Brokers []string

	// Topic is the topic analysis events are published to. Required.
	Topic string
}

// Publisher publishes analysis events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{writer: writer}, nil
}

// PublishAnalysis serializes the event and writes it, keyed by event id so
// replays of the same event land on the same partition.
func (p *Publisher) PublishAnalysis(ctx context.Context, event *eventstream.TransactionAnalyzedEvent) error {
	if event == nil {
		return eventstream.ErrNilAnalysisEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling analysis event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EventID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("writing analysis event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
