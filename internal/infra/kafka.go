package infra

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/safestake/registry/internal/domain"
)

// EventProducer publishes compliance events, one topic per event type with
// the account hash as partition key so a single account's history stays
// ordered. When disabled, publishes are no-ops and events simply stay
// unpublished in the outbox.
type EventProducer struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	enabled bool
}

// NewEventProducer creates the compliance event producer.
func NewEventProducer(brokers string, enabled bool, logger *slog.Logger) *EventProducer {
	if !enabled || brokers == "" {
		logger.Info("event producer disabled, compliance events stay in the outbox")
		return &EventProducer{logger: logger}
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(brokers, ",")...),
		Balancer: &kafka.Hash{}, // account key -> stable partition
		// Compliance events must not be lost: a platform that misses a
		// self-exclusion would keep taking wagers from a locked-out user.
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 25 * time.Millisecond,
	}

	logger.Info("event producer initialized", "brokers", brokers)
	return &EventProducer{writer: w, logger: logger, enabled: true}
}

// Publish sends one compliance event keyed by account. No-op when disabled.
func (p *EventProducer) Publish(ctx context.Context, eventType domain.EventType, accountID string, payload []byte) error {
	if !p.enabled {
		return nil
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: string(eventType),
		Key:   []byte(accountID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// Close flushes and shuts down the producer.
func (p *EventProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// EventConsumer tails a single compliance topic for a platform mirroring
// registry state changes into its local view.
type EventConsumer struct {
	reader *kafka.Reader
}

// NewEventConsumer creates a consumer group member for one event type.
func NewEventConsumer(brokers string, eventType domain.EventType, groupID string, logger *slog.Logger) *EventConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		Topic:    string(eventType),
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20, // compliance events are small JSON documents
	})
	logger.Info("event consumer initialized", "topic", string(eventType), "group_id", groupID)
	return &EventConsumer{reader: r}
}

// ReadMessage blocks until the next compliance event arrives.
func (c *EventConsumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return c.reader.ReadMessage(ctx)
}

// Close shuts down the consumer.
func (c *EventConsumer) Close() error {
	return c.reader.Close()
}
