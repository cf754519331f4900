// compliance-mirror is a reference consumer for integrated platforms: it
// tails the compliance event topics and logs each event. Operators embed the
// same consumption loop to keep their local view of shared accounts current.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/safestake/registry/internal/domain"
	"github.com/safestake/registry/internal/infra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("compliance mirror failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the mirror")
	}

	groupID := os.Getenv("MIRROR_GROUP_ID")
	if groupID == "" {
		groupID = "compliance-mirror"
	}

	topics := []domain.EventType{
		domain.EventAccountRegistered,
		domain.EventLimitsUpdated,
		domain.EventTransactionRecorded,
		domain.EventSelfExcluded,
		domain.EventCooldownStarted,
	}

	errCh := make(chan error, len(topics))
	for _, topic := range topics {
		consumer := infra.NewEventConsumer(cfg.KafkaBrokers, topic, groupID, logger)
		defer consumer.Close()

		go func(topic domain.EventType) {
			errCh <- consume(ctx, consumer, topic, logger)
		}(topic)
	}

	logger.Info("compliance mirror started", "group_id", groupID, "topics", len(topics))

	select {
	case <-ctx.Done():
		logger.Info("compliance mirror shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

func consume(ctx context.Context, consumer *infra.EventConsumer, topic domain.EventType, logger *slog.Logger) error {
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read %s: %w", topic, err)
		}

		var event struct {
			EventID     string          `json:"event_id"`
			AggregateID string          `json:"aggregate_id"`
			EventType   string          `json:"event_type"`
			Payload     json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("malformed compliance event", "topic", topic, "error", err)
			continue
		}

		logger.Info("compliance event",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"account_id", event.AggregateID,
			"payload", string(event.Payload),
		)
	}
}
