package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safestake/registry/internal/domain"
)

// OutboxPoller drains the event_outbox table and publishes compliance events
// to Kafka. Events land in the outbox inside the same transaction as the
// state change, so platforms observe exactly the mutations that committed.
type OutboxPoller struct {
	pool      *pgxpool.Pool
	producer  *EventProducer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(pool *pgxpool.Pool, producer *EventProducer, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		pool:      pool,
		producer:  producer,
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

type outboxRow struct {
	SeqID         int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	OccurredAt    time.Time
}

func (p *OutboxPoller) poll(ctx context.Context) error {
	rows, err := p.pool.Query(ctx, `
		SELECT seq_id, event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY seq_id ASC
		LIMIT $1`, p.batchSize)
	if err != nil {
		return err
	}
	defer rows.Close()

	var events []outboxRow
	for rows.Next() {
		var e outboxRow
		if err := rows.Scan(&e.SeqID, &e.EventID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.OccurredAt); err != nil {
			return err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	published := 0
	for _, e := range events {
		msg, _ := json.Marshal(map[string]interface{}{
			"event_id":       e.EventID,
			"aggregate_type": e.AggregateType,
			"aggregate_id":   e.AggregateID,
			"event_type":     e.EventType,
			"payload":        e.Payload,
			"occurred_at":    e.OccurredAt,
		})

		if err := p.producer.Publish(ctx, domain.EventType(e.EventType), e.AggregateID, msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			continue
		}

		_, err := p.pool.Exec(ctx,
			`UPDATE event_outbox SET published_at = now() WHERE seq_id = $1`, e.SeqID)
		if err != nil {
			p.logger.Error("mark published failed", "event_id", e.EventID, "error", err)
			continue
		}
		published++
	}

	p.logger.Debug("outbox poll complete", "published", published)
	return nil
}
