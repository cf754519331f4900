package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the compliance domain events. Platforms consume these
// to mirror state changes recorded by other operators.
type EventType string

const (
	EventAccountRegistered   EventType = "compliance.account.registered"
	EventLimitsUpdated       EventType = "compliance.account.limits_updated"
	EventTransactionRecorded EventType = "compliance.account.transaction_recorded"
	EventSelfExcluded        EventType = "compliance.account.self_excluded"
	EventCooldownStarted     EventType = "compliance.account.cooldown_started"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const AggregateAccount AggregateType = "account"

// OutboxDraft is the payload written to the event_outbox table, in the same
// transaction as the state change it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewAccountEvent builds an outbox draft for an account aggregate. Payload
// marshal failures are impossible for the fixed payload structs used here,
// so the payload falls back to an empty object rather than erroring.
func NewAccountEvent(accountID string, eventType EventType, occurredAt time.Time, payload interface{}) OutboxDraft {
	body, err := json.Marshal(payload)
	if err != nil || payload == nil {
		body = json.RawMessage(`{}`)
	}
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateAccount,
		AggregateID:   accountID,
		EventType:     eventType,
		Payload:       body,
		OccurredAt:    occurredAt,
	}
}
