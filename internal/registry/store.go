package registry

import (
	"context"

	"github.com/safestake/registry/internal/domain"
)

// MutateFunc observes the current record for an account (nil when the
// account has never registered) and returns the record to persist together
// with the outbox events describing the change. Returning an error aborts
// the mutation with no write at all.
type MutateFunc func(rec *domain.ComplianceRecord) (*domain.ComplianceRecord, []domain.OutboxDraft, error)

// Store is the durable account -> ComplianceRecord mapping. Implementations
// must serialize mutations per account (single-writer ownership) so that a
// MutateFunc's observation is never invalidated by a concurrent writer, and
// must apply the record write, platform-set append, and event inserts
// atomically. Records are never deleted.
type Store interface {
	// GetRecord returns a snapshot of the account's record, or nil when the
	// account is not registered. Reads never block writers.
	GetRecord(ctx context.Context, accountID string) (*domain.ComplianceRecord, error)

	// Mutate runs fn holding exclusive ownership of the account.
	Mutate(ctx context.Context, accountID string, fn MutateFunc) error
}
