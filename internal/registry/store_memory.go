package registry

import (
	"context"
	"sync"

	"github.com/safestake/registry/internal/domain"
)

// MemoryStore is an in-process Store for tests and local development. A
// single mutex serializes all mutations, which trivially satisfies the
// per-account single-writer requirement. Events are kept in an in-memory
// feed instead of an outbox table.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*domain.ComplianceRecord
	events  []domain.OutboxDraft
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*domain.ComplianceRecord)}
}

func (s *MemoryStore) GetRecord(_ context.Context, accountID string) (*domain.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[accountID].Clone(), nil
}

func (s *MemoryStore) Mutate(_ context.Context, accountID string, fn MutateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// fn gets a clone so an aborted mutation cannot leak partial changes
	// into the stored record.
	next, events, err := fn(s.records[accountID].Clone())
	if err != nil {
		return err
	}
	if next != nil {
		s.records[accountID] = next.Clone()
	}
	s.events = append(s.events, events...)
	return nil
}

// Events returns the emitted event feed, oldest first.
func (s *MemoryStore) Events() []domain.OutboxDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OutboxDraft(nil), s.events...)
}
