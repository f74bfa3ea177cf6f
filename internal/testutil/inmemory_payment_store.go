package testutil

import (
	"context"
	"sync"

	"github.com/invora/invora/internal/domain/payment"
)

// InMemoryPaymentEventStore implements payment.Repository
type InMemoryPaymentEventStore struct {
	mu     sync.Mutex
	events map[string]*payment.ProcessedEvent
}

// NewInMemoryPaymentEventStore creates a new in-memory processed event store
func NewInMemoryPaymentEventStore() *InMemoryPaymentEventStore {
	return &InMemoryPaymentEventStore{
		events: make(map[string]*payment.ProcessedEvent),
	}
}

func (s *InMemoryPaymentEventStore) MarkProcessed(ctx context.Context, event *payment.ProcessedEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.EventID]; exists {
		return false, nil
	}
	s.events[event.EventID] = event
	return true, nil
}

func (s *InMemoryPaymentEventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make(map[string]*payment.ProcessedEvent)
}
