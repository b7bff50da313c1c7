package audit

import (
	"context"
	"sync"

	"giyus/pkg/domain"
)

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// InMemoryStore keeps events in process, indexed by lead.
type InMemoryStore struct {
	mu     sync.RWMutex
	all    []Event
	byLead map[domain.LeadID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byLead: make(map[domain.LeadID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, event)
	if event.LeadID != 0 {
		s.byLead[event.LeadID] = append(s.byLead[event.LeadID], event)
	}
	return nil
}

// ListByLead returns the lead's events in append order.
func (s *InMemoryStore) ListByLead(_ context.Context, leadID domain.LeadID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.byLead[leadID]...), nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.all...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = nil
	s.byLead = make(map[domain.LeadID][]Event)
}
