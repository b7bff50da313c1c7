package changerequest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	"giyus/pkg/platform/sentinel"
)

// InMemory is the in-process ledger. Entries are indexed by id with a
// secondary per-lead index for pending lookups.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[domain.ChangeRequestID]*models.ChangeRequest
	byLead map[domain.LeadID]map[domain.ChangeRequestID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[domain.ChangeRequestID]*models.ChangeRequest),
		byLead: make(map[domain.LeadID]map[domain.ChangeRequestID]struct{}),
	}
}

func (s *InMemory) Create(_ context.Context, cr *models.ChangeRequest) error {
	if cr == nil {
		return fmt.Errorf("change request is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cr.ID = domain.ChangeRequestID(s.nextID)
	stored := *cr
	s.byID[cr.ID] = &stored
	if s.byLead[cr.LeadID] == nil {
		s.byLead[cr.LeadID] = make(map[domain.ChangeRequestID]struct{})
	}
	s.byLead[cr.LeadID][cr.ID] = struct{}{}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ChangeRequestID) (*models.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cr, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("change request not found: %w", sentinel.ErrNotFound)
	}
	found := *cr
	return &found, nil
}

func (s *InMemory) HasPending(_ context.Context, leadID domain.LeadID, field string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.byLead[leadID] {
		if s.byID[id].FieldName == field {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) PendingFields(_ context.Context, leadID domain.LeadID) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields := make(map[string]bool, len(s.byLead[leadID]))
	for id := range s.byLead[leadID] {
		fields[s.byID[id].FieldName] = true
	}
	return fields, nil
}

// ListPending returns the lead's outstanding requests, most recent first.
func (s *InMemory) ListPending(_ context.Context, leadID domain.LeadID) ([]*models.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]*models.ChangeRequest, 0, len(s.byLead[leadID]))
	for id := range s.byLead[leadID] {
		cr := *s.byID[id]
		pending = append(pending, &cr)
	}
	slices.SortFunc(pending, models.CompareMostRecentFirst)
	return pending, nil
}

// Resolve removes the entry. The outcome is recorded by the caller's audit
// trail; the ledger only ever holds pending requests.
func (s *InMemory) Resolve(_ context.Context, id domain.ChangeRequestID, outcome models.Outcome) error {
	if !outcome.IsValid() {
		return fmt.Errorf("invalid outcome %q", outcome)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cr, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("change request not found: %w", sentinel.ErrNotFound)
	}
	delete(s.byID, id)
	delete(s.byLead[cr.LeadID], id)
	if len(s.byLead[cr.LeadID]) == 0 {
		delete(s.byLead, cr.LeadID)
	}
	return nil
}
