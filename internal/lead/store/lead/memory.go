package lead

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	"giyus/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded lead store for development and tests.
type InMemory struct {
	mu     sync.RWMutex
	leads  map[domain.LeadID]*models.Lead
	nextID domain.LeadID
}

func NewInMemory() *InMemory {
	return &InMemory{leads: make(map[domain.LeadID]*models.Lead)}
}

// Create assigns the next id to lead and stores a copy.
func (s *InMemory) Create(_ context.Context, lead *models.Lead) error {
	if lead == nil {
		return fmt.Errorf("lead is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	lead.ID = s.nextID
	s.leads[lead.ID] = lead.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.LeadID) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return lead.Clone(), nil
}

// UpdateFields merges values into the stored lead in one write.
func (s *InMemory) UpdateFields(_ context.Context, id domain.LeadID, values map[string]string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	lead.Apply(values, updatedAt)
	return nil
}

// FindByIDs returns the leads that exist, ordered by id.
func (s *InMemory) FindByIDs(_ context.Context, ids []domain.LeadID) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.LeadID]bool, len(ids))
	var out []*models.Lead
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if lead, ok := s.leads[id]; ok {
			out = append(out, lead.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Lead) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}
