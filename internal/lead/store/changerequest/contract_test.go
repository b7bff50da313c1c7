package changerequest_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	"giyus/pkg/platform/sentinel"
)

type ledger interface {
	Create(ctx context.Context, cr *models.ChangeRequest) error
	FindByID(ctx context.Context, id domain.ChangeRequestID) (*models.ChangeRequest, error)
	HasPending(ctx context.Context, leadID domain.LeadID, field string) (bool, error)
	PendingFields(ctx context.Context, leadID domain.LeadID) (map[string]bool, error)
	ListPending(ctx context.Context, leadID domain.LeadID) ([]*models.ChangeRequest, error)
	Resolve(ctx context.Context, id domain.ChangeRequestID, outcome models.Outcome) error
}

// LedgerContractSuite exercises behaviour every ledger backend must share.
// Backends embed it and provide the two hooks in SetupTest.
type LedgerContractSuite struct {
	suite.Suite
	ctx     context.Context
	store   ledger
	newLead func() domain.LeadID
}

func (s *LedgerContractSuite) propose(leadID domain.LeadID, field, oldValue, newValue string, at time.Time) *models.ChangeRequest {
	cr := &models.ChangeRequest{
		LeadID:     leadID,
		FieldName:  field,
		OldValue:   oldValue,
		NewValue:   newValue,
		ProposedBy: "recruiter-7",
		ProposedAt: at,
	}
	s.Require().NoError(s.store.Create(s.ctx, cr))
	return cr
}

func (s *LedgerContractSuite) TestCreateAssignsIDAndFindReturnsIt() {
	leadID := s.newLead()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cr := s.propose(leadID, "city", "Paris", "Tel Aviv", at)
	s.NotZero(cr.ID)

	found, err := s.store.FindByID(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal(leadID, found.LeadID)
	s.Equal("city", found.FieldName)
	s.Equal("Paris", found.OldValue)
	s.Equal("Tel Aviv", found.NewValue)
	s.Equal("recruiter-7", found.ProposedBy)
	s.True(at.Equal(found.ProposedAt))
}

func (s *LedgerContractSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, domain.ChangeRequestID(424242))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *LedgerContractSuite) TestPendingLookups() {
	leadID := s.newLead()
	other := s.newLead()
	s.propose(leadID, "city", "Paris", "Tel Aviv", time.Now())
	s.propose(leadID, "phone", "", "050", time.Now())

	has, err := s.store.HasPending(s.ctx, leadID, "city")
	s.Require().NoError(err)
	s.True(has)

	has, err = s.store.HasPending(s.ctx, leadID, "email")
	s.Require().NoError(err)
	s.False(has)

	has, err = s.store.HasPending(s.ctx, other, "city")
	s.Require().NoError(err)
	s.False(has, "pending state is scoped to the lead")

	fields, err := s.store.PendingFields(s.ctx, leadID)
	s.Require().NoError(err)
	s.Equal(map[string]bool{"city": true, "phone": true}, fields)
}

func (s *LedgerContractSuite) TestListPendingMostRecentFirst() {
	leadID := s.newLead()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	oldest := s.propose(leadID, "city", "", "A", base)
	newest := s.propose(leadID, "phone", "", "B", base.Add(2*time.Hour))
	tieLow := s.propose(leadID, "email", "", "C", base.Add(time.Hour))
	tieHigh := s.propose(leadID, "notes", "", "D", base.Add(time.Hour))

	pending, err := s.store.ListPending(s.ctx, leadID)
	s.Require().NoError(err)
	s.Require().Len(pending, 4)
	s.Equal([]domain.ChangeRequestID{newest.ID, tieHigh.ID, tieLow.ID, oldest.ID}, []domain.ChangeRequestID{
		pending[0].ID, pending[1].ID, pending[2].ID, pending[3].ID,
	})
}

func (s *LedgerContractSuite) TestListPendingEmpty() {
	pending, err := s.store.ListPending(s.ctx, s.newLead())
	s.Require().NoError(err)
	s.NotNil(pending)
	s.Empty(pending)
}

func (s *LedgerContractSuite) TestResolveRemovesEntry() {
	for _, outcome := range []models.Outcome{models.OutcomeApplied, models.OutcomeRejected} {
		s.Run(string(outcome), func() {
			leadID := s.newLead()
			cr := s.propose(leadID, "city", "Paris", "Tel Aviv", time.Now())

			s.Require().NoError(s.store.Resolve(s.ctx, cr.ID, outcome))

			_, err := s.store.FindByID(s.ctx, cr.ID)
			s.ErrorIs(err, sentinel.ErrNotFound)

			has, err := s.store.HasPending(s.ctx, leadID, "city")
			s.Require().NoError(err)
			s.False(has)

			pending, err := s.store.ListPending(s.ctx, leadID)
			s.Require().NoError(err)
			s.Empty(pending)

			err = s.store.Resolve(s.ctx, cr.ID, outcome)
			s.ErrorIs(err, sentinel.ErrNotFound, "resolving twice reports not found")
		})
	}
}

// TestResolveKeepsFieldPendingWhileDuplicatesRemain covers duplicates created
// by racing proposals, which the ledger tolerates.
func (s *LedgerContractSuite) TestResolveKeepsFieldPendingWhileDuplicatesRemain() {
	leadID := s.newLead()
	first := s.propose(leadID, "city", "Paris", "Haifa", time.Now())
	s.propose(leadID, "city", "Paris", "Eilat", time.Now())

	s.Require().NoError(s.store.Resolve(s.ctx, first.ID, models.OutcomeRejected))

	has, err := s.store.HasPending(s.ctx, leadID, "city")
	s.Require().NoError(err)
	s.True(has)
}

func (s *LedgerContractSuite) TestConcurrentCreatesGetDistinctIDs() {
	leadID := s.newLead()
	const writers = 20

	ids := make([]domain.ChangeRequestID, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cr := &models.ChangeRequest{LeadID: leadID, FieldName: "notes", ProposedBy: "r", ProposedAt: time.Now()}
			if err := s.store.Create(s.ctx, cr); err == nil {
				ids[i] = cr.ID
			}
		}()
	}
	wg.Wait()

	seen := map[domain.ChangeRequestID]bool{}
	for _, id := range ids {
		s.NotZero(id)
		s.False(seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}
