package changerequest_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"giyus/internal/lead/store/changerequest"
	"giyus/pkg/domain"
)

type InMemoryLedgerSuite struct {
	LedgerContractSuite
}

func TestInMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLedgerSuite))
}

func (s *InMemoryLedgerSuite) SetupTest() {
	var next atomic.Int64
	s.ctx = context.Background()
	s.store = changerequest.NewInMemory()
	s.newLead = func() domain.LeadID {
		return domain.LeadID(next.Add(1))
	}
}
