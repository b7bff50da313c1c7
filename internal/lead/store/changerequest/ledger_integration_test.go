//go:build integration

package changerequest_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"giyus/internal/lead/models"
	"giyus/internal/lead/store/changerequest"
	"giyus/internal/lead/store/lead"
	"giyus/pkg/domain"
	"giyus/pkg/platform/sentinel"
	"giyus/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	LedgerContractSuite
	postgres *containers.PostgresContainer
	leads    *lead.PostgresStore
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.leads = lead.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "change_requests", "leads"))
	s.store = changerequest.NewPostgres(s.postgres.Pool)
	s.newLead = func() domain.LeadID {
		l := models.NewLead(map[string]string{}, time.Now())
		s.Require().NoError(s.leads.Create(s.ctx, l))
		return l.ID
	}
}

func (s *PostgresLedgerSuite) TestCreateForMissingLead() {
	cr := &models.ChangeRequest{LeadID: 999999, FieldName: "city", ProposedBy: "r", ProposedAt: time.Now()}
	err := s.store.Create(s.ctx, cr)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

type RedisLedgerSuite struct {
	LedgerContractSuite
	redis *containers.RedisContainer
}

func TestRedisLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLedgerSuite))
}

func (s *RedisLedgerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *RedisLedgerSuite) SetupTest() {
	var next atomic.Int64
	s.ctx = context.Background()
	s.Require().NoError(s.redis.FlushPrefix(s.ctx, "test:ledger:"))
	s.store = changerequest.NewRedis(s.redis.Client, changerequest.WithKeyPrefix("test:ledger:"))
	s.newLead = func() domain.LeadID {
		return domain.LeadID(next.Add(1))
	}
}

func (s *RedisLedgerSuite) TestResolveRecordWithoutFieldName() {
	leadID := s.newLead()
	key := "test:ledger:cr:424242"
	s.Require().NoError(s.redis.Client.HSet(s.ctx, key, "lead_id", leadID.String()).Err())
	s.Require().NoError(s.redis.Client.ZAdd(s.ctx, "test:ledger:lead:"+leadID.String()+":requests",
		redis.Z{Score: float64(time.Now().UnixNano()), Member: "424242"}).Err())

	s.Require().NoError(s.store.Resolve(s.ctx, domain.ChangeRequestID(424242), models.OutcomeRejected))

	exists, err := s.redis.Client.Exists(s.ctx, key).Result()
	s.Require().NoError(err)
	s.Zero(exists)
	members, err := s.redis.Client.ZRange(s.ctx, "test:ledger:lead:"+leadID.String()+":requests", 0, -1).Result()
	s.Require().NoError(err)
	s.Empty(members)
}
