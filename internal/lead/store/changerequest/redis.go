package changerequest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	"giyus/pkg/platform/sentinel"
)

var (
	redisLedgerDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "giyus_ledger_redis_duration_ms",
		Help:    "Latency of Redis change-request ledger operations in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	}, []string{"operation"})
)

const defaultKeyPrefix = "ledger:"

// resolveScript removes a request together with its per-lead index entries in
// one atomic step. Returns 0 when the request does not exist.
var resolveScript = redis.NewScript(`
local lead = redis.call('HGET', KEYS[1], 'lead_id')
if not lead then
	return 0
end
local field = redis.call('HGET', KEYS[1], 'field_name')
redis.call('DEL', KEYS[1])
local base = ARGV[1] .. 'lead:' .. lead
redis.call('ZREM', base .. ':requests', ARGV[2])
if field then
	local left = redis.call('HINCRBY', base .. ':pending', field, -1)
	if left <= 0 then
		redis.call('HDEL', base .. ':pending', field)
	end
end
return 1
`)

// RedisStore keeps each request in a hash, indexed per lead by a sorted set
// (score = proposal time) and a per-field pending counter hash.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key the store writes.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type redisRecord struct {
	LeadID     int64  `redis:"lead_id"`
	FieldName  string `redis:"field_name"`
	OldValue   string `redis:"old_value"`
	NewValue   string `redis:"new_value"`
	ProposedBy string `redis:"proposed_by"`
	ProposedAt string `redis:"proposed_at"`
}

func (s *RedisStore) seqKey() string { return s.prefix + "seq" }

func (s *RedisStore) requestKey(id domain.ChangeRequestID) string {
	return s.prefix + "cr:" + id.String()
}

func (s *RedisStore) leadRequestsKey(leadID domain.LeadID) string {
	return s.prefix + "lead:" + leadID.String() + ":requests"
}

func (s *RedisStore) leadPendingKey(leadID domain.LeadID) string {
	return s.prefix + "lead:" + leadID.String() + ":pending"
}

func observe(operation string, start time.Time) {
	redisLedgerDurationMs.WithLabelValues(operation).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

func (s *RedisStore) Create(ctx context.Context, cr *models.ChangeRequest) error {
	defer observe("create", time.Now())
	if cr == nil {
		return fmt.Errorf("change request is required")
	}
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("allocate change request id: %w", err)
	}
	id := domain.ChangeRequestID(seq)
	record := redisRecord{
		LeadID:     int64(cr.LeadID),
		FieldName:  cr.FieldName,
		OldValue:   cr.OldValue,
		NewValue:   cr.NewValue,
		ProposedBy: cr.ProposedBy,
		ProposedAt: cr.ProposedAt.UTC().Format(time.RFC3339Nano),
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.requestKey(id), record)
		pipe.ZAdd(ctx, s.leadRequestsKey(cr.LeadID), redis.Z{
			Score:  float64(cr.ProposedAt.UnixMicro()),
			Member: id.String(),
		})
		pipe.HIncrBy(ctx, s.leadPendingKey(cr.LeadID), cr.FieldName, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store change request: %w", err)
	}
	cr.ID = id
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id domain.ChangeRequestID) (*models.ChangeRequest, error) {
	defer observe("find", time.Now())
	res := s.client.HGetAll(ctx, s.requestKey(id))
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("find change request: %w", err)
	}
	if len(res.Val()) == 0 {
		return nil, fmt.Errorf("change request not found: %w", sentinel.ErrNotFound)
	}
	return decodeRecord(id, res)
}

func (s *RedisStore) HasPending(ctx context.Context, leadID domain.LeadID, field string) (bool, error) {
	defer observe("has_pending", time.Now())
	n, err := s.client.HGet(ctx, s.leadPendingKey(leadID), field).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check pending change request: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) PendingFields(ctx context.Context, leadID domain.LeadID) (map[string]bool, error) {
	defer observe("pending_fields", time.Now())
	counts, err := s.client.HGetAll(ctx, s.leadPendingKey(leadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending fields: %w", err)
	}
	fields := make(map[string]bool, len(counts))
	for field, raw := range counts {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			fields[field] = true
		}
	}
	return fields, nil
}

func (s *RedisStore) ListPending(ctx context.Context, leadID domain.LeadID) ([]*models.ChangeRequest, error) {
	defer observe("list", time.Now())
	members, err := s.client.ZRevRange(ctx, s.leadRequestsKey(leadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	if len(members) == 0 {
		return []*models.ChangeRequest{}, nil
	}

	ids := make([]domain.ChangeRequestID, len(members))
	cmds := make([]*redis.MapStringStringCmd, len(members))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, member := range members {
			raw, err := strconv.ParseInt(member, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt ledger index member %q: %w", member, err)
			}
			ids[i] = domain.ChangeRequestID(raw)
			cmds[i] = pipe.HGetAll(ctx, s.requestKey(ids[i]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load change requests: %w", err)
	}

	pending := make([]*models.ChangeRequest, 0, len(members))
	for i, cmd := range cmds {
		// Resolved between the index read and the load.
		if len(cmd.Val()) == 0 {
			continue
		}
		cr, err := decodeRecord(ids[i], cmd)
		if err != nil {
			return nil, err
		}
		pending = append(pending, cr)
	}
	slices.SortFunc(pending, models.CompareMostRecentFirst)
	return pending, nil
}

func (s *RedisStore) Resolve(ctx context.Context, id domain.ChangeRequestID, outcome models.Outcome) error {
	defer observe("resolve", time.Now())
	if !outcome.IsValid() {
		return fmt.Errorf("invalid outcome %q", outcome)
	}
	removed, err := resolveScript.Run(ctx, s.client, []string{s.requestKey(id)}, s.prefix, id.String()).Int()
	if err != nil {
		return fmt.Errorf("resolve change request: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("change request not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func decodeRecord(id domain.ChangeRequestID, cmd *redis.MapStringStringCmd) (*models.ChangeRequest, error) {
	var record redisRecord
	if err := cmd.Scan(&record); err != nil {
		return nil, fmt.Errorf("decode change request %d: %w", id, err)
	}
	proposedAt, err := time.Parse(time.RFC3339Nano, record.ProposedAt)
	if err != nil {
		return nil, fmt.Errorf("decode change request %d proposed_at: %w", id, err)
	}
	return &models.ChangeRequest{
		ID:         id,
		LeadID:     domain.LeadID(record.LeadID),
		FieldName:  record.FieldName,
		OldValue:   record.OldValue,
		NewValue:   record.NewValue,
		ProposedBy: record.ProposedBy,
		ProposedAt: proposedAt,
	}, nil
}
