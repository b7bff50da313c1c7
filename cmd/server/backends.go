package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twmb/franz-go/pkg/kgo"

	"giyus/internal/audit"
	"giyus/internal/lead/service"
	"giyus/internal/lead/store/changerequest"
	leadstore "giyus/internal/lead/store/lead"
	"giyus/internal/platform/config"
	"giyus/internal/platform/kafka"
	"giyus/internal/platform/postgres"
	"giyus/internal/platform/redis"
	"giyus/internal/ratelimit"
)

const (
	auditBufferSize       = 1024
	auditBreakerThreshold = 5
	auditBreakerCooldown  = 30 * time.Second
)

// backends holds the stores selected by configuration and the connections
// behind them.
type backends struct {
	leads   service.LeadStore
	ledger  service.Ledger
	audit   *audit.Publisher
	limiter ratelimit.Limiter

	db     *sql.DB
	pool   *pgxpool.Pool
	redis  *redis.Client
	kafka  *kgo.Client
	checks []func(context.Context) error
}

func openBackends(ctx context.Context, cfg config.Server, log *slog.Logger) (*backends, error) {
	b := &backends{}
	if err := b.open(ctx, cfg, log); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *backends) open(ctx context.Context, cfg config.Server, log *slog.Logger) (err error) {
	needsSQL := cfg.LeadBackend == config.BackendPostgres
	needsPool := cfg.LedgerBackend == config.BackendPostgres
	if needsSQL || needsPool {
		if b.db, err = postgres.Open(ctx, cfg.Database); err != nil {
			return err
		}
		b.checks = append(b.checks, b.db.PingContext)
		if _, err = postgres.MigrateUp(ctx, b.db); err != nil {
			return err
		}
	}

	switch cfg.LeadBackend {
	case config.BackendPostgres:
		b.leads = leadstore.NewPostgres(b.db)
	default:
		b.leads = leadstore.NewInMemory()
	}

	if cfg.Redis.URL != "" {
		if b.redis, err = redis.New(ctx, cfg.Redis); err != nil {
			return err
		}
		b.checks = append(b.checks, b.redis.Health)
		b.limiter = ratelimit.NewRedisWindow(b.redis.Client)
	} else {
		b.limiter = ratelimit.NewSlidingWindow()
	}

	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		if b.pool, err = postgres.OpenPool(ctx, cfg.Database); err != nil {
			return err
		}
		b.checks = append(b.checks, b.pool.Ping)
		b.ledger = changerequest.NewPostgres(b.pool)
	case config.BackendRedis:
		b.ledger = changerequest.NewRedis(b.redis.Client)
	default:
		b.ledger = changerequest.NewInMemory()
	}

	sink, err := b.auditSink(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	b.audit = audit.NewPublisher(sink,
		audit.WithAsyncBuffer(auditBufferSize),
		audit.WithPublisherLogger(log),
		audit.WithCircuitBreaker(audit.NewCircuitBreaker(auditBreakerThreshold, auditBreakerCooldown)),
	)
	return nil
}

// auditSink keeps events in memory unless Kafka brokers are configured.
func (b *backends) auditSink(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (audit.Store, error) {
	client, err := kafka.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Warn("KAFKA_BROKERS not set; audit events are kept in memory")
		return audit.NewInMemoryStore(), nil
	}
	b.kafka = client
	if err := kafka.EnsureTopic(ctx, client, cfg); err != nil {
		return nil, err
	}
	b.checks = append(b.checks, client.Ping)
	return audit.NewKafkaStore(client, cfg.AuditTopic), nil
}

func (b *backends) health(ctx context.Context) error {
	var errs []error
	for _, check := range b.checks {
		if err := check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close drains the audit buffer before closing the connections it may use.
func (b *backends) Close() {
	if b.audit != nil {
		b.audit.Close()
	}
	if b.kafka != nil {
		b.kafka.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}
