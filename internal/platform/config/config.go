package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend names accepted by the store selectors.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string `env:"GIYUS_ADDR" envDefault:":8080"`
	Environment string `env:"GIYUS_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// LeadBackend selects the lead store: memory or postgres.
	LeadBackend string `env:"LEAD_BACKEND" envDefault:"memory"`
	// LedgerBackend selects the change-request ledger: memory, postgres or redis.
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"memory"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Batch     BatchConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig configures the optional Redis ledger backend.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the audit event sink. Empty Brokers keeps audit
// events in memory.
type KafkaConfig struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic        string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"giyus.audit"`
	Partitions        int32    `env:"KAFKA_AUDIT_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"KAFKA_AUDIT_REPLICATION" envDefault:"1"`
}

// AuthConfig configures bearer-token validation.
type AuthConfig struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY"`
	Issuer        string `env:"JWT_ISSUER" envDefault:"giyus"`
	Audience      string `env:"JWT_AUDIENCE" envDefault:"giyus-api"`
}

// BatchConfig bounds batch fan-out.
type BatchConfig struct {
	Concurrency int `env:"BATCH_CONCURRENCY" envDefault:"8"`
	MaxIDs      int `env:"BATCH_MAX_IDS" envDefault:"5000"`
}

// RateLimitConfig caps mutating requests per actor. Zero disables the limit.
// The window is shared across replicas when REDIS_URL is set.
type RateLimitConfig struct {
	WritesPerWindow int           `env:"RATE_LIMIT_WRITES" envDefault:"120"`
	Window          time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// devSigningKey is only accepted outside production.
const devSigningKey = "dev-secret-key-change-in-production"

// Load reads an optional .env file and then the environment.
func Load() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Auth.JWTSigningKey == "" {
		if cfg.IsProduction() {
			return Server{}, errors.New("JWT_SIGNING_KEY is required in production")
		}
		cfg.Auth.JWTSigningKey = devSigningKey
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) IsProduction() bool {
	return c.Environment == "production"
}

func (c Server) validate() error {
	switch c.LeadBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required when LEAD_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported LEAD_BACKEND %q", c.LeadBackend)
	}
	switch c.LedgerBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required when LEDGER_BACKEND=postgres")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required when LEDGER_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unsupported LEDGER_BACKEND %q", c.LedgerBackend)
	}
	if c.RateLimit.WritesPerWindow < 0 {
		return errors.New("RATE_LIMIT_WRITES must not be negative")
	}
	if c.Batch.Concurrency < 1 {
		return errors.New("BATCH_CONCURRENCY must be at least 1")
	}
	return nil
}
