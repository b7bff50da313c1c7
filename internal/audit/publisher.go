package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giyus_audit_events_total",
		Help: "Audit events by outcome (stored, failed, dropped)",
	}, []string{"outcome"})
)

var (
	// ErrBufferFull is returned by Emit in async mode when the buffer is full.
	ErrBufferFull = errors.New("audit buffer full")
	// ErrPublisherClosed is returned by Emit after Close.
	ErrPublisherClosed = errors.New("audit publisher closed")
)

// Publisher captures structured audit events. Synchronous by default; with
// WithAsyncBuffer a background worker drains a bounded channel into the store.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	breaker *CircuitBreaker

	// mu guards closed and the inbox send, so Close never races an Emit.
	mu     sync.RWMutex
	closed bool
	inbox  chan Event
	wg     sync.WaitGroup
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer makes Emit enqueue instead of writing through.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithCircuitBreaker drops async events while the store keeps failing.
func WithCircuitBreaker(breaker *CircuitBreaker) PublisherOption {
	return func(p *Publisher) {
		p.breaker = breaker
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records the event, stamping it with the current time when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		err := p.store.Append(ctx, event)
		p.count(err)
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		eventsPublished.WithLabelValues("dropped").Inc()
		return ErrPublisherClosed
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		eventsPublished.WithLabelValues("dropped").Inc()
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.inbox {
		if p.breaker != nil && !p.breaker.Allow() {
			eventsPublished.WithLabelValues("dropped").Inc()
			continue
		}
		// The request that emitted the event is usually finished by now.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := p.store.Append(ctx, event)
		cancel()
		p.count(err)
		if err != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"lead_id", event.LeadID,
				"request_id", event.RequestID,
			)
		}
	}
}

func (p *Publisher) count(err error) {
	if err != nil {
		eventsPublished.WithLabelValues("failed").Inc()
		if p.breaker != nil {
			p.breaker.RecordFailure()
		}
		return
	}
	eventsPublished.WithLabelValues("stored").Inc()
	if p.breaker != nil {
		p.breaker.RecordSuccess()
	}
}
