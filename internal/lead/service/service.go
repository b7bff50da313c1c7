package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"giyus/internal/audit"
	"giyus/internal/lead/diff"
	"giyus/internal/lead/fields"
	leadmetrics "giyus/internal/lead/metrics"
	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
	"giyus/pkg/platform/sentinel"
	"giyus/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

var tracer = otel.Tracer("giyus/internal/lead/service")

const (
	defaultBatchConcurrency = 8
	defaultBatchMaxIDs      = 5000
)

type LeadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
	FindByID(ctx context.Context, id domain.LeadID) (*models.Lead, error)
	FindByIDs(ctx context.Context, ids []domain.LeadID) ([]*models.Lead, error)
	UpdateFields(ctx context.Context, id domain.LeadID, values map[string]string, updatedAt time.Time) error
}

// Ledger stores pending change requests.
type Ledger interface {
	Create(ctx context.Context, cr *models.ChangeRequest) error
	FindByID(ctx context.Context, id domain.ChangeRequestID) (*models.ChangeRequest, error)
	HasPending(ctx context.Context, leadID domain.LeadID, field string) (bool, error)
	PendingFields(ctx context.Context, leadID domain.LeadID) (map[string]bool, error)
	ListPending(ctx context.Context, leadID domain.LeadID) ([]*models.ChangeRequest, error)
	Resolve(ctx context.Context, id domain.ChangeRequestID, outcome models.Outcome) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates lead mutations: direct writes, change-request
// proposals, batch updates and approvals.
type Service struct {
	leads          LeadStore
	ledger         Ledger
	registry       *fields.Registry
	differ         *diff.Engine
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *leadmetrics.Metrics

	batchConcurrency int
	batchMaxIDs      int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *leadmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRegistry replaces the default lead field registry.
func WithRegistry(registry *fields.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithBatchLimits bounds batch fan-out and size. Non-positive values keep
// the defaults.
func WithBatchLimits(concurrency, maxIDs int) Option {
	return func(s *Service) {
		if concurrency > 0 {
			s.batchConcurrency = concurrency
		}
		if maxIDs > 0 {
			s.batchMaxIDs = maxIDs
		}
	}
}

// New constructs a Service.
func New(leads LeadStore, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		leads:            leads,
		ledger:           ledger,
		registry:         fields.Leads,
		logger:           slog.Default(),
		batchConcurrency: defaultBatchConcurrency,
		batchMaxIDs:      defaultBatchMaxIDs,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.differ = diff.New(s.registry)
	return s
}

// CreateLead stores a new lead from registration intake. Any authenticated
// actor may create one.
func (s *Service) CreateLead(ctx context.Context, proposed map[string]any) (*models.Lead, error) {
	values, err := s.registry.Normalize(proposed)
	if err != nil {
		return nil, err
	}
	lead := models.NewLead(values, requestcontext.Now(ctx))
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create lead")
	}
	s.emit(ctx, audit.Event{Action: audit.ActionLeadCreated, LeadID: lead.ID})
	return lead, nil
}

func (s *Service) GetLead(ctx context.Context, id domain.LeadID) (*models.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLeadErr(err, "failed to load lead")
	}
	return lead, nil
}

// ListLeads returns the leads that exist among ids, ordered by id.
func (s *Service) ListLeads(ctx context.Context, ids []domain.LeadID) ([]*models.Lead, error) {
	if len(ids) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "ids must not be empty")
	}
	if len(ids) > s.batchMaxIDs {
		return nil, dErrors.New(dErrors.CodeValidation, "too many ids")
	}
	leads, err := s.leads.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load leads")
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	return leads, nil
}

// applyFields merges already-normalized values into one lead. It is the
// single write primitive shared by direct updates, batch items and approvals.
func (s *Service) applyFields(ctx context.Context, id domain.LeadID, values map[string]string) error {
	if err := s.leads.UpdateFields(ctx, id, values, requestcontext.Now(ctx)); err != nil {
		return wrapLeadErr(err, "failed to update lead")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if event.ActorID == "" {
		event.ActorID = requestcontext.Actor(ctx).ID
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action),
			"log_type", "audit",
			"actor_id", event.ActorID,
			"lead_id", int64(event.LeadID),
			"change_request_id", int64(event.ChangeRequestID),
			"field", event.Field,
			"request_id", event.RequestID,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"error", err,
			"action", event.Action,
		)
	}
}

func wrapLeadErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "lead not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapChangeRequestErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "change request not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

// endSpan records err on span when it is a server-side failure.
func endSpan(span trace.Span, err error) {
	if err != nil {
		code := dErrors.CodeInternal
		if de, ok := dErrors.As(err); ok {
			code = de.Code
		}
		if !dErrors.IsClientError(code) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
