package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"giyus/internal/audit"
	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
	"giyus/pkg/requestcontext"
)

// Approve writes the request's new value onto its lead and removes the
// request from the ledger. The write is unconditional: if the field changed
// after the request was proposed, the newer value is overwritten.
//
// A missing lead leaves the request pending.
func (s *Service) Approve(ctx context.Context, id domain.ChangeRequestID) (lead *models.Lead, err error) {
	ctx, span := tracer.Start(ctx, "lead.Approve", trace.WithAttributes(
		attribute.Int64("change_request.id", int64(id)),
	))
	defer func() { endSpan(span, err) }()

	cr, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, wrapChangeRequestErr(err, "failed to load change request")
	}
	lead, err = s.leads.FindByID(ctx, cr.LeadID)
	if err != nil {
		return nil, wrapLeadErr(err, "failed to load lead")
	}

	values := map[string]string{cr.FieldName: cr.NewValue}
	if err := s.applyFields(ctx, lead.ID, values); err != nil {
		return nil, err
	}
	lead.Apply(values, requestcontext.Now(ctx))

	if err := s.ledger.Resolve(ctx, id, models.OutcomeApplied); err != nil {
		return nil, wrapChangeRequestErr(err, "failed to resolve change request")
	}

	s.metrics.IncrementResolved(string(models.OutcomeApplied))
	s.emit(ctx, audit.Event{
		Action:          audit.ActionChangeRequestApplied,
		LeadID:          lead.ID,
		ChangeRequestID: id,
		Field:           cr.FieldName,
	})
	return lead, nil
}

// Reject removes the request from the ledger without touching its lead.
func (s *Service) Reject(ctx context.Context, id domain.ChangeRequestID) (err error) {
	ctx, span := tracer.Start(ctx, "lead.Reject", trace.WithAttributes(
		attribute.Int64("change_request.id", int64(id)),
	))
	defer func() { endSpan(span, err) }()

	cr, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return wrapChangeRequestErr(err, "failed to load change request")
	}
	if err := s.ledger.Resolve(ctx, id, models.OutcomeRejected); err != nil {
		return wrapChangeRequestErr(err, "failed to resolve change request")
	}

	s.metrics.IncrementResolved(string(models.OutcomeRejected))
	s.emit(ctx, audit.Event{
		Action:          audit.ActionChangeRequestRejected,
		LeadID:          cr.LeadID,
		ChangeRequestID: id,
		Field:           cr.FieldName,
	})
	return nil
}

// Resolve dispatches to Approve or Reject. The lead is returned only when
// the request was applied.
func (s *Service) Resolve(ctx context.Context, id domain.ChangeRequestID, outcome models.Outcome) (*models.Lead, error) {
	switch outcome {
	case models.OutcomeApplied:
		return s.Approve(ctx, id)
	case models.OutcomeRejected:
		return nil, s.Reject(ctx, id)
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "outcome must be approve or reject")
	}
}
