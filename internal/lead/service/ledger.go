package service

import (
	"context"
	"strings"

	"giyus/internal/audit"
	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
)

// CreateChangeRequest records an externally prepared change request, e.g. one
// submitted by the intake UI. The new value is normalized through the field
// registry; the old value is stored as given.
func (s *Service) CreateChangeRequest(ctx context.Context, cr *models.ChangeRequest) (*models.ChangeRequest, error) {
	if err := validateChangeRequest(cr); err != nil {
		return nil, err
	}
	newValue, err := s.registry.Serialize(cr.FieldName, cr.NewValue)
	if err != nil {
		return nil, err
	}
	if _, err := s.leads.FindByID(ctx, cr.LeadID); err != nil {
		return nil, wrapLeadErr(err, "failed to load lead")
	}
	pending, err := s.ledger.HasPending(ctx, cr.LeadID, cr.FieldName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending change requests")
	}
	if pending {
		return nil, dErrors.New(dErrors.CodeConflict, "a change request for "+cr.FieldName+" is already pending")
	}

	created := *cr
	created.NewValue = newValue
	if err := s.ledger.Create(ctx, &created); err != nil {
		return nil, wrapLeadErr(err, "failed to create change request")
	}
	s.metrics.AddChangeRequestsCreated(1)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionChangeRequestCreated,
		ActorID:         created.ProposedBy,
		LeadID:          created.LeadID,
		ChangeRequestID: created.ID,
		Field:           created.FieldName,
	})
	return &created, nil
}

// ListChangeRequests returns the lead's pending requests, most recent first.
func (s *Service) ListChangeRequests(ctx context.Context, leadID domain.LeadID) ([]*models.ChangeRequest, error) {
	if _, err := s.leads.FindByID(ctx, leadID); err != nil {
		return nil, wrapLeadErr(err, "failed to load lead")
	}
	pending, err := s.ledger.ListPending(ctx, leadID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list change requests")
	}
	if pending == nil {
		pending = []*models.ChangeRequest{}
	}
	return pending, nil
}

// HasPending reports whether field already has an outstanding request.
func (s *Service) HasPending(ctx context.Context, leadID domain.LeadID, field string) (bool, error) {
	pending, err := s.ledger.HasPending(ctx, leadID, field)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending change requests")
	}
	return pending, nil
}

func validateChangeRequest(cr *models.ChangeRequest) error {
	if cr == nil {
		return dErrors.New(dErrors.CodeValidation, "change request is required")
	}
	switch {
	case cr.LeadID <= 0:
		return dErrors.New(dErrors.CodeValidation, "recordId is required")
	case strings.TrimSpace(cr.FieldName) == "":
		return dErrors.New(dErrors.CodeValidation, "fieldChanged is required")
	case strings.TrimSpace(cr.ProposedBy) == "":
		return dErrors.New(dErrors.CodeValidation, "changedBy is required")
	case cr.ProposedAt.IsZero():
		return dErrors.New(dErrors.CodeValidation, "dateModified is required")
	}
	return nil
}
