package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"giyus/internal/audit"
	"giyus/internal/lead/diff"
	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
	"giyus/pkg/platform/sentinel"
	"giyus/pkg/requestcontext"
)

// MutationStrategy applies a normalized proposal to a loaded lead on behalf of
// an actor. One strategy is chosen per call from the actor's privilege.
type MutationStrategy interface {
	Apply(ctx context.Context, actor domain.Actor, lead *models.Lead, proposed map[string]string) (*models.MutationResult, error)
}

// ApplyDirect writes every proposed field in one per-lead merge.
type ApplyDirect struct {
	svc *Service
}

func (a ApplyDirect) Apply(ctx context.Context, _ domain.Actor, lead *models.Lead, proposed map[string]string) (*models.MutationResult, error) {
	changes := a.svc.differ.Diff(lead.Fields, proposed, nil)
	if err := a.svc.applyFields(ctx, lead.ID, proposed); err != nil {
		return nil, err
	}
	lead.Apply(proposed, requestcontext.Now(ctx))
	a.svc.metrics.IncrementDirectUpdate()
	a.svc.emit(ctx, audit.Event{
		Action: audit.ActionLeadUpdated,
		LeadID: lead.ID,
		Detail: changedFields(changes),
	})
	return &models.MutationResult{Applied: true, Changes: changes}, nil
}

// ApplyAsChangeRequest queues one change request per changed field that is
// not already pending. The lead itself is left untouched.
//
// The pending check and the inserts are not atomic: two concurrent proposals
// for the same field can both pass the check.
type ApplyAsChangeRequest struct {
	svc *Service
}

func (a ApplyAsChangeRequest) Apply(ctx context.Context, actor domain.Actor, lead *models.Lead, proposed map[string]string) (*models.MutationResult, error) {
	excluded, err := a.svc.ledger.PendingFields(ctx, lead.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending change requests")
	}
	changes := a.svc.differ.Diff(lead.Fields, proposed, excluded)

	proposedAt := requestcontext.Now(ctx)
	created := 0
	for _, change := range changes {
		cr := &models.ChangeRequest{
			LeadID:     lead.ID,
			FieldName:  change.Field,
			OldValue:   change.OldValue,
			NewValue:   change.NewValue,
			ProposedBy: actor.ID,
			ProposedAt: proposedAt,
		}
		if err := a.svc.ledger.Create(ctx, cr); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "lead not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create change request")
		}
		created++
		a.svc.emit(ctx, audit.Event{
			Action:          audit.ActionChangeRequestCreated,
			LeadID:          lead.ID,
			ChangeRequestID: cr.ID,
			Field:           cr.FieldName,
		})
	}
	a.svc.metrics.AddChangeRequestsCreated(created)
	return &models.MutationResult{ChangeRequestsCreated: created, Changes: changes}, nil
}

// StrategyFor selects the mutation strategy for actor.
func (s *Service) StrategyFor(actor domain.Actor) MutationStrategy {
	if actor.IsPrivileged() {
		return ApplyDirect{svc: s}
	}
	return ApplyAsChangeRequest{svc: s}
}

// ProposeUpdate routes a proposal for one lead through the actor's strategy.
func (s *Service) ProposeUpdate(ctx context.Context, actor domain.Actor, id domain.LeadID, proposed map[string]any) (result *models.MutationResult, err error) {
	ctx, span := tracer.Start(ctx, "lead.ProposeUpdate", trace.WithAttributes(
		attribute.Int64("lead.id", int64(id)),
		attribute.String("actor.privilege", string(actor.Privilege)),
		attribute.Int("proposal.fields", len(proposed)),
	))
	defer func() { endSpan(span, err) }()

	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLeadErr(err, "failed to load lead")
	}
	values, err := s.registry.Normalize(proposed)
	if err != nil {
		return nil, err
	}
	result, err = s.StrategyFor(actor).Apply(ctx, actor, lead, values)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("result.applied", result.Applied),
		attribute.Int("result.change_requests", result.ChangeRequestsCreated),
	)
	return result, nil
}

func changedFields(changes []diff.Change) string {
	names := make([]string, len(changes))
	for i, c := range changes {
		names[i] = c.Field
	}
	return strings.Join(names, ",")
}
