package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"giyus/internal/audit"
	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
)

// BatchUpdate applies one field set to every id independently. Validation
// failures reject the whole batch before any write; after that, per-item
// failures are collected and never abort the other items. Duplicate ids are
// processed once per occurrence.
func (s *Service) BatchUpdate(ctx context.Context, ids []domain.LeadID, proposed map[string]any) (result *models.BatchResult, err error) {
	ctx, span := tracer.Start(ctx, "lead.BatchUpdate", trace.WithAttributes(
		attribute.Int("batch.size", len(ids)),
		attribute.Int("batch.fields", len(proposed)),
	))
	defer func() { endSpan(span, err) }()

	if len(ids) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "ids must not be empty")
	}
	if len(ids) > s.batchMaxIDs {
		return nil, dErrors.New(dErrors.CodeValidation, "too many ids: limit is "+strconv.Itoa(s.batchMaxIDs))
	}
	if len(proposed) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	values, err := s.registry.Normalize(proposed)
	if err != nil {
		return nil, err
	}

	// Once validated, a batch runs over its full input even if the caller
	// goes away.
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	items := make([]models.ItemResult, len(ids))

	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			items[i] = s.applyBatchItem(ctx, id, values)
			return nil
		})
	}
	_ = g.Wait()

	result = models.Summarize(items)
	s.metrics.ObserveBatch(start, result.Updated, result.Failed)
	span.SetAttributes(
		attribute.Int("batch.updated", result.Updated),
		attribute.Int("batch.failed", result.Failed),
	)
	s.emit(ctx, audit.Event{
		Action: audit.ActionBatchCompleted,
		Detail: strconv.Itoa(result.Updated) + " updated, " + strconv.Itoa(result.Failed) + " failed",
	})
	return result, nil
}

func (s *Service) applyBatchItem(ctx context.Context, id domain.LeadID, values map[string]string) models.ItemResult {
	if err := s.applyFields(ctx, id, values); err != nil {
		if s.logger != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.ErrorContext(ctx, "batch item failed",
				"lead_id", int64(id),
				"error", err,
			)
		}
		return models.Failed(id, err, batchReason(err))
	}
	return models.Succeeded(id)
}

// batchReason renders the client-facing reason for a failed item.
func batchReason(err error) string {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return "not found"
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
