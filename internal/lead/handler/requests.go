package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
	"giyus/pkg/platform/validation"
)

// FieldsRequest is a proposal keyed by field name. Values keep their JSON
// types; the field registry serializes them.
type FieldsRequest map[string]any

func (r *FieldsRequest) Validate() error {
	if r == nil || len(*r) == 0 {
		return dErrors.New(dErrors.CodeValidation, "no fields provided")
	}
	return nil
}

// BatchUpdateRequest carries the target ids next to the field values in one
// flat object: {"ids": [1, 2], "giyusDate": "2025-01-01"}.
type BatchUpdateRequest struct {
	IDs    []domain.LeadID
	Fields map[string]any
}

func (r *BatchUpdateRequest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	rawIDs, ok := raw["ids"]
	delete(raw, "ids")
	r.Fields = raw
	r.IDs = nil
	if !ok || rawIDs == nil {
		return nil
	}
	list, ok := rawIDs.([]any)
	if !ok {
		return fmt.Errorf("ids must be an array")
	}
	r.IDs = make([]domain.LeadID, 0, len(list))
	for _, v := range list {
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("ids must contain integers")
		}
		id, err := domain.ParseLeadID(n.String())
		if err != nil {
			return fmt.Errorf("invalid id %s: %w", n, err)
		}
		r.IDs = append(r.IDs, id)
	}
	return nil
}

// Validate checks only the request shape; the service rejects empty id lists
// and unknown fields.
func (r *BatchUpdateRequest) Validate() error {
	if r.IDs == nil {
		return dErrors.New(dErrors.CodeValidation, "ids is required")
	}
	return nil
}

// CreateChangeRequestRequest is the intake form's change-request payload.
type CreateChangeRequestRequest struct {
	RecordID     int64  `json:"recordId" validate:"required,gt=0"`
	FieldChanged string `json:"fieldChanged" validate:"required"`
	OldValue     string `json:"oldValue"`
	NewValue     string `json:"newValue"`
	ChangedBy    string `json:"changedBy" validate:"required"`
	DateModified string `json:"dateModified" validate:"required"`

	dateModified time.Time
}

func (r *CreateChangeRequestRequest) Validate() error {
	r.FieldChanged = strings.TrimSpace(r.FieldChanged)
	r.ChangedBy = strings.TrimSpace(r.ChangedBy)
	r.DateModified = strings.TrimSpace(r.DateModified)
	if err := validation.Struct(r); err != nil {
		return err
	}
	t, err := parseTimestamp(r.DateModified)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "dateModified must be an ISO-8601 timestamp")
	}
	r.dateModified = t
	return nil
}

// timestampLayouts are the accepted ISO-8601 forms. Values without a zone are
// read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

func parseTimestamp(value string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func (r *CreateChangeRequestRequest) ToModel() *models.ChangeRequest {
	return &models.ChangeRequest{
		LeadID:     domain.LeadID(r.RecordID),
		FieldName:  r.FieldChanged,
		OldValue:   r.OldValue,
		NewValue:   r.NewValue,
		ProposedBy: r.ChangedBy,
		ProposedAt: r.dateModified,
	}
}

// ResolveRequest approves or rejects one change request.
type ResolveRequest struct {
	ChangeRequestID int64  `json:"changeRequestId" validate:"required,gt=0"`
	Outcome         string `json:"outcome" validate:"required,oneof=approve reject"`

	outcome models.Outcome
}

func (r *ResolveRequest) Validate() error {
	r.Outcome = strings.ToLower(strings.TrimSpace(r.Outcome))
	if err := validation.Struct(r); err != nil {
		return err
	}
	outcome, err := models.ParseOutcome(r.Outcome)
	if err != nil {
		return err
	}
	r.outcome = outcome
	return nil
}
