package handler

import (
	"time"

	"giyus/internal/lead/diff"
	"giyus/internal/lead/models"
)

const noChangesMessage = "no changes detected"

type leadResponse struct {
	ID        int64             `json:"id"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func toLeadResponse(l *models.Lead) leadResponse {
	fields := l.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	return leadResponse{
		ID:        int64(l.ID),
		Fields:    fields,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toLeadResponses(leads []*models.Lead) []leadResponse {
	out := make([]leadResponse, len(leads))
	for i, l := range leads {
		out[i] = toLeadResponse(l)
	}
	return out
}

type changeRequestResponse struct {
	ID           int64  `json:"id"`
	RecordID     int64  `json:"recordId"`
	FieldChanged string `json:"fieldChanged"`
	OldValue     string `json:"oldValue"`
	NewValue     string `json:"newValue"`
	ChangedBy    string `json:"changedBy"`
	DateModified string `json:"dateModified"`
}

func toChangeRequestResponse(cr *models.ChangeRequest) changeRequestResponse {
	return changeRequestResponse{
		ID:           int64(cr.ID),
		RecordID:     int64(cr.LeadID),
		FieldChanged: cr.FieldName,
		OldValue:     cr.OldValue,
		NewValue:     cr.NewValue,
		ChangedBy:    cr.ProposedBy,
		DateModified: cr.ProposedAt.UTC().Format(time.RFC3339),
	}
}

func toChangeRequestResponses(crs []*models.ChangeRequest) []changeRequestResponse {
	out := make([]changeRequestResponse, len(crs))
	for i, cr := range crs {
		out[i] = toChangeRequestResponse(cr)
	}
	return out
}

type mutationResponse struct {
	Applied               bool          `json:"applied"`
	ChangeRequestsCreated int           `json:"change_requests_created"`
	Changes               []diff.Change `json:"changes"`
	Message               string        `json:"message,omitempty"`
}

func toMutationResponse(r *models.MutationResult) mutationResponse {
	changes := r.Changes
	if changes == nil {
		changes = []diff.Change{}
	}
	resp := mutationResponse{
		Applied:               r.Applied,
		ChangeRequestsCreated: r.ChangeRequestsCreated,
		Changes:               changes,
	}
	if r.NoChanges() {
		resp.Message = noChangesMessage
	}
	return resp
}

type batchResponse struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

func toBatchResponse(r *models.BatchResult) batchResponse {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return batchResponse{Updated: r.Updated, Failed: r.Failed, Errors: errs}
}

type statusResponse struct {
	Status string `json:"status"`
}
