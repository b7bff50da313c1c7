package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
	"giyus/pkg/platform/httputil"
	"giyus/pkg/platform/middleware/auth"
	"giyus/pkg/requestcontext"
)

// Service defines the lead operations exposed over HTTP.
type Service interface {
	CreateLead(ctx context.Context, proposed map[string]any) (*models.Lead, error)
	GetLead(ctx context.Context, id domain.LeadID) (*models.Lead, error)
	ListLeads(ctx context.Context, ids []domain.LeadID) ([]*models.Lead, error)
	ProposeUpdate(ctx context.Context, actor domain.Actor, id domain.LeadID, proposed map[string]any) (*models.MutationResult, error)
	BatchUpdate(ctx context.Context, ids []domain.LeadID, proposed map[string]any) (*models.BatchResult, error)
	CreateChangeRequest(ctx context.Context, cr *models.ChangeRequest) (*models.ChangeRequest, error)
	ListChangeRequests(ctx context.Context, leadID domain.LeadID) ([]*models.ChangeRequest, error)
	Resolve(ctx context.Context, id domain.ChangeRequestID, outcome models.Outcome) (*models.Lead, error)
}

// Handler serves lead and change-request endpoints.
type Handler struct {
	service    Service
	tokens     auth.TokenValidator
	logger     *slog.Logger
	writeLimit func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithWriteLimit wraps every mutating route in mw, after authentication.
func WithWriteLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.writeLimit = mw
	}
}

func New(service Service, tokens auth.TokenValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, tokens: tokens, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes. Every route needs a bearer token; batch updates
// and resolutions also need a privileged actor.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireActor(h.tokens, h.logger))

		r.Get("/leads", h.HandleListLeads)
		r.Get("/leads/{id}", h.HandleGetLead)
		r.Get("/leads/{id}/change-requests", h.HandleListChangeRequests)

		r.Group(func(r chi.Router) {
			if h.writeLimit != nil {
				r.Use(h.writeLimit)
			}
			r.Post("/leads", h.HandleCreateLead)
			r.Patch("/leads/{id}", h.HandleProposeUpdate)
			r.Post("/change-requests", h.HandleCreateChangeRequest)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePrivileged(h.logger))
				r.Post("/leads/batch", h.HandleBatchUpdate)
				r.Post("/change-requests/resolve", h.HandleResolve)
			})
		})
	})
}

func (h *Handler) HandleCreateLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FieldsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	lead, err := h.service.CreateLead(ctx, *req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to create lead")
		return
	}
	h.logger.InfoContext(ctx, "lead created",
		"request_id", requestID,
		"lead_id", int64(lead.ID),
	)
	httputil.WriteJSON(w, http.StatusCreated, toLeadResponse(lead))
}

func (h *Handler) HandleGetLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLeadID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid lead id")
		return
	}
	lead, err := h.service.GetLead(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "failed to get lead")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLeadResponse(lead))
}

// HandleListLeads serves GET /leads?ids=1,2,3.
func (h *Handler) HandleListLeads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid ids")
		return
	}
	leads, err := h.service.ListLeads(ctx, ids)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list leads")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLeadResponses(leads))
}

func (h *Handler) HandleProposeUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseLeadID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid lead id")
		return
	}
	req, ok := httputil.DecodeAndPrepare[FieldsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	actor := requestcontext.Actor(ctx)
	result, err := h.service.ProposeUpdate(ctx, actor, id, *req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to update lead")
		return
	}
	h.logger.InfoContext(ctx, "lead update proposed",
		"request_id", requestID,
		"lead_id", int64(id),
		"actor_id", actor.ID,
		"applied", result.Applied,
		"change_requests_created", result.ChangeRequestsCreated,
	)
	httputil.WriteJSON(w, http.StatusOK, toMutationResponse(result))
}

func (h *Handler) HandleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BatchUpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.BatchUpdate(ctx, req.IDs, req.Fields)
	if err != nil {
		h.writeError(ctx, w, err, "failed to run batch update")
		return
	}
	h.logger.InfoContext(ctx, "batch update completed",
		"request_id", requestID,
		"updated", result.Updated,
		"failed", result.Failed,
	)
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(result))
}

func (h *Handler) HandleCreateChangeRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateChangeRequestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cr, err := h.service.CreateChangeRequest(ctx, req.ToModel())
	if err != nil {
		h.writeError(ctx, w, err, "failed to create change request")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toChangeRequestResponse(cr))
}

func (h *Handler) HandleListChangeRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLeadID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid lead id")
		return
	}
	pending, err := h.service.ListChangeRequests(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list change requests")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toChangeRequestResponses(pending))
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	lead, err := h.service.Resolve(ctx, domain.ChangeRequestID(req.ChangeRequestID), req.outcome)
	if err != nil {
		h.writeError(ctx, w, err, "failed to resolve change request")
		return
	}
	h.logger.InfoContext(ctx, "change request resolved",
		"request_id", requestID,
		"change_request_id", req.ChangeRequestID,
		"outcome", string(req.outcome),
	)
	if lead == nil {
		httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: string(req.outcome)})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLeadResponse(lead))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	code := dErrors.CodeInternal
	if de, ok := dErrors.As(err); ok {
		code = de.Code
	}
	if dErrors.IsClientError(code) {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func parseIDList(raw string) ([]domain.LeadID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "ids query parameter is required")
	}
	parts := strings.Split(raw, ",")
	ids := make([]domain.LeadID, 0, len(parts))
	for _, p := range parts {
		id, err := domain.ParseLeadID(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
