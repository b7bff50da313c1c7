// Package lead assembles the lead-editing feature: the field registry, the
// change-request ledger, and the HTTP surface over them.
package lead

import (
	"log/slog"

	"giyus/internal/lead/handler"
	"giyus/internal/lead/service"
	"giyus/pkg/platform/middleware/auth"
)

// Service exposes lead mutation, batch updates, and change-request resolution.
type Service = service.Service

// Handler wires HTTP endpoints to the lead service.
type Handler = handler.Handler

// NewService constructs the lead service over a lead store and a ledger.
func NewService(leads service.LeadStore, ledger service.Ledger, opts ...service.Option) *Service {
	return service.New(leads, ledger, opts...)
}

// NewHandler constructs the HTTP handler for the lead routes.
func NewHandler(s *Service, tokens auth.TokenValidator, logger *slog.Logger, opts ...handler.Option) *Handler {
	return handler.New(s, tokens, logger, opts...)
}
