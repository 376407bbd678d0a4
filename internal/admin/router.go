package admin

import (
	"github.com/go-chi/chi/v5"

	"github.com/imagemod/moderation-api/internal/auth"
)

// NewRouter creates the token administration router, mounted at /auth.
// Every route requires an admin token.
func (h *Handler) NewRouter(authSvc *auth.Service) chi.Router {
	r := chi.NewRouter()

	r.Use(authSvc.Authenticate)
	r.Use(authSvc.RequireAdmin)

	r.With(authSvc.RecordUsage("/auth/tokens")).Post("/tokens", h.HandleCreateToken)
	r.With(authSvc.RecordUsage("/auth/tokens")).Get("/tokens", h.HandleListTokens)
	r.With(authSvc.RecordUsage("/auth/tokens/{token}")).Delete("/tokens/{token}", h.HandleDeleteToken)
	r.With(authSvc.RecordUsage("/auth/usage-stats")).Get("/usage-stats", h.HandleUsageStats)

	// Runtime log level management, admin only
	r.With(authSvc.RecordUsage("/auth/loglevel")).Post("/loglevel", h.HandleSetLogLevel)

	return r
}
