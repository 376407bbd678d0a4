package moderation

import (
	"github.com/go-chi/chi/v5"

	"github.com/imagemod/moderation-api/internal/auth"
)

// NewRouter creates the moderation router. All routes require a valid token.
func (h *Handler) NewRouter(authSvc *auth.Service) chi.Router {
	r := chi.NewRouter()

	r.Use(authSvc.Authenticate)

	r.With(authSvc.RecordUsage("/moderate")).Post("/analyze", h.HandleAnalyze)
	r.With(authSvc.RecordUsage("/moderate/categories")).Get("/categories", h.HandleCategories)
	r.With(authSvc.RecordUsage("/moderate/batch")).Post("/batch-analyze", h.HandleBatchAnalyze)

	return r
}
