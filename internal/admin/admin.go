// Package admin provides the token administration endpoints of the API.
package admin

import (
	"context"
	"log/slog"

	"github.com/imagemod/moderation-api/internal/storage"
)

// Handler provides admin endpoints
type Handler struct {
	storage  Storage
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

// Storage interface for admin operations
type Storage interface {
	// Health check
	Ping(ctx context.Context) error

	// Token operations
	CreateToken(ctx context.Context, role storage.Role) (*storage.Token, error)
	ListTokens(ctx context.Context) ([]*storage.Token, error)
	DeleteToken(ctx context.Context, value string) error

	// Usage accounting
	UsageSummary(ctx context.Context) (*storage.UsageSummary, error)
}

// NewHandler creates an admin handler
func NewHandler(storage Storage, logLevel *slog.LevelVar, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}

	return &Handler{
		storage:  storage,
		logLevel: logLevel,
		logger:   logger,
	}
}
