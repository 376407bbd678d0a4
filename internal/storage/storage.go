// Package storage provides types and interfaces for SQLite persistence operations.
package storage

import (
	"context"
	"time"
)

// TokenStore defines the persistence operations for bearer tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, role Role) (*Token, error)
	GetToken(ctx context.Context, value string) (*Token, error)
	ListTokens(ctx context.Context) ([]*Token, error)
	DeleteToken(ctx context.Context, value string) error
	SeedToken(ctx context.Context, value string, role Role) error
}

// UsageLog defines the persistence operations for usage accounting.
type UsageLog interface {
	RecordUsage(ctx context.Context, token, endpoint string, ts time.Time) error
	ListUsage(ctx context.Context) ([]*UsageRecord, error)
	UsageSummary(ctx context.Context) (*UsageSummary, error)
}

// Store is the full storage surface consumed by the HTTP layer.
type Store interface {
	TokenStore
	UsageLog

	Ping(ctx context.Context) error
	Close() error
}
