// Package mockstore provides a configurable mock implementation of storage interfaces for testing.
//
// The MockStorage type uses function fields for each method, allowing tests to customize behavior
// as needed while providing sensible defaults for methods that aren't customized.
package mockstore

import (
	"context"
	"time"

	"github.com/imagemod/moderation-api/internal/storage"
)

// MockStorage is a configurable mock implementation of storage.Store.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a sensible default value.
type MockStorage struct {
	// Token operations (storage.TokenStore interface)
	CreateTokenFunc func(ctx context.Context, role storage.Role) (*storage.Token, error)
	GetTokenFunc    func(ctx context.Context, value string) (*storage.Token, error)
	ListTokensFunc  func(ctx context.Context) ([]*storage.Token, error)
	DeleteTokenFunc func(ctx context.Context, value string) error
	SeedTokenFunc   func(ctx context.Context, value string, role storage.Role) error

	// Usage operations (storage.UsageLog interface)
	RecordUsageFunc  func(ctx context.Context, token, endpoint string, ts time.Time) error
	ListUsageFunc    func(ctx context.Context) ([]*storage.UsageRecord, error)
	UsageSummaryFunc func(ctx context.Context) (*storage.UsageSummary, error)

	// Lifecycle
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

// CreateToken creates a new token with a generated value.
func (m *MockStorage) CreateToken(ctx context.Context, role storage.Role) (*storage.Token, error) {
	if m.CreateTokenFunc != nil {
		return m.CreateTokenFunc(ctx, role)
	}
	return &storage.Token{
		Value:     "mock-token-value",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GetToken retrieves a token by its value.
func (m *MockStorage) GetToken(ctx context.Context, value string) (*storage.Token, error) {
	if m.GetTokenFunc != nil {
		return m.GetTokenFunc(ctx, value)
	}
	return nil, storage.ErrNotFound
}

// ListTokens retrieves all tokens.
func (m *MockStorage) ListTokens(ctx context.Context) ([]*storage.Token, error) {
	if m.ListTokensFunc != nil {
		return m.ListTokensFunc(ctx)
	}
	return []*storage.Token{}, nil
}

// DeleteToken deletes a token by its value.
func (m *MockStorage) DeleteToken(ctx context.Context, value string) error {
	if m.DeleteTokenFunc != nil {
		return m.DeleteTokenFunc(ctx, value)
	}
	return nil
}

// SeedToken inserts a token with a known value if it does not exist.
func (m *MockStorage) SeedToken(ctx context.Context, value string, role storage.Role) error {
	if m.SeedTokenFunc != nil {
		return m.SeedTokenFunc(ctx, value, role)
	}
	return nil
}

// RecordUsage appends one usage record.
func (m *MockStorage) RecordUsage(ctx context.Context, token, endpoint string, ts time.Time) error {
	if m.RecordUsageFunc != nil {
		return m.RecordUsageFunc(ctx, token, endpoint, ts)
	}
	return nil
}

// ListUsage retrieves all usage records.
func (m *MockStorage) ListUsage(ctx context.Context) ([]*storage.UsageRecord, error) {
	if m.ListUsageFunc != nil {
		return m.ListUsageFunc(ctx)
	}
	return []*storage.UsageRecord{}, nil
}

// UsageSummary computes the aggregate usage view.
func (m *MockStorage) UsageSummary(ctx context.Context) (*storage.UsageSummary, error) {
	if m.UsageSummaryFunc != nil {
		return m.UsageSummaryFunc(ctx)
	}
	return &storage.UsageSummary{
		CallsByEndpoint: map[string]int64{},
		RecentActivity:  []*storage.UsageRecord{},
	}, nil
}

// Ping checks connectivity.
func (m *MockStorage) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Close releases resources.
func (m *MockStorage) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
