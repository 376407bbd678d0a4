package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/imagemod/moderation-api/internal/storage"
)

// ErrNoBootstrapToken indicates no bootstrap admin token was configured.
var ErrNoBootstrapToken = errors.New("auth: bootstrap admin token not configured")

// Seed ensures the configured bootstrap admin token exists as a persisted
// admin row. Without it there is no way to issue the first token, since
// token creation itself requires an admin caller. Idempotent across
// restarts; an existing row (whatever its origin) is left untouched.
func Seed(ctx context.Context, tokens storage.TokenStore, value string) error {
	if value == "" {
		return ErrNoBootstrapToken
	}

	if err := tokens.SeedToken(ctx, value, storage.RoleAdmin); err != nil {
		return fmt.Errorf("failed to seed bootstrap admin token: %w", err)
	}

	return nil
}
