package auth

import (
	"context"

	"github.com/imagemod/moderation-api/internal/storage"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey int

const (
	tokenKey ctxKey = iota // stores *storage.Token
)

// TokenFromContext retrieves the authenticated token from context.
// Returns nil if the request was not authenticated.
func TokenFromContext(ctx context.Context) *storage.Token {
	if v := ctx.Value(tokenKey); v != nil {
		if token, ok := v.(*storage.Token); ok {
			return token
		}
	}
	return nil
}

// IsAdminFromContext returns true if the request carries an admin token.
func IsAdminFromContext(ctx context.Context) bool {
	if token := TokenFromContext(ctx); token != nil {
		return token.Role.IsAdmin()
	}
	return false
}

// WithToken adds an authenticated token to the context.
func WithToken(ctx context.Context, token *storage.Token) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}
