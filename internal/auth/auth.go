// Package auth provides bearer token validation and role-based access control.
package auth

import "errors"

// Errors for authentication and authorization failures.
var (
	// ErrMissingToken indicates no bearer token was provided.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken indicates the bearer token is not known to the store.
	ErrInvalidToken = errors.New("auth: invalid bearer token")
	// ErrForbidden indicates the token lacks the required role.
	ErrForbidden = errors.New("auth: admin access required")
)
