package admin

import (
	"encoding/json"
	"net/http"
)

// Standard error codes for API responses.
const (
	// ErrCodeUnauthorized indicates a missing or unknown bearer token.
	ErrCodeUnauthorized = "unauthorized"

	// ErrCodeForbidden indicates the token lacks the required role.
	ErrCodeForbidden = "forbidden"

	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeConflict indicates a uniqueness conflict.
	ErrCodeConflict = "conflict"

	// ErrCodeValidation indicates a malformed or invalid request.
	ErrCodeValidation = "validation_error"

	// ErrCodeInternalError indicates a server error.
	ErrCodeInternalError = "internal_error"
)

// APIError is the standard error response format for JSON APIs.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response with the given status code, error code, and message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := APIError{
		Error:   code,
		Message: message,
	}
	// Encoding errors are not critical since headers are already sent
	encErr := json.NewEncoder(w).Encode(resp)
	if encErr != nil {
		// Response already started, nothing we can do
		_ = encErr
	}
}
