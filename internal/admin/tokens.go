package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imagemod/moderation-api/internal/auth"
	"github.com/imagemod/moderation-api/internal/storage"
)

// CreateTokenRequest is the request body for POST /auth/tokens
type CreateTokenRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

// TokenResponse represents a token in API responses. The plain value is
// included; this is a demo API and tokens are listable by design.
type TokenResponse struct {
	Token     string    `json:"token"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	Message   string    `json:"message,omitempty"`
}

func tokenToResponse(t *storage.Token) TokenResponse {
	return TokenResponse{
		Token:     t.Value,
		IsAdmin:   t.Role.IsAdmin(),
		CreatedAt: t.CreatedAt,
	}
}

// HandleCreateToken creates a new bearer token
// POST /auth/tokens
// Body: {"isAdmin": bool}
func (h *Handler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body")
		return
	}

	role := storage.RoleUser
	if req.IsAdmin {
		role = storage.RoleAdmin
	}

	token, err := h.storage.CreateToken(r.Context(), role)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// 256-bit random values do not collide in practice
			WriteError(w, http.StatusConflict, ErrCodeConflict, "Token value collision, retry the request")
			return
		}
		h.logger.Error("failed to create token", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create token")
		return
	}

	h.logger.Info("token created", "is_admin", req.IsAdmin)

	resp := tokenToResponse(token)
	resp.Message = "Token created successfully"
	writeJSON(w, http.StatusCreated, resp)
}

// HandleListTokens returns all tokens, newest first
// GET /auth/tokens
func (h *Handler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.storage.ListTokens(r.Context())
	if err != nil {
		h.logger.Error("failed to list tokens", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list tokens")
		return
	}

	response := make([]TokenResponse, len(tokens))
	for i, t := range tokens {
		response[i] = tokenToResponse(t)
	}

	writeJSON(w, http.StatusOK, response)
}

// DeleteTokenResponse is the response body for DELETE /auth/tokens/{token}
type DeleteTokenResponse struct {
	Message      string `json:"message"`
	DeletedToken string `json:"deleted_token"`
}

// HandleDeleteToken deletes a token by its value. Deleting the caller's own
// token is allowed; the credential stops working on the next request.
// DELETE /auth/tokens/{token}
func (h *Handler) HandleDeleteToken(w http.ResponseWriter, r *http.Request) {
	value := chi.URLParam(r, "token")

	err := h.storage.DeleteToken(r.Context(), value)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Token not found")
			return
		}
		h.logger.Error("failed to delete token", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to delete token")
		return
	}

	if caller := auth.TokenFromContext(r.Context()); caller != nil && caller.Value == value {
		h.logger.Info("admin token deleted its own credential")
	} else {
		h.logger.Info("token deleted")
	}

	writeJSON(w, http.StatusOK, DeleteTokenResponse{
		Message:      "Token deleted successfully",
		DeletedToken: value,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response write errors are unrecoverable
	json.NewEncoder(w).Encode(body)
}
