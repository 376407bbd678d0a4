package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imagemod/moderation-api/internal/auth"
	"github.com/imagemod/moderation-api/internal/storage"
	"github.com/imagemod/moderation-api/internal/testutil/mockstore"
)

func newTokensHandler(store *mockstore.MockStorage) *Handler {
	return NewHandler(store, nil, testLogger())
}

func TestHandleCreateToken(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &mockstore.MockStorage{
		CreateTokenFunc: func(ctx context.Context, role storage.Role) (*storage.Token, error) {
			if role != storage.RoleAdmin {
				t.Errorf("role = %q, want %q", role, storage.RoleAdmin)
			}
			return &storage.Token{Value: "abc123", Role: role, CreatedAt: created}, nil
		},
	}
	h := newTokensHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/auth/tokens", strings.NewReader(`{"isAdmin": true}`))
	rec := httptest.NewRecorder()
	h.HandleCreateToken(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "abc123" {
		t.Errorf("token = %q, want %q", resp.Token, "abc123")
	}
	if !resp.IsAdmin {
		t.Error("isAdmin = false, want true")
	}
	if !resp.CreatedAt.Equal(created) {
		t.Errorf("createdAt = %v, want %v", resp.CreatedAt, created)
	}
	if resp.Message != "Token created successfully" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestHandleCreateToken_DefaultsToUser(t *testing.T) {
	var gotRole storage.Role
	store := &mockstore.MockStorage{
		CreateTokenFunc: func(ctx context.Context, role storage.Role) (*storage.Token, error) {
			gotRole = role
			return &storage.Token{Value: "v", Role: role, CreatedAt: time.Now()}, nil
		},
	}
	h := newTokensHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/auth/tokens", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleCreateToken(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if gotRole != storage.RoleUser {
		t.Errorf("role = %q, want %q", gotRole, storage.RoleUser)
	}
}

func TestHandleCreateToken_InvalidJSON(t *testing.T) {
	h := newTokensHandler(&mockstore.MockStorage{})

	req := httptest.NewRequest(http.MethodPost, "/auth/tokens", strings.NewReader(`{bad`))
	rec := httptest.NewRecorder()
	h.HandleCreateToken(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertAPIError(t, rec, ErrCodeValidation)
}

func TestHandleCreateToken_StoreError(t *testing.T) {
	store := &mockstore.MockStorage{
		CreateTokenFunc: func(ctx context.Context, role storage.Role) (*storage.Token, error) {
			return nil, errors.New("disk full")
		},
	}
	h := newTokensHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/auth/tokens", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleCreateToken(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	assertAPIError(t, rec, ErrCodeInternalError)
}

func TestHandleListTokens(t *testing.T) {
	now := time.Now().UTC()
	store := &mockstore.MockStorage{
		ListTokensFunc: func(ctx context.Context) ([]*storage.Token, error) {
			return []*storage.Token{
				{Value: "newer", Role: storage.RoleAdmin, CreatedAt: now},
				{Value: "older", Role: storage.RoleUser, CreatedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	h := newTokensHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/auth/tokens", nil)
	rec := httptest.NewRecorder()
	h.HandleListTokens(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp []TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("got %d tokens, want 2", len(resp))
	}
	if resp[0].Token != "newer" || !resp[0].IsAdmin {
		t.Errorf("first entry = %+v", resp[0])
	}
	if resp[1].Token != "older" || resp[1].IsAdmin {
		t.Errorf("second entry = %+v", resp[1])
	}
	if resp[0].Message != "" {
		t.Errorf("list entries must not carry a message, got %q", resp[0].Message)
	}
}

func TestHandleListTokens_Empty(t *testing.T) {
	h := newTokensHandler(&mockstore.MockStorage{})

	req := httptest.NewRequest(http.MethodGet, "/auth/tokens", nil)
	rec := httptest.NewRecorder()
	h.HandleListTokens(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

// deleteRequest routes through chi so URL parameters resolve.
func deleteRequest(h *Handler, target string, ctx context.Context) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Delete("/auth/tokens/{token}", h.HandleDeleteToken)

	req := httptest.NewRequest(http.MethodDelete, target, nil)
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleDeleteToken(t *testing.T) {
	var deleted string
	store := &mockstore.MockStorage{
		DeleteTokenFunc: func(ctx context.Context, value string) error {
			deleted = value
			return nil
		},
	}
	h := newTokensHandler(store)

	rec := deleteRequest(h, "/auth/tokens/victim-token", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if deleted != "victim-token" {
		t.Errorf("deleted = %q, want %q", deleted, "victim-token")
	}

	var resp DeleteTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DeletedToken != "victim-token" {
		t.Errorf("deleted_token = %q", resp.DeletedToken)
	}
	if resp.Message != "Token deleted successfully" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestHandleDeleteToken_NotFound(t *testing.T) {
	store := &mockstore.MockStorage{
		DeleteTokenFunc: func(ctx context.Context, value string) error {
			return storage.ErrNotFound
		},
	}
	h := newTokensHandler(store)

	rec := deleteRequest(h, "/auth/tokens/missing", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	assertAPIError(t, rec, ErrCodeNotFound)
}

func TestHandleDeleteToken_Self(t *testing.T) {
	store := &mockstore.MockStorage{
		DeleteTokenFunc: func(ctx context.Context, value string) error {
			return nil
		},
	}
	h := newTokensHandler(store)

	caller := &storage.Token{Value: "self-token", Role: storage.RoleAdmin}
	ctx := auth.WithToken(context.Background(), caller)

	rec := deleteRequest(h, "/auth/tokens/self-token", ctx)

	// Self-deletion succeeds; the credential stops working on the next request
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, wantCode string) {
	t.Helper()
	var apiErr APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if apiErr.Error != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Error, wantCode)
	}
	if apiErr.Message == "" {
		t.Error("error message is empty")
	}
}
