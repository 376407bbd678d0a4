package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/imagemod/moderation-api/internal/metrics"
	"github.com/imagemod/moderation-api/internal/storage"
)

// Service validates bearer tokens against the token store and records usage.
// Every request is authenticated independently; there are no sessions. The
// store is the single source of truth - no in-process token cache, so a
// deleted token stops working on the next request without any invalidation
// discipline. A request already past authentication completes normally even
// if its token is deleted mid-flight.
type Service struct {
	tokens   storage.TokenStore
	usage    storage.UsageLog
	logger   *slog.Logger
	excluded map[string]struct{}
	now      func() time.Time
}

// NewService creates an auth service. excludedEndpoints lists usage-log
// endpoint labels that must not be recorded (e.g. the categories probe the
// frontend uses for silent token validation).
func NewService(tokens storage.TokenStore, usage storage.UsageLog, logger *slog.Logger, excludedEndpoints []string) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	excluded := make(map[string]struct{}, len(excludedEndpoints))
	for _, e := range excludedEndpoints {
		if e = strings.TrimSpace(e); e != "" {
			excluded[e] = struct{}{}
		}
	}

	return &Service{
		tokens:   tokens,
		usage:    usage,
		logger:   logger,
		excluded: excluded,
		now:      time.Now,
	}
}

// Authenticate is Chi-compatible middleware that validates the bearer token.
// Missing or unknown tokens terminate the request with 401 and produce no
// usage entry. On success the token is attached to the request context.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := extractBearerToken(r)
		if value == "" {
			metrics.RecordAuthFailure("missing_token")
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		token, err := s.tokens.GetToken(r.Context(), value)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				metrics.RecordAuthFailure("invalid_token")
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			s.logger.Error("token lookup failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
	})
}

// RequireAdmin gates admin-only routes. It must be ordered after
// Authenticate: the role check happens strictly after authentication
// succeeds, so an unknown token yields 401, never 403.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromContext(r.Context())
		if token == nil {
			// Misconfigured middleware chain; fail closed.
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		if !token.Role.IsAdmin() {
			metrics.RecordAuthFailure("admin_required")
			writeJSONError(w, http.StatusForbidden, "forbidden", "Admin access required. This endpoint requires an admin token.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RecordUsage returns middleware that appends one usage entry under the
// given endpoint label before the handler runs. It is the innermost layer:
// only requests that passed authentication (and, on admin routes,
// authorization) are counted. Append failures never fail the request - they
// are logged as warnings and surfaced via metrics instead.
func (s *Service) RecordUsage(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := s.excluded[endpoint]; !skip {
				token := TokenFromContext(r.Context())
				if token != nil {
					if err := s.usage.RecordUsage(r.Context(), token.Value, endpoint, s.now()); err != nil {
						metrics.RecordUsageLogFailure()
						s.logger.Warn("failed to record usage", "endpoint", endpoint, "error", err)
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken gets the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
	if err != nil {
		// Encoding errors are not critical for error responses
		_ = err
	}
}
