package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/imagemod/moderation-api/internal/logging"
)

// HTTPLogging creates a middleware that logs HTTP requests and responses.
// Only active when logger level is DEBUG.
//
// Parameters:
// - logger: slog.Logger instance for writing logs
// - allowlist: Fields to preserve in JSON bodies (nil = log everything)
//
// Multipart bodies (image uploads) are never buffered or logged; only their
// size is reported. Token secrets in headers and JSON bodies are masked.
func HTTPLogging(logger *slog.Logger, allowlist []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip logging if logger level is not DEBUG
			if !logger.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}

			logRequest(logger, r, allowlist)

			// Record response
			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           new(bytes.Buffer),
			}

			start := time.Now()
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			logResponse(logger, r, rec, duration, allowlist)
		})
	}
}

// logRequest logs the incoming HTTP request
func logRequest(logger *slog.Logger, r *http.Request, allowlist []string) {
	requestID := GetRequestID(r.Context())

	// Multipart uploads are left unread: buffering megabytes of image data
	// for a debug line is not worth it, and the body must stay streamable
	// for the handler.
	var bodyField string
	if isMultipart(r) {
		bodyField = "[MULTIPART: " + r.Header.Get("Content-Length") + " bytes]"
	} else if r.Body != nil {
		reqBody, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error("Failed to read request body", "error", err)
			return
		}
		// Restore body for handler
		r.Body = io.NopCloser(bytes.NewReader(reqBody))
		bodyField = maskBody(reqBody, allowlist)
	}

	logger.Debug("HTTP Request",
		"request_id", requestID,
		"method", r.Method,
		"url", r.URL.Path,
		"query_params", r.URL.RawQuery,
		"headers", maskHeaders(r.Header),
		"body", bodyField,
	)
}

// logResponse logs the HTTP response
func logResponse(logger *slog.Logger, r *http.Request, rec *responseRecorder, duration time.Duration, allowlist []string) {
	requestID := GetRequestID(r.Context())

	logger.Debug("HTTP Response",
		"request_id", requestID,
		"method", r.Method,
		"url", r.URL.Path,
		"status_code", rec.statusCode,
		"headers", maskHeaders(rec.Header()),
		"body", maskBody(rec.body.Bytes(), allowlist),
		"duration_ms", duration.Milliseconds(),
	)
}

// isMultipart reports whether the request carries a multipart form body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

// maskHeaders masks sensitive header values
func maskHeaders(headers http.Header) map[string]string {
	result := make(map[string]string)
	for k, v := range headers {
		if len(v) > 0 {
			result[k] = logging.MaskHeader(k, v[0])
		}
	}
	return result
}

// maskBody masks sensitive data in request/response body
func maskBody(body []byte, allowlist []string) string {
	if len(body) == 0 {
		return ""
	}

	// Check if body is valid UTF-8
	if !utf8.Valid(body) {
		return logging.FormatBinaryData(body)
	}

	// Mask JSON body with allowlist
	maskedBody := logging.MaskJSONBody(body, allowlist)

	return string(maskedBody)
}

// responseRecorder captures response details for logging.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

// WriteHeader captures the status code and writes it to the response.
func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Write captures the response body and writes it to the response.
func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b) // Capture for logging
	return r.ResponseWriter.Write(b)
}
