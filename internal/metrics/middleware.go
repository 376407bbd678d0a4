package metrics

import (
	"net/http"
	"regexp"
	"time"
)

// tokenSegment matches long opaque token values in paths (the DELETE
// /auth/tokens/{token} route carries the secret in the URL). Compiled once
// at package init time.
var tokenSegment = regexp.MustCompile(`/auth/tokens/[A-Za-z0-9_-]{16,}`)

// numericSegment matches numeric path segments.
var numericSegment = regexp.MustCompile(`/(\d+)`)

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter
func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called before writing body
func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware returns an HTTP middleware that records Prometheus metrics for each request.
// It tracks request count and duration by method, normalized path, and status code.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // default if not explicitly set
		}

		startTime := time.Now()

		defer func() {
			duration := time.Since(startTime).Seconds()

			statusCode := recorder.statusCode
			if statusCode == 0 {
				statusCode = http.StatusInternalServerError
			}

			// Normalize the path to avoid cardinality explosion - and to keep
			// token secrets out of metric labels
			normalizedPath := normalizePath(r.URL.Path)

			statusStr := http.StatusText(statusCode)
			if statusStr == "" {
				statusStr = "UNKNOWN"
			}

			RecordRequest(r.Method, normalizedPath, statusStr)
			RecordRequestDuration(r.Method, normalizedPath, statusStr, duration)

			if err := recover(); err != nil {
				if !recorder.written {
					recorder.statusCode = http.StatusInternalServerError
					recorder.WriteHeader(http.StatusInternalServerError)
				}
				// Don't re-panic - middleware should handle it gracefully
			}
		}()

		next.ServeHTTP(recorder, r)
	})
}

// normalizePath takes a request path and returns a normalized version for use
// as a metric label. Token values and numeric IDs are collapsed:
//
//	/auth/tokens/9f2c... -> /auth/tokens/:token
//	/somepath/123        -> /somepath/:id
func normalizePath(path string) string {
	path = tokenSegment.ReplaceAllString(path, "/auth/tokens/:token")
	return numericSegment.ReplaceAllString(path, "/:id")
}
