package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// SetLogLevelRequest is the request body for POST /auth/loglevel
type SetLogLevelRequest struct {
	Level string `json:"level"`
}

// HandleSetLogLevel changes runtime log level
// POST /auth/loglevel
// Body: {"level": "debug|info|warn|error"}
func (h *Handler) HandleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req SetLogLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body")
		return
	}

	var level slog.Level
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		WriteError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid level (must be: debug, info, warn, error)")
		return
	}

	h.logLevel.Set(level)
	h.logger.Info("log level changed", "new_level", req.Level)

	writeJSON(w, http.StatusOK, map[string]string{
		"level": req.Level,
	})
}
