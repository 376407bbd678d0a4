// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// defaultMaxUploadBytes caps uploaded image size at 10 MiB.
const defaultMaxUploadBytes = 10 * 1024 * 1024

// Config holds all application configuration.
type Config struct {
	LogLevel               string   // debug, info, warn, error
	ListenAddr             string   // Server listen address (e.g., ":8080")
	MetricsListenAddr      string   // Metrics listener address (e.g., "localhost:9090")
	DatabasePath           string   // SQLite database path
	BootstrapAdminToken    string   // Required: seed admin credential
	MaxUploadBytes         int64    // Max accepted image upload size
	AllowedOrigins         []string // CORS origins for the browser frontend
	UsageExcludedEndpoints []string // Endpoint labels left out of usage accounting
}

// Load parses configuration from environment variables. A .env file in the
// working directory is read first when present, matching the development
// setup the frontend expects; real environment variables win over it.
func Load() (*Config, error) {
	// Missing .env is the normal production case, not an error.
	_ = godotenv.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	listenAddr := os.Getenv("LISTEN_ADDR")
	metricsListenAddr := os.Getenv("METRICS_LISTEN_ADDR")
	databasePath := os.Getenv("DATABASE_PATH")
	bootstrapToken := os.Getenv("BOOTSTRAP_ADMIN_TOKEN")

	// Set defaults for optional fields
	if logLevel == "" {
		logLevel = "info"
	}

	if listenAddr == "" {
		listenAddr = ":8080"
	}

	if metricsListenAddr == "" {
		metricsListenAddr = "localhost:9090"
	}

	if databasePath == "" {
		databasePath = "/data/moderation.db"
	}

	maxUploadBytes := int64(defaultMaxUploadBytes)
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %q", raw)
		}
		maxUploadBytes = parsed
	}

	allowedOrigins := splitList(os.Getenv("ALLOWED_ORIGINS"))
	if len(allowedOrigins) == 0 {
		// Vite dev server origins used by the reference frontend
		allowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}

	var excluded []string
	if raw, ok := os.LookupEnv("USAGE_EXCLUDED_ENDPOINTS"); ok {
		excluded = splitList(raw)
	} else {
		// The frontend calls the categories endpoint as a silent
		// token-validation probe; by default it must not inflate analytics.
		excluded = []string{"/moderate/categories"}
	}

	cfg := &Config{
		LogLevel:               logLevel,
		ListenAddr:             listenAddr,
		MetricsListenAddr:      metricsListenAddr,
		DatabasePath:           databasePath,
		BootstrapAdminToken:    bootstrapToken,
		MaxUploadBytes:         maxUploadBytes,
		AllowedOrigins:         allowedOrigins,
		UsageExcludedEndpoints: excluded,
	}

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	if c.BootstrapAdminToken == "" {
		return fmt.Errorf("BOOTSTRAP_ADMIN_TOKEN environment variable is required")
	}
	return nil
}

// splitList parses a comma-separated env value into trimmed, non-empty items.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
