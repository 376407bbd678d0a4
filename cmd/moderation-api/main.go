// Package main provides the entry point for the image moderation API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imagemod/moderation-api/internal/admin"
	"github.com/imagemod/moderation-api/internal/auth"
	"github.com/imagemod/moderation-api/internal/config"
	"github.com/imagemod/moderation-api/internal/metrics"
	"github.com/imagemod/moderation-api/internal/middleware"
	"github.com/imagemod/moderation-api/internal/moderation"
	"github.com/imagemod/moderation-api/internal/storage"
)

const version = "2.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(parseLogLevel(cfg.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := auth.Seed(ctx, store, cfg.BootstrapAdminToken); err != nil {
		return fmt.Errorf("seed bootstrap token: %w", err)
	}
	logger.Info("bootstrap admin token seeded")

	if err := metrics.Init(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	router := newRouter(cfg, store, logLevel, logger)

	apiServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsListenAddr,
		Handler:           newMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("metrics listener starting", "addr", cfg.MetricsListenAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	go func() {
		logger.Info("api listener starting", "addr", cfg.ListenAddr, "version", version)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api server shutdown", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}
	return nil
}

// newRouter assembles the public API router.
func newRouter(cfg *config.Config, store storage.Store, logLevel *slog.LevelVar, logger *slog.Logger) http.Handler {
	authSvc := auth.NewService(store, store, logger, cfg.UsageExcludedEndpoints)
	adminHandler := admin.NewHandler(store, logLevel, logger)
	analyzer := moderation.NewStubAnalyzer()
	moderationHandler := moderation.NewHandler(analyzer, logger, cfg.MaxUploadBytes)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.HTTPLogging(logger, []string{"isAdmin", "level"}))

	// Public endpoints (no auth)
	r.Get("/health", adminHandler.HandleHealth)
	r.Get("/ready", adminHandler.HandleReady)
	r.Get("/", rootHandler)

	// Token administration (admin only)
	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(1 << 20))
		r.Mount("/auth", adminHandler.NewRouter(authSvc))
	})

	// Moderation endpoints (any valid token). The body bound leaves room
	// for a full batch of maximum-size files plus multipart framing.
	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxUploadBytes*(moderation.MaxBatchSize+1) + (1 << 20)))
		r.Mount("/moderate", moderationHandler.NewRouter(authSvc))
	})

	return r
}

// newMetricsRouter serves Prometheus metrics on the internal listener.
func newMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	return r
}

func rootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Response write errors are unrecoverable
	fmt.Fprintf(w, `{"message":"Image Moderation API","version":"%s"}`, version)
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
