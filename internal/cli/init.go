// Package cli provides the process bootstrap shared by cmd/fintrack and
// cmd/fintrack-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger creates the process logger at level and makes it the default.
func SetupLogger(component, level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and runs validate on it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Runtime is the wired store shared by both processes.
type Runtime struct {
	Service   *services.TransactionService
	Backend   *backend.BackendResult
	Cache     *cache.Collections
	CacheJobs *cache.Manager
}

// NewRuntime opens the configured backend and builds the transaction
// service on top of it.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Runtime, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	collections := cache.NewCollections(cfg.CacheSize, cfg.CacheTTL)
	jobs := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	jobs.Register(collections)
	jobs.StartCleanup(cfg.CacheTTL)

	svc := services.NewTransactionService(res.Repository, services.Options{
		Cache:       collections,
		Publisher:   res.Publisher,
		Engine:      analytics.Engine{CalendarMonth: cfg.SummaryCalendarMonth},
		ParserDelay: cfg.ParserDelay,
		Logger:      logger.WithComponent(applog.ComponentStore),
	})

	return &Runtime{Service: svc, Backend: res, Cache: collections, CacheJobs: jobs}, nil
}

// Close stops cache cleanup and releases backend resources.
func (r *Runtime) Close() error {
	r.CacheJobs.Stop()
	if r.Backend.Cleanup != nil {
		return r.Backend.Cleanup()
	}
	return nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// ShutdownContext bounds the time given to cleanup after a signal.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
