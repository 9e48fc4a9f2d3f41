// Package http exposes the transaction store, parser and aggregation
// engine as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/parser"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HeaderUserID names the header the identity layer in front of the API
// fills with the authenticated user.
const HeaderUserID = "X-User-ID"

// TransactionStore is what the handlers need from the service layer.
type TransactionStore interface {
	Parse(ctx context.Context, text string) (parser.Result, error)
	List(ctx context.Context, userID string, f analytics.Filter) ([]core.Transaction, error)
	Append(ctx context.Context, userID string, in core.NewTransaction) (core.Transaction, error)
	Update(ctx context.Context, userID, id string, patch core.Patch) (bool, error)
	Remove(ctx context.Context, userID, id string) (bool, error)
	Summary(ctx context.Context, userID string) (core.FinancialSummary, error)
	Categories(ctx context.Context, userID string) ([]core.CategoryData, error)
	Trend(ctx context.Context, userID string) ([]core.TrendPoint, error)
	Monthly(ctx context.Context, userID string, months int) ([]core.MonthPoint, error)
	Dashboard(ctx context.Context, userID string) (core.Dashboard, error)
	Ready(ctx context.Context) error
}

type Options struct {
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Now            func() time.Time
}

// Server wraps http.Server with the API routes and middleware chain.
type Server struct {
	http.Server

	store    TransactionStore
	logger   *applog.Logger
	events   *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, store TransactionStore, logger *applog.Logger, opts Options) (*Server, error) {
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		store:    store,
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		now:      now,
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "request rejected")
	}))
	r.Use(s.limiter.Middleware(s.rateLimitKey, isMutating, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Get("/categories/list", s.handleCategoryList)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Patch("/transactions/{id}", s.handleUpdateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Get("/summary", s.handleSummary)
			r.Get("/categories", s.handleCategories)
			r.Get("/trends", s.handleTrends)
			r.Get("/analytics/monthly", s.handleMonthly)
			r.Get("/dashboard", s.handleDashboard)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops accepting requests, waits for in-flight ones and stops
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs the server until Shutdown; a clean shutdown is not an
// error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Metrics reports request counters from the middleware chain.
func (s *Server) Metrics() map[string]int64 {
	tm := s.tracer.GetMetrics()
	dm := s.detector.GetMetrics()
	return map[string]int64{
		"total_requests":       tm.TotalRequests,
		"avg_response_time_us": tm.AverageResponseTime,
		"rate_limit_hits":      s.limiter.Hits(),
		"rate_limit_clients":   int64(s.limiter.ActiveClients()),
		"suspicious_requests":  dm.SuspiciousRequests,
		"blocked_requests":     dm.BlockedRequests,
	}
}

// anonymousRoutes are served without a user, so the user header is caller
// controlled there and cannot key a budget.
var anonymousRoutes = map[string]bool{
	"/api/parse":           true,
	"/api/categories/list": true,
	"/healthz":             true,
	"/readyz":              true,
}

// rateLimitKey budgets per user on routes that require one and per client
// address everywhere else.
func (s *Server) rateLimitKey(r *http.Request) string {
	if user := userID(r); user != "" && !anonymousRoutes[r.URL.Path] {
		return "user:" + user
	}
	return "ip:" + s.detector.ExtractClientIP(r)
}

func isMutating(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
