package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/finmodel/internal/adapter/http/handler"
	"github.com/iho/finmodel/internal/adapter/http/middleware"
	"github.com/iho/finmodel/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CalculationHandler *handler.CalculationHandler
	RunHandler         *handler.RunHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/validate/{type}", cfg.CalculationHandler.Validate)
			r.Post("/calculations/{type}", cfg.CalculationHandler.Calculate)
			r.Get("/calculations/{type}", cfg.CalculationHandler.History)
			r.Get("/calculations/{type}/active", cfg.CalculationHandler.Active)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/compare", cfg.RunHandler.Compare)
			r.Get("/{id}", cfg.RunHandler.Get)
			r.Post("/{id}/restore", cfg.RunHandler.Restore)
			r.Get("/{id}/export", cfg.RunHandler.Export)
		})
	})

	return r
}
