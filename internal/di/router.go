package di

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/handlers"
	"github.com/ritu11x/cortex-ai/internal/middleware"
	"github.com/ritu11x/cortex-ai/internal/observability"
)

// NewRouter assembles the middleware chain and mounts every route.
func NewRouter(
	cfg *config.Config,
	h *handlers.Handlers,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*chi.Mux, error) {
	var authenticate func(http.Handler) http.Handler
	if cfg.Security.EnableAuth {
		v, err := middleware.NewJWTValidator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		authenticate = middleware.Authenticate(v, logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Metrics(metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout, logger))

	h.MountSystem(r)
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	}

	var guards handlers.Guards
	if cfg.CircuitBreaker.Enabled {
		guards.Data = middleware.CircuitBreaker(circuitBreakerConfig("cortex-data", cfg.CircuitBreaker), logger)
		guards.Assistant = middleware.CircuitBreaker(circuitBreakerConfig("cortex-assistant", cfg.CircuitBreaker), logger)
	}

	r.Route("/api", func(r chi.Router) {
		if authenticate != nil {
			r.Use(authenticate)
		}
		h.MountAPI(r, guards)
	})

	return r, nil
}

func circuitBreakerConfig(name string, c config.CircuitBreaker) middleware.CircuitBreakerConfig {
	out := middleware.DefaultCircuitBreakerConfig(name)
	if c.MaxRequests > 0 {
		out.MaxRequests = c.MaxRequests
	}
	if c.Interval > 0 {
		out.Interval = c.Interval
	}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	if c.MinRequests > 0 {
		out.MinRequests = c.MinRequests
	}
	if c.FailureRatio > 0 {
		out.FailureThreshold = c.FailureRatio
	}
	return out
}
