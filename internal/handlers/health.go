package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/service/analytics"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

const pingTimeout = 3 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the root, health and analytics routes.
type SystemHandler struct {
	base
	store     Pinger
	analytics *analytics.Service
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(store Pinger, svc *analytics.Service, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{base: newBase(logger, 0), store: store, analytics: svc}
}

// Root handles GET /.
func (h *SystemHandler) Root(w http.ResponseWriter, _ *http.Request) {
	api.Success(w, http.StatusOK, api.MessageResponse{Message: "Cortex API running!"})
}

// Health handles GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		api.Success(w, http.StatusServiceUnavailable, api.HealthResponse{
			Status: "degraded",
			Store:  "unavailable",
			Error:  err.Error(),
		})
		return
	}
	api.Success(w, http.StatusOK, api.HealthResponse{Status: "ok", Store: "ok"})
}

// Analytics handles GET /api/analytics/{user_id}.
func (h *SystemHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	report, err := h.analytics.Report(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, report)
}
