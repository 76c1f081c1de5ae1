package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/internal/service/notifications"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

// NotificationHandler serves the notification feed routes.
type NotificationHandler struct {
	base
	notifications *notifications.Service
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(svc *notifications.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{base: newBase(logger, 0), notifications: svc}
}

// List handles GET /api/notifications/{user_id}?limit=.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.handleServiceError(w, r, appErrors.Validation("INVALID_LIMIT", "limit must be a positive number").Build())
			return
		}
	}
	list, err := h.notifications.List(r.Context(), userID, limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, list)
}

// MarkAllRead handles POST /api/notifications/{user_id}/read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.notifications.MarkAllRead(r.Context(), userID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.NoContent(w)
}

// MarkRead handles POST /api/notifications/{user_id}/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.NoContent(w)
}

// Delete handles DELETE /api/notifications/{user_id}/{id}.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.NoContent(w)
}

// Clear handles DELETE /api/notifications/{user_id}.
func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.notifications.Clear(r.Context(), userID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.NoContent(w)
}
