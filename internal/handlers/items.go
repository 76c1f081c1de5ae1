package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
	"github.com/ritu11x/cortex-ai/internal/middleware"
	"github.com/ritu11x/cortex-ai/internal/service/items"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

// ItemHandler serves the saved item routes.
type ItemHandler struct {
	base
	items *items.Service
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(svc *items.Service, logger *zap.Logger, maxBodyBytes int64) *ItemHandler {
	return &ItemHandler{base: newBase(logger, maxBodyBytes), items: svc}
}

// SaveItem handles POST /api/items/save.
func (h *ItemHandler) SaveItem(w http.ResponseWriter, r *http.Request) {
	var req api.SaveItemRequest
	if err := h.decode(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := middleware.AuthorizeUser(r.Context(), req.UserID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	item, err := h.items.Save(r.Context(), items.SaveInput{
		UserID:  req.UserID,
		Title:   req.Title,
		Content: req.Content,
		URL:     req.URL,
		Type:    req.Type,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.SaveItemResponse{Success: true, Item: item})
}

// ListItems handles GET /api/items/{user_id}. Items come newest first.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	list, err := h.items.ListNewest(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, list)
}

// SearchItems handles GET /api/items/{user_id}/search.
func (h *ItemHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	q := domain.Query{
		Search:   r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}
	list, err := h.items.List(r.Context(), userID, q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, list)
}

// GetItem handles GET /api/items/{user_id}/{id}.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	item, err := h.items.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, item)
}

// UpdateItem handles PATCH /api/items/{user_id}/{id}.
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var req api.UpdateItemRequest
	if err := h.decode(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	item, err := h.items.Update(r.Context(), userID, chi.URLParam(r, "id"), req.Patch())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, item)
}

// TogglePin handles POST /api/items/{user_id}/{id}/pin.
func (h *ItemHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	item, err := h.items.TogglePin(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{user_id}/{id}.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.items.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.NoContent(w)
}

// Graph handles GET /api/graph/{user_id}.
func (h *ItemHandler) Graph(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	layout, _ := strconv.ParseBool(r.URL.Query().Get("layout"))
	res, err := h.items.Graph(r.Context(), userID, layout)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.GraphResponse{
		Nodes: res.Graph.Nodes,
		Edges: res.Graph.Edges,
		Force: res.Force,
		Stats: res.Stats,
	})
}

// Export handles GET /api/export/{user_id} and streams back a PDF.
func (h *ItemHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var buf bytes.Buffer
	filename, err := h.items.Export(r.Context(), userID, r.URL.Query().Get("name"), &buf)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write export", zap.String("user_id", userID), zap.Error(err))
	}
}
