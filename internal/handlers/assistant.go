package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/fetcher"
	"github.com/ritu11x/cortex-ai/internal/llm"
	"github.com/ritu11x/cortex-ai/internal/middleware"
	"github.com/ritu11x/cortex-ai/internal/service/items"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

// AssistantHandler serves the chat, feed and link preview routes.
type AssistantHandler struct {
	base
	items   *items.Service
	fetcher *fetcher.Fetcher
}

// NewAssistantHandler creates an AssistantHandler.
func NewAssistantHandler(svc *items.Service, f *fetcher.Fetcher, logger *zap.Logger, maxBodyBytes int64) *AssistantHandler {
	return &AssistantHandler{base: newBase(logger, maxBodyBytes), items: svc, fetcher: f}
}

// Chat handles POST /api/chat.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := h.decode(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var chatItems []llm.ChatItem
	if req.Items != nil {
		chatItems = *req.Items
	}
	reply, err := h.items.Ask(r.Context(), req.Message, chatItems)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.ChatResponse{Reply: reply})
}

// Feed handles POST /api/feed.
func (h *AssistantHandler) Feed(w http.ResponseWriter, r *http.Request) {
	var req api.FeedRequest
	if err := h.decode(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := middleware.AuthorizeUser(r.Context(), req.UserID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	res, err := h.items.Feed(r.Context(), req.UserID, req.Format, req.Topics)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, res)
}

// FetchURL handles POST /api/fetch-url. Fetch problems still answer 200
// with the fallback message; only bad input is a 400.
func (h *AssistantHandler) FetchURL(w http.ResponseWriter, r *http.Request) {
	var req api.FetchURLRequest
	if err := h.decode(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	meta, err := h.fetcher.FetchOrFallback(r.Context(), req.URL)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, meta)
}
