package api

import (
	"github.com/ritu11x/cortex-ai/internal/domain"
	"github.com/ritu11x/cortex-ai/internal/graph"
	"github.com/ritu11x/cortex-ai/internal/llm"
)

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Error  string `json:"error,omitempty"`
}

// SaveItemRequest is the body of POST /api/items/save.
type SaveItemRequest struct {
	Title   string `json:"title" validate:"max=500"`
	Content string `json:"content" validate:"max=100000"`
	URL     string `json:"url" validate:"omitempty,max=2048"`
	Type    string `json:"type" validate:"omitempty,max=32"`
	UserID  string `json:"user_id" validate:"required,max=128"`
}

// SaveItemResponse is the body returned after a save.
type SaveItemResponse struct {
	Success bool             `json:"success"`
	Item    domain.SavedItem `json:"item"`
}

// UpdateItemRequest is the body of PATCH /api/items/{user_id}/{id}.
type UpdateItemRequest struct {
	Title    *string   `json:"title,omitempty" validate:"omitempty,max=500"`
	Summary  *string   `json:"summary,omitempty" validate:"omitempty,max=2000"`
	Tags     *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=64"`
	Category *string   `json:"category,omitempty" validate:"omitempty,max=32"`
}

// Patch converts the request into a domain patch.
func (r UpdateItemRequest) Patch() domain.ItemPatch {
	return domain.ItemPatch{Title: r.Title, Summary: r.Summary, Tags: r.Tags, Category: r.Category}
}

// GraphResponse is the body of GET /api/graph/{user_id}.
type GraphResponse struct {
	Nodes []graph.Node      `json:"nodes"`
	Edges []graph.Edge      `json:"edges"`
	Force graph.ForceConfig `json:"force"`
	Stats graph.Stats       `json:"stats"`
}

// ChatRequest is the body of POST /api/chat. Items is a pointer so a
// missing field can be told apart from an empty list.
type ChatRequest struct {
	Message string          `json:"message"`
	Items   *[]llm.ChatItem `json:"items"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// FeedRequest is the body of POST /api/feed.
type FeedRequest struct {
	UserID string   `json:"user_id" validate:"required,max=128"`
	Format string   `json:"format" validate:"required"`
	Topics []string `json:"topics" validate:"max=20"`
}

// FetchURLRequest is the body of POST /api/fetch-url.
type FetchURLRequest struct {
	URL string `json:"url"`
}
