// Package llm turns saved content into summaries, tags and answers using a
// large language model.
package llm

import (
	"context"
)

// Default models and token budgets.
const (
	DefaultClassifierModel = "claude-sonnet-4-20250514"
	DefaultChatModel       = "claude-haiku-4-5-20251001"

	DefaultClassifierMaxTokens = 500
	DefaultChatMaxTokens       = 800
)

// Provider is an LLM backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	IsAvailable() bool
}

// Request is a single-turn completion request.
type Request struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature,omitempty"`
}
