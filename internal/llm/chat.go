package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// Chat context limits.
const (
	MaxContextItems   = 10
	MaxContentExcerpt = 200
)

// ErrChatInput is returned when the message or the items are missing.
var ErrChatInput error = appErrors.Validation("CHAT_INPUT_REQUIRED", "Message and items required").Build()

// ChatItem is the part of a saved item the assistant sees.
type ChatItem struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
}

// ChatItemFrom projects a saved item.
func ChatItemFrom(item domain.SavedItem) ChatItem {
	return ChatItem{
		Title:    item.Title,
		Category: string(item.Category),
		Tags:     append([]string(nil), item.Tags...),
		Summary:  item.Summary,
		Content:  item.Content,
	}
}

// ChatItemsFrom projects a list of saved items, keeping order.
func ChatItemsFrom(items []domain.SavedItem) []ChatItem {
	out := make([]ChatItem, len(items))
	for i, item := range items {
		out[i] = ChatItemFrom(item)
	}
	return out
}

// ChatConfig selects the model.
type ChatConfig struct {
	Model     string
	MaxTokens int
}

// ChatRelay answers questions grounded on a user's saved items.
type ChatRelay struct {
	provider  Provider
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewChatRelay creates a relay. Zero config values use the defaults.
func NewChatRelay(provider Provider, cfg ChatConfig, logger *zap.Logger) *ChatRelay {
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultChatMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatRelay{provider: provider, model: cfg.Model, maxTokens: cfg.MaxTokens, logger: logger}
}

// Reply sends message with the items as context and returns the answer
// verbatim. A nil items slice is rejected; an empty one is allowed.
func (r *ChatRelay) Reply(ctx context.Context, message string, items []ChatItem) (string, error) {
	if strings.TrimSpace(message) == "" || items == nil {
		return "", ErrChatInput
	}
	if r.provider == nil || !r.provider.IsAvailable() {
		return "", appErrors.External("CHAT_UNAVAILABLE", "assistant is not available").
			WithOperation("Reply").
			Build()
	}

	reply, err := r.provider.Complete(ctx, Request{
		System:    SystemPrompt(items),
		Prompt:    message,
		Model:     r.model,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		r.logger.Error("chat completion failed",
			zap.String("model", r.model),
			zap.Int("items", len(items)),
			zap.Error(err))
		return "", appErrors.External("CHAT_FAILED", err.Error()).
			WithOperation("Reply").
			WithCause(err).
			Build()
	}
	return reply, nil
}

// SystemPrompt states the item count and embeds the context block.
func SystemPrompt(items []ChatItem) string {
	return fmt.Sprintf(`You are Cortex AI, a smart second brain assistant. The user has %d saved items. Here they are:

%s

Answer questions about their saved content, find connections, summarize topics, and generate ideas. Be concise and helpful.`,
		len(items), BuildContext(items))
}

// BuildContext renders the first MaxContextItems items.
func BuildContext(items []ChatItem) string {
	n := len(items)
	if n > MaxContextItems {
		n = MaxContextItems
	}
	blocks := make([]string, n)
	for i := 0; i < n; i++ {
		blocks[i] = formatItem(i+1, items[i])
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func formatItem(n int, item ChatItem) string {
	title := item.Title
	if title == "" {
		title = domain.UntitledTitle
	}
	category := item.Category
	if category == "" {
		category = string(domain.CategoryOther)
	}
	summary := item.Summary
	if summary == "" {
		summary = "No summary"
	}
	content := []rune(item.Content)
	if len(content) > MaxContentExcerpt {
		content = content[:MaxContentExcerpt]
	}

	return fmt.Sprintf("Item %d:\nTitle: %s\nCategory: %s\nTags: %s\nSummary: %s\nContent: %s",
		n, title, category, strings.Join(item.Tags, ", "), summary, string(content))
}
