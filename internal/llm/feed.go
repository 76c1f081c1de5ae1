package llm

import (
	"context"
	"fmt"
	"strings"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// FeedFormat is a shape the assistant can rewrite saved content into.
type FeedFormat string

const (
	FeedThread     FeedFormat = "thread"
	FeedNewsletter FeedFormat = "newsletter"
	FeedPodcast    FeedFormat = "podcast"
	FeedSummary    FeedFormat = "summary"
)

// DefaultFeedItems is how many items are used when no topic is picked.
const DefaultFeedItems = 5

var feedFormats = map[FeedFormat]struct {
	label       string
	instruction string
}{
	FeedThread:     {"Twitter Thread", "Write 5-7 tweets numbered 1/, 2/, etc. Make it engaging and shareable."},
	FeedNewsletter: {"Newsletter", "Write a short newsletter with sections: Intro, Key Insights, Top Picks, Closing."},
	FeedPodcast:    {"Podcast Script", "Write a podcast script with: Hook, Main Points, Examples, Outro. Conversational tone."},
	FeedSummary:    {"60s Explainer", "Write a 60-second read. Punchy. Clear. Use bullet points."},
}

// ParseFeedFormat validates a format name.
func ParseFeedFormat(s string) (FeedFormat, error) {
	f := FeedFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := feedFormats[f]; !ok {
		return "", appErrors.Validation("INVALID_FEED_FORMAT", "format must be one of thread, newsletter, podcast, summary").
			WithDetails(s).
			Build()
	}
	return f, nil
}

// Label is the display name of the format.
func (f FeedFormat) Label() string {
	return feedFormats[f].label
}

// FeedResult is a generated feed.
type FeedResult struct {
	Reply     string     `json:"reply"`
	Format    FeedFormat `json:"format"`
	ItemCount int        `json:"item_count"`
}

// SelectFeedItems keeps items tagged with a topic or whose category is a
// topic. Without topics the first DefaultFeedItems items are used.
func SelectFeedItems(items []ChatItem, topics []string) []ChatItem {
	if len(topics) == 0 {
		if len(items) > DefaultFeedItems {
			return append([]ChatItem{}, items[:DefaultFeedItems]...)
		}
		return append([]ChatItem{}, items...)
	}

	wanted := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		wanted[t] = struct{}{}
	}

	out := make([]ChatItem, 0, len(items))
	for _, item := range items {
		if _, ok := wanted[item.Category]; ok {
			out = append(out, item)
			continue
		}
		for _, tag := range item.Tags {
			if _, ok := wanted[tag]; ok {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// FeedPrompt is the user message asking for format over topics.
func FeedPrompt(format FeedFormat, topics []string) string {
	about := "all my saved content"
	if len(topics) > 0 {
		about = strings.Join(topics, ", ")
	}
	return fmt.Sprintf("Generate a %s based on my saved content.\nFormat: %s\n%s\nBased on topics: %s",
		format.Label(), format, feedFormats[format].instruction, about)
}

// ComposeFeed rewrites the relevant items into format.
func (r *ChatRelay) ComposeFeed(ctx context.Context, format string, topics []string, items []ChatItem) (FeedResult, error) {
	f, err := ParseFeedFormat(format)
	if err != nil {
		return FeedResult{}, err
	}

	selected := SelectFeedItems(items, topics)
	reply, err := r.Reply(ctx, FeedPrompt(f, topics), selected)
	if err != nil {
		return FeedResult{}, err
	}
	return FeedResult{Reply: reply, Format: f, ItemCount: len(selected)}, nil
}
