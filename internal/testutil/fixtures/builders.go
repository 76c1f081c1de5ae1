// Package fixtures provides builders for test data.
package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// Now is the reference clock shared by tests that care about relative dates.
var Now = time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

// ItemBuilder helps create saved items with default values.
type ItemBuilder struct {
	item domain.SavedItem
}

func NewItemBuilder() *ItemBuilder {
	return &ItemBuilder{
		item: domain.SavedItem{
			ID:         uuid.NewString(),
			UserID:     "test-user-123",
			Title:      "Test Item",
			Content:    "Test content",
			SourceType: domain.SourceNote,
			Category:   domain.CategoryOther,
			Summary:    "A short summary.",
			Tags:       []string{"test"},
			CreatedAt:  Now,
		},
	}
}

func (b *ItemBuilder) WithID(id string) *ItemBuilder {
	b.item.ID = id
	return b
}

func (b *ItemBuilder) WithUserID(userID string) *ItemBuilder {
	b.item.UserID = userID
	return b
}

func (b *ItemBuilder) WithTitle(title string) *ItemBuilder {
	b.item.Title = title
	return b
}

func (b *ItemBuilder) WithContent(content string) *ItemBuilder {
	b.item.Content = content
	return b
}

func (b *ItemBuilder) WithURL(url string) *ItemBuilder {
	b.item.URL = url
	return b
}

func (b *ItemBuilder) WithSource(source domain.SourceType) *ItemBuilder {
	b.item.SourceType = source
	return b
}

func (b *ItemBuilder) WithCategory(category domain.Category) *ItemBuilder {
	b.item.Category = category
	return b
}

func (b *ItemBuilder) WithSummary(summary string) *ItemBuilder {
	b.item.Summary = summary
	return b
}

func (b *ItemBuilder) WithTags(tags ...string) *ItemBuilder {
	b.item.Tags = tags
	return b
}

func (b *ItemBuilder) Pinned() *ItemBuilder {
	b.item.Pinned = true
	return b
}

func (b *ItemBuilder) CreatedAt(t time.Time) *ItemBuilder {
	b.item.CreatedAt = t
	return b
}

// DaysAgo sets the creation time relative to Now.
func (b *ItemBuilder) DaysAgo(days int) *ItemBuilder {
	b.item.CreatedAt = Now.AddDate(0, 0, -days)
	return b
}

func (b *ItemBuilder) Build() domain.SavedItem {
	return b.item.Clone()
}

// Items builds n items with distinct ids and titles, one minute apart,
// newest first.
func Items(n int) []domain.SavedItem {
	items := make([]domain.SavedItem, n)
	for i := range items {
		items[i] = NewItemBuilder().
			WithID(fmt.Sprintf("item-%03d", i)).
			WithTitle(fmt.Sprintf("Item %d", i)).
			CreatedAt(Now.Add(-time.Duration(i) * time.Minute)).
			Build()
	}
	return items
}
