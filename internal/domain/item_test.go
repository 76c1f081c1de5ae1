package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/internal/testutil/fixtures"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Category
	}{
		{"tech", domain.CategoryTech},
		{" Health ", domain.CategoryHealth},
		{"FINANCE", domain.CategoryFinance},
		{"travel", domain.CategoryTravel},
		{"other", domain.CategoryOther},
		{"", domain.CategoryOther},
		{"cooking", domain.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizeCategory(tt.in))
		})
	}
}

func TestParseSourceType(t *testing.T) {
	assert.Equal(t, domain.SourceNote, domain.ParseSourceType(""))
	assert.Equal(t, domain.SourceNote, domain.ParseSourceType("text"))
	assert.Equal(t, domain.SourceYouTube, domain.ParseSourceType("YouTube"))
	assert.Equal(t, domain.SourceWhatsApp, domain.ParseSourceType("whatsapp"))
	assert.Equal(t, domain.SourceLink, domain.ParseSourceType("reddit"))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Tech", domain.CategoryTech.Label())
	assert.Equal(t, "Other", domain.Category("").Label())
	assert.Equal(t, "YouTube", domain.SourceYouTube.Label())
	assert.Equal(t, "Note", domain.SourceType("text").Label())
	assert.Equal(t, "reddit", domain.SourceType("reddit").Label())
}

func TestSortForDisplay(t *testing.T) {
	old := fixtures.NewItemBuilder().WithID("old").DaysAgo(10).Build()
	fresh := fixtures.NewItemBuilder().WithID("fresh").DaysAgo(0).Build()
	pinnedOld := fixtures.NewItemBuilder().WithID("pinned-old").DaysAgo(30).Pinned().Build()
	pinnedNew := fixtures.NewItemBuilder().WithID("pinned-new").DaysAgo(1).Pinned().Build()

	items := []domain.SavedItem{old, pinnedOld, fresh, pinnedNew}
	domain.SortForDisplay(items)

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	assert.Equal(t, []string{"pinned-new", "pinned-old", "fresh", "old"}, ids)
}

func TestSortNewestFirst_IgnoresPins(t *testing.T) {
	a := fixtures.NewItemBuilder().WithID("a").DaysAgo(3).Pinned().Build()
	b := fixtures.NewItemBuilder().WithID("b").DaysAgo(1).Build()

	items := []domain.SavedItem{a, b}
	domain.SortNewestFirst(items)

	assert.Equal(t, "b", items[0].ID)
}

func TestQuery_Matches(t *testing.T) {
	item := fixtures.NewItemBuilder().
		WithTitle("Rust ownership explained").
		WithSummary("Borrow checker basics").
		WithTags("programming", "Systems").
		WithCategory(domain.CategoryTech).
		Build()

	tests := []struct {
		name  string
		query domain.Query
		want  bool
	}{
		{"empty query", domain.Query{}, true},
		{"title match is case insensitive", domain.Query{Search: "OWNERSHIP"}, true},
		{"summary match", domain.Query{Search: "borrow"}, true},
		{"tag match", domain.Query{Search: "systems"}, true},
		{"no match", domain.Query{Search: "banana"}, false},
		{"category all", domain.Query{Category: "all"}, true},
		{"category match", domain.Query{Category: "tech"}, true},
		{"category mismatch", domain.Query{Category: "travel"}, false},
		{"search and category", domain.Query{Search: "rust", Category: "health"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Matches(item))
		})
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	items := []domain.SavedItem{
		fixtures.NewItemBuilder().WithID("1").WithTitle("Go generics").Build(),
		fixtures.NewItemBuilder().WithID("2").WithTitle("Paris trip").Build(),
		fixtures.NewItemBuilder().WithID("3").WithTitle("Go modules").Build(),
	}

	got := domain.Filter(items, domain.Query{Search: "go "})

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestSavedItem_Validate(t *testing.T) {
	t.Run("Should require a user", func(t *testing.T) {
		err := fixtures.NewItemBuilder().WithUserID(" ").Build().Validate()
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("Should reject too many tags", func(t *testing.T) {
		tags := make([]string, domain.MaxTags+1)
		for i := range tags {
			tags[i] = "t"
		}
		err := fixtures.NewItemBuilder().WithTags(tags...).Build().Validate()
		assert.Equal(t, "TOO_MANY_TAGS", appErrors.Code(err))
	})

	t.Run("Should accept a regular item", func(t *testing.T) {
		assert.NoError(t, fixtures.NewItemBuilder().Build().Validate())
	})
}

func TestSavedItem_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Untitled", domain.SavedItem{}.DisplayTitle())
	assert.Equal(t, "Hello", domain.SavedItem{Title: "Hello"}.DisplayTitle())
}

func TestItemPatch(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	t.Run("Should reject an empty patch", func(t *testing.T) {
		assert.Equal(t, "EMPTY_PATCH", appErrors.Code(domain.ItemPatch{}.Validate()))
	})

	t.Run("Should reject unknown categories", func(t *testing.T) {
		patch := domain.ItemPatch{Category: strPtr("cooking")}
		assert.Equal(t, "INVALID_CATEGORY", appErrors.Code(patch.Validate()))
	})

	t.Run("Should apply only the given fields", func(t *testing.T) {
		item := fixtures.NewItemBuilder().WithTitle("Before").WithSummary("keep").Build()
		tags := []string{" a ", "b", "a", ""}
		patch := domain.ItemPatch{Title: strPtr("After"), Tags: &tags, Category: strPtr("Travel")}
		require.NoError(t, patch.Validate())

		out := patch.Apply(item)

		assert.Equal(t, "After", out.Title)
		assert.Equal(t, "keep", out.Summary)
		assert.Equal(t, []string{"a", "b"}, out.Tags)
		assert.Equal(t, domain.CategoryTravel, out.Category)
		assert.Equal(t, "Before", item.Title)
	})

	t.Run("Should fall back to untitled for blank titles", func(t *testing.T) {
		out := domain.ItemPatch{Title: strPtr("  ")}.Apply(fixtures.NewItemBuilder().Build())
		assert.Equal(t, domain.UntitledTitle, out.Title)
	})
}

func TestCleanTags(t *testing.T) {
	assert.Equal(t, []string{"x", "y"}, domain.CleanTags([]string{"x", " y", "x", "z"}, 2))
	assert.Equal(t, []string{}, domain.CleanTags(nil, 5))
}

func TestCheckMilestone(t *testing.T) {
	assert.Equal(t, 10, domain.CheckMilestone(9, 10))
	assert.Equal(t, 0, domain.CheckMilestone(10, 11))
	assert.Equal(t, 25, domain.CheckMilestone(24, 30))
	assert.Equal(t, 10, domain.CheckMilestone(0, 60))
	assert.Equal(t, 0, domain.CheckMilestone(500, 900))
}

func TestNotification_Validate(t *testing.T) {
	n := domain.Notification{UserID: "u", Title: "Hi", Type: domain.NotifyAI, CreatedAt: time.Now()}
	assert.NoError(t, n.Validate())

	n.Type = "loud"
	assert.True(t, appErrors.IsValidation(n.Validate()))
}
