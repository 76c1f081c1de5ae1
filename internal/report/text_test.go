package report

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritu11x/cortex-ai/internal/domain"
	"github.com/ritu11x/cortex-ai/internal/testutil/fixtures"
)

// runeMeasurer gives every rune a width of size/5.
type runeMeasurer struct{}

func (runeMeasurer) StringWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size / 5
}

func firstPlacement(t *testing.T, item domain.SavedItem) Placement {
	t.Helper()
	doc, err := Paginate([]domain.SavedItem{item}, A4(), fixtures.Now)
	require.NoError(t, err)
	return doc.Pages[0].Cards[0]
}

func TestLayoutCard_Positions(t *testing.T) {
	item := fixtures.NewItemBuilder().
		WithTitle("Short title").
		WithSummary("Short summary.").
		WithTags("go", "#db").
		DaysAgo(3).
		Build()
	p := firstPlacement(t, item)

	ct := LayoutCard(item, p, runeMeasurer{}, fixtures.Now)

	assert.Equal(t, 13.0, ct.InnerX)
	assert.Equal(t, 85.0, ct.InnerWidth)
	assert.InDelta(t, 48.0, ct.BadgeY, 1e-9)
	assert.InDelta(t, 53.5, ct.TitleY, 1e-9)
	assert.Equal(t, []string{"Short title"}, ct.Title)
	assert.InDelta(t, 59.5, ct.SummaryY, 1e-9)
	assert.Equal(t, []string{"Short summary."}, ct.Summary)
	assert.InDelta(t, 65.3, ct.DividerY, 1e-9)
	assert.InDelta(t, 68.8, ct.TagY, 1e-9)

	require.Len(t, ct.Tags, 2)
	assert.Equal(t, "#go", ct.Tags[0].Label)
	assert.Equal(t, "#db", ct.Tags[1].Label)
	assert.Equal(t, 13.0, ct.Tags[0].X)
	assert.InDelta(t, 13+3*1.1+4+2.5, ct.Tags[1].X, 1e-9)
	assert.Equal(t, 0, ct.OmittedTags)

	assert.Equal(t, "3d ago", ct.Date)
	assert.InDelta(t, 99-6*1.1, ct.DateX, 1e-9)
}

func TestLayoutCard_TitleEllipsis(t *testing.T) {
	title := strings.TrimSpace(strings.Repeat("word ", 60))
	item := fixtures.NewItemBuilder().WithTitle(title).Build()

	ct := LayoutCard(item, firstPlacement(t, item), runeMeasurer{}, fixtures.Now)

	require.Len(t, ct.Title, 2)
	assert.Equal(t, strings.TrimSpace(strings.Repeat("word ", 10)), ct.Title[0])
	assert.Equal(t, strings.Repeat("word ", 9)+"word...", ct.Title[1])
}

func TestLayoutCard_SummaryEllipsisStripsDot(t *testing.T) {
	line := strings.Repeat("x", 64) + "."
	summary := strings.Join([]string{line, line, line, line}, " ")
	item := fixtures.NewItemBuilder().WithSummary(summary).Build()

	ct := LayoutCard(item, firstPlacement(t, item), runeMeasurer{}, fixtures.Now)

	require.Len(t, ct.Summary, 3)
	assert.Equal(t, strings.Repeat("x", 64)+"...", ct.Summary[2])
}

func TestLayoutCard_EmptySummary(t *testing.T) {
	item := fixtures.NewItemBuilder().WithSummary("").Build()
	ct := LayoutCard(item, firstPlacement(t, item), runeMeasurer{}, fixtures.Now)

	assert.Empty(t, ct.Summary)
	assert.Equal(t, ct.SummaryY, ct.DividerY)
}

func TestLayoutCard_Tags(t *testing.T) {
	t.Run("Should show at most three tags", func(t *testing.T) {
		item := fixtures.NewItemBuilder().WithTags("a", "b", "c", "d", "e").Build()
		ct := LayoutCard(item, firstPlacement(t, item), runeMeasurer{}, fixtures.Now)

		assert.Len(t, ct.Tags, 3)
		assert.Equal(t, 2, ct.OmittedTags)
	})

	t.Run("Should stop at the first tag that overflows", func(t *testing.T) {
		long := strings.Repeat("a", 30)
		item := fixtures.NewItemBuilder().WithTags(long, long, "b", "c").Build()
		ct := LayoutCard(item, firstPlacement(t, item), runeMeasurer{}, fixtures.Now)

		assert.Len(t, ct.Tags, 2)
		assert.Equal(t, 2, ct.OmittedTags)
		last := ct.Tags[len(ct.Tags)-1]
		assert.LessOrEqual(t, last.X+last.Width, 99.0)
	})
}

func TestLayoutCard_Badges(t *testing.T) {
	item := fixtures.NewItemBuilder().
		WithCategory("").
		WithSource(domain.SourceWhatsApp).
		Pinned().
		Build()

	ct := LayoutCard(item, firstPlacement(t, item), runeMeasurer{}, fixtures.Now)

	assert.Equal(t, []Badge{
		{Kind: BadgeCategory, Label: "Other"},
		{Kind: BadgeSource, Label: "WhatsApp"},
		{Kind: BadgePinned, Label: "Pinned"},
	}, ct.Badges)
	assert.Equal(t, "other", ct.Category)
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "YouTube", SourceLabel(domain.SourceYouTube))
	assert.Equal(t, "Link", SourceLabel(domain.SourceLink))
	assert.Equal(t, "Note", SourceLabel("text"))
	assert.Equal(t, "Note", SourceLabel(""))
	assert.Equal(t, "Note", SourceLabel("reddit"))
}

func TestWrapText_SplitsLongWords(t *testing.T) {
	lines := wrapText(runeMeasurer{}, strings.Repeat("a", 120), 85, TitleSize)

	require.Len(t, lines, 3)
	assert.Len(t, lines[0], 50)
	assert.Len(t, lines[1], 50)
	assert.Len(t, lines[2], 20)
}

func TestTimeAgo(t *testing.T) {
	now := fixtures.Now
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"same day", now.Add(-3 * time.Hour), "Today"},
		{"future", now.Add(time.Hour), "Today"},
		{"yesterday", now.Add(-25 * time.Hour), "Yesterday"},
		{"days", now.AddDate(0, 0, -3), "3d ago"},
		{"weeks", now.AddDate(0, 0, -14), "2w ago"},
		{"last week bucket", now.AddDate(0, 0, -29), "4w ago"},
		{"date", now.AddDate(0, 0, -30), "12 Feb 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(now, tt.t))
		})
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "cortex-export-2025-03-14.pdf", Filename(fixtures.Now))
}

func TestRender(t *testing.T) {
	items := fixtures.Items(9)
	items[0].Pinned = true
	items[1].Title = strings.Repeat("A rather long title ", 8)
	items[2].Tags = []string{"café", "naïve", "go", "extra"}
	doc, err := Paginate(items, A4(), fixtures.Now)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = Render(doc, &buf, RenderOptions{UserName: "Ritu"})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRender_NilDocument(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(nil, &buf, RenderOptions{}), ErrNothingToExport)
}
