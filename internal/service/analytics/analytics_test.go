package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritu11x/cortex-ai/internal/domain"
	"github.com/ritu11x/cortex-ai/internal/store"
	"github.com/ritu11x/cortex-ai/internal/testutil/fixtures"
)

var now = time.Date(2025, 3, 20, 15, 0, 0, 0, time.UTC)

func at(days int, hours int) time.Time {
	return now.Add(-time.Duration(days)*24*time.Hour - time.Duration(hours)*time.Hour)
}

func TestCompute(t *testing.T) {
	items := []domain.SavedItem{
		fixtures.NewItemBuilder().WithCategory(domain.CategoryTech).WithSource(domain.SourceYouTube).WithTags("go", "ai").CreatedAt(at(0, 1)).Pinned().Build(),
		fixtures.NewItemBuilder().WithCategory(domain.CategoryTech).WithSource("").WithTags("go").CreatedAt(at(1, 0)).Build(),
		fixtures.NewItemBuilder().WithCategory("").WithSource(domain.SourceNote).WithTags("ai").CreatedAt(at(2, 0)).Build(),
		fixtures.NewItemBuilder().WithCategory(domain.CategoryTravel).WithSource(domain.SourceLink).WithTags().CreatedAt(at(10, 0)).Build(),
		fixtures.NewItemBuilder().WithCategory(domain.CategoryHealth).WithSource(domain.SourceLink).WithTags("sleep").CreatedAt(at(40, 0)).Build(),
	}

	r := Compute(items, now)

	assert.Equal(t, 5, r.Total)
	assert.Equal(t, 1, r.Pinned)
	assert.Equal(t, 3, r.ThisWeek)
	assert.Equal(t, 4, r.ThisMonth)
	assert.Equal(t, []Count{{"tech", 2}, {"health", 1}, {"other", 1}, {"travel", 1}}, r.ByCategory)
	assert.Equal(t, []Count{{"link", 3}, {"note", 1}, {"youtube", 1}}, r.BySource)
	assert.Equal(t, []Count{{"ai", 2}, {"go", 2}, {"sleep", 1}}, r.TopTags)
	assert.Equal(t, 3, r.Streak)

	require.Len(t, r.Activity, 14)
	assert.Equal(t, DayCount{Date: "2025-03-07", Count: 0}, r.Activity[0])
	assert.Equal(t, DayCount{Date: "2025-03-10", Count: 1}, r.Activity[3])
	assert.Equal(t, DayCount{Date: "2025-03-20", Count: 1}, r.Activity[13])
}

func TestCompute_StreakNeedsToday(t *testing.T) {
	items := []domain.SavedItem{
		fixtures.NewItemBuilder().CreatedAt(at(1, 0)).Build(),
		fixtures.NewItemBuilder().CreatedAt(at(2, 0)).Build(),
	}

	assert.Equal(t, 0, Compute(items, now).Streak)
}

func TestCompute_TopTagsCapped(t *testing.T) {
	var items []domain.SavedItem
	for _, tag := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		items = append(items, fixtures.NewItemBuilder().WithTags(tag).CreatedAt(now).Build())
	}

	r := Compute(items, now)

	require.Len(t, r.TopTags, 8)
	assert.Equal(t, "a", r.TopTags[0].Name)
	assert.Equal(t, "h", r.TopTags[7].Name)
}

func TestCompute_Empty(t *testing.T) {
	r := Compute(nil, now)

	assert.Zero(t, r.Total)
	assert.Empty(t, r.ByCategory)
	assert.Len(t, r.Activity, 14)
	assert.Zero(t, r.Streak)
}

func TestService_Report(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := s.Create(context.Background(), fixtures.NewItemBuilder().WithUserID("u1").CreatedAt(now).Build())
	require.NoError(t, err)
	svc := NewService(s)
	svc.now = func() time.Time { return now }

	r, err := svc.Report(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, r.Total)
	assert.Equal(t, 1, r.Streak)
}
