// Package analytics summarises a user's collection for the insights page.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/ritu11x/cortex-ai/internal/domain"
	"github.com/ritu11x/cortex-ai/internal/store"
)

const (
	activityDays = 14
	topTagCount  = 8
	day          = 24 * time.Hour
)

// Count is one bucket of a breakdown.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DayCount is the number of items saved on one UTC calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Report is the analytics view of a collection.
type Report struct {
	Total      int        `json:"total"`
	Pinned     int        `json:"pinned"`
	ThisWeek   int        `json:"this_week"`
	ThisMonth  int        `json:"this_month"`
	ByCategory []Count    `json:"by_category"`
	BySource   []Count    `json:"by_source"`
	Activity   []DayCount `json:"activity"`
	TopTags    []Count    `json:"top_tags"`
	Streak     int        `json:"streak"`
}

// Compute builds the report for items as of now.
func Compute(items []domain.SavedItem, now time.Time) Report {
	now = now.UTC()
	today := truncateDay(now)
	weekAgo, monthAgo := now.Add(-7*day), now.Add(-30*day)

	r := Report{Total: len(items)}
	categories := map[string]int{}
	sources := map[string]int{}
	tags := map[string]int{}
	perDay := map[time.Time]int{}

	for _, item := range items {
		if item.Pinned {
			r.Pinned++
		}
		if item.CreatedAt.After(weekAgo) {
			r.ThisWeek++
		}
		if item.CreatedAt.After(monthAgo) {
			r.ThisMonth++
		}

		category := string(item.Category)
		if category == "" {
			category = string(domain.CategoryOther)
		}
		categories[category]++

		source := string(item.SourceType)
		if source == "" {
			source = string(domain.SourceLink)
		}
		sources[source]++

		for _, tag := range item.Tags {
			tags[tag]++
		}
		if !item.CreatedAt.IsZero() {
			perDay[truncateDay(item.CreatedAt)]++
		}
	}

	r.ByCategory = sortedCounts(categories, 0)
	r.BySource = sortedCounts(sources, 0)
	r.TopTags = sortedCounts(tags, topTagCount)

	r.Activity = make([]DayCount, activityDays)
	for i := 0; i < activityDays; i++ {
		d := today.AddDate(0, 0, i-activityDays+1)
		r.Activity[i] = DayCount{Date: d.Format(time.DateOnly), Count: perDay[d]}
	}

	for d := today; perDay[d] > 0; d = d.AddDate(0, 0, -1) {
		r.Streak++
	}
	return r
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sortedCounts orders by count descending then name ascending and keeps
// at most limit entries when limit is positive.
func sortedCounts(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Name < out[b].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Service computes reports over the stored collection.
type Service struct {
	items store.ItemStore
	now   func() time.Time
}

// NewService creates a Service reading from items.
func NewService(items store.ItemStore) *Service {
	return &Service{items: items, now: time.Now}
}

// Report loads the user's items and computes their analytics.
func (s *Service) Report(ctx context.Context, userID string) (Report, error) {
	items, err := store.Snapshot(ctx, s.items, userID)
	if err != nil {
		return Report{}, err
	}
	return Compute(items, s.now()), nil
}
