// Package domain holds the Cortex entities and the pure rules around them.
package domain

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// UntitledTitle is shown for items saved without any title.
const UntitledTitle = "Untitled"

// Field limits enforced on create and edit.
const (
	MaxTitleLength = 200
	MaxTags        = 20
	MaxTagLength   = 50
)

// SourceType is the platform an item was captured from.
type SourceType string

const (
	SourceNote      SourceType = "note"
	SourceLink      SourceType = "link"
	SourceInstagram SourceType = "instagram"
	SourceTwitter   SourceType = "twitter"
	SourceYouTube   SourceType = "youtube"
	SourceWhatsApp  SourceType = "whatsapp"
)

var sourceTypes = map[SourceType]string{
	SourceNote:      "Note",
	SourceLink:      "Link",
	SourceInstagram: "Instagram",
	SourceTwitter:   "Twitter",
	SourceYouTube:   "YouTube",
	SourceWhatsApp:  "WhatsApp",
}

// ParseSourceType maps raw input onto the closed set. The legacy "text"
// value and the empty string read as note; anything unknown is a link.
func ParseSourceType(s string) SourceType {
	v := SourceType(strings.ToLower(strings.TrimSpace(s)))
	if v == "" || v == "text" {
		return SourceNote
	}
	if _, ok := sourceTypes[v]; ok {
		return v
	}
	return SourceLink
}

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	_, ok := sourceTypes[s]
	return ok
}

// Label is the human readable platform name.
func (s SourceType) Label() string {
	if l, ok := sourceTypes[s]; ok {
		return l
	}
	if s == "text" {
		return "Note"
	}
	return string(s)
}

// Category is the topical bucket assigned by the classifier.
type Category string

const (
	CategoryTech    Category = "tech"
	CategoryHealth  Category = "health"
	CategoryFinance Category = "finance"
	CategoryTravel  Category = "travel"
	CategoryOther   Category = "other"
)

// Categories lists the closed set in display order.
var Categories = []Category{CategoryTech, CategoryHealth, CategoryFinance, CategoryTravel, CategoryOther}

// NormalizeCategory maps raw input onto the closed set, defaulting to other.
func NormalizeCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Valid reports whether c is one of the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Label capitalises the category for badges.
func (c Category) Label() string {
	if c == "" {
		return "Other"
	}
	s := string(c)
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}

// SavedItem is a piece of content a user captured.
type SavedItem struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	URL        string     `json:"url"`
	SourceType SourceType `json:"source_type"`
	Category   Category   `json:"category"`
	Summary    string     `json:"summary"`
	Tags       []string   `json:"tags"`
	Pinned     bool       `json:"pinned"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DisplayTitle returns the title or the untitled placeholder.
func (i SavedItem) DisplayTitle() string {
	if strings.TrimSpace(i.Title) == "" {
		return UntitledTitle
	}
	return i.Title
}

// Validate checks the invariants every persisted item must hold.
func (i SavedItem) Validate() error {
	if strings.TrimSpace(i.UserID) == "" {
		return appErrors.Validation("USER_ID_REQUIRED", "user_id is required").Build()
	}
	if utf8.RuneCountInString(i.Title) > MaxTitleLength {
		return appErrors.Validation("TITLE_TOO_LONG", "title is too long").Build()
	}
	return validateTags(i.Tags)
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (i SavedItem) Clone() SavedItem {
	c := i
	c.Tags = append([]string(nil), i.Tags...)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// ItemPatch carries a user edit. Nil fields are left untouched.
type ItemPatch struct {
	Title    *string   `json:"title,omitempty"`
	Summary  *string   `json:"summary,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Category *string   `json:"category,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Summary == nil && p.Tags == nil && p.Category == nil
}

// Validate rejects edits that would break item invariants.
func (p ItemPatch) Validate() error {
	if p.Empty() {
		return appErrors.Validation("EMPTY_PATCH", "Nothing to update").Build()
	}
	if p.Title != nil && utf8.RuneCountInString(*p.Title) > MaxTitleLength {
		return appErrors.Validation("TITLE_TOO_LONG", "title is too long").Build()
	}
	if p.Category != nil && !Category(strings.ToLower(strings.TrimSpace(*p.Category))).Valid() {
		return appErrors.Validation("INVALID_CATEGORY", "category must be one of tech, health, finance, travel, other").Build()
	}
	if p.Tags != nil {
		return validateTags(*p.Tags)
	}
	return nil
}

// Apply returns item with the patch applied. The patch must be valid.
func (p ItemPatch) Apply(item SavedItem) SavedItem {
	out := item.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
		if out.Title == "" {
			out.Title = UntitledTitle
		}
	}
	if p.Summary != nil {
		out.Summary = *p.Summary
	}
	if p.Tags != nil {
		out.Tags = CleanTags(*p.Tags, MaxTags)
	}
	if p.Category != nil {
		out.Category = NormalizeCategory(*p.Category)
	}
	return out
}

func validateTags(tags []string) error {
	if len(tags) > MaxTags {
		return appErrors.Validation("TOO_MANY_TAGS", "too many tags").Build()
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > MaxTagLength {
			return appErrors.Validation("TAG_TOO_LONG", "tag is too long").WithDetails(t).Build()
		}
	}
	return nil
}

// CleanTags trims tags, drops empties and duplicates, and keeps at most max.
// Order is preserved.
func CleanTags(tags []string, max int) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// SortForDisplay orders items pinned first, then newest first. The sort is
// stable so equal keys keep their incoming order.
func SortForDisplay(items []SavedItem) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Pinned != items[b].Pinned {
			return items[a].Pinned
		}
		return items[a].CreatedAt.After(items[b].CreatedAt)
	})
}

// SortNewestFirst orders items by creation time only.
func SortNewestFirst(items []SavedItem) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.After(items[b].CreatedAt)
	})
}

// Query narrows a list of items the way the dashboard search box does.
type Query struct {
	Search   string
	Category string
}

// Matches reports whether item passes the query.
func (q Query) Matches(item SavedItem) bool {
	if q.Category != "" && q.Category != "all" && string(item.Category) != q.Category {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Summary), needle) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Filter returns the items matching q in their original order.
func Filter(items []SavedItem, q Query) []SavedItem {
	out := make([]SavedItem, 0, len(items))
	for _, item := range items {
		if q.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}
