package report

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// Font sizes in points.
const (
	BadgeSize   = 5.0
	TitleSize   = 8.5
	SummarySize = 6.5
	TagSize     = 5.5
	DateSize    = 5.5
)

// Card metrics in millimetres.
const (
	cardPadding     = 5.0
	cardInnerTrim   = 10.0
	cardRightInset  = 4.0
	badgeOffset     = 6.0
	titleOffset     = 5.5
	titleLeading    = 4.5
	summaryLeading  = 3.8
	tagPillPadding  = 4.0
	tagGap          = 2.5
	dividerSpacing  = 3.5
	maxTitleLines   = 2
	maxSummaryLines = 3
	maxCardTags     = 3
)

// TextMeasurer reports the printed width of s at a font size, in the same
// unit as the layout.
type TextMeasurer interface {
	StringWidth(s string, size float64) float64
}

// BadgeKind selects the badge colour.
type BadgeKind string

const (
	BadgeCategory BadgeKind = "category"
	BadgeSource   BadgeKind = "source"
	BadgePinned   BadgeKind = "pinned"
)

// Badge is a label pill in the card header.
type Badge struct {
	Kind  BadgeKind `json:"kind"`
	Label string    `json:"label"`
}

// TagPill is a placed tag.
type TagPill struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// CardText is the text content of one card with its vertical positions.
type CardText struct {
	Category string  `json:"category"`
	Badges   []Badge `json:"badges"`
	BadgeY   float64 `json:"badge_y"`

	InnerX     float64  `json:"inner_x"`
	InnerWidth float64  `json:"inner_width"`
	Title      []string `json:"title"`
	TitleY     float64  `json:"title_y"`
	Summary    []string `json:"summary,omitempty"`
	SummaryY   float64  `json:"summary_y"`
	DividerY   float64  `json:"divider_y"`

	Tags        []TagPill `json:"tags,omitempty"`
	OmittedTags int       `json:"omitted_tags"`
	TagY        float64   `json:"tag_y"`

	Date  string  `json:"date"`
	DateX float64 `json:"date_x"`
}

// LayoutCard fits an item's text into its placement.
func LayoutCard(item domain.SavedItem, p Placement, m TextMeasurer, now time.Time) CardText {
	category := strings.ToLower(string(item.Category))
	if category == "" {
		category = string(domain.CategoryOther)
	}

	ct := CardText{
		Category:   category,
		Badges:     badges(item, category),
		BadgeY:     p.Y + badgeOffset,
		InnerX:     p.X + cardPadding,
		InnerWidth: p.Width - cardInnerTrim,
	}

	ct.TitleY = ct.BadgeY + titleOffset
	ct.Title, _ = clampLines(wrapText(m, item.DisplayTitle(), ct.InnerWidth, TitleSize), maxTitleLines)
	cursor := ct.TitleY + float64(len(ct.Title))*titleLeading + 1.5

	ct.SummaryY = cursor
	if strings.TrimSpace(item.Summary) != "" {
		ct.Summary, _ = clampLines(wrapText(m, item.Summary, ct.InnerWidth, SummarySize), maxSummaryLines)
		cursor += float64(len(ct.Summary))*summaryLeading + 2
	}

	ct.DividerY = cursor
	ct.TagY = cursor + dividerSpacing

	limit := p.X + p.Width - cardRightInset
	x := ct.InnerX
	for i, tag := range item.Tags {
		if i >= maxCardTags {
			break
		}
		label := tag
		if !strings.HasPrefix(label, "#") {
			label = "#" + label
		}
		w := m.StringWidth(label, TagSize) + tagPillPadding
		if x+w > limit {
			break
		}
		ct.Tags = append(ct.Tags, TagPill{Label: label, X: x, Width: w})
		x += w + tagGap
	}
	ct.OmittedTags = len(item.Tags) - len(ct.Tags)

	ct.Date = TimeAgo(now, item.CreatedAt)
	if ct.Date != "" {
		ct.DateX = limit - m.StringWidth(ct.Date, DateSize)
	}
	return ct
}

func badges(item domain.SavedItem, category string) []Badge {
	out := []Badge{
		{Kind: BadgeCategory, Label: domain.Category(category).Label()},
		{Kind: BadgeSource, Label: SourceLabel(item.SourceType)},
	}
	if item.Pinned {
		out = append(out, Badge{Kind: BadgePinned, Label: "Pinned"})
	}
	return out
}

// SourceLabel names a platform for print. Unknown values print as Note.
func SourceLabel(s domain.SourceType) string {
	if s == "text" || !s.Valid() {
		return domain.SourceNote.Label()
	}
	return s.Label()
}

// wrapText breaks text into lines no wider than width. Words wider than a
// whole line are split between runes.
func wrapText(m TextMeasurer, text string, width, size float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := ""
		for _, word := range words {
			for utf8.RuneCountInString(word) > 1 && m.StringWidth(word, size) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				head, tail := splitAtWidth(m, word, width, size)
				lines = append(lines, head)
				word = tail
			}

			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if line != "" && m.StringWidth(candidate, size) > width {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitAtWidth returns the longest prefix of word that fits, never empty.
func splitAtWidth(m TextMeasurer, word string, width, size float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && m.StringWidth(string(runes[:n+1]), size) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

// clampLines keeps at most max lines, marking the last kept line with an
// ellipsis when text was dropped.
func clampLines(lines []string, max int) ([]string, bool) {
	if len(lines) <= max {
		return lines, false
	}
	out := append([]string(nil), lines[:max]...)
	out[max-1] = ellipsize(out[max-1])
	return out, true
}

func ellipsize(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	s = strings.TrimSuffix(s, ".")
	return s + "..."
}

// TimeAgo renders the age of t relative to now the way cards show it.
func TimeAgo(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	case days < 30:
		return fmt.Sprintf("%dw ago", days/7)
	default:
		return t.Format("2 Jan 2006")
	}
}

// Filename is the download name of an export made at now.
func Filename(now time.Time) string {
	return "cortex-export-" + now.UTC().Format("2006-01-02") + ".pdf"
}
