// Package report lays out a user's saved items as a printable A4 document
// and renders it to PDF.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// ErrNothingToExport is returned when an export is requested for no items.
var ErrNothingToExport error = appErrors.Validation("NOTHING_TO_EXPORT", "nothing to export").Build()

// Layout describes the page grid in millimetres.
type Layout struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Margin     float64 `json:"margin"`
	Top        float64 `json:"top"`
	Bottom     float64 `json:"bottom"`
	Columns    int     `json:"columns"`
	ColumnGap  float64 `json:"column_gap"`
	CardHeight float64 `json:"card_height"`
	RowGap     float64 `json:"row_gap"`
}

// A4 is the portrait layout used for exports.
func A4() Layout {
	return Layout{
		PageWidth:  210,
		PageHeight: 297,
		Margin:     8,
		Top:        42,
		Bottom:     297 - 14,
		Columns:    2,
		ColumnGap:  4,
		CardHeight: 52,
		RowGap:     4,
	}
}

// ContentHeight is the vertical space between header and footer.
func (l Layout) ContentHeight() float64 { return l.Bottom - l.Top }

// CardWidth is the width of one grid column.
func (l Layout) CardWidth() float64 {
	if l.Columns <= 0 {
		return 0
	}
	gaps := l.ColumnGap * float64(l.Columns-1)
	return (l.PageWidth - 2*l.Margin - gaps) / float64(l.Columns)
}

// RowsPerPage is how many card rows fit in the content area.
func (l Layout) RowsPerPage() int {
	return int((l.ContentHeight() + l.RowGap) / (l.CardHeight + l.RowGap))
}

// ItemsPerPage is the number of cards on a full page.
func (l Layout) ItemsPerPage() int { return l.Columns * l.RowsPerPage() }

// Validate rejects grids that cannot hold a single card.
func (l Layout) Validate() error {
	switch {
	case l.PageWidth <= 0 || l.PageHeight <= 0:
		return invalidLayout("page size must be positive")
	case l.Columns < 1:
		return invalidLayout("at least one column is required")
	case l.CardHeight <= 0:
		return invalidLayout("card height must be positive")
	case l.ColumnGap < 0 || l.RowGap < 0 || l.Margin < 0:
		return invalidLayout("gaps and margins cannot be negative")
	case l.ContentHeight() <= 0:
		return invalidLayout("content area is empty")
	case l.CardWidth() <= 0:
		return invalidLayout("columns do not fit the page width")
	case l.CardHeight > l.ContentHeight():
		return invalidLayout("card is taller than the content area")
	}
	return nil
}

func invalidLayout(msg string) error {
	return appErrors.Validation("INVALID_LAYOUT", msg).Build()
}

// Placement is a card position on a page.
type Placement struct {
	Item   domain.SavedItem `json:"item"`
	Index  int              `json:"index"`
	Column int              `json:"column"`
	Row    int              `json:"row"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
}

// Page is one sheet of the document. The last page is the summary page and
// has no cards.
type Page struct {
	Number  int         `json:"number"`
	Summary bool        `json:"summary"`
	Cards   []Placement `json:"cards,omitempty"`
}

// CountEntry is one bar of a breakdown.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds the statistics printed on the summary page.
type Summary struct {
	Total         int          `json:"total"`
	Pinned        int          `json:"pinned"`
	CategoryCount int          `json:"category_count"`
	ThisWeek      int          `json:"this_week"`
	ByCategory    []CountEntry `json:"by_category"`
	BySource      []CountEntry `json:"by_source"`
}

// Document is a fully paginated export.
type Document struct {
	Layout      Layout    `json:"layout"`
	Pages       []Page    `json:"pages"`
	TotalPages  int       `json:"total_pages"`
	ItemCount   int       `json:"item_count"`
	Summary     Summary   `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ContentPages returns the pages that carry cards.
func (d *Document) ContentPages() []Page {
	if len(d.Pages) == 0 {
		return nil
	}
	return d.Pages[:len(d.Pages)-1]
}

// SummaryPage returns the trailing summary page.
func (d *Document) SummaryPage() Page {
	return d.Pages[len(d.Pages)-1]
}

// Paginate distributes items over pages in the order given and appends the
// summary page.
func Paginate(items []domain.SavedItem, layout Layout, now time.Time) (*Document, error) {
	if len(items) == 0 {
		return nil, ErrNothingToExport
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	perPage := layout.ItemsPerPage()
	contentPages := (len(items) + perPage - 1) / perPage
	total := contentPages + 1
	cardW := layout.CardWidth()

	pages := make([]Page, 0, total)
	for p := 0; p < contentPages; p++ {
		start := p * perPage
		end := start + perPage
		if end > len(items) {
			end = len(items)
		}

		cards := make([]Placement, 0, end-start)
		for k, item := range items[start:end] {
			col := k % layout.Columns
			row := k / layout.Columns
			cards = append(cards, Placement{
				Item:   item.Clone(),
				Index:  start + k,
				Column: col,
				Row:    row,
				X:      layout.Margin + float64(col)*(cardW+layout.ColumnGap),
				Y:      layout.Top + float64(row)*(layout.CardHeight+layout.RowGap),
				Width:  cardW,
				Height: layout.CardHeight,
			})
		}
		pages = append(pages, Page{Number: p + 1, Cards: cards})
	}
	pages = append(pages, Page{Number: total, Summary: true})

	return &Document{
		Layout:      layout,
		Pages:       pages,
		TotalPages:  total,
		ItemCount:   len(items),
		Summary:     Summarize(items, now),
		GeneratedAt: now,
	}, nil
}

// Summarize computes the summary page statistics.
func Summarize(items []domain.SavedItem, now time.Time) Summary {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	categories := make(map[string]int)
	sources := make(map[string]int)

	s := Summary{Total: len(items)}
	for _, item := range items {
		if item.Pinned {
			s.Pinned++
		}
		if item.CreatedAt.After(weekAgo) {
			s.ThisWeek++
		}

		cat := strings.ToLower(string(item.Category))
		if cat == "" {
			cat = string(domain.CategoryOther)
		}
		categories[cat]++

		src := string(item.SourceType)
		if src == "" {
			src = string(domain.SourceNote)
		}
		sources[src]++
	}

	s.ByCategory = sortedCounts(categories)
	s.BySource = sortedCounts(sources)
	s.CategoryCount = len(categories)
	return s
}

func sortedCounts(m map[string]int) []CountEntry {
	out := make([]CountEntry, 0, len(m))
	for name, count := range m {
		out = append(out, CountEntry{Name: name, Count: count})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Name < out[b].Name
	})
	return out
}
