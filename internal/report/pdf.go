package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// RenderOptions personalise the printed document.
type RenderOptions struct {
	UserName string
}

type rgb struct{ r, g, b int }

var (
	colorBackground = rgb{10, 10, 15}
	colorHeader     = rgb{13, 13, 24}
	colorFooter     = rgb{11, 11, 20}
	colorCard       = rgb{15, 15, 26}
	colorCardBorder = rgb{26, 26, 46}
	colorPurple     = rgb{124, 58, 237}
	colorPurpleL    = rgb{167, 139, 250}
	colorPink       = rgb{236, 72, 153}
	colorWhite      = rgb{255, 255, 255}
	colorGray4      = rgb{156, 163, 175}
	colorGray6      = rgb{75, 85, 99}
	colorGray8      = rgb{31, 41, 55}
	colorGreen      = rgb{52, 211, 153}
	colorBlue       = rgb{96, 165, 250}
	colorYellow     = rgb{251, 191, 36}
	colorAmber      = rgb{146, 64, 14}
)

var categoryColors = map[string]rgb{
	"tech":    colorBlue,
	"health":  colorGreen,
	"finance": colorYellow,
	"travel":  {244, 114, 182},
	"other":   colorPurpleL,
}

func categoryColor(name string) rgb {
	if c, ok := categoryColors[name]; ok {
		return c
	}
	return colorPurpleL
}

const fontFamily = "Helvetica"

// pdfMeasurer measures with the core Helvetica metrics. Titles are bold.
type pdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (m pdfMeasurer) StringWidth(s string, size float64) float64 {
	style := ""
	if size == TitleSize {
		style = "B"
	}
	m.pdf.SetFont(fontFamily, style, size)
	return m.pdf.GetStringWidth(m.tr(s))
}

type renderer struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	doc  *Document
	opts RenderOptions
	now  time.Time
}

// Render draws doc as a PDF into w.
func Render(doc *Document, w io.Writer, opts RenderOptions) error {
	if doc == nil || len(doc.Pages) == 0 {
		return ErrNothingToExport
	}

	l := doc.Layout
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Cortex export", true)
	pdf.SetCreator("cortex", true)

	r := &renderer{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		doc:  doc,
		opts: opts,
		now:  doc.GeneratedAt,
	}
	if r.now.IsZero() {
		r.now = time.Now()
	}

	measurer := pdfMeasurer{pdf: pdf, tr: r.tr}
	for _, page := range doc.ContentPages() {
		pdf.AddPage()
		r.background()
		r.header()
		r.footer(strconv.Itoa(page.Number), strconv.Itoa(doc.TotalPages))
		for _, card := range page.Cards {
			r.card(card, LayoutCard(card.Item, card, measurer, r.now))
		}
	}

	pdf.AddPage()
	r.summaryPage(doc.SummaryPage())

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

// ============================================================================
// DRAWING PRIMITIVES
// ============================================================================

func (r *renderer) fill(c rgb)      { r.pdf.SetFillColor(c.r, c.g, c.b) }
func (r *renderer) stroke(c rgb)    { r.pdf.SetDrawColor(c.r, c.g, c.b) }
func (r *renderer) textColor(c rgb) { r.pdf.SetTextColor(c.r, c.g, c.b) }

func (r *renderer) font(style string, size float64) {
	r.pdf.SetFont(fontFamily, style, size)
}

func (r *renderer) text(x, y float64, s string) {
	r.pdf.Text(x, y, r.tr(s))
}

func (r *renderer) width(s string) float64 {
	return r.pdf.GetStringWidth(r.tr(s))
}

func (r *renderer) pill(x, y, w, h, radius float64, c rgb, alpha float64) {
	r.pdf.SetAlpha(alpha, "Normal")
	r.fill(c)
	r.pdf.RoundedRect(x, y, w, h, radius, "1234", "F")
	r.pdf.SetAlpha(1, "Normal")
}

// gradientLine draws the purple to pink rule used under the header and
// above the footer.
func (r *renderer) gradientLine(y, lineWidth float64, steps int) {
	span := r.doc.Layout.PageWidth - 2*r.doc.Layout.Margin
	r.pdf.SetLineWidth(lineWidth)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps)
		r.stroke(rgb{
			r: lerp(colorPurple.r, colorPink.r, t),
			g: lerp(colorPurple.g, colorPink.g, t),
			b: lerp(colorPurple.b, colorPink.b, t),
		})
		x := r.doc.Layout.Margin + span*t
		r.pdf.Line(x, y, x+span/float64(steps)+0.5, y)
	}
}

func lerp(a, b int, t float64) int {
	return a + int(float64(b-a)*t+0.5)
}

// ============================================================================
// PAGE FURNITURE
// ============================================================================

func (r *renderer) background() {
	l := r.doc.Layout
	r.fill(colorBackground)
	r.pdf.Rect(0, 0, l.PageWidth, l.PageHeight, "F")

	r.pdf.SetAlpha(0.07, "Normal")
	r.fill(colorWhite)
	for x := 8.0; x < l.PageWidth; x += 12 {
		for y := 8.0; y < l.PageHeight; y += 12 {
			r.pdf.Circle(x, y, 0.4, "F")
		}
	}
	r.fill(colorPurple)
	r.pdf.Ellipse(30, 30, 60, 60, 0, "F")
	r.pdf.SetAlpha(1, "Normal")
}

func (r *renderer) header() {
	l := r.doc.Layout
	w := l.PageWidth

	r.fill(colorHeader)
	r.pdf.RoundedRect(l.Margin, 8, w-2*l.Margin, 28, 3, "1234", "F")
	r.fill(colorPurple)
	r.pdf.RoundedRect(l.Margin, 8, 2.5, 28, 1, "1234", "F")

	r.font("B", 14)
	r.textColor(colorWhite)
	r.text(14, 20, "cortex")
	r.textColor(colorPurpleL)
	r.text(14+r.width("cortex"), 20, ".")

	r.font("", 6.5)
	r.textColor(colorGray6)
	r.text(14, 28, "Your AI Second Brain - Knowledge Export")

	count := strconv.Itoa(r.doc.ItemCount)
	r.font("B", 13)
	r.textColor(colorPurpleL)
	countW := r.width(count)
	r.text(w-10-countW, 19, count)

	r.font("", 5.5)
	r.textColor(colorGray6)
	r.text(w-10-r.width("ideas"), 25, "ideas")

	date := r.now.Format("2 January 2006")
	r.font("", 6.5)
	r.textColor(colorGray4)
	r.text(w-15-countW-4-r.width(date), 22, date)

	r.gradientLine(36, 0.4, 100)

	if r.opts.UserName != "" {
		r.font("I", 6)
		r.textColor(colorGray6)
		r.text(14, 33, "Exported for "+r.opts.UserName)
	}
}

func (r *renderer) footer(page, total string) {
	l := r.doc.Layout
	r.fill(colorFooter)
	r.pdf.Rect(0, l.PageHeight-10, l.PageWidth, 10, "F")

	r.font("", 5.5)
	r.textColor(colorGray6)
	r.text(l.Margin, l.PageHeight-3.5, "cortex. - AI Second Brain")
	label := fmt.Sprintf("Page %s of %s", page, total)
	r.text(l.PageWidth-l.Margin-r.width(label), l.PageHeight-3.5, label)

	r.gradientLine(l.PageHeight-10, 0.3, 80)
}

// ============================================================================
// CARDS
// ============================================================================

func (r *renderer) card(p Placement, ct CardText) {
	accent := categoryColor(ct.Category)

	r.fill(colorCard)
	r.pdf.RoundedRect(p.X, p.Y, p.Width, p.Height, 3, "1234", "F")
	r.pdf.SetAlpha(0.5, "Normal")
	r.stroke(colorCardBorder)
	r.pdf.SetLineWidth(0.3)
	r.pdf.RoundedRect(p.X, p.Y, p.Width, p.Height, 3, "1234", "D")
	r.pdf.SetAlpha(1, "Normal")
	r.fill(accent)
	r.pdf.RoundedRect(p.X, p.Y, 2, p.Height, 1.5, "1234", "F")

	bx := ct.InnerX
	for _, b := range ct.Badges {
		style, bg, fg, alpha := "", colorGray8, colorGray4, 1.0
		switch b.Kind {
		case BadgeCategory:
			style, bg, fg, alpha = "B", accent, accent, 0.18
		case BadgePinned:
			bg, fg, alpha = colorAmber, colorYellow, 0.35
		}
		r.font(style, BadgeSize)
		bw := r.width(b.Label) + 5
		r.pill(bx, ct.BadgeY-4, bw, 5.5, 1.5, bg, alpha)
		r.textColor(fg)
		r.text(bx+2.5, ct.BadgeY, b.Label)
		bx += bw + 3
	}

	r.font("B", TitleSize)
	r.textColor(colorWhite)
	for i, line := range ct.Title {
		r.text(ct.InnerX, ct.TitleY+float64(i)*titleLeading, line)
	}

	if len(ct.Summary) > 0 {
		r.font("", SummarySize)
		r.textColor(colorGray4)
		for i, line := range ct.Summary {
			r.text(ct.InnerX, ct.SummaryY+float64(i)*summaryLeading, line)
		}
	}

	r.pdf.SetAlpha(0.2, "Normal")
	r.stroke(colorWhite)
	r.pdf.SetLineWidth(0.2)
	r.pdf.Line(ct.InnerX, ct.DividerY, p.X+p.Width-cardRightInset, ct.DividerY)
	r.pdf.SetAlpha(1, "Normal")

	r.font("", TagSize)
	for _, tag := range ct.Tags {
		r.pill(tag.X, ct.TagY-3.5, tag.Width, 5, 1.5, colorPurple, 0.15)
		r.textColor(colorPurpleL)
		r.text(tag.X+2, ct.TagY, tag.Label)
	}

	if ct.Date != "" {
		r.font("", DateSize)
		r.textColor(colorGray6)
		r.text(ct.DateX, ct.TagY, ct.Date)
	}
}

// ============================================================================
// SUMMARY PAGE
// ============================================================================

func (r *renderer) summaryPage(page Page) {
	l := r.doc.Layout
	s := r.doc.Summary

	r.background()
	r.header()

	y := l.Top + 8
	r.font("B", 10)
	r.textColor(colorWhite)
	r.text(l.Margin, y, "Export Summary")
	y += 8

	stats := []struct {
		label string
		value int
		color rgb
	}{
		{"Total Ideas", s.Total, colorPurpleL},
		{"Pinned", s.Pinned, colorYellow},
		{"Categories", s.CategoryCount, colorBlue},
		{"This Week", s.ThisWeek, colorGreen},
	}
	sw := (l.PageWidth - 2*l.Margin - 9) / float64(len(stats))
	for i, st := range stats {
		sx := l.Margin + float64(i)*(sw+3)
		r.fill(colorCard)
		r.pdf.RoundedRect(sx, y, sw, 22, 2, "1234", "F")
		r.fill(st.color)
		r.pdf.RoundedRect(sx, y, sw, 1.5, 1, "1234", "F")
		r.font("B", 16)
		r.textColor(st.color)
		r.text(sx+4, y+13, strconv.Itoa(st.value))
		r.font("", 6)
		r.textColor(colorGray6)
		r.text(sx+4, y+19, st.label)
	}
	y += 28

	r.font("B", 7)
	r.textColor(colorGray4)
	r.text(l.Margin, y, "BY CATEGORY")
	y += 5

	for _, entry := range s.ByCategory {
		color := categoryColor(entry.Name)
		barW := float64(entry.Count) / float64(s.Total) * (l.PageWidth - 60)

		r.font("B", 7)
		r.textColor(color)
		r.text(l.Margin, y, domain.Category(entry.Name).Label())
		r.pill(38, y-4.5, barW, 5, 2, color, 0.25)
		r.fill(color)
		r.pdf.RoundedRect(38, y-4.5, max(barW*0.6, 3), 5, 2, "1234", "F")
		r.font("", 6.5)
		r.textColor(colorGray4)
		r.text(38+barW+3, y, strconv.Itoa(entry.Count))
		y += 8
	}
	y += 4

	r.font("B", 7)
	r.textColor(colorGray4)
	r.text(l.Margin, y, "BY SOURCE")
	y += 5

	x := l.Margin
	for _, entry := range s.BySource {
		const tileW = 30.0
		r.fill(colorCard)
		r.pdf.RoundedRect(x, y, tileW, 14, 2, "1234", "F")
		r.font("B", 9)
		r.textColor(colorWhite)
		r.text(x+4, y+8, strconv.Itoa(entry.Count))
		r.font("", 5.5)
		r.textColor(colorGray6)
		r.text(x+4, y+12.5, SourceLabel(domain.SourceType(entry.Name)))
		x += tileW + 3
		if x > l.PageWidth-40 {
			x = l.Margin
			y += 18
		}
	}

	r.font("B", 20)
	r.textColor(colorGray8)
	brandW := r.width("cortex")
	bx := (l.PageWidth - brandW - 4) / 2
	r.text(bx, l.PageHeight-30, "cortex")
	r.textColor(rgb{60, 30, 120})
	r.text(bx+brandW, l.PageHeight-30, ".")
	r.font("", 7)
	r.textColor(colorGray8)
	tagline := "Your AI Second Brain"
	r.text((l.PageWidth-r.width(tagline))/2, l.PageHeight-22, tagline)

	n := strconv.Itoa(page.Number)
	r.footer(n, n)
}
