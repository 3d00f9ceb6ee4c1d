package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"tracker/internal/aggregate"
	"tracker/internal/core"

	"github.com/jung-kurt/gofpdf"
)

var (
	headerColor       = [3]int{40, 40, 40}
	headerTextColor   = [3]int{255, 255, 255}
	sectionTitleColor = [3]int{0, 0, 0}
	bodyTextColor     = [3]int{50, 50, 50}
	lineColor         = [3]int{200, 200, 200}
)

// WritePDF renders a monthly report: per-category totals for every month
// that has data, followed by the full record listing.
func WritePDF(w io.Writer, records []core.Expense) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, "  Expense Report", "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Generated %s - %d records", time.Now().Format("2006-01-02 15:04"), len(records))), "", 1, "L", true, 0, "")
	pdf.Ln(8)

	sectionTitle := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
	}

	sectionTitle("Monthly Totals")
	months := monthlySummary(records)
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	if len(months) == 0 {
		pdf.Cell(0, 6, "No dated records.")
		pdf.Ln(8)
	}
	for _, m := range months {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(150, 6, tr(m.Period.String()), "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, m.Sum().Format(), "B", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, c := range sortedKeys(m.Totals) {
			pdf.CellFormat(150, 5, tr("    "+clip(c, 70)), "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 5, m.Totals[c].Format(), "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}
	pdf.Ln(5)

	sectionTitle("Records")
	widths := []float64{25, 45, 25, 95}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Date", "Category", "Amount", "Comment"} {
		align := "L"
		if i == 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range records {
		pdf.CellFormat(widths[0], 6, tr(clip(r.Date.String(), 12)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(clip(r.Category, 24)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, r.Amount.Format(), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, tr(clip(oneLine(r.Comment), 55)), "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error generating PDF: %w", err)
	}
	return nil
}

// monthlySummary covers every month from the first to the last dated
// record. When that span is too long, only the latest months that have
// records are listed.
func monthlySummary(records []core.Expense) []aggregate.MonthTotals {
	periods := aggregate.DistinctPeriods(records)
	if len(periods) == 0 {
		return nil
	}
	first, last := periods[0], periods[len(periods)-1]
	span := periods[max(len(periods)-aggregate.MaxRangeMonths, 0):]
	if aggregate.RangeWithinLimit(first, last) {
		span = aggregate.PeriodRange(first, last)
	}
	months := aggregate.MonthlyCategoryTotals(records, span, aggregate.DistinctCategories(records))
	for i := range months {
		for c, v := range months[i].Totals {
			if v.IsZero() {
				delete(months[i].Totals, c)
			}
		}
	}
	return months
}

func sortedKeys(m map[string]core.Money) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
