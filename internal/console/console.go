// Package console renders reports for the operator CLI.
package console

import (
	"fmt"
	"io"
	"os"
	"sort"

	"tracker/internal/aggregate"
	"tracker/internal/core"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Predefined colours for consistent output.
var (
	BoldCyan    = color.New(color.FgCyan, color.Bold).SprintFunc()
	BoldGreen   = color.New(color.FgGreen, color.Bold).SprintFunc()
	BoldYellow  = color.New(color.FgYellow, color.Bold).SprintFunc()
	BoldRed     = color.New(color.FgRed, color.Bold).SprintFunc()
	BoldMagenta = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

type Console struct {
	out io.Writer
}

func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) LogInfo(format string, a ...any) {
	pterm.Info.WithWriter(c.out).Printfln(format, a...)
}

func (c *Console) LogWarning(format string, a ...any) {
	pterm.Warning.WithWriter(c.out).Printfln(format, a...)
}

func (c *Console) LogError(format string, a ...any) {
	pterm.Error.WithWriter(c.out).Printfln(format, a...)
}

func (c *Console) LogSuccess(format string, a ...any) {
	pterm.Success.WithWriter(c.out).Printfln(format, a...)
}

// Disable strips colours and styling, for tests and non-terminal output.
func Disable() {
	color.NoColor = true
	pterm.DisableStyling()
}

func renderTable(data pterm.TableData) string {
	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithRightAlignment().
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Sprintf("render table: %v\n", err)
	}
	return out
}

// MonthlyTable renders one row per period with a column per category and
// a row total. Empty cells print as zero.
func MonthlyTable(months []aggregate.MonthTotals) string {
	seen := make(map[string]struct{})
	for _, m := range months {
		for c := range m.Totals {
			seen[c] = struct{}{}
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	header := append([]string{"Period"}, categories...)
	header = append(header, "Total")
	data := pterm.TableData{header}

	grand := core.Zero
	for _, m := range months {
		row := []string{m.Period.String()}
		for _, c := range categories {
			row = append(row, m.Totals[c].Format())
		}
		sum := m.Sum()
		grand = grand.Add(sum)
		row = append(row, BoldGreen(sum.Format()))
		data = append(data, row)
	}

	footer := make([]string, len(header))
	footer[0] = BoldCyan("Total")
	for i, c := range categories {
		total := core.Zero
		for _, m := range months {
			total = total.Add(m.Totals[c])
		}
		footer[i+1] = total.Format()
	}
	footer[len(footer)-1] = BoldGreen(grand.Format())
	data = append(data, footer)

	return renderTable(data)
}

// DailyTable renders the per-day series of one category.
func DailyTable(days []aggregate.DayTotal) string {
	data := pterm.TableData{{"Day", "Total", "Records"}}
	for _, d := range days {
		data = append(data, []string{
			fmt.Sprintf("%02d", d.Day),
			d.Total.Format(),
			fmt.Sprint(len(d.Expenses)),
		})
	}
	return renderTable(data)
}

// FiltersLine summarises the default selections.
func FiltersLine(f aggregate.Filters) string {
	period, category := "-", "-"
	if f.DefaultPeriod != nil {
		period = f.DefaultPeriod.String()
	}
	if f.DefaultCategory != nil {
		category = *f.DefaultCategory
	}
	return fmt.Sprintf("%s %d categories, %d periods; default %s / %s",
		BoldMagenta("Filters:"), len(f.Categories), len(f.Periods), period, category)
}
