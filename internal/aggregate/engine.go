// Package aggregate derives chart and filter data from a snapshot of
// expense records.
//
// Every function here is pure: it reads the records it is given, never
// mutates them and never returns an error. Records with an unparseable date
// are left out of anything keyed by date; records with an unusable amount
// count as zero. An empty or fully filtered input yields an empty result.
package aggregate

import (
	"sort"
	"time"

	"tracker/internal/core"
)

type (
	// MonthTotals is one stacked bar: per category totals for a period.
	MonthTotals struct {
		Period core.Period           `json:"period"`
		Totals map[string]core.Money `json:"totals"`
	}

	// DayTotal is one point of the daily trend line.
	DayTotal struct {
		Day      int            `json:"day"`
		Total    core.Money     `json:"total"`
		Expenses []core.Expense `json:"expenses"`
	}

	// Filters holds the filter choices offered to the user and the
	// initial selection.
	Filters struct {
		Categories      []string      `json:"categories"`
		Periods         []core.Period `json:"periods"`
		DefaultPeriod   *core.Period  `json:"defaultPeriod"`
		DefaultCategory *string       `json:"defaultCategory"`
	}
)

// Sum is the height of the stacked bar.
func (m MonthTotals) Sum() core.Money {
	total := core.Zero
	for _, v := range m.Totals {
		total = total.Add(v)
	}
	return total
}

// DistinctCategories returns every non-empty category, sorted by byte
// order. Categories differing only in case are distinct.
func DistinctCategories(records []core.Expense) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		if r.Category == "" {
			continue
		}
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// DistinctPeriods returns the year-months that have at least one record
// with a valid date, oldest first.
func DistinctPeriods(records []core.Expense) []core.Period {
	seen := make(map[core.Period]struct{})
	out := make([]core.Period, 0)
	for _, r := range records {
		p, ok := r.Date.Period()
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sortPeriods(out)
	return out
}

// DefaultPeriod picks the initial period: the month of today when it has
// data, otherwise the latest period. ok is false when periods is empty.
func DefaultPeriod(periods []core.Period, today time.Time) (p core.Period, ok bool) {
	if len(periods) == 0 {
		return core.Period{}, false
	}
	current := core.PeriodOf(today)
	latest := periods[0]
	for _, candidate := range periods {
		if candidate == current {
			return current, true
		}
		if latest.Before(candidate) {
			latest = candidate
		}
	}
	return latest, true
}

// DefaultCategory picks the initial category: the first in sorted order.
func DefaultCategory(categories []string) (string, bool) {
	if len(categories) == 0 {
		return "", false
	}
	return categories[0], true
}

// YearPeriods returns January through December of year.
func YearPeriods(year int) []core.Period {
	out := make([]core.Period, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, core.NewPeriod(year, m))
	}
	return out
}

// MaxRangeMonths is the longest period range reports will build.
const MaxRangeMonths = 120

// RangeWithinLimit reports whether first..last spans at most MaxRangeMonths.
func RangeWithinLimit(first, last core.Period) bool {
	return first.MonthsUntil(last) < MaxRangeMonths
}

// PeriodRange returns every month from first to last inclusive. It is
// empty when last is before first.
func PeriodRange(first, last core.Period) []core.Period {
	out := make([]core.Period, 0, max(first.MonthsUntil(last)+1, 0))
	for p := first; !last.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}

// MonthlyCategoryTotals builds the month by category matrix. The result
// has one entry per element of periodRange, in the same order, and every
// entry has a total for every requested category (zero when nothing
// matched). Repeated categories collapse into one key.
func MonthlyCategoryTotals(records []core.Expense, periodRange []core.Period, categories []string) []MonthTotals {
	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	sums := make(map[core.Period]map[string]core.Money)
	if len(wanted) > 0 {
		for _, r := range records {
			if _, ok := wanted[r.Category]; !ok {
				continue
			}
			p, ok := r.Date.Period()
			if !ok {
				continue
			}
			bucket, ok := sums[p]
			if !ok {
				bucket = make(map[string]core.Money)
				sums[p] = bucket
			}
			bucket[r.Category] = bucket[r.Category].Add(r.Amount)
		}
	}

	out := make([]MonthTotals, 0, len(periodRange))
	for _, p := range periodRange {
		totals := make(map[string]core.Money, len(wanted))
		for c := range wanted {
			if v, ok := sums[p][c]; ok {
				totals[c] = v
			} else {
				totals[c] = core.Zero
			}
		}
		out = append(out, MonthTotals{Period: p, Totals: totals})
	}
	return out
}

// DailyTotals groups the records of one category in one period by day of
// month. Matching is exact and case-sensitive. Days are ascending; records
// within a day keep their input order.
func DailyTotals(records []core.Expense, category string, period core.Period) []DayTotal {
	byDay := make(map[int]*DayTotal)
	for _, r := range records {
		if r.Category != category || !period.Contains(r.Date) {
			continue
		}
		day := r.Date.Time.Day()
		dt, ok := byDay[day]
		if !ok {
			dt = &DayTotal{Day: day, Total: core.Zero}
			byDay[day] = dt
		}
		dt.Total = dt.Total.Add(r.Amount)
		dt.Expenses = append(dt.Expenses, r)
	}

	out := make([]DayTotal, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// BuildFilters bundles the category and period choices with their default
// selections.
func BuildFilters(records []core.Expense, today time.Time) Filters {
	f := Filters{
		Categories: DistinctCategories(records),
		Periods:    DistinctPeriods(records),
	}
	if p, ok := DefaultPeriod(f.Periods, today); ok {
		f.DefaultPeriod = &p
	}
	if c, ok := DefaultCategory(f.Categories); ok {
		f.DefaultCategory = &c
	}
	return f
}

func sortPeriods(periods []core.Period) {
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
}
