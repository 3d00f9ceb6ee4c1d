package aggregate

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

func rec(date, category, amount string) core.Expense {
	return core.Expense{
		ID:       core.NewID(),
		Date:     core.ParseDate(date),
		Category: category,
		Amount:   core.ParseMoney(amount),
	}
}

func period(t *testing.T, s string) core.Period {
	t.Helper()
	p, err := core.ParsePeriod(s)
	if err != nil {
		t.Fatalf("ParsePeriod(%q): %v", s, err)
	}
	return p
}

func sampleRecords() []core.Expense {
	return []core.Expense{
		rec("2024-03-05", "Food", "100"),
		rec("2024-03-07", "Food", "50"),
		rec("2024-03-05", "Travel", "200"),
	}
}

func TestDailyTotals_Example(t *testing.T) {
	got := DailyTotals(sampleRecords(), "Food", period(t, "2024-03"))
	if len(got) != 2 {
		t.Fatalf("got %d days, want 2: %+v", len(got), got)
	}
	want := []struct {
		day   int
		total string
		n     int
	}{{5, "100", 1}, {7, "50", 1}}
	for i, w := range want {
		if got[i].Day != w.day || got[i].Total.Decimal().String() != w.total || len(got[i].Expenses) != w.n {
			t.Errorf("day[%d] = {%d %s %d}, want %+v", i, got[i].Day, got[i].Total.Decimal(), len(got[i].Expenses), w)
		}
	}
}

func TestMonthlyCategoryTotals_Example(t *testing.T) {
	got := MonthlyCategoryTotals(sampleRecords(), []core.Period{period(t, "2024-03")}, []string{"Food", "Travel"})
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].Period.String() != "2024-03" {
		t.Errorf("period = %s", got[0].Period)
	}
	if v := got[0].Totals["Food"].Decimal().String(); v != "150" {
		t.Errorf("Food = %s, want 150", v)
	}
	if v := got[0].Totals["Travel"].Decimal().String(); v != "200" {
		t.Errorf("Travel = %s, want 200", v)
	}
	if v := got[0].Sum().Decimal().String(); v != "350" {
		t.Errorf("Sum = %s, want 350", v)
	}
}

func TestEmptyInput(t *testing.T) {
	var none []core.Expense
	if got := DistinctCategories(none); got == nil || len(got) != 0 {
		t.Errorf("DistinctCategories(nil) = %#v, want empty slice", got)
	}
	if got := DistinctPeriods(none); got == nil || len(got) != 0 {
		t.Errorf("DistinctPeriods(nil) = %#v, want empty slice", got)
	}
	if _, ok := DefaultPeriod(nil, time.Now()); ok {
		t.Error("DefaultPeriod(nil) should have no value")
	}
	if got := DailyTotals(none, "Food", period(t, "2024-03")); got == nil || len(got) != 0 {
		t.Errorf("DailyTotals(nil) = %#v, want empty slice", got)
	}
	f := BuildFilters(none, time.Now())
	if f.DefaultPeriod != nil || f.DefaultCategory != nil {
		t.Errorf("BuildFilters(nil) defaults = %v %v, want nil", f.DefaultPeriod, f.DefaultCategory)
	}
}

func TestMalformedRecords(t *testing.T) {
	records := append(sampleRecords(),
		rec("2024-03-09", "Fuel", "abc"),
		rec("not a date", "Gifts", "40"),
		rec("2024-03-10", "Food", "-3"),
	)

	cats := DistinctCategories(records)
	want := []string{"Food", "Fuel", "Gifts", "Travel"}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("DistinctCategories = %v, want %v", cats, want)
	}

	periods := DistinctPeriods(records)
	if len(periods) != 1 || periods[0].String() != "2024-03" {
		t.Errorf("DistinctPeriods = %v, want [2024-03]", periods)
	}

	got := MonthlyCategoryTotals(records, []core.Period{period(t, "2024-03")}, []string{"Food", "Fuel", "Gifts"})
	totals := got[0].Totals
	if v := totals["Food"].Decimal().String(); v != "150" {
		t.Errorf("Food = %s, want 150 (negative amount counts as 0)", v)
	}
	if v := totals["Fuel"].Decimal().String(); v != "0" {
		t.Errorf("Fuel = %s, want 0", v)
	}
	if v := totals["Gifts"].Decimal().String(); v != "0" {
		t.Errorf("Gifts = %s, want 0 (undated record excluded)", v)
	}

	days := DailyTotals(records, "Food", period(t, "2024-03"))
	if len(days) != 3 || days[2].Day != 10 || !days[2].Total.IsZero() {
		t.Errorf("DailyTotals = %+v, want day 10 with zero total", days)
	}
}

func TestDistinctCategories_CaseSensitive(t *testing.T) {
	records := []core.Expense{
		rec("2024-01-01", "food", "1"),
		rec("2024-01-01", "Food", "1"),
		rec("2024-01-01", "", "1"),
		rec("2024-01-01", "Bills", "1"),
		rec("2024-01-01", "food", "1"),
	}
	got := DistinctCategories(records)
	want := []string{"Bills", "Food", "food"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctCategories = %v, want %v", got, want)
	}
}

func TestDefaultPeriod_Example(t *testing.T) {
	today := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		periods []string
		want    string
	}{
		{"current month present", []string{"2024-01", "2024-02", "2024-03"}, "2024-02"},
		{"falls back to latest", []string{"2023-11", "2023-12"}, "2023-12"},
		{"unsorted input", []string{"2023-12", "2022-05", "2023-11"}, "2023-12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ps []core.Period
			for _, s := range tt.periods {
				ps = append(ps, period(t, s))
			}
			got, ok := DefaultPeriod(ps, today)
			if !ok || got.String() != tt.want {
				t.Errorf("DefaultPeriod = %v, %v, want %s", got, ok, tt.want)
			}
		})
	}
}

func TestMonthlyCategoryTotals_Shape(t *testing.T) {
	records := sampleRecords()

	t.Run("keeps caller order and zero fills", func(t *testing.T) {
		periods := []core.Period{period(t, "2024-04"), period(t, "2024-03"), period(t, "2024-01")}
		got := MonthlyCategoryTotals(records, periods, []string{"Food", "Rent"})
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		for i, p := range periods {
			if got[i].Period != p {
				t.Errorf("entry %d period = %s, want %s", i, got[i].Period, p)
			}
			if len(got[i].Totals) != 2 {
				t.Errorf("entry %d has %d totals, want 2", i, len(got[i].Totals))
			}
		}
		if !got[0].Totals["Food"].IsZero() || !got[1].Totals["Rent"].IsZero() {
			t.Error("missing cells should be zero")
		}
	})

	t.Run("empty categories", func(t *testing.T) {
		got := MonthlyCategoryTotals(records, []core.Period{period(t, "2024-03")}, nil)
		if len(got) != 1 || len(got[0].Totals) != 0 {
			t.Errorf("got %+v, want one period with no totals", got)
		}
	})

	t.Run("empty range", func(t *testing.T) {
		got := MonthlyCategoryTotals(records, nil, []string{"Food"})
		if got == nil || len(got) != 0 {
			t.Errorf("got %#v, want empty slice", got)
		}
	})
}

func TestDailyTotals_ExactMatch(t *testing.T) {
	records := []core.Expense{
		rec("2024-03-05", "Food", "1"),
		rec("2024-03-05", "food", "2"),
		rec("2024-04-05", "Food", "4"),
		rec("2024-03-05", "Food", "8"),
	}
	got := DailyTotals(records, "Food", period(t, "2024-03"))
	if len(got) != 1 {
		t.Fatalf("got %d days, want 1", len(got))
	}
	if got[0].Total.Decimal().String() != "9" {
		t.Errorf("total = %s, want 9", got[0].Total.Decimal())
	}
	if got[0].Expenses[0].Amount.Decimal().String() != "1" || got[0].Expenses[1].Amount.Decimal().String() != "8" {
		t.Error("contributing records should keep input order")
	}
	if len(DailyTotals(records, "Nope", period(t, "2024-03"))) != 0 {
		t.Error("unknown category should yield no days")
	}
}

func TestYearPeriodsAndRange(t *testing.T) {
	ps := YearPeriods(2024)
	if len(ps) != 12 || ps[0].String() != "2024-01" || ps[11].String() != "2024-12" {
		t.Errorf("YearPeriods = %v", ps)
	}
	r := PeriodRange(period(t, "2023-11"), period(t, "2024-02"))
	var got []string
	for _, p := range r {
		got = append(got, p.String())
	}
	want := []string{"2023-11", "2023-12", "2024-01", "2024-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PeriodRange = %v, want %v", got, want)
	}
	if len(PeriodRange(period(t, "2024-02"), period(t, "2024-01"))) != 0 {
		t.Error("reversed range should be empty")
	}
}

func TestEarliestDateIsKept(t *testing.T) {
	records := []core.Expense{rec("0001-01-01", "Food", "3"), rec("2024-03-05", "Food", "1")}
	ps := DistinctPeriods(records)
	if len(ps) != 2 || ps[0].String() != "0001-01" {
		t.Fatalf("DistinctPeriods = %v", ps)
	}
	days := DailyTotals(records, "Food", ps[0])
	if len(days) != 1 || days[0].Day != 1 || days[0].Total.Decimal().String() != "3" {
		t.Errorf("DailyTotals = %+v", days)
	}
}

func TestBuildFilters(t *testing.T) {
	records := append(sampleRecords(), rec("2023-12-24", "Gifts", "30"))
	today := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	f := BuildFilters(records, today)
	if !reflect.DeepEqual(f.Categories, []string{"Food", "Gifts", "Travel"}) {
		t.Errorf("Categories = %v", f.Categories)
	}
	if f.DefaultCategory == nil || *f.DefaultCategory != "Food" {
		t.Errorf("DefaultCategory = %v, want Food", f.DefaultCategory)
	}
	if f.DefaultPeriod == nil || f.DefaultPeriod.String() != "2024-03" {
		t.Errorf("DefaultPeriod = %v, want 2024-03", f.DefaultPeriod)
	}
}

// randomRecords builds a reproducible mix of valid and malformed records.
func randomRecords(r *rand.Rand, n int) []core.Expense {
	cats := []string{"Food", "food", " Food", "Travel", "Rent", ""}
	dates := []string{"2024-01-03", "2024-01-17", "2024-02-01", "2023-12-31", "2024-02-29", "0001-01-01", "bad"}
	amounts := []string{"1", "2.5", "10", "0", "x", "-4", "0.01"}
	out := make([]core.Expense, n)
	for i := range out {
		out[i] = rec(dates[r.Intn(len(dates))], cats[r.Intn(len(cats))], amounts[r.Intn(len(amounts))])
	}
	return out
}

func TestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	periods := []core.Period{period(t, "2023-12"), period(t, "2024-01"), period(t, "2024-02")}
	categories := []string{"Food", "Travel", "Rent"}

	today := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)

	for iter := 0; iter < 50; iter++ {
		records := randomRecords(r, r.Intn(40))
		snapshot := append([]core.Expense(nil), records...)

		cats := DistinctCategories(records)
		if !sort.StringsAreSorted(cats) {
			t.Fatalf("categories not sorted: %v", cats)
		}
		for i := 1; i < len(cats); i++ {
			if cats[i] == cats[i-1] {
				t.Fatalf("duplicate category %q", cats[i])
			}
		}

		ps := DistinctPeriods(records)
		for i := 1; i < len(ps); i++ {
			if !ps[i-1].Before(ps[i]) {
				t.Fatalf("periods not strictly ascending: %v", ps)
			}
		}
		keys := make(map[core.Period]bool)
		for _, rc := range records {
			if p, ok := rc.Date.Period(); ok {
				keys[p] = true
			}
		}
		if len(ps) != len(keys) {
			t.Fatalf("DistinctPeriods = %v, want the %d periods of valid dates", ps, len(keys))
		}
		for _, p := range ps {
			if !keys[p] {
				t.Fatalf("period %s has no record with a valid date", p)
			}
		}

		matrix := MonthlyCategoryTotals(records, periods, categories)
		if len(matrix) != len(periods) {
			t.Fatalf("matrix has %d rows, want %d", len(matrix), len(periods))
		}
		cellSum := decimal.Zero
		for _, row := range matrix {
			if len(row.Totals) != len(categories) {
				t.Fatalf("row has %d cells, want %d", len(row.Totals), len(categories))
			}
			for _, v := range row.Totals {
				if v.Decimal().IsNegative() {
					t.Fatalf("negative cell %s", v.Decimal())
				}
				cellSum = cellSum.Add(v.Decimal())
			}
		}
		direct := decimal.Zero
		for _, rc := range records {
			p, ok := rc.Date.Period()
			if !ok {
				continue
			}
			inRange := false
			for _, want := range periods {
				if p == want {
					inRange = true
				}
			}
			inCats := false
			for _, c := range categories {
				if rc.Category == c {
					inCats = true
				}
			}
			if inRange && inCats {
				direct = direct.Add(rc.Amount.Decimal())
			}
		}
		if !cellSum.Equal(direct) {
			t.Fatalf("cell sum %s != direct sum %s", cellSum, direct)
		}

		for _, p := range periods {
			days := DailyTotals(records, "Food", p)
			for _, d := range days {
				sum := decimal.Zero
				for _, e := range d.Expenses {
					sum = sum.Add(e.Amount.Decimal())
					if e.Category != "Food" || !p.Contains(e.Date) || e.Date.Time.Day() != d.Day {
						t.Fatalf("record %+v does not belong to day %d of %s", e, d.Day, p)
					}
				}
				if !sum.Equal(d.Total.Decimal()) {
					t.Fatalf("day %d total %s != %s", d.Day, d.Total.Decimal(), sum)
				}
			}

			perDay := make(map[int]int)
			for _, d := range days {
				perDay[d.Day] = len(d.Expenses)
			}
			matching := make(map[int]int)
			for _, rc := range records {
				if rc.Category == "Food" && p.Contains(rc.Date) {
					matching[rc.Date.Time.Day()]++
				}
			}
			if !reflect.DeepEqual(perDay, matching) {
				t.Fatalf("%s: days %v, want one entry per matching record %v", p, perDay, matching)
			}
		}

		idempotent := []struct {
			name string
			run  func() any
		}{
			{"DistinctCategories", func() any { return DistinctCategories(records) }},
			{"DistinctPeriods", func() any { return DistinctPeriods(records) }},
			{"MonthlyCategoryTotals", func() any { return MonthlyCategoryTotals(records, periods, categories) }},
			{"DailyTotals", func() any { return DailyTotals(records, "Food", periods[1]) }},
			{"BuildFilters", func() any { return BuildFilters(records, today) }},
		}
		for _, op := range idempotent {
			if first, second := op.run(), op.run(); !reflect.DeepEqual(first, second) {
				t.Fatalf("%s is not idempotent: %v then %v", op.name, first, second)
			}
		}
		if !reflect.DeepEqual(records, snapshot) {
			t.Fatal("aggregation mutated its input")
		}
	}
}
