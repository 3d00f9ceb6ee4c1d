package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker/internal/core"
	"tracker/internal/store/memory"
)

type failingReader struct{}

func (failingReader) List(context.Context) ([]core.Expense, error) {
	return nil, errors.New("disk gone")
}

func (failingReader) Get(context.Context, string) (core.Expense, error) {
	return core.Expense{}, errors.New("disk gone")
}

func seedStore() *memory.Store {
	return memory.New(
		core.Expense{ID: "1", Date: core.ParseDate("2024-01-10"), Category: "Food", Amount: core.MustMoney("10")},
		core.Expense{ID: "2", Date: core.ParseDate("2024-01-12"), Category: "Rent", Amount: core.MustMoney("500")},
		core.Expense{ID: "3", Date: core.ParseDate("2024-02-01"), Category: "Food", Amount: core.MustMoney("5")},
	)
}

func TestDashboardService_MonthlyAllCategories(t *testing.T) {
	svc := NewDashboardService(seedStore())
	periods := []core.Period{core.NewPeriod(2024, time.January), core.NewPeriod(2024, time.February)}

	got, err := svc.Monthly(context.Background(), periods, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Monthly() = %d months, want 2", len(got))
	}
	if len(got[0].Totals) != 2 || got[0].Totals["Rent"].Decimal().String() != "500" {
		t.Errorf("January = %+v", got[0].Totals)
	}
	if got[1].Totals["Rent"].Decimal().String() != "0" || got[1].Totals["Food"].Decimal().String() != "5" {
		t.Errorf("February = %+v", got[1].Totals)
	}
}

func TestDashboardService_ReflectsLatestWrite(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	exp := NewExpenseService(s, nil)
	dash := NewDashboardService(s)
	jan := core.NewPeriod(2024, time.January)

	before, _ := dash.Daily(ctx, "Food", jan)
	if len(before) != 1 {
		t.Fatalf("Daily() before = %d days, want 1", len(before))
	}

	if _, err := exp.Create(ctx, core.Expense{Date: core.ParseDate("2024-01-20"), Category: "Food", Amount: core.MustMoney("1")}); err != nil {
		t.Fatal(err)
	}

	after, _ := dash.Daily(ctx, "Food", jan)
	if len(after) != 2 {
		t.Errorf("Daily() after create = %d days, want 2", len(after))
	}
}

func TestDashboardService_Filters(t *testing.T) {
	svc := NewDashboardService(seedStore())
	f, err := svc.Filters(context.Background(), time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Categories) != 2 || len(f.Periods) != 2 {
		t.Errorf("Filters() = %+v", f)
	}
	if f.DefaultPeriod == nil || f.DefaultPeriod.String() != "2024-02" {
		t.Errorf("DefaultPeriod = %v, want 2024-02", f.DefaultPeriod)
	}
}

func TestDashboardService_StoreError(t *testing.T) {
	svc := NewDashboardService(failingReader{})
	if _, err := svc.Filters(context.Background(), time.Now()); err == nil {
		t.Error("Filters() should surface store errors")
	}
	if _, err := svc.Snapshot(context.Background()); err == nil {
		t.Error("Snapshot() should surface store errors")
	}
}
