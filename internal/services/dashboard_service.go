package services

import (
	"context"
	"fmt"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/core"
	"tracker/internal/store"
)

// DashboardService answers report queries from a fresh snapshot of the
// store on every call.
type DashboardService struct {
	store store.Reader
}

func NewDashboardService(r store.Reader) *DashboardService {
	return &DashboardService{store: r}
}

func (s *DashboardService) snapshot(ctx context.Context) ([]core.Expense, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// Filters returns the choices offered to the user and their defaults.
func (s *DashboardService) Filters(ctx context.Context, today time.Time) (aggregate.Filters, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return aggregate.Filters{}, err
	}
	return aggregate.BuildFilters(records, today), nil
}

// Monthly returns per-category totals for each period. A nil categories
// slice selects every category present in the data.
func (s *DashboardService) Monthly(ctx context.Context, periods []core.Period, categories []string) ([]aggregate.MonthTotals, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = aggregate.DistinctCategories(records)
	}
	return aggregate.MonthlyCategoryTotals(records, periods, categories), nil
}

func (s *DashboardService) Daily(ctx context.Context, category string, period core.Period) ([]aggregate.DayTotal, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.DailyTotals(records, category, period), nil
}

// Snapshot returns every record, for exports.
func (s *DashboardService) Snapshot(ctx context.Context) ([]core.Expense, error) {
	return s.snapshot(ctx)
}
