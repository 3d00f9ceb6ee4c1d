package http

import (
	"net/http"
	"strings"

	"tracker/internal/aggregate"
	"tracker/internal/core"
	applog "tracker/internal/log"
)

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := s.reports.Filters(r.Context(), s.now())
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(filters).Write(w)
}

// handleMonthlyReport returns the month by category matrix. Without a
// category parameter every category in the data is reported.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	periods := ParseReportPeriods(query, s.now())

	months, err := s.reports.Monthly(r.Context(), periods, ParseCategories(query))
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(months).Write(w)
}

// handleDailyReport returns the per-day series for one category and month.
// Missing parameters take the default selections; a malformed period is an
// empty slice, not an error.
func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := query.Get("category")
	rawPeriod := strings.TrimSpace(query.Get("period"))

	if category == "" || rawPeriod == "" {
		filters, err := s.reports.Filters(r.Context(), s.now())
		if err != nil {
			s.writeServiceError(w, r, applog.OpRead, err)
			return
		}
		if category == "" && filters.DefaultCategory != nil {
			category = *filters.DefaultCategory
		}
		if rawPeriod == "" && filters.DefaultPeriod != nil {
			rawPeriod = filters.DefaultPeriod.String()
		}
	}

	period, err := core.ParsePeriod(rawPeriod)
	if err != nil || category == "" {
		NewResponse().JSON([]aggregate.DayTotal{}).Write(w)
		return
	}

	days, err := s.reports.Daily(r.Context(), category, period)
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(days).Write(w)
}
