package http

import (
	"bytes"
	"net/http"

	"tracker/internal/export"
	applog "tracker/internal/log"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	records, err := s.expenses.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, applog.OpList, err)
		return
	}
	NewResponse().JSON(records).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Invalid request body",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpCreate)
		BadRequestError("Invalid request body").Write(w)
		return
	}

	draft, err := ParseExpenseDraft(parser)
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	created, err := s.expenses.Create(r.Context(), draft)
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	s.countWrite(&s.appMetrics.created)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseChanged(r.Context(), applog.OpCreate, created.ID, created.Category, created.Amount.String())

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+created.ID).
		Message("Expense added successfully", "entry", created).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	patch, err := ParseExpensePatch(parser)
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}

	updated, err := s.expenses.Update(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}

	s.countWrite(&s.appMetrics.updated)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseChanged(r.Context(), applog.OpUpdate, updated.ID, updated.Category, updated.Amount.String())

	NewResponse().Message("Record updated", "updatedRecord", updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	removed, err := s.expenses.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, applog.OpDelete, err)
		return
	}

	s.countWrite(&s.appMetrics.deleted)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseChanged(r.Context(), applog.OpDelete, removed.ID, removed.Category, removed.Amount.String())

	NewResponse().Message("Record deleted", "deleted", removed).Write(w)
}

// handleExport downloads every record as csv (default), json or pdf.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	records, err := s.reports.Snapshot(r.Context())
	if err != nil {
		s.writeServiceError(w, r, applog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		s.writeServiceError(w, r, applog.OpExport, err)
		return
	}

	filename := export.Filename(s.now(), format)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Export generated",
		applog.FieldComponent, applog.ComponentExport,
		"format", string(format),
		applog.FieldRecords, len(records),
		"bytes", buf.Len())

	NewResponse().Attachment(filename, format.ContentType(), buf.Bytes()).Write(w)
}
