package http

import (
	"context"
	"net/http"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	res, version, err := s.reports.List(r.Context(), listQuery(r))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	setSnapshotVersion(w, version)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.NewExpense
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	e, err := s.expenses.CreateExpense(r.Context(), in)
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, e)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	v, err := s.expenses.Settings(r.Context())
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	s.appendName(w, r, s.expenses.AddCategory)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	s.appendName(w, r, s.expenses.AddUser)
}

func (s *Server) appendName(w http.ResponseWriter, r *http.Request, add func(context.Context, string) (core.Vocabulary, error)) {
	var in nameRequest
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, log.OpAppend, err)
		return
	}
	v, err := add(r.Context(), sanitizeInput(in.Name))
	if err != nil {
		fail(w, r, log.OpAppend, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	res, version := s.reports.Monthly(r.Context())
	setSnapshotVersion(w, version)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	res, version := s.reports.Weekly(r.Context())
	setSnapshotVersion(w, version)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleCategoryMonthPerson(w http.ResponseWriter, r *http.Request) {
	res, version, err := s.reports.CategoryMonthPerson(r.Context())
	if err != nil {
		fail(w, r, log.OpReport, err)
		return
	}
	setSnapshotVersion(w, version)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handlePersons(w http.ResponseWriter, r *http.Request) {
	res, version, err := s.reports.Persons(r.Context())
	if err != nil {
		fail(w, r, log.OpReport, err)
		return
	}
	setSnapshotVersion(w, version)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	res, version, err := s.reports.Categories(r.Context(), sanitizeInput(r.URL.Query().Get("month")))
	if err != nil {
		fail(w, r, log.OpReport, err)
		return
	}
	setSnapshotVersion(w, version)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, version, err := s.reports.Range(r.Context(), sanitizeInput(q.Get("from")), sanitizeInput(q.Get("to")))
	if err != nil {
		fail(w, r, log.OpReport, err)
		return
	}
	setSnapshotVersion(w, version)
	writeJSON(w, r, http.StatusOK, res)
}
