package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"anggaran/internal/core"
	"anggaran/internal/ledger"
)

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var in ledger.ExpenseInput
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)
	e, err := s.svc.AddExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(r, &e, false); err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = chi.URLParam(r, "id")
	e.Description = sanitizeInput(e.Description)
	updated, err := s.svc.EditExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.svc.DeleteExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (s *Server) handleUndoDelete(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.UndoDelete(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
