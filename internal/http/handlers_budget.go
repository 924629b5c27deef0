package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"anggaran/internal/core"
	"anggaran/internal/ledger"
)

type amountRequest struct {
	Amount *core.Money `json:"amount"`
}

func (a amountRequest) value() (core.Money, error) {
	if a.Amount == nil {
		return core.Money{}, core.Invalid("amount", "is required")
	}
	return *a.Amount, nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Dashboard())
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.value()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.SetIncome(r.Context(), amount); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Dashboard())
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Categories())
}

func decodeCategory(r *http.Request) (ledger.CategoryInput, error) {
	var in ledger.CategoryInput
	if err := decodeJSON(r, &in, false); err != nil {
		return in, err
	}
	in.Name = sanitizeInput(in.Name)
	in.Color = sanitizeInput(in.Color)
	in.Icon = sanitizeInput(in.Icon)
	return in, nil
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAllocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Allocation *float64 `json:"allocation"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Allocation == nil {
		writeError(w, r, core.Invalid("allocation", "is required"))
		return
	}
	c, err := s.svc.SetAllocation(r.Context(), chi.URLParam(r, "id"), *req.Allocation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAutoAdjust(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.AutoAdjustAllocation(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearExpenses(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSpendingTip(w http.ResponseWriter, r *http.Request) {
	tip, err := s.svc.SpendingTip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tip": tip})
}
