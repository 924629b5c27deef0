package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"anggaran/internal/core"
	"anggaran/internal/ledger"
)

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var in ledger.IncomeInput
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)
	inc, err := s.svc.AddIncome(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleEditIncome(w http.ResponseWriter, r *http.Request) {
	var inc core.Income
	if err := decodeJSON(r, &inc, false); err != nil {
		writeError(w, r, err)
		return
	}
	inc.ID = chi.URLParam(r, "id")
	inc.Description = sanitizeInput(inc.Description)
	updated, err := s.svc.EditIncome(r.Context(), inc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteIncome(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Sources())
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	src, err := s.svc.AddSource(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSource(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromID string `json:"fromId"`
		ToID   string `json:"toId"`
		amountRequest
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.value()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transfer(r.Context(), req.FromID, req.ToID, amount); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Sources())
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Goals())
}

type goalRequest struct {
	Name         string      `json:"name"`
	TargetAmount *core.Money `json:"targetAmount"`
}

func (g goalRequest) target() (core.Money, error) {
	if g.TargetAmount == nil {
		return core.Money{}, core.Invalid("targetAmount", "is required")
	}
	return *g.TargetAmount, nil
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := req.target()
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.AddGoal(r.Context(), sanitizeInput(req.Name), target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := req.target()
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.UpdateGoal(r.Context(), chi.URLParam(r, "id"), sanitizeInput(req.Name), target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAllocateToGoal(w http.ResponseWriter, r *http.Request) {
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
	g, err := s.svc.AllocateToGoal(r.Context(), chi.URLParam(r, "id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
