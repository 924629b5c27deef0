package http

import (
	"net/http"

	"anggaran/internal/core"
	"anggaran/internal/ledger"
)

func (s *Server) handleRolloverStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.CheckRollover(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleConfirmRollover(w http.ResponseWriter, r *http.Request) {
	var opts ledger.RolloverOptions
	if err := decodeJSON(r, &opts, true); err != nil {
		writeError(w, r, err)
		return
	}
	archived, err := s.svc.ConfirmRollover(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Archive *core.MonthlyArchive `json:"archive"`
	}{archived})
}

func (s *Server) handleSkipRollover(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SkipRollover(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveNow(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.ArchiveNow(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleArchives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Archives())
}

func (s *Server) handleReportMonths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.AvailableMonths())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseMonthRange(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Report(rng.Start, rng.End)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Export(r.Context())
	NewJSONResponse().
		Header("Content-Disposition", `attachment; filename="anggaran-`+core.DateOf(s.now()).String()+`.json"`).
		Body(snap).
		Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Import(r.Context(), data); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.State())
}
