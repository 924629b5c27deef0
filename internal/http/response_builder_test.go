package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"anggaran/internal/core"
	"anggaran/internal/ledger"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header not set")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.String() != "{\"n\":1}\n" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("status=%d body=%q", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("Content-Type should not be set without a body")
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", core.ErrInvalidAmount, http.StatusUnprocessableEntity, "validation"},
		{"wrapped validation", fmt.Errorf("add: %w", core.ErrEmptyName), http.StatusUnprocessableEntity, "validation"},
		{"not found", core.NotFound("expense", "e1"), http.StatusNotFound, "not_found"},
		{"in use", &core.InUseError{Kind: "source", ID: "s1", Count: 2}, http.StatusConflict, "in_use"},
		{"insufficient", &core.InsufficientFundsError{ID: "s1"}, http.StatusConflict, "insufficient_funds"},
		{"import", &core.ImportError{Reason: "bad"}, http.StatusBadRequest, "import_rejected"},
		{"undo expired", ledger.ErrUndoExpired, http.StatusGone, "undo_expired"},
		{"undo used", ledger.ErrUndoUsed, http.StatusConflict, "undo_used"},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "too_large"},
		{"malformed", fmt.Errorf("%w: eof", errMalformedBody), http.StatusBadRequest, "bad_request"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			errorFor(tt.err).Write(w)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var env errorEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestErrorForHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	errorFor(errors.New("secret path /var/lib")).Write(w)
	var env errorEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if env.Error.Message != "internal server error" {
		t.Errorf("message = %q", env.Error.Message)
	}
}

func TestErrorForValidationField(t *testing.T) {
	w := httptest.NewRecorder()
	errorFor(core.Invalid("allocation", "must be between 0 and 100")).Write(w)
	var env errorEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if env.Error.Field != "allocation" {
		t.Errorf("field = %q", env.Error.Field)
	}
}
