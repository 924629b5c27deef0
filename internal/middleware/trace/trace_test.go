package trace

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "anggaran/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := applog.New(applog.Config{Format: "json", Output: buf})
	return NewMiddleware(func(*http.Request) string { return "203.0.113.1" }, logger)
}

func TestHandlerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var seen string
	var ctxLogger *applog.Logger
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ctxLogger = applog.FromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/expenses?x=1", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seen)
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
	if ctxLogger == nil || ctxLogger.Component() != applog.ComponentHTTP {
		t.Error("expected request-scoped logger in context")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry[applog.FieldRequestID] != seen {
		t.Errorf("logged request id = %v", entry[applog.FieldRequestID])
	}
	if entry[applog.FieldStatusCode] != float64(http.StatusCreated) {
		t.Errorf("logged status = %v", entry[applog.FieldStatusCode])
	}
	if entry[applog.FieldClientIP] != "203.0.113.1" {
		t.Errorf("logged client ip = %v", entry[applog.FieldClientIP])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestHandlerKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestHandlerLevelsAndMetrics(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	for _, tt := range tests {
		buf.Reset()
		h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if entry["level"] != tt.level {
			t.Errorf("status %d logged at %v, want %s", tt.status, entry["level"], tt.level)
		}
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 || got.ErrorRequests != 2 {
		t.Errorf("metrics = %+v", got)
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
