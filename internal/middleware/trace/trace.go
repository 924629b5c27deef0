// Package trace tags each request with an id and writes one access log
// line per request.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	applog "anggaran/internal/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey struct{}

// Middleware handles request tracing
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.Logger
	metrics   *Metrics
}

// Metrics tracks basic request metrics
type Metrics struct {
	mu            sync.Mutex
	TotalRequests int64
	ErrorRequests int64
	AvgDuration   time.Duration
}

func NewMiddleware(extractIP func(*http.Request) string, logger *applog.Logger) *Middleware {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		metrics:   &Metrics{},
	}
}

// Handler assigns a request id, stores a request-scoped logger in the
// context and logs the response.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		reqLogger := m.logger.With(applog.NewFields().
			WithRequestID(requestID).
			WithClientIP(clientIP).
			ToSlice()...)

		ctx := context.WithValue(r.Context(), contextKey{}, requestID)
		ctx = applog.IntoContext(ctx, reqLogger)
		r = r.WithContext(ctx)

		w.Header().Set(HeaderRequestID, requestID)
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		m.metrics.record(duration, wrapped.statusCode)

		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
			WithHTTPResponse(wrapped.statusCode, duration.Milliseconds()).
			ToSlice()
		switch {
		case wrapped.statusCode >= 500:
			reqLogger.ErrorContext(ctx, "request completed", fields...)
		case wrapped.statusCode >= 400:
			reqLogger.WarnContext(ctx, "request completed", fields...)
		default:
			reqLogger.InfoContext(ctx, "request completed", fields...)
		}
	})
}

func (m *Metrics) record(d time.Duration, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	if status >= 400 {
		m.ErrorRequests++
	}
	m.AvgDuration += (d - m.AvgDuration) / time.Duration(m.TotalRequests)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a random request ID
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req_" + time.Now().Format("20060102150405.000000")
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// Snapshot is a copy of the metrics safe to read concurrently.
type Snapshot struct {
	TotalRequests int64
	ErrorRequests int64
	AvgDuration   time.Duration
}

func (m *Middleware) GetMetrics() Snapshot {
	m.metrics.mu.Lock()
	defer m.metrics.mu.Unlock()
	return Snapshot{
		TotalRequests: m.metrics.TotalRequests,
		ErrorRequests: m.metrics.ErrorRequests,
		AvgDuration:   m.metrics.AvgDuration,
	}
}
