package http

import (
	"fmt"
	"net/http"
)

// handleMetrics renders request and rate limit counters in Prometheus text
// format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requests, limits := s.Metrics()
	uptime := s.now().Sub(s.started)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", requests.TotalRequests)

	fmt.Fprintf(w, "# HELP http_request_errors_total HTTP requests answered with a 4xx or 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_request_errors_total counter\n")
	fmt.Fprintf(w, "http_request_errors_total %d\n\n", requests.ErrorRequests)

	fmt.Fprintf(w, "# HELP http_request_duration_avg_seconds Running average request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_avg_seconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_avg_seconds %.6f\n\n", requests.AvgDuration.Seconds())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Write requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", limits.TotalHits)

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Clients currently tracked by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n\n", limits.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Time since the server was created\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}
