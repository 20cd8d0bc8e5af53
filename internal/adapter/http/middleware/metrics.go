package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request counts and durations labelled by route.
func Metrics(requests *prometheus.CounterVec, duration *prometheus.HistogramVec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := routeLabel(r)
			requests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// routeLabel prefers the matched chi pattern and falls back to normalizePath.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces identifiers in URL paths to avoid high cardinality.
//
//	/api/v1/postings/01ABC/reverse   -> /api/v1/postings/{id}/reverse
//	/api/v1/owners/branch:B1/balance -> /api/v1/owners/{owner}/balance
//	/api/v1/periods/mission/2024/6   -> /api/v1/periods/{owner}/{year}/{month}
func normalizePath(path string) string {
	const prefix = "/api/v1/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}

	parts := strings.Split(strings.TrimPrefix(path, prefix), "/")
	if len(parts) < 2 || parts[1] == "" {
		return path
	}

	switch parts[0] {
	case "postings":
		if !isPostingCollection(parts[1]) {
			parts[1] = "{id}"
		}
	case "owners":
		parts[1] = "{owner}"
	case "periods":
		parts[1] = "{owner}"
		if len(parts) >= 4 {
			parts[2] = "{year}"
			parts[3] = "{month}"
		}
	}

	return prefix + strings.Join(parts, "/")
}

func isPostingCollection(segment string) bool {
	switch segment {
	case "contributions", "remittances", "expenditures", "commissions",
		"donations", "opening-balances", "adjustments":
		return true
	}
	return false
}
