package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newHTTPMetrics() (*prometheus.CounterVec, *prometheus.HistogramVec) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "requests"}, []string{"method", "path", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "duration"}, []string{"method", "path"})
	return requests, duration
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	requests, duration := newHTTPMetrics()

	r := chi.NewRouter()
	r.Use(Metrics(requests, duration))
	r.Get("/api/v1/owners/{owner}/balance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/owners/branch:B1/balance", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/owners/branch:B2/balance", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(requests.WithLabelValues(http.MethodGet, "/api/v1/owners/{owner}/balance", "418")))
	assert.Equal(t, 1, testutil.CollectAndCount(duration))
}

func TestMetricsMiddleware_FallsBackToNormalizedPath(t *testing.T) {
	requests, duration := newHTTPMetrics()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	Metrics(requests, duration)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/postings/01ABC/reverse", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues(http.MethodPost, "/api/v1/postings/{id}/reverse", "201")))
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/api/v1/postings/01ABC", "/api/v1/postings/{id}"},
		{"/api/v1/postings/01ABC/entries", "/api/v1/postings/{id}/entries"},
		{"/api/v1/postings/contributions", "/api/v1/postings/contributions"},
		{"/api/v1/owners/branch:B1/position", "/api/v1/owners/{owner}/position"},
		{"/api/v1/periods/mission/2024/6/close", "/api/v1/periods/{owner}/{year}/{month}/close"},
		{"/api/v1/periods/mission", "/api/v1/periods/{owner}"},
		{"/api/v1/ledger/consistency", "/api/v1/ledger/consistency"},
		{"/health", "/health"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, normalizePath(tc.input))
		})
	}
}
