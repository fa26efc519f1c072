package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReward(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.ObserveReward("story_submitted", "granted", 10)
	m.ObserveReward("story_submitted", "already_claimed", 0)
	m.ObserveReward("story_submitted", "granted", 25)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RewardsTotal.WithLabelValues("story_submitted", "granted")))
	assert.Equal(t, 35.0, testutil.ToFloat64(m.CoinsAwarded.WithLabelValues("story_submitted")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveReward("x", "y", 1)
	m.ObserveBadge("first-story")
	m.ObserveStoreError("get")

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/stories/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stories/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/v1/stories/{id}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "inkwell_test_http_requests_total"))
}
