// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inkwell"

// Metrics holds Prometheus metrics for the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RewardsTotal    *prometheus.CounterVec
	CoinsAwarded    *prometheus.CounterVec
	BadgesAwarded   *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every instrument on reg. Pass prometheus.NewRegistry() in tests.
func New(serviceName string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RewardsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "rewards_total",
				Help:      "Reward events by event type and outcome",
			},
			[]string{"event", "status"},
		),
		CoinsAwarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "coins_awarded_total",
				Help:      "Coins granted, by event type",
			},
			[]string{"event"},
		),
		BadgesAwarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "badges_awarded_total",
				Help:      "Badges newly earned",
			},
			[]string{"badge"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "store_errors_total",
				Help:      "Failed document store calls by operation",
			},
			[]string{"op"},
		),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveReward counts a reward outcome and the coins it granted.
func (m *Metrics) ObserveReward(event, status string, coins int) {
	if m == nil {
		return
	}
	m.RewardsTotal.WithLabelValues(event, status).Inc()
	if coins > 0 {
		m.CoinsAwarded.WithLabelValues(event).Add(float64(coins))
	}
}

// ObserveBadge counts a newly earned badge.
func (m *Metrics) ObserveBadge(id string) {
	if m == nil {
		return
	}
	m.BadgesAwarded.WithLabelValues(id).Inc()
}

// ObserveStoreError counts a failed store call.
func (m *Metrics) ObserveStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
