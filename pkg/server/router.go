package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthResponse describes the payload returned by the /healthz endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Option customizes the router built by NewRouter.
type Option func(*routerOptions)

type routerOptions struct {
	version     string
	middlewares []func(http.Handler) http.Handler
	metrics     http.Handler
	timeout     time.Duration
}

// WithVersion sets the version reported by /healthz.
func WithVersion(version string) Option {
	return func(o *routerOptions) { o.version = version }
}

// WithMiddleware appends middleware after the defaults.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(o *routerOptions) { o.middlewares = append(o.middlewares, mw...) }
}

// WithMetricsHandler exposes h unauthenticated at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *routerOptions) { o.metrics = h }
}

// WithTimeout overrides the per-request timeout middleware.
func WithTimeout(d time.Duration) Option {
	return func(o *routerOptions) { o.timeout = d }
}

// NewRouter returns a chi router pre-configured with default middleware and a health endpoint.
func NewRouter(service string, register func(r chi.Router), opts ...Option) *chi.Mux {
	options := routerOptions{version: "v0.0.1", timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(&options)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(options.timeout))
	for _, mw := range options.middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: service, Version: options.version})
	})
	if options.metrics != nil {
		r.Method(http.MethodGet, "/metrics", options.metrics)
	}

	if register != nil {
		register(r)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
