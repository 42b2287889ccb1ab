package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/authornet/pkg/observability"
)

// Namespace prefixes every exported metric.
const Namespace = "authornet"

// Metrics collects prometheus metrics on a private registry. It implements
// every hook interface in [observability] so the scene, render, cache and
// session layers report into it once [Metrics.Install] has run.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Transitions        *prometheus.CounterVec
	TransitionDuration *prometheus.HistogramVec
	SelectionSize      prometheus.Gauge
	LayoutSettled      *prometheus.CounterVec
	LayoutTicks        *prometheus.HistogramVec

	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec

	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	LiveSessions     *prometheus.GaugeVec
	SessionsOpened   *prometheus.CounterVec
	SessionLifetime  *prometheus.HistogramVec
	WebsocketClients prometheus.Gauge
	EventsDropped    prometheus.Counter
}

// NewMetrics creates a collector with all metrics registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transitions_total",
			Help:      "Selection events applied, by kind and outcome",
		}, []string{"kind", "noop"}),
		TransitionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time to apply one selection event",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}, []string{"kind"}),
		SelectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "selection_size",
			Help:      "Selection size after the most recent event",
		}),
		LayoutSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "layout_settled_total",
			Help:      "Layouts that came to rest",
		}, []string{"engine"}),
		LayoutTicks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "layout_ticks",
			Help:      "Ticks a layout needed to come to rest",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 8),
		}, []string{"engine"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "renders_total",
			Help:      "Static exports, by format and status",
		}, []string{"format", "status"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "render_duration_seconds",
			Help:      "Static export duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups, by key type and result",
		}, []string{"key_type", "result"}),
		CacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache",
		}, []string{"key_type"}),
		LiveSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "live_sessions",
			Help:      "Sessions with a running scene loop",
		}, []string{"backend"}),
		SessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_opened_total",
			Help:      "Sessions started or revived",
		}, []string{"backend"}),
		SessionLifetime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "session_lifetime_seconds",
			Help:      "Time a session stayed live",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"backend"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "websocket_events_rate_limited_total",
			Help:      "Inbound websocket events rejected by the rate limiter",
		}),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Transitions,
		m.TransitionDuration,
		m.SelectionSize,
		m.LayoutSettled,
		m.LayoutTicks,
		m.Renders,
		m.RenderDuration,
		m.CacheRequests,
		m.CacheBytes,
		m.LiveSessions,
		m.SessionsOpened,
		m.SessionLifetime,
		m.WebsocketClients,
		m.EventsDropped,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Install registers m as the global hook implementation for every category.
// Call [observability.Reset] to undo.
func (m *Metrics) Install() {
	observability.SetSelectionHooks(m)
	observability.SetRenderHooks(m)
	observability.SetCacheHooks(m)
	observability.SetSessionHooks(m)
}

// Middleware records request counts and durations by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern keeps label cardinality bounded by using the matched chi
// pattern instead of the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// =============================================================================
// Hook Implementations
// =============================================================================

func (m *Metrics) OnTransition(_ context.Context, kind string, noop bool, selected int, d time.Duration) {
	m.Transitions.WithLabelValues(kind, strconv.FormatBool(noop)).Inc()
	m.TransitionDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.SelectionSize.Set(float64(selected))
}

func (m *Metrics) OnLayoutSettled(_ context.Context, engine string, ticks int) {
	m.LayoutSettled.WithLabelValues(engine).Inc()
	m.LayoutTicks.WithLabelValues(engine).Observe(float64(ticks))
}

func (m *Metrics) OnRenderStart(context.Context, string, int) {}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Renders.WithLabelValues(format, status).Inc()
	m.RenderDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnSessionOpen(_ context.Context, backend string) {
	m.SessionsOpened.WithLabelValues(backend).Inc()
	m.LiveSessions.WithLabelValues(backend).Inc()
}

func (m *Metrics) OnSessionClose(_ context.Context, backend string, lifetime time.Duration) {
	m.LiveSessions.WithLabelValues(backend).Dec()
	m.SessionLifetime.WithLabelValues(backend).Observe(lifetime.Seconds())
}
