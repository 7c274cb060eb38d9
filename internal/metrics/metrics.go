package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the backend's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	wsActiveConnections prometheus.Gauge
	wsEventsTotal       *prometheus.CounterVec
	pushTotal           *prometheus.CounterVec
	matchesAssigned     prometheus.Counter
}

// New creates and registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aponte_http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aponte_http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		wsActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aponte_ws_active_connections",
			Help: "Number of connected realtime clients.",
		}),
		wsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aponte_ws_events_total",
				Help: "Realtime events delivered, by type.",
			},
			[]string{"event"},
		),
		pushTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aponte_push_notifications_total",
				Help: "APNs pushes attempted, by result.",
			},
			[]string{"result"},
		),
		matchesAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aponte_matches_assigned_total",
			Help: "Daily matches created.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.wsActiveConnections,
		m.wsEventsTotal,
		m.pushTotal,
		m.matchesAssigned,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency per chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) WSConnected() {
	if m != nil {
		m.wsActiveConnections.Inc()
	}
}

func (m *Metrics) WSDisconnected() {
	if m != nil {
		m.wsActiveConnections.Dec()
	}
}

func (m *Metrics) WSEvent(event string) {
	if m != nil {
		m.wsEventsTotal.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) Push(result string) {
	if m != nil {
		m.pushTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) MatchAssigned() {
	if m != nil {
		m.matchesAssigned.Inc()
	}
}
