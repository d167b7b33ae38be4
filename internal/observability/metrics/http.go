package metrics

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

type AdminMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	actionsTotal     *prometheus.CounterVec
	activeSessions   prometheus.GaugeFunc
}

// NewAdminMetrics registers everything on a private registry. sessions, when set, backs
// the active sessions gauge.
func NewAdminMetrics(service string, sessions func() int) *AdminMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus_admin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "corpus_admin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "corpus_admin",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	upstreamTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus_admin",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Corpus API calls by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	upstreamDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "corpus_admin",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Corpus API call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
	actionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus_admin",
			Subsystem: "actions",
			Name:      "total",
			Help:      "Operator actions against the corpus by outcome.",
		},
		[]string{"service", "action", "outcome"},
	)
	if sessions == nil {
		sessions = func() int { return 0 }
	}
	activeSessions := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "corpus_admin",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Operator sessions currently held in memory.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		func() float64 { return float64(sessions()) },
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		upstreamTotal,
		upstreamDuration,
		actionsTotal,
		activeSessions,
	)

	return &AdminMetrics{
		registry:         registry,
		service:          service,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		upstreamTotal:    upstreamTotal,
		upstreamDuration: upstreamDuration,
		actionsTotal:     actionsTotal,
		activeSessions:   activeSessions,
	}
}

func (m *AdminMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *AdminMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case path == "/documents/export.xlsx" || path == "/documents/refresh":
		return path
	case strings.HasPrefix(path, "/documents/") && strings.HasSuffix(path, "/delete"):
		return "/documents/{id}/delete"
	case strings.HasPrefix(path, "/static/"):
		return "/static/*"
	default:
		return path
	}
}

// ObserveUpstreamCall satisfies corpusapi.CallObserver.
func (m *AdminMetrics) ObserveUpstreamCall(operation, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.upstreamTotal.WithLabelValues(m.service, operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
}

// Record counts audit events so the metrics can sit in the audit fan-out.
func (m *AdminMetrics) Record(_ context.Context, event domain.AuditEvent) error {
	action := string(event.Action)
	if action == "" {
		action = "unknown"
	}
	m.actionsTotal.WithLabelValues(m.service, action, string(event.Outcome)).Inc()
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
