package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/examprep-backend/internal/platform/envutil"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// Metrics holds the process collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	transitions        *prometheus.CounterVec
	sweepRuns          *prometheus.CounterVec
	sweepPromoted      prometheus.Counter
	relatedCache       *prometheus.CounterVec
	sessionRevocations *prometheus.CounterVec
	previewVerify      *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

// NewMetrics builds an unshared instance; tests use it to avoid the global.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ep_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ep_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ep_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ep_workflow_transitions_total",
			Help: "Workflow transitions by from/to status and result.",
		}, []string{"from", "to", "result"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ep_sweep_runs_total",
			Help: "Scheduled publication sweeps by result.",
		}, []string{"result"}),
		sweepPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ep_sweep_promoted_total",
			Help: "Documents promoted from scheduled to published.",
		}),
		relatedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ep_related_cache_total",
			Help: "Related-content resolutions by cache result (hit/miss/bypass/degraded).",
		}, []string{"result"}),
		sessionRevocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ep_session_revocations_total",
			Help: "Revoked sessions by reason.",
		}, []string{"reason"}),
		previewVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ep_preview_verifications_total",
			Help: "Preview token verifications by result.",
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ep_events_published_total",
			Help: "Domain events published by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.transitions,
		m.sweepRuns,
		m.sweepPromoted,
		m.relatedCache,
		m.sessionRevocations,
		m.previewVerify,
		m.eventsPublished,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) IncTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, result).Inc()
}

func (m *Metrics) ObserveSweep(promoted int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sweepRuns.WithLabelValues("error").Inc()
		return
	}
	m.sweepRuns.WithLabelValues("ok").Inc()
	m.sweepPromoted.Add(float64(promoted))
}

func (m *Metrics) IncRelatedCache(result string) {
	if m == nil {
		return
	}
	m.relatedCache.WithLabelValues(result).Inc()
}

func (m *Metrics) AddSessionRevocations(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionRevocations.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) IncPreviewVerify(result string) {
	if m == nil {
		return
	}
	m.previewVerify.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEventPublished(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(kind, result).Inc()
}
