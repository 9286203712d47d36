package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the advisor.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec // labels: endpoint, status
	PipelineDur     *prometheus.HistogramVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	FetchFailures   *prometheus.CounterVec // labels: provider
	Recommendations *prometheus.CounterVec // labels: type
	FallbackRates   prometheus.Counter
	LastPrice       prometheus.Gauge
}

// New creates the metrics on a private registry so tests can build as many
// instances as they need.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_requests_total",
			Help: "Requests handled, by endpoint and result status",
		}, []string{"endpoint", "status"}),
		PipelineDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_pipeline_duration_seconds",
			Help:    "End-to-end pipeline latency including the market data fetch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"pipeline"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_series_cache_hits_total",
			Help: "Raw series served from cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_series_cache_misses_total",
			Help: "Raw series fetched upstream",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_fetch_failures_total",
			Help: "Upstream market data failures",
		}, []string{"provider"}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_recommendations_total",
			Help: "Recommendations emitted, by type",
		}, []string{"type"}),
		FallbackRates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_currency_fallback_total",
			Help: "Conversions served from the configured fallback rate",
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_last_price",
			Help: "Latest normalized price of the analyzed symbol",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.PipelineDur,
		m.CacheHits,
		m.CacheMisses,
		m.FetchFailures,
		m.Recommendations,
		m.FallbackRates,
		m.LastPrice,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObservePipeline records the duration since start under the given pipeline name.
func (m *Metrics) ObservePipeline(name string, start time.Time) {
	m.PipelineDur.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// HealthReport is the encoded form of HealthStatus.
type HealthReport struct {
	CacheBackend  string    `json:"cache_backend"`
	StoreBackend  string    `json:"store_backend"`
	LastFetchOK   bool      `json:"last_fetch_ok"`
	LastFetchAt   time.Time `json:"last_fetch_at"`
	LastAnalysis  time.Time `json:"last_analysis"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// HealthStatus tracks collaborator health for the /health endpoint.
type HealthStatus struct {
	mu     sync.RWMutex
	report HealthReport
}

// NewHealthStatus returns a health status stamped with the start time.
func NewHealthStatus(cacheBackend, storeBackend string) *HealthStatus {
	return &HealthStatus{report: HealthReport{
		CacheBackend: cacheBackend,
		StoreBackend: storeBackend,
		StartedAt:    time.Now(),
	}}
}

func (h *HealthStatus) SetFetch(ok bool) {
	h.mu.Lock()
	h.report.LastFetchOK = ok
	h.report.LastFetchAt = time.Now()
	h.mu.Unlock()
}

func (h *HealthStatus) SetAnalysis(t time.Time) {
	h.mu.Lock()
	h.report.LastAnalysis = t
	h.mu.Unlock()
}

// Snapshot returns the current report.
func (h *HealthStatus) Snapshot() HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r := h.report
	r.UptimeSeconds = time.Since(r.StartedAt).Seconds()
	return r
}
