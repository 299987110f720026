package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process, registered on their own registry
type Metrics struct {
	registry *prometheus.Registry

	PagesFetchedTotal  prometheus.Counter
	PageDurationMs     prometheus.Histogram
	StoreErrorsTotal   prometheus.Counter
	LoadSessionsTotal  *prometheus.CounterVec
	LoadedProperties   prometheus.Gauge
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	RequestsTotal      *prometheus.CounterVec
	RequestDurationMs  *prometheus.HistogramVec
	ImportedBatchTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentalmap_catalog_pages_fetched_total",
			Help: "Total number of catalog pages fetched",
		}),
		PageDurationMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentalmap_catalog_page_duration_ms",
			Help:    "Catalog page fetch duration in milliseconds",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
		}),
		StoreErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentalmap_catalog_store_errors_total",
			Help: "Total number of failed or malformed catalog pages",
		}),
		LoadSessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalmap_load_sessions_total",
			Help: "Load sessions by outcome",
		}, []string{"outcome"}),
		LoadedProperties: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rentalmap_loaded_properties",
			Help: "Properties in the published working set",
		}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentalmap_summary_cache_hits_total",
			Help: "Total summary cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentalmap_summary_cache_misses_total",
			Help: "Total summary cache misses",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalmap_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
		RequestDurationMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentalmap_http_request_duration_ms",
			Help:    "HTTP request duration in milliseconds",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
		}, []string{"route"}),
		ImportedBatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalmap_seed_batches_total",
			Help: "Seed import batches by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.PagesFetchedTotal,
		m.PageDurationMs,
		m.StoreErrorsTotal,
		m.LoadSessionsTotal,
		m.LoadedProperties,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RequestsTotal,
		m.RequestDurationMs,
		m.ImportedBatchTotal,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PageFetched(d time.Duration) {
	m.PagesFetchedTotal.Inc()
	m.PageDurationMs.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) StoreFailed() {
	m.StoreErrorsTotal.Inc()
}

// SessionFinished records the outcome of a load session: complete, failed or cancelled
func (m *Metrics) SessionFinished(outcome string) {
	m.LoadSessionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetLoaded(n int) {
	m.LoadedProperties.Set(float64(n))
}

func (m *Metrics) CacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) CacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDurationMs.WithLabelValues(route).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) BatchImported(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.ImportedBatchTotal.WithLabelValues(outcome).Inc()
}
