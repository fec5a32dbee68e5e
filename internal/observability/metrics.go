// Package observability provides Prometheus metrics for the service.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the shared registry and the per-domain metric groups.
type Metrics struct {
	registry *prometheus.Registry
	Weather  *WeatherMetrics
	Risk     *RiskMetrics
}

// NewMetrics creates a registry with all application metrics registered.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	weather, err := NewWeatherMetrics(registry)
	if err != nil {
		return nil, err
	}
	risk, err := NewRiskMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry: registry,
		Weather:  weather,
		Risk:     risk,
	}, nil
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WeatherMetrics contains Prometheus metrics for weather window retrieval.
type WeatherMetrics struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheHits     prometheus.Counter
}

// NewWeatherMetrics creates and registers the weather metrics.
func NewWeatherMetrics(registry *prometheus.Registry) (*WeatherMetrics, error) {
	m := &WeatherMetrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_fetches_total",
				Help: "Total number of weather window fetch operations",
			},
			[]string{"provider", "status"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weather_fetch_duration_seconds",
				Help:    "Duration of weather window fetch operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "weather_window_cache_hits_total",
				Help: "Total number of weather windows served from the in-process cache",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.fetchesTotal, m.fetchDuration, m.cacheHits} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordFetch records a fetch attempt outcome ("success" or "error").
func (m *WeatherMetrics) RecordFetch(provider, status string) {
	m.fetchesTotal.WithLabelValues(provider, status).Inc()
}

// RecordFetchDuration records the duration of a fetch attempt.
func (m *WeatherMetrics) RecordFetchDuration(provider string, seconds float64) {
	m.fetchDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheHit records a weather window served from cache.
func (m *WeatherMetrics) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RiskMetrics contains Prometheus metrics for the risk pipeline.
type RiskMetrics struct {
	inferencesTotal    *prometheus.CounterVec
	inferenceDuration  prometheus.Histogram
	reportCacheLookups *prometheus.CounterVec
	regionSkipsTotal   *prometheus.CounterVec
}

// NewRiskMetrics creates and registers the risk pipeline metrics.
func NewRiskMetrics(registry *prometheus.Registry) (*RiskMetrics, error) {
	m := &RiskMetrics{
		inferencesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_inferences_total",
				Help: "Total number of model inference calls",
			},
			[]string{"status"},
		),
		inferenceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "risk_inference_duration_seconds",
				Help:    "Duration of model inference calls",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		reportCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_report_cache_lookups_total",
				Help: "Daily report cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		regionSkipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_region_skips_total",
				Help: "Regions skipped during a compute batch by pipeline stage",
			},
			[]string{"stage"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.inferencesTotal, m.inferenceDuration, m.reportCacheLookups, m.regionSkipsTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordInference records one inference call outcome ("success" or "error").
func (m *RiskMetrics) RecordInference(status string, seconds float64) {
	m.inferencesTotal.WithLabelValues(status).Inc()
	m.inferenceDuration.Observe(seconds)
}

// RecordCacheLookup records a daily report cache lookup result.
func (m *RiskMetrics) RecordCacheLookup(result string) {
	m.reportCacheLookups.WithLabelValues(result).Inc()
}

// RecordRegionSkip records a region skipped during compute.
func (m *RiskMetrics) RecordRegionSkip(stage string) {
	m.regionSkipsTotal.WithLabelValues(stage).Inc()
}
