// Package metrics exposes Prometheus instrumentation for search traffic and
// index builds. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "regindex"

// Metrics holds the collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	searches      prometheus.Counter
	searchHits    prometheus.Histogram
	quotes        *prometheus.CounterVec
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
}

// New creates the collectors and a registry holding them plus the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Keyword searches served.",
		}),
		searchHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_hits",
			Help:      "Hits returned per search.",
			Buckets:   []float64{0, 1, 2, 4, 8, 12, 20},
		}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_requests_total",
			Help:      "Quote lookups by outcome.",
		}, []string{"result"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_jobs_total",
			Help:      "Finished index build jobs by final status.",
		}, []string{"status"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of index build jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searches,
		m.searchHits,
		m.quotes,
		m.builds,
		m.buildDuration,
	)
	return m
}

// TrackIndexSize registers a gauge reporting the live chunk count.
func (m *Metrics) TrackIndexSize(chunks func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_chunks",
		Help:      "Chunks in the live index.",
	}, func() float64 { return float64(chunks()) }))
}

// ObserveSearch records one search and its hit count.
func (m *Metrics) ObserveSearch(hits int) {
	if m == nil {
		return
	}
	m.searches.Inc()
	m.searchHits.Observe(float64(hits))
}

// ObserveQuote records one quote lookup.
func (m *Metrics) ObserveQuote(found bool) {
	if m == nil {
		return
	}
	result := "missing"
	if found {
		result = "found"
	}
	m.quotes.WithLabelValues(result).Inc()
}

// ObserveBuild records a finished build job.
func (m *Metrics) ObserveBuild(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(status).Inc()
	m.buildDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
