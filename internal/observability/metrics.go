package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a pipeline run.
type Metrics struct {
	EntriesScraped  prometheus.Counter
	EntriesSkipped  *prometheus.CounterVec // labels: stage={geocode,climate}
	RowsExported    *prometheus.CounterVec // labels: sink={csv,sqlite,kafka}
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Climate API metrics.
	ClimateRequests    *prometheus.CounterVec // labels: outcome={success,error,retry}
	ClimateAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.EntriesScraped,
		m.EntriesSkipped,
		m.RowsExported,
		m.PipelineRunning,
		m.RunDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.ClimateRequests,
		m.ClimateAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EntriesScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "campus_climate",
			Name:      "entries_scraped_total",
			Help:      "Ranked universities extracted from the ranking pages.",
		}),
		EntriesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus_climate",
			Name:      "entries_skipped_total",
			Help:      "Universities dropped under the skip failure policy, by stage.",
		}, []string{"stage"}),
		RowsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus_climate",
			Name:      "rows_exported_total",
			Help:      "Final table rows written, by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "campus_climate",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "campus_climate",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete scrape-geocode-fetch-export run.",
			Buckets:   []float64{1, 10, 30, 60, 120, 300, 600},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus_climate",
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus_climate",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		ClimateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus_climate",
			Name:      "climate_requests_total",
			Help:      "Climate normals API requests by outcome.",
		}, []string{"outcome"}),
		ClimateAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "campus_climate",
			Name:      "climate_api_duration_seconds",
			Help:      "Climate normals API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
