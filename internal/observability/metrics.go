package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RunsTotal       prometheus.Counter
	RunErrors       prometheus.Counter
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Per-segment processing metrics.
	SegmentsProcessed prometheus.Counter
	SegmentErrors     prometheus.Counter
	SegmentScore      *prometheus.GaugeVec // labels: segment

	// Upstream feed metrics.
	FeedErrors        *prometheus.CounterVec   // labels: feed={destinations,incidents,roadConditions,weatherStations}
	FeedFetchDuration *prometheus.HistogramVec // labels: feed

	// Incident normalization metrics.
	IncidentsNormalized  *prometheus.CounterVec // labels: source={remote,cache,fallback}
	NormalizeAPIDuration prometheus.Histogram
	NormalizeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corridor_vibes",
			Name:      "runs_total",
			Help:      "Total pipeline runs attempted.",
		}),
		RunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corridor_vibes",
			Name:      "run_errors_total",
			Help:      "Total pipeline runs that failed before producing output.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "corridor_vibes",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-reconcile-score-persist cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corridor_vibes",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		SegmentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corridor_vibes",
			Name:      "segments_processed_total",
			Help:      "Total segments scored and persisted across all runs.",
		}),
		SegmentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corridor_vibes",
			Name:      "segment_errors_total",
			Help:      "Total per-segment failures that did not abort the run.",
		}),
		SegmentScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "corridor_vibes",
			Name:      "segment_score",
			Help:      "Most recent vibe score per segment, 0 through 10.",
		}, []string{"segment"}),
		FeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corridor_vibes",
			Name:      "feed_errors_total",
			Help:      "Upstream feed fetch failures by feed name.",
		}, []string{"feed"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corridor_vibes",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Upstream feed request duration by feed name.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"feed"}),
		IncidentsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corridor_vibes",
			Name:      "incidents_normalized_total",
			Help:      "Incident normalizations by source: remote, cache, or fallback.",
		}, []string{"source"}),
		NormalizeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "corridor_vibes",
			Name:      "normalize_api_duration_seconds",
			Help:      "Remote text normalization request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 8, 15},
		}),
		NormalizeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corridor_vibes",
			Name:      "normalize_enabled",
			Help:      "1 when remote incident normalization is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunErrors,
		m.RunDuration,
		m.PipelineRunning,
		m.SegmentsProcessed,
		m.SegmentErrors,
		m.SegmentScore,
		m.FeedErrors,
		m.FeedFetchDuration,
		m.IncidentsNormalized,
		m.NormalizeAPIDuration,
		m.NormalizeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "corridor_vibes", Name: "runs_total"}),
		RunErrors:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "corridor_vibes", Name: "run_errors_total"}),
		RunDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "corridor_vibes", Name: "run_duration_seconds"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "corridor_vibes", Name: "pipeline_running"}),
		SegmentsProcessed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "corridor_vibes", Name: "segments_processed_total"}),
		SegmentErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "corridor_vibes", Name: "segment_errors_total"}),
		SegmentScore:         prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "corridor_vibes", Name: "segment_score"}, []string{"segment"}),
		FeedErrors:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "corridor_vibes", Name: "feed_errors_total"}, []string{"feed"}),
		FeedFetchDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "corridor_vibes", Name: "feed_fetch_duration_seconds"}, []string{"feed"}),
		IncidentsNormalized:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "corridor_vibes", Name: "incidents_normalized_total"}, []string{"source"}),
		NormalizeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "corridor_vibes", Name: "normalize_api_duration_seconds"}),
		NormalizeEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "corridor_vibes", Name: "normalize_enabled"}),
	}
}
