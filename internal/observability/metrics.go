package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_prediction"

// Metrics holds the Prometheus collectors for the prediction service.
type Metrics struct {
	Predictions      *prometheus.CounterVec   // labels: type={rain,precipitation}, outcome={success,error}
	UpstreamRequests *prometheus.CounterVec   // labels: outcome={success,error}
	UpstreamDuration prometheus.Histogram
	HistoryCache     *prometheus.CounterVec   // labels: result={hit,miss}
	SkippedVariables *prometheus.CounterVec   // labels: variable
	ZeroFilled       *prometheus.CounterVec   // labels: type
	FeatureBuild     prometheus.Histogram
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      help("Predictions served by type and outcome."),
		}, []string{"type", "outcome"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      help("Weather archive requests by outcome."),
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      help("Weather archive request duration including retries."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		HistoryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_cache_total",
			Help:      help("History window lookups by cache result."),
		}, []string{"result"}),
		SkippedVariables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_variables_total",
			Help:      help("Catalog variables absent from upstream responses."),
		}, []string{"variable"}),
		ZeroFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zero_filled_features_total",
			Help:      help("Model features absent from the feature row and filled with zero."),
		}, []string{"type"}),
		FeatureBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feature_build_duration_seconds",
			Help:      help("Time spent computing rollups for one feature row."),
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.Predictions,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.HistoryCache,
		m.SkippedVariables,
		m.ZeroFilled,
		m.FeatureBuild,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build
// as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
