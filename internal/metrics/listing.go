package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Listing Prometheus metrics, labeled by dataset.
var (
	IndexBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "listdex",
			Name:      "index_build_duration_seconds",
			Help:      "Snapshot load plus index build duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"dataset"},
	)

	DatasetRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "listdex",
			Name:      "dataset_records",
			Help:      "Records in the current snapshot",
		},
		[]string{"dataset"},
	)

	DatasetGeneration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "listdex",
			Name:      "dataset_generation",
			Help:      "Generation of the current snapshot",
		},
		[]string{"dataset"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "listdex",
			Name:      "query_duration_seconds",
			Help:      "Query execution duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"dataset"},
	)

	RefreshFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "listdex",
			Name:      "refresh_failures_total",
			Help:      "Total failed snapshot loads",
		},
		[]string{"dataset"},
	)
)

var listingMetricsRegistered bool

// RegisterListingMetrics registers Prometheus listing metrics. Must be called once from main.
func RegisterListingMetrics() {
	if listingMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(DatasetRecords)
	prometheus.MustRegister(DatasetGeneration)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(RefreshFailuresTotal)
	listingMetricsRegistered = true
}

// Listing implements the listing service's metrics hooks.
type Listing struct{}

// ObserveBuild records a successful snapshot swap.
func (Listing) ObserveBuild(dataset string, d time.Duration, records int, generation uint64) {
	IndexBuildDuration.WithLabelValues(dataset).Observe(d.Seconds())
	DatasetRecords.WithLabelValues(dataset).Set(float64(records))
	DatasetGeneration.WithLabelValues(dataset).Set(float64(generation))
}

// ObserveRefreshFailure counts a failed snapshot load.
func (Listing) ObserveRefreshFailure(dataset string) {
	RefreshFailuresTotal.WithLabelValues(dataset).Inc()
}

// ObserveQuery records one query execution.
func (Listing) ObserveQuery(dataset string, d time.Duration) {
	QueryDuration.WithLabelValues(dataset).Observe(d.Seconds())
}
