package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts pages written into a result slot, probe included.
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crunchbase_pages_fetched_total",
			Help: "Total number of result pages fetched by endpoint",
		},
		[]string{"endpoint"},
	)

	// FetchDuration tracks wall time of complete multi-page fetches.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crunchbase_fetch_duration_seconds",
			Help:    "Duration of complete paginated fetches in seconds by endpoint",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	// FetchFailures counts fetches that ended without a result.
	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crunchbase_fetch_failures_total",
			Help: "Total number of paginated fetches that failed by endpoint",
		},
		[]string{"endpoint"},
	)

	// ActiveWorkers is the number of page workers currently running.
	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crunchbase_active_workers",
			Help: "Number of page fetch workers currently running",
		},
	)
)
