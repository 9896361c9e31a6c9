package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "leiden_runs_total",
			Help: "Total number of clustering runs",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leiden_run_duration_seconds",
			Help:    "Clustering run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
	)

	r.RunIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leiden_run_iterations",
			Help:    "Number of levels processed per run",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	r.RunsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_runs_in_flight",
			Help: "Number of clustering runs currently executing",
		},
	)

	r.RunCommunities = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_last_run_communities",
			Help: "Number of distinct communities produced by the last completed run",
		},
	)

	r.RunModularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_last_run_modularity",
			Help: "Modularity of the final partition of the last completed run",
		},
	)
}
