package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPhaseMetrics() {
	r.PhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leiden_phase_duration_seconds",
			Help:    "Duration of a single algorithm phase in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60},
		},
		[]string{"phase"},
	)

	r.NodeMovesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "leiden_node_moves_total",
			Help: "Total number of node moves performed by local move phases",
		},
	)

	r.RefinementMergesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "leiden_refinement_merges_total",
			Help: "Total number of singleton merges performed by refinement phases",
		},
	)

	r.LevelNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_level_nodes",
			Help: "Node count of the graph currently being processed",
		},
	)
}
