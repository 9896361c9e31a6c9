package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_graph_nodes_total",
			Help: "Number of nodes in the last loaded input graph",
		},
	)

	r.GraphRelationshipsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_graph_relationships_total",
			Help: "Number of stored arcs in the last loaded input graph",
		},
	)

	r.GraphLoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "leiden_graph_loads_total",
			Help: "Total number of graph loads",
		},
		[]string{"source", "status"},
	)

	r.GraphLoadDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leiden_graph_load_duration_seconds",
			Help:    "Graph load duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
		},
		[]string{"source"},
	)
}
