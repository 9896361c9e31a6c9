package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Run Metrics
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	RunIterations  prometheus.Histogram
	RunsInFlight   prometheus.Gauge
	RunCommunities prometheus.Gauge
	RunModularity  prometheus.Gauge

	// Phase Metrics
	PhaseDuration         *prometheus.HistogramVec
	NodeMovesTotal        prometheus.Counter
	RefinementMergesTotal prometheus.Counter
	LevelNodes            prometheus.Gauge

	// Graph Metrics
	GraphNodesTotal         prometheus.Gauge
	GraphRelationshipsTotal prometheus.Gauge
	GraphLoadsTotal         *prometheus.CounterVec
	GraphLoadDuration       *prometheus.HistogramVec

	// System Metrics; Go runtime and process stats come from the
	// client_golang collectors registered alongside.
	UptimeSeconds prometheus.GaugeFunc
	PoolWorkers   prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		started:  time.Now(),
	}

	r.initRunMetrics()
	r.initPhaseMetrics()
	r.initGraphMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
