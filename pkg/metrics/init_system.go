package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSystemMetrics() {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "leiden"}),
	)

	r.UptimeSeconds = promauto.With(r.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "leiden_uptime_seconds",
			Help: "Time since the registry was created in seconds",
		},
		func() float64 { return time.Since(r.started).Seconds() },
	)

	r.PoolWorkers = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_worker_pool_workers",
			Help: "Workers of the pool used by the most recent run",
		},
	)
}
