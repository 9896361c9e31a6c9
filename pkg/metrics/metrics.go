package metrics

import (
	"time"
)

// Run status label values
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// RunStarted marks a clustering run as in flight
func (r *Registry) RunStarted() {
	r.RunsInFlight.Inc()
}

// RecordRun records a finished clustering run
func (r *Registry) RecordRun(status string, duration time.Duration, iterations int) {
	r.RunsInFlight.Dec()
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		r.RunIterations.Observe(float64(iterations))
	}
}

// RecordOutcome records the size and quality of a finished partition
func (r *Registry) RecordOutcome(communities int64, modularity float64) {
	r.RunCommunities.Set(float64(communities))
	r.RunModularity.Set(modularity)
}

// RecordPhase records the duration of one algorithm phase
func (r *Registry) RecordPhase(phase string, duration time.Duration) {
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordMoves adds local move activity
func (r *Registry) RecordMoves(moves int64) {
	if moves > 0 {
		r.NodeMovesTotal.Add(float64(moves))
	}
}

// RecordMerges adds refinement merge activity
func (r *Registry) RecordMerges(merges int64) {
	if merges > 0 {
		r.RefinementMergesTotal.Add(float64(merges))
	}
}

// SetLevelNodes sets the node count of the level being processed
func (r *Registry) SetLevelNodes(nodes int64) {
	r.LevelNodes.Set(float64(nodes))
}

// RecordGraphLoad records a graph load from the given source
func (r *Registry) RecordGraphLoad(source, status string, duration time.Duration, nodes, relationships int64) {
	r.GraphLoadsTotal.WithLabelValues(source, status).Inc()
	r.GraphLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if status == StatusSuccess {
		r.GraphNodesTotal.Set(float64(nodes))
		r.GraphRelationshipsTotal.Set(float64(relationships))
	}
}

// SetPoolWorkers records the size of the worker pool a run executes on
func (r *Registry) SetPoolWorkers(workers int) {
	r.PoolWorkers.Set(float64(workers))
}
