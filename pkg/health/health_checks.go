package health

import (
	"context"
	"runtime"
	"sync/atomic"
)

// PingCheck reports a dependency as unhealthy when ping fails.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		if err := ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy, Message: "Connected"}
	}
}

// MemoryCheck reports degraded when allocated heap exceeds 90% of memory
// obtained from the OS. A nil getUsage reads runtime.MemStats.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	if getUsage == nil {
		getUsage = func() (uint64, uint64) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return m.Alloc, m.Sys
		}
	}
	return func(context.Context) Check {
		alloc, sys := getUsage()
		check := Check{
			Status: StatusHealthy,
			Details: map[string]any{
				"alloc_bytes": alloc,
				"sys_bytes":   sys,
			},
			Message: "Memory usage normal",
		}
		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}

// Stage is the lifecycle position of a clustering run.
type Stage int32

const (
	StageStarting Stage = iota
	StageLoading
	StageClustering
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStarting:
		return "starting"
	case StageLoading:
		return "loading"
	case StageClustering:
		return "clustering"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunState tracks the stage of a run for readiness reporting. It is safe
// for concurrent use.
type RunState struct {
	stage atomic.Int32
}

// Set records the current stage.
func (r *RunState) Set(s Stage) {
	r.stage.Store(int32(s))
}

// Stage returns the current stage.
func (r *RunState) Stage() Stage {
	return Stage(r.stage.Load())
}

// Check is ready once the graph is loaded and unhealthy after a failure.
func (r *RunState) Check(context.Context) Check {
	stage := r.Stage()
	check := Check{Message: stage.String(), Details: map[string]any{"stage": stage.String()}}
	switch stage {
	case StageClustering, StageDone:
		check.Status = StatusHealthy
	case StageFailed:
		check.Status = StatusUnhealthy
	default:
		check.Status = StatusDegraded
	}
	return check
}
