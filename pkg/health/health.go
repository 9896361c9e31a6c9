// Package health reports process health, readiness and liveness for the
// clustering CLI's HTTP endpoint.
package health

import (
	"context"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single check.
const DefaultCheckTimeout = 2 * time.Second

// NewChecker creates a checker with DefaultCheckTimeout.
func NewChecker() *Checker {
	return &Checker{
		checks:      make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
		timeout:     DefaultCheckTimeout,
		started:     time.Now(),
	}
}

// SetTimeout changes the per-check timeout.
func (hc *Checker) SetTimeout(d time.Duration) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.timeout = d
}

// RegisterCheck registers a general health check
func (hc *Checker) RegisterCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// RegisterReadinessCheck registers a readiness check
func (hc *Checker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.readyChecks[name] = check
}

// RegisterLivenessCheck registers a liveness check
func (hc *Checker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.liveChecks[name] = check
}

// Check runs every general check
func (hc *Checker) Check(ctx context.Context) Response {
	return hc.perform(ctx, func() map[string]CheckFunc { return hc.checks })
}

// CheckReadiness runs the readiness checks
func (hc *Checker) CheckReadiness(ctx context.Context) Response {
	return hc.perform(ctx, func() map[string]CheckFunc { return hc.readyChecks })
}

// CheckLiveness runs the liveness checks
func (hc *Checker) CheckLiveness(ctx context.Context) Response {
	return hc.perform(ctx, func() map[string]CheckFunc { return hc.liveChecks })
}

// perform runs the selected checks concurrently. The worst status wins.
func (hc *Checker) perform(ctx context.Context, selectChecks func() map[string]CheckFunc) Response {
	hc.mu.RLock()
	checks := maps.Clone(selectChecks())
	timeout := hc.timeout
	hc.mu.RUnlock()

	names := slices.Sorted(maps.Keys(checks))
	results := make([]Check, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			check := checks[name](cctx)
			check.Name = name
			check.Duration = time.Since(start)
			check.LastChecked = start
			results[i] = check
			return nil
		})
	}
	_ = g.Wait()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(results)),
		Uptime:    time.Since(hc.started),
	}
	for _, check := range results {
		response.Checks[check.Name] = check
		response.Status = worse(response.Status, check.Status)
	}
	return response
}

func worse(a, b Status) Status {
	rank := func(s Status) int {
		switch s {
		case StatusHealthy:
			return 0
		case StatusDegraded:
			return 1
		default:
			return 2
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
