package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the outcome of one health check
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc performs a health check. It should return promptly once ctx is done.
type CheckFunc func(ctx context.Context) Check

// Checker holds the health, readiness and liveness checks of a process
type Checker struct {
	mu          sync.RWMutex
	checks      map[string]CheckFunc
	readyChecks map[string]CheckFunc
	liveChecks  map[string]CheckFunc
	timeout     time.Duration
	started     time.Time
}

// Response is the aggregate of a set of checks
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    time.Duration    `json:"uptime_seconds"`
}
