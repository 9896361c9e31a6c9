package leiden

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNilGraph               = errors.New("graph is nil")
	ErrInvalidParameters      = errors.New("invalid parameters")
	ErrInvalidSeed            = errors.New("invalid seed value")
	ErrUnsupportedOrientation = errors.New("unsupported graph orientation")
)

// Phase names reported in PhaseError, log lines and metrics.
const (
	PhaseInit       = "init"
	PhaseLocalMove  = "local_move"
	PhaseRefine     = "refine"
	PhaseAggregate  = "aggregate"
	PhaseMaintain   = "maintain"
	PhaseDendrogram = "dendrogram"
	PhaseModularity = "modularity"
)

// PhaseError reports a failure inside one phase of one iteration.
type PhaseError struct {
	Phase     string // Phase that failed (e.g., "local_move", "aggregate")
	Iteration int    // Zero-based iteration; -1 before the first iteration
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	if e.Iteration < 0 {
		return fmt.Sprintf("leiden %s: %v", e.Phase, e.Cause)
	}
	return fmt.Sprintf("leiden %s (iteration %d): %v", e.Phase, e.Iteration, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PhaseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *PhaseError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func phaseError(phase string, iteration int, cause error) error {
	if cause == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Iteration: iteration, Cause: cause}
}
