package leiden

import (
	"fmt"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/validation"
)

// Parameters configures a clustering run.
type Parameters struct {
	// Concurrency is the number of parallel tasks per phase. 1 selects the
	// sequential local move, which together with RandomSeed makes runs
	// reproducible.
	Concurrency int `validate:"gte=1,lte=65536"`
	// MaxIterations bounds the number of levels processed.
	MaxIterations int `validate:"gte=1"`
	// Gamma is the resolution already scaled by the caller; it is used
	// verbatim in every gain formula. See GammaForResolution.
	Gamma float64 `validate:"finite,gte=0"`
	// Theta is the refinement sampling temperature.
	Theta float64 `validate:"finite,gt=0"`
	// RandomSeed seeds refinement sampling; nil seeds from the clock.
	RandomSeed *uint64
	// IncludeIntermediateCommunities keeps every level in Result.Levels.
	IncludeIntermediateCommunities bool
	// ConsecutiveIDs renumbers communities to 0..k-1 in order of first
	// appearance.
	ConsecutiveIDs bool
}

const (
	DefaultConcurrency   = 4
	DefaultMaxIterations = 10
	DefaultTheta         = 0.01
	DefaultResolution    = 1.0
)

// DefaultParameters returns default parameters for g, with Gamma derived
// from DefaultResolution.
func DefaultParameters(g graph.Graph) Parameters {
	return Parameters{
		Concurrency:   DefaultConcurrency,
		MaxIterations: DefaultMaxIterations,
		Gamma:         GammaForResolution(g, DefaultResolution),
		Theta:         DefaultTheta,
	}
}

// GammaForResolution scales a modularity resolution by the total volume of
// g, which turns the gain formulas into the classic modularity objective.
func GammaForResolution(g graph.Graph, resolution float64) float64 {
	if g == nil {
		return 0
	}
	total := graph.TotalWeight(g, 1.0)
	if total == 0 {
		return 0
	}
	return resolution / total
}

// Validate checks p and wraps every violation in ErrInvalidParameters.
func (p *Parameters) Validate() error {
	if err := validation.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return nil
}
