package leiden

import (
	"context"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestClusteringInvariants checks phase invariants on random graphs.
func TestClusteringInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40

	properties := gopter.NewProperties(parameters)

	properties.Property("local move conserves community volume", prop.ForAll(
		func(seed uint64, n int) bool {
			g := randomGraph(seed, n, 0.15)
			vols, err := InitVolumes(g, nil, 1)
			if err != nil {
				return false
			}
			communities := singletons(g.NodeCount())
			localMoveSequential(g, communities, vols.Node, vols.Community, 1/math.Max(vols.Total, 1))
			return math.Abs(vols.Community.Sum()-vols.Total) < 1e-9
		},
		gen.UInt64(),
		gen.IntRange(2, 60),
	))

	properties.Property("refinement never coarsens", prop.ForAll(
		func(seed uint64, n int) bool {
			g := randomGraph(seed, n, 0.15)
			vols, err := InitVolumes(g, nil, 1)
			if err != nil {
				return false
			}
			gamma := 1 / math.Max(vols.Total, 1)
			original := singletons(g.NodeCount())
			localMoveSequential(g, original, vols.Node, vols.Community, gamma)

			refined, err := refine(g, original, vols.Node, vols.Community, gamma, 0.05, newRand(&seed), nil, 1)
			if err != nil {
				return false
			}
			var total float64
			for v, c := range refined.Communities {
				if original[v] != original[c] || refined.Communities[c] != c {
					return false
				}
			}
			for _, v := range refined.Volumes {
				total += v
			}
			return math.Abs(total-vols.Total) < 1e-9
		},
		gen.UInt64(),
		gen.IntRange(2, 60),
	))

	properties.Property("every node gets exactly one community", prop.ForAll(
		func(seed uint64, n int, concurrency int) bool {
			g := randomGraph(seed, n, 0.1)
			params := DefaultParameters(g)
			params.Concurrency = concurrency
			params.RandomSeed = &seed
			result, err := Run(context.Background(), g, params)
			if err != nil {
				return false
			}
			return int64(len(result.Communities)) == g.NodeCount() &&
				result.Iterations >= 1 &&
				result.Iterations <= params.MaxIterations
		},
		gen.UInt64(),
		gen.IntRange(1, 80),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}
