package leiden

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

// fixtureGraph is a,b,c,d,e as nodes 0..4 with the weighted edges
// a-d 4, b-a 3, c-a 2, c-b 0, d-e 5.
func fixtureGraph(t testing.TB) *graph.CSR {
	t.Helper()
	b := graph.NewBuilder(graph.Undirected, true)
	for _, e := range [][3]float64{{0, 3, 4}, {1, 0, 3}, {2, 0, 2}, {2, 1, 0}, {3, 4, 5}} {
		require.NoError(t, b.AddRelationship(int64(e[0]), int64(e[1]), e[2]))
	}
	return b.Build()
}

// cliqueRing builds k cliques of size s, with consecutive cliques joined by
// one bridge of the given weight. Clique i holds nodes i*s .. i*s+s-1.
func cliqueRing(t testing.TB, k, s int, bridge float64) *graph.CSR {
	t.Helper()
	b := graph.NewBuilder(graph.Undirected, true)
	for c := 0; c < k; c++ {
		base := int64(c * s)
		for i := int64(0); i < int64(s); i++ {
			for j := i + 1; j < int64(s); j++ {
				require.NoError(t, b.AddRelationship(base+i, base+j, 1))
			}
		}
		next := int64(((c + 1) % k) * s)
		require.NoError(t, b.AddRelationship(base, next+1, bridge))
	}
	return b.Build()
}

// randomGraph builds an undirected graph on n nodes where each pair is
// joined with probability p, weights in (0, 5], plus an occasional self-loop.
func randomGraph(seed uint64, n int, p float64) *graph.CSR {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	b := graph.NewBuilder(graph.Undirected, true)
	for i := 0; i < n; i++ {
		_ = b.AddNode(int64(i))
		for j := i; j < n; j++ {
			if j == i {
				if rng.Float64() < 0.05 {
					_ = b.AddRelationship(int64(i), int64(i), 1+rng.Float64())
				}
				continue
			}
			if rng.Float64() < p {
				_ = b.AddRelationship(int64(i), int64(j), 5*(1-rng.Float64()))
			}
		}
	}
	return b.Build()
}

func testParams(g graph.Graph, concurrency int) Parameters {
	seed := uint64(42)
	p := DefaultParameters(g)
	p.Concurrency = concurrency
	p.RandomSeed = &seed
	return p
}

func newTestPool(t testing.TB, workers int) *parallel.WorkerPool {
	t.Helper()
	pool, err := parallel.NewWorkerPool(workers)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func singletons(n int64) []int64 {
	c := make([]int64, n)
	for i := range c {
		c[i] = int64(i)
	}
	return c
}

func communityVolumesOf(communities []int64, nodeVolumes []float64) *parallel.AtomicDoubleArray {
	vols := parallel.NewAtomicDoubleArray(int64(len(communities)))
	for v, c := range communities {
		vols.Add(c, nodeVolumes[v])
	}
	return vols
}
