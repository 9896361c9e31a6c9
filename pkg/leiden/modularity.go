package leiden

import (
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
	"github.com/dd0wney/cluso-leiden/pkg/pools"
)

// Modularity scores a partition of g:
//
//	Q = (1/totalWeight) · Σ_c (internal_c − gamma · volume_c²)
//
// where internal_c sums the arcs with both ends in c (self-loops included)
// and volume_c sums the node volumes of c. communities is indexed by node
// id of g and may hold arbitrary ids. A graph without weight scores 0.
// pool may be nil, in which case the computation runs inline.
func Modularity(g graph.Graph, communities []int64, gamma float64, pool *parallel.WorkerPool, concurrency int) (float64, error) {
	n := g.NodeCount()
	if int64(len(communities)) != n {
		return 0, fmt.Errorf("partition covers %d nodes, graph has %d", len(communities), n)
	}

	var (
		mu       sync.Mutex
		internal = make(map[int64]float64)
		volume   = make(map[int64]float64)
		total    float64
	)
	err := forEachRange(pool, parallel.RangePartitions(n, concurrency, parallel.MinBatchSize), func(p parallel.Partition) {
		cg := g.Concurrent()
		localInternal := pools.GetWeightMap()
		localVolume := pools.GetWeightMap()
		defer pools.PutWeightMap(localInternal)
		defer pools.PutWeightMap(localVolume)

		var localTotal float64
		for v := p.Start; v < p.End(); v++ {
			c := communities[v]
			cg.ForEachRelationship(v, 1.0, func(_, t int64, w float64) bool {
				localVolume[c] += w
				localTotal += w
				if communities[t] == c {
					localInternal[c] += w
				}
				return true
			})
		}

		mu.Lock()
		for c, w := range localInternal {
			internal[c] += w
		}
		for c, w := range localVolume {
			volume[c] += w
		}
		total += localTotal
		mu.Unlock()
	})
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	var q float64
	for c, vol := range volume {
		q += internal[c] - gamma*vol*vol
	}
	return q / total, nil
}
