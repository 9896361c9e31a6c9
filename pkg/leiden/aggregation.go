package leiden

import (
	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
	"github.com/dd0wney/cluso-leiden/pkg/pools"
)

// aggregationShardsPerWorker spreads AggregatingBuilder locks so that
// workers emitting arcs rarely contend on the same shard.
const aggregationShardsPerWorker = 4

// aggregate builds the coarse graph whose nodes are the refined communities
// of g. Coarse ids follow ascending refined id, and ToOriginalNodeID on the
// result returns the refined id a coarse node replaced. Arcs inside a
// refined community, self-loops included, are dropped; parallel arcs
// between two communities are summed. The returned volumes are the refined
// community volumes, so the total volume never changes across levels.
func aggregate(
	g graph.Graph,
	refined *RefinementResult,
	pool *parallel.WorkerPool,
	concurrency int,
) (*graph.CSR, []float64, error) {
	n := g.NodeCount()
	communities := refined.Communities

	present := parallel.NewAtomicBitSet(refined.MaxCommunityID + 1)
	err := forEachRange(pool, parallel.RangePartitions(n, concurrency, parallel.MinBatchSize), func(p parallel.Partition) {
		for v := p.Start; v < p.End(); v++ {
			present.Set(communities[v])
		}
	})
	if err != nil {
		return nil, nil, err
	}

	coarseCount := present.Cardinality()
	refinedIDs := make([]int64, 0, coarseCount)
	toCoarse := make([]int64, refined.MaxCommunityID+1)
	for c := present.NextSetBit(0); c >= 0; c = present.NextSetBit(c + 1) {
		toCoarse[c] = int64(len(refinedIDs))
		refinedIDs = append(refinedIDs, c)
	}

	builder := graph.NewAggregatingBuilder(coarseCount, refinedIDs, g.Orientation(), concurrency*aggregationShardsPerWorker)
	err = forEachRange(pool, parallel.DegreePartitions(n, g.Degree, concurrency), func(p parallel.Partition) {
		cg := g.Concurrent()
		weights := pools.GetWeightMap()
		defer pools.PutWeightMap(weights)

		for v := p.Start; v < p.End(); v++ {
			source := communities[v]
			cg.ForEachRelationship(v, 1.0, func(_, t int64, w float64) bool {
				if target := communities[t]; target != source {
					weights[toCoarse[target]] += w
				}
				return true
			})
			if len(weights) == 0 {
				continue
			}
			coarseSource := toCoarse[source]
			for target, w := range weights {
				builder.AddArc(coarseSource, target, w)
			}
			clear(weights)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	volumes := make([]float64, coarseCount)
	for k, c := range refinedIDs {
		volumes[k] = refined.Volumes[c]
	}
	return builder.Build(), volumes, nil
}
