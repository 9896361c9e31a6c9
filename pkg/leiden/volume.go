package leiden

import (
	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

// Volumes holds the node and community volumes of a working graph.
type Volumes struct {
	Node      []float64
	Community *parallel.AtomicDoubleArray
	Total     float64
}

// InitVolumes computes node volumes (the sum of incident arc weights, or the
// degree when g has no relationship property) and starts every node in its
// own community.
func InitVolumes(g graph.Graph, pool *parallel.WorkerPool, concurrency int) (*Volumes, error) {
	n := g.NodeCount()
	node := make([]float64, n)
	total := parallel.NewAtomicDoubleArray(1)

	err := forEachRange(pool, parallel.RangePartitions(n, concurrency, parallel.MinBatchSize), func(p parallel.Partition) {
		cg := g.Concurrent()
		var partial float64
		for v := p.Start; v < p.End(); v++ {
			var sum float64
			cg.ForEachRelationship(v, 1.0, func(_, _ int64, w float64) bool {
				sum += w
				return true
			})
			node[v] = sum
			partial += sum
		}
		total.Add(0, partial)
	})
	if err != nil {
		return nil, err
	}

	return &Volumes{
		Node:      node,
		Community: parallel.AtomicDoubleArrayOf(node),
		Total:     total.Get(0),
	}, nil
}

// forEachRange runs fn per partition on pool, or inline when pool is nil.
func forEachRange(pool *parallel.WorkerPool, partitions []parallel.Partition, fn func(parallel.Partition)) error {
	if pool == nil || len(partitions) == 1 {
		for _, p := range partitions {
			fn(p)
		}
		return nil
	}
	return parallel.ForEachPartition(pool, partitions, fn)
}
