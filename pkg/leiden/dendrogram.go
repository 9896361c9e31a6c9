package leiden

import (
	"fmt"
	"sync/atomic"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

// DendrogramTracker follows every root node down the coarsening levels and
// records its community at each level.
type DendrogramTracker struct {
	current     []int64 // root node -> node of the current working graph
	levels      [][]int64
	keepAll     bool
	pool        *parallel.WorkerPool
	concurrency int
}

// NewDendrogramTracker starts tracking rootCount root nodes, each mapped to
// itself. When keepAll is false only the latest level is retained.
func NewDendrogramTracker(rootCount int64, keepAll bool, pool *parallel.WorkerPool, concurrency int) *DendrogramTracker {
	current := make([]int64, rootCount)
	for i := range current {
		current[i] = int64(i)
	}
	return &DendrogramTracker{
		current:     current,
		keepAll:     keepAll,
		pool:        pool,
		concurrency: concurrency,
	}
}

func (d *DendrogramTracker) partitions() []parallel.Partition {
	return parallel.RangePartitions(int64(len(d.current)), d.concurrency, parallel.MinBatchSize)
}

// AppendLevel records labels[communities[current[root]]] for every root.
func (d *DendrogramTracker) AppendLevel(communities, labels []int64) error {
	level := make([]int64, len(d.current))
	err := forEachRange(d.pool, d.partitions(), func(p parallel.Partition) {
		for r := p.Start; r < p.End(); r++ {
			level[r] = labels[communities[d.current[r]]]
		}
	})
	if err != nil {
		return err
	}

	if d.keepAll || len(d.levels) == 0 {
		d.levels = append(d.levels, level)
	} else {
		d.levels[0] = level
	}
	return nil
}

// Advance moves every root to its node in the coarse graph built from the
// refined communities of the current working graph.
func (d *DendrogramTracker) Advance(refined []int64, coarse graph.Graph) error {
	var missing atomic.Int64
	missing.Store(-1)
	err := forEachRange(d.pool, d.partitions(), func(p parallel.Partition) {
		for r := p.Start; r < p.End(); r++ {
			c := refined[d.current[r]]
			mapped, ok := coarse.ToMappedNodeID(c)
			if !ok {
				missing.CompareAndSwap(-1, c)
				continue
			}
			d.current[r] = mapped
		}
	})
	if err != nil {
		return err
	}
	if c := missing.Load(); c >= 0 {
		return fmt.Errorf("refined community %d has no node in the coarse graph", c)
	}
	return nil
}

// Current returns the working graph node of root
func (d *DendrogramTracker) Current(root int64) int64 {
	return d.current[root]
}

// Levels returns the retained levels, oldest first
func (d *DendrogramTracker) Levels() [][]int64 {
	return d.levels
}

// Latest returns the most recent level, or nil before the first one
func (d *DendrogramTracker) Latest() []int64 {
	if len(d.levels) == 0 {
		return nil
	}
	return d.levels[len(d.levels)-1]
}

