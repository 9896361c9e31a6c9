package leiden

import (
	"sync/atomic"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

// localMoveParallel runs the local move in rounds over a WorkQueue. Workers
// claim chunks of the current round, read and write community assignments
// atomically, and buffer activated neighbors privately; the barrier between
// rounds flushes those buffers into the next round.
func localMoveParallel(
	g graph.Graph,
	communities []int64,
	nodeVolumes []float64,
	communityVolumes *parallel.AtomicDoubleArray,
	gamma float64,
	pool *parallel.WorkerPool,
	concurrency int,
) (LocalMoveResult, error) {
	n := g.NodeCount()
	workers := concurrency

	queue := parallel.NewWorkQueue(n, workers, parallel.DefaultChunkSize)
	inQueue := parallel.NewAtomicBitSet(n)
	initial := make([]int64, n)
	for i := int64(0); i < n; i++ {
		initial[i] = i
		inQueue.Set(i)
	}
	queue.Seed(initial)

	communityOf := func(v int64) int64 { return atomic.LoadInt64(&communities[v]) }

	encs := make([]*encounteredCommunities, workers)
	for w := range encs {
		encs[w] = newEncounteredCommunities(n)
	}
	defer func() {
		for _, enc := range encs {
			enc.release()
		}
	}()

	var moves atomic.Int64
	tasks := make([]func(), workers)
	for w := 0; w < workers; w++ {
		w := w
		tasks[w] = func() {
			cg := g.Concurrent()
			enc := encs[w]
			var local int64
			for {
				lo, hi, ok := queue.Claim()
				if !ok {
					break
				}
				for i := lo; i < hi; i++ {
					node := queue.At(i)
					inQueue.Clear(node)

					current := communityOf(node)
					v := nodeVolumes[node]
					communityVolumes.Add(current, -v)
					best := bestCommunity(cg, node, current, v, gamma, communityOf, communityVolumes, enc)
					communityVolumes.Add(best, v)

					if best == current {
						continue
					}
					atomic.StoreInt64(&communities[node], best)
					local++

					cg.ForEachRelationship(node, 1.0, func(_, target int64, _ float64) bool {
						if target != node && communityOf(target) != best && !inQueue.GetAndSet(target) {
							queue.Push(w, target)
						}
						return true
					})
				}
			}
			moves.Add(local)
		}
	}

	for queue.Len() > 0 {
		if err := pool.RunAll(tasks...); err != nil {
			return LocalMoveResult{}, err
		}
		queue.Flush()
	}

	distinct, err := countCommunitiesParallel(communities, pool, concurrency)
	if err != nil {
		return LocalMoveResult{}, err
	}
	return LocalMoveResult{Moves: moves.Load(), Communities: distinct}, nil
}

func countCommunitiesParallel(communities []int64, pool *parallel.WorkerPool, concurrency int) (int64, error) {
	n := int64(len(communities))
	seen := parallel.NewAtomicBitSet(n)
	err := forEachRange(pool, parallel.RangePartitions(n, concurrency, parallel.MinBatchSize), func(p parallel.Partition) {
		for v := p.Start; v < p.End(); v++ {
			seen.Set(communities[v])
		}
	})
	if err != nil {
		return 0, err
	}
	return seen.Cardinality(), nil
}
