package leiden

import (
	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
	"github.com/dd0wney/cluso-leiden/pkg/pools"
)

// LocalMoveResult summarizes one local move pass.
type LocalMoveResult struct {
	Moves       int64
	Communities int64
}

// encounteredCommunities accumulates, for one node at a time, the incident
// weight landing in each neighboring community.
type encounteredCommunities struct {
	weights []float64
	present []bool
	touched []int64
}

func newEncounteredCommunities(size int64) *encounteredCommunities {
	return &encounteredCommunities{
		weights: make([]float64, size),
		present: make([]bool, size),
		touched: pools.GetInt64s(64),
	}
}

// release hands the touched list back to its pool.
func (e *encounteredCommunities) release() {
	pools.PutInt64s(e.touched)
	e.touched = nil
}

func (e *encounteredCommunities) add(community int64, weight float64) {
	if !e.present[community] {
		e.present[community] = true
		e.touched = append(e.touched, community)
	}
	e.weights[community] += weight
}

func (e *encounteredCommunities) weight(community int64) float64 {
	return e.weights[community]
}

func (e *encounteredCommunities) reset() {
	for _, c := range e.touched {
		e.weights[c] = 0
		e.present[c] = false
	}
	e.touched = e.touched[:0]
}

// communityReader abstracts plain and atomic reads of the partition.
type communityReader func(node int64) int64

// bestCommunity evaluates moving node out of current, whose volume must
// already exclude the node, and returns the winning community.
//
// Staying is the starting point; a candidate wins with a strictly larger
// gain, or with an equal gain when the incumbent is not current and the
// candidate id is lower. So a node never leaves on a tie, and among equally
// good foreign communities the lowest id wins regardless of visit order.
func bestCommunity(
	g graph.Graph,
	node, current int64,
	nodeVolume, gamma float64,
	communityOf communityReader,
	volumes *parallel.AtomicDoubleArray,
	enc *encounteredCommunities,
) int64 {
	enc.reset()
	g.ForEachRelationship(node, 1.0, func(_, target int64, w float64) bool {
		if target != node {
			enc.add(communityOf(target), w)
		}
		return true
	})

	best := current
	bestGain := enc.weight(current) - nodeVolume*volumes.Get(current)*gamma
	for _, c := range enc.touched {
		if c == current {
			continue
		}
		gain := enc.weight(c) - nodeVolume*volumes.Get(c)*gamma
		if gain > bestGain || (gain == bestGain && best != current && c < best) {
			best = c
			bestGain = gain
		}
	}
	return best
}

// maxLocalMoveSweeps bounds full sweeps so round-off in the volumes can
// never cycle a pass forever.
const maxLocalMoveSweeps = 1000

// localMoveSequential runs the FIFO local move on a single goroutine.
// communities and communityVolumes are updated in place.
//
// A move changes the volume of two communities, which shifts the gain of
// nodes that are not neighbors of the mover, so once the queue drains every
// node is queued again. The pass ends after a full sweep that moves nothing,
// which leaves a partition no single move can improve.
func localMoveSequential(
	g graph.Graph,
	communities []int64,
	nodeVolumes []float64,
	communityVolumes *parallel.AtomicDoubleArray,
	gamma float64,
) LocalMoveResult {
	n := g.NodeCount()
	queue := make([]int64, 0, n*2)
	inQueue := make([]bool, n)

	enc := newEncounteredCommunities(n)
	defer enc.release()
	communityOf := func(v int64) int64 { return communities[v] }

	var moves int64
	for sweep := 0; sweep < maxLocalMoveSweeps; sweep++ {
		queue = queue[:0]
		for i := int64(0); i < n; i++ {
			queue = append(queue, i)
			inQueue[i] = true
		}

		var sweepMoves int64
		for head := 0; head < len(queue); head++ {
			node := queue[head]
			inQueue[node] = false

			current := communities[node]
			v := nodeVolumes[node]
			communityVolumes.Add(current, -v)
			best := bestCommunity(g, node, current, v, gamma, communityOf, communityVolumes, enc)
			communityVolumes.Add(best, v)

			if best == current {
				continue
			}
			communities[node] = best
			sweepMoves++

			g.ForEachRelationship(node, 1.0, func(_, target int64, _ float64) bool {
				if target != node && !inQueue[target] && communities[target] != best {
					inQueue[target] = true
					queue = append(queue, target)
				}
				return true
			})
			// drop the consumed prefix once it dominates the buffer
			if head > 1<<16 && head*2 > len(queue) {
				queue = append(queue[:0], queue[head+1:]...)
				head = -1
			}
		}

		moves += sweepMoves
		if sweepMoves == 0 {
			break
		}
	}

	return LocalMoveResult{Moves: moves, Communities: countCommunities(communities)}
}

func countCommunities(communities []int64) int64 {
	seen := make([]bool, len(communities))
	var distinct int64
	for _, c := range communities {
		if !seen[c] {
			seen[c] = true
			distinct++
		}
	}
	return distinct
}
