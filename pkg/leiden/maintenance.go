package leiden

import (
	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

// seedPartition is the starting partition of the next level.
type seedPartition struct {
	communities []int64
	volumes     *parallel.AtomicDoubleArray
	labels      []int64
}

// maintainPartition carries the local move partition over to the coarse
// graph. Coarse nodes whose refined communities came from the same local
// move community start the next level together, in the community of the
// first such coarse node. labels maps local move community ids of the
// previous level to output ids; the returned labels do the same for the
// seed community ids, so output ids stay stable from level to level.
func maintainPartition(
	coarse graph.Graph,
	localMove []int64,
	coarseVolumes []float64,
	labels []int64,
) *seedPartition {
	k := coarse.NodeCount()
	seed := &seedPartition{
		communities: make([]int64, k),
		volumes:     parallel.NewAtomicDoubleArray(k),
		labels:      make([]int64, k),
	}

	firstSeen := make(map[int64]int64)
	for node := int64(0); node < k; node++ {
		// a refined community contains the node whose id it carries
		lm := localMove[coarse.ToOriginalNodeID(node)]
		c, ok := firstSeen[lm]
		if !ok {
			c = node
			firstSeen[lm] = c
			seed.labels[c] = labels[lm]
		}
		seed.communities[node] = c
		seed.volumes.Add(c, coarseVolumes[node])
	}
	return seed
}
