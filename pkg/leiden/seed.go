package leiden

import (
	"fmt"
	"math"
)

// MissingSeed marks a node without a seed community.
const MissingSeed int64 = math.MinInt64

// SeedValues supplies an initial community per root node id.
type SeedValues interface {
	SeedValue(node int64) int64
}

// SeedSlice is a SeedValues backed by a slice indexed by node id. Nodes past
// the end of the slice are missing.
type SeedSlice []int64

// SeedValue returns the seed of node, or MissingSeed
func (s SeedSlice) SeedValue(node int64) int64 {
	if node < 0 || node >= int64(len(s)) {
		return MissingSeed
	}
	return s[node]
}

// SeedMap normalizes external seed values into dense community ids.
//
// Explicit seeds get dense ids in order of first appearance by node id; each
// node with a missing seed then gets a fresh id of its own. MapToSeed turns
// dense ids back into seed values, reporting maxSeed+1+k for the k-th fresh
// id so that fresh communities never collide with explicit ones.
type SeedMap struct {
	communities []int64
	seeds       []int64
	explicit    int64
}

// NewSeedMap builds a SeedMap for nodeCount nodes. Negative seeds other
// than MissingSeed are rejected with ErrInvalidSeed.
func NewSeedMap(nodeCount int64, values SeedValues) (*SeedMap, error) {
	communities := make([]int64, nodeCount)
	dense := make(map[int64]int64)
	seeds := make([]int64, 0)
	maxSeed := int64(-1)

	for n := int64(0); n < nodeCount; n++ {
		v := values.SeedValue(n)
		if v == MissingSeed {
			communities[n] = -1
			continue
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: node %d has seed %d", ErrInvalidSeed, n, v)
		}
		id, ok := dense[v]
		if !ok {
			id = int64(len(seeds))
			dense[v] = id
			seeds = append(seeds, v)
			if v > maxSeed {
				maxSeed = v
			}
		}
		communities[n] = id
	}

	explicit := int64(len(seeds))
	next := maxSeed + 1
	for n := int64(0); n < nodeCount; n++ {
		if communities[n] != -1 {
			continue
		}
		communities[n] = int64(len(seeds))
		seeds = append(seeds, next)
		next++
	}

	return &SeedMap{communities: communities, seeds: seeds, explicit: explicit}, nil
}

// CommunitiesCount returns the number of dense seed communities
func (m *SeedMap) CommunitiesCount() int64 {
	return int64(len(m.seeds))
}

// ExplicitCount returns the number of distinct explicit seeds
func (m *SeedMap) ExplicitCount() int64 {
	return m.explicit
}

// Community returns the dense community of node
func (m *SeedMap) Community(node int64) int64 {
	return m.communities[node]
}

// MapToSeed returns the seed value behind a dense community id
func (m *SeedMap) MapToSeed(dense int64) int64 {
	return m.seeds[dense]
}

// Communities returns a copy of the node to dense community assignment
func (m *SeedMap) Communities() []int64 {
	return append([]int64(nil), m.communities...)
}

// Labels returns the dense id to seed value table, sized to nodeCount so it
// can be indexed by any community id of the working graph.
func (m *SeedMap) Labels(nodeCount int64) []int64 {
	labels := make([]int64, max(nodeCount, int64(len(m.seeds))))
	copy(labels, m.seeds)
	return labels
}
