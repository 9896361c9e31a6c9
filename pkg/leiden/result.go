package leiden

// Result is the outcome of a clustering run.
type Result struct {
	// Communities maps every root node to its community at the last level.
	Communities []int64
	// Levels holds one root-node assignment per level, oldest first. Without
	// IncludeIntermediateCommunities it only holds the last level.
	Levels [][]int64
	// Modularities holds the modularity of every level produced, including
	// levels not retained in Levels.
	Modularities []float64
	// Iterations is the number of levels the run started.
	Iterations int
	// Converged is false when the run stopped at MaxIterations.
	Converged bool
	RunID     string
}

// Modularity returns the modularity of the final partition
func (r *Result) Modularity() float64 {
	if len(r.Modularities) == 0 {
		return 0
	}
	return r.Modularities[len(r.Modularities)-1]
}

// CommunityCount returns the number of distinct final communities
func (r *Result) CommunityCount() int64 {
	seen := make(map[int64]struct{})
	for _, c := range r.Communities {
		seen[c] = struct{}{}
	}
	return int64(len(seen))
}

// Members groups root node ids by final community
func (r *Result) Members() map[int64][]int64 {
	members := make(map[int64][]int64)
	for node, c := range r.Communities {
		members[c] = append(members[c], int64(node))
	}
	return members
}

// consecutiveIDs renumbers communities to 0..k-1 in order of first
// appearance by node id.
func consecutiveIDs(communities []int64) []int64 {
	next := int64(0)
	ids := make(map[int64]int64)
	out := make([]int64, len(communities))
	for i, c := range communities {
		id, ok := ids[c]
		if !ok {
			id = next
			ids[c] = id
			next++
		}
		out[i] = id
	}
	return out
}
