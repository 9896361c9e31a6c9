package graph

// CSR is an immutable graph in compressed-sparse-row form. Arcs of node n
// occupy targets[offsets[n]:offsets[n+1]], sorted by target.
type CSR struct {
	offsets     []int64
	targets     []int64
	weights     []float64 // nil when the graph has no relationship property
	originalIDs []int64   // nil when mapped ids equal original ids
	mappedIDs   map[int64]int64
	orientation Orientation
}

var _ Graph = (*CSR)(nil)

// NodeCount returns the number of nodes
func (g *CSR) NodeCount() int64 {
	return int64(len(g.offsets) - 1)
}

// RelationshipCount returns the number of stored arcs
func (g *CSR) RelationshipCount() int64 {
	return int64(len(g.targets))
}

// Degree returns the number of arcs leaving node
func (g *CSR) Degree(node int64) int {
	return int(g.offsets[node+1] - g.offsets[node])
}

// ForEachRelationship calls consumer for every arc leaving node
func (g *CSR) ForEachRelationship(node int64, fallbackWeight float64, consumer RelationshipConsumer) {
	start, end := g.offsets[node], g.offsets[node+1]
	for i := start; i < end; i++ {
		w := fallbackWeight
		if g.weights != nil {
			w = g.weights[i]
		}
		if !consumer(node, g.targets[i], w) {
			return
		}
	}
}

func (g *CSR) Orientation() Orientation {
	return g.orientation
}

func (g *CSR) HasRelationshipProperty() bool {
	return g.weights != nil
}

// ToOriginalNodeID maps a node id of this graph to its original id
func (g *CSR) ToOriginalNodeID(mapped int64) int64 {
	if g.originalIDs == nil {
		return mapped
	}
	return g.originalIDs[mapped]
}

// ToMappedNodeID maps an original id to this graph's node id
func (g *CSR) ToMappedNodeID(original int64) (int64, bool) {
	if g.originalIDs == nil {
		if original < 0 || original >= g.NodeCount() {
			return 0, false
		}
		return original, true
	}
	mapped, ok := g.mappedIDs[original]
	return mapped, ok
}

// Concurrent returns g itself; a CSR is never mutated after construction.
func (g *CSR) Concurrent() Graph {
	return g
}

func newCSR(offsets, targets []int64, weights []float64, originalIDs []int64, orientation Orientation) *CSR {
	g := &CSR{
		offsets:     offsets,
		targets:     targets,
		weights:     weights,
		orientation: orientation,
	}
	if !isIdentity(originalIDs) {
		g.originalIDs = originalIDs
		g.mappedIDs = make(map[int64]int64, len(originalIDs))
		for mapped, original := range originalIDs {
			g.mappedIDs[original] = int64(mapped)
		}
	}
	return g
}

func isIdentity(ids []int64) bool {
	for i, id := range ids {
		if id != int64(i) {
			return false
		}
	}
	return true
}
