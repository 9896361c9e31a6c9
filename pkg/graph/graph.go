// Package graph defines the read-only graph capability the clustering engine
// consumes and an immutable compressed-sparse-row implementation of it.
//
// Node ids handed to and returned by a Graph are mapped ids, dense in
// [0, NodeCount). ToOriginalNodeID and ToMappedNodeID translate between a
// graph's mapped ids and the ids of the graph (or input) it was built from.
package graph

import "fmt"

// Orientation describes how relationships of a graph are stored.
type Orientation int

const (
	// Natural stores each relationship once, from source to target.
	Natural Orientation = iota
	// Undirected stores each relationship as two arcs, one per direction.
	// Self-loops are stored once.
	Undirected
)

func (o Orientation) String() string {
	switch o {
	case Natural:
		return "natural"
	case Undirected:
		return "undirected"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// ParseOrientation converts "natural" or "undirected" to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "natural", "directed":
		return Natural, nil
	case "undirected", "":
		return Undirected, nil
	default:
		return Natural, fmt.Errorf("unknown orientation %q", s)
	}
}

// RelationshipConsumer receives one arc. Returning false stops iteration.
type RelationshipConsumer func(source, target int64, weight float64) bool

// Graph is the capability the clustering engine consumes.
type Graph interface {
	// NodeCount returns the number of nodes.
	NodeCount() int64
	// RelationshipCount returns the number of stored arcs.
	RelationshipCount() int64
	// Degree returns the number of arcs leaving node.
	Degree(node int64) int
	// ForEachRelationship calls consumer for every arc leaving node.
	// fallbackWeight is reported when the graph has no relationship property.
	ForEachRelationship(node int64, fallbackWeight float64, consumer RelationshipConsumer)
	Orientation() Orientation
	HasRelationshipProperty() bool
	// ToOriginalNodeID maps a node id of this graph to the id it had in the
	// graph or input this graph was built from.
	ToOriginalNodeID(mapped int64) int64
	// ToMappedNodeID is the inverse of ToOriginalNodeID.
	ToMappedNodeID(original int64) (int64, bool)
	// Concurrent returns a handle safe to iterate from another goroutine.
	Concurrent() Graph
}

// TotalWeight sums the weight of every stored arc of g.
func TotalWeight(g Graph, fallbackWeight float64) float64 {
	var total float64
	for n := int64(0); n < g.NodeCount(); n++ {
		g.ForEachRelationship(n, fallbackWeight, func(_, _ int64, w float64) bool {
			total += w
			return true
		})
	}
	return total
}
