package graph

import (
	"fmt"

	gonum "gonum.org/v1/gonum/graph"
)

// FromGonum copies a gonum graph into a CSR. Undirected gonum graphs become
// Undirected CSRs; everything else is Natural. Weights are taken from
// gonum.Weighted when g implements it.
func FromGonum(g gonum.Graph) (*CSR, error) {
	if g == nil {
		return nil, fmt.Errorf("nil gonum graph")
	}

	orientation := Natural
	if _, ok := g.(gonum.Undirected); ok {
		orientation = Undirected
	}
	weighted, isWeighted := g.(gonum.Weighted)

	b := NewBuilder(orientation, isWeighted)
	nodes := gonum.NodesOf(g.Nodes())
	for _, u := range nodes {
		if err := b.AddNode(u.ID()); err != nil {
			return nil, err
		}
	}
	for _, u := range nodes {
		uid := u.ID()
		for _, v := range gonum.NodesOf(g.From(uid)) {
			vid := v.ID()
			// undirected edges are reported from both ends
			if orientation == Undirected && vid < uid {
				continue
			}
			w := 1.0
			if isWeighted {
				w, _ = weighted.Weight(uid, vid)
			}
			if err := b.AddRelationship(uid, vid, w); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}
