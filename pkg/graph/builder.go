package graph

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
)

var (
	// ErrNegativeNodeID is returned for node ids below zero.
	ErrNegativeNodeID = errors.New("node id must be non-negative")
	// ErrInvalidWeight is returned for NaN or infinite relationship weights.
	ErrInvalidWeight = errors.New("relationship weight must be finite")
)

// Builder accumulates nodes and relationships and produces a CSR. Nodes are
// identified by original ids; Build assigns mapped ids in ascending original
// id order, so the result does not depend on insertion order. Parallel
// relationships are kept as separate arcs. A Builder is not safe for
// concurrent use.
type Builder struct {
	orientation Orientation
	weighted    bool
	nodes       map[int64]struct{}
	sources     []int64
	targets     []int64
	weights     []float64
}

// NewBuilder creates a builder. When weighted is false the built graph has
// no relationship property and weights passed to AddRelationship are ignored.
func NewBuilder(orientation Orientation, weighted bool) *Builder {
	return &Builder{
		orientation: orientation,
		weighted:    weighted,
		nodes:       make(map[int64]struct{}),
	}
}

// AddNode registers a node that may have no relationships.
func (b *Builder) AddNode(original int64) error {
	if original < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeNodeID, original)
	}
	b.nodes[original] = struct{}{}
	return nil
}

// AddRelationship adds a relationship between two original ids, registering
// both nodes.
func (b *Builder) AddRelationship(source, target int64, weight float64) error {
	if source < 0 || target < 0 {
		return fmt.Errorf("%w: (%d, %d)", ErrNegativeNodeID, source, target)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: (%d, %d) weight %v", ErrInvalidWeight, source, target, weight)
	}
	b.nodes[source] = struct{}{}
	b.nodes[target] = struct{}{}
	b.sources = append(b.sources, source)
	b.targets = append(b.targets, target)
	b.weights = append(b.weights, weight)
	return nil
}

// NodeCount returns the number of distinct nodes registered so far
func (b *Builder) NodeCount() int64 {
	return int64(len(b.nodes))
}

// Build produces the CSR. The builder may be reused afterwards.
func (b *Builder) Build() *CSR {
	originalIDs := make([]int64, 0, len(b.nodes))
	for id := range b.nodes {
		originalIDs = append(originalIDs, id)
	}
	slices.Sort(originalIDs)

	mapped := make(map[int64]int64, len(originalIDs))
	for i, id := range originalIDs {
		mapped[id] = int64(i)
	}

	n := int64(len(originalIDs))
	arcs := make([]arc, 0, len(b.sources)*2)
	for i := range b.sources {
		s, t, w := mapped[b.sources[i]], mapped[b.targets[i]], b.weights[i]
		arcs = append(arcs, arc{s, t, w})
		if b.orientation == Undirected && s != t {
			arcs = append(arcs, arc{t, s, w})
		}
	}
	return fromArcs(n, arcs, b.weighted, originalIDs, b.orientation)
}

type arc struct {
	source, target int64
	weight         float64
}

// fromArcs lays arcs out in CSR order: by source, then target.
func fromArcs(nodeCount int64, arcs []arc, weighted bool, originalIDs []int64, orientation Orientation) *CSR {
	sort.SliceStable(arcs, func(i, j int) bool {
		if arcs[i].source != arcs[j].source {
			return arcs[i].source < arcs[j].source
		}
		return arcs[i].target < arcs[j].target
	})

	offsets := make([]int64, nodeCount+1)
	for _, a := range arcs {
		offsets[a.source+1]++
	}
	for i := int64(1); i <= nodeCount; i++ {
		offsets[i] += offsets[i-1]
	}

	targets := make([]int64, len(arcs))
	var weights []float64
	if weighted {
		weights = make([]float64, len(arcs))
	}
	for i, a := range arcs {
		targets[i] = a.target
		if weighted {
			weights[i] = a.weight
		}
	}
	return newCSR(offsets, targets, weights, originalIDs, orientation)
}

// AggregatingBuilder collects arcs between already-mapped node ids from many
// goroutines at once and sums the weights of parallel arcs. Arcs are sharded
// by source, each shard behind its own mutex.
type AggregatingBuilder struct {
	nodeCount   int64
	originalIDs []int64
	orientation Orientation
	shards      []arcShard
}

type arcKey struct {
	source, target int64
}

type arcShard struct {
	mu   sync.Mutex
	arcs map[arcKey]float64
}

// NewAggregatingBuilder creates a builder for nodeCount nodes. originalIDs[k]
// is reported by ToOriginalNodeID(k) on the built graph; nil means identity.
func NewAggregatingBuilder(nodeCount int64, originalIDs []int64, orientation Orientation, shards int) *AggregatingBuilder {
	if shards < 1 {
		shards = 1
	}
	b := &AggregatingBuilder{
		nodeCount:   nodeCount,
		originalIDs: originalIDs,
		orientation: orientation,
		shards:      make([]arcShard, shards),
	}
	for i := range b.shards {
		b.shards[i].arcs = make(map[arcKey]float64)
	}
	return b
}

// AddArc adds weight to the arc source→target. Unlike Builder, the reverse
// arc of an undirected graph is not added; callers emit both directions.
func (b *AggregatingBuilder) AddArc(source, target int64, weight float64) {
	shard := &b.shards[source%int64(len(b.shards))]
	shard.mu.Lock()
	shard.arcs[arcKey{source, target}] += weight
	shard.mu.Unlock()
}

// Build produces a weighted CSR. It must not run concurrently with AddArc.
func (b *AggregatingBuilder) Build() *CSR {
	var total int
	for i := range b.shards {
		total += len(b.shards[i].arcs)
	}
	arcs := make([]arc, 0, total)
	for i := range b.shards {
		for k, w := range b.shards[i].arcs {
			arcs = append(arcs, arc{k.source, k.target, w})
		}
	}

	originalIDs := b.originalIDs
	if originalIDs == nil {
		originalIDs = make([]int64, b.nodeCount)
		for i := range originalIDs {
			originalIDs[i] = int64(i)
		}
	}
	return fromArcs(b.nodeCount, arcs, true, originalIDs, b.orientation)
}
