package leiden

import (
	"math"
	"math/rand/v2"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

// RefinementResult is the refined partition of one working graph.
type RefinementResult struct {
	// Communities maps each node to its refined community. A refined
	// community id is always the id of one of its members.
	Communities    []int64
	// Volumes is indexed by refined community id.
	Volumes        []float64
	// MaxCommunityID is the largest refined id; it sizes the aggregation
	// lookup tables of the next coarse graph.
	MaxCommunityID int64
	Merges         int64
}

// wellConnected reports whether a subset of an original community with
// volume subsetVolume, whose arcs into the rest of the original community
// weigh external, meets the gamma-scaled connectivity threshold.
func wellConnected(external, subsetVolume, originalVolume, gamma float64) bool {
	return external >= gamma*subsetVolume*(originalVolume-subsetVolume)
}

// mergeSlack is the relative round-off allowed when a merge completes an
// original community, where the threshold collapses to zero.
const mergeSlack = 1e-9

// keepsWellConnected reports whether joining two refined communities of the
// same original community yields a community that is still well-connected.
// between is the arc weight joining them.
func keepsWellConnected(externalA, externalB, between, mergedVolume, originalVolume, gamma float64) bool {
	external := externalA + externalB - 2*between
	remaining := max(originalVolume-mergedVolume, 0)
	slack := mergeSlack * originalVolume * max(1, gamma*originalVolume)
	return external+slack >= gamma*mergedVolume*remaining
}

type refinement struct {
	g                graph.Graph
	original         []int64
	nodeVolumes      []float64
	originalVolumes  *parallel.AtomicDoubleArray
	gamma            float64
	theta            float64
	rng              *rand.Rand
	refined          []int64
	refinedVolumes   []float64
	external         []float64
	singleton        []bool
	enc              *encounteredCommunities
	sampler          CategoricalSampler
	candidates       []int64
	candidateWeights []float64
}

// refine splits every original community into well-connected refined
// communities. Nodes are visited in ascending id order starting from the
// singleton partition; a node only merges into a refined community inside
// its own original community, so the result is never coarser than original.
func refine(
	g graph.Graph,
	original []int64,
	nodeVolumes []float64,
	originalVolumes *parallel.AtomicDoubleArray,
	gamma, theta float64,
	rng *rand.Rand,
	pool *parallel.WorkerPool,
	concurrency int,
) (*RefinementResult, error) {
	n := g.NodeCount()
	r := &refinement{
		g:               g,
		original:        original,
		nodeVolumes:     nodeVolumes,
		originalVolumes: originalVolumes,
		gamma:           gamma,
		theta:           theta,
		rng:             rng,
		refined:         make([]int64, n),
		refinedVolumes:  make([]float64, n),
		external:        make([]float64, n),
		singleton:       make([]bool, n),
		enc:             newEncounteredCommunities(n),
	}
	defer r.enc.release()
	for v := int64(0); v < n; v++ {
		r.refined[v] = v
		r.refinedVolumes[v] = nodeVolumes[v]
		r.singleton[v] = true
	}

	if err := r.computeExternal(pool, concurrency); err != nil {
		return nil, err
	}

	var merges int64
	for v := int64(0); v < n; v++ {
		if r.singleton[v] && r.mergeNode(v) {
			merges++
		}
	}

	maxID := int64(-1)
	for _, c := range r.refined {
		if c > maxID {
			maxID = c
		}
	}
	return &RefinementResult{
		Communities:    r.refined,
		Volumes:        r.refinedVolumes,
		MaxCommunityID: maxID,
		Merges:         merges,
	}, nil
}

// computeExternal sets, for every singleton, the weight of its arcs into the
// rest of its original community.
func (r *refinement) computeExternal(pool *parallel.WorkerPool, concurrency int) error {
	n := r.g.NodeCount()
	return forEachRange(pool, parallel.RangePartitions(n, concurrency, parallel.MinBatchSize), func(p parallel.Partition) {
		cg := r.g.Concurrent()
		for v := p.Start; v < p.End(); v++ {
			oc := r.original[v]
			var ext float64
			cg.ForEachRelationship(v, 1.0, func(_, t int64, w float64) bool {
				if t != v && r.original[t] == oc {
					ext += w
				}
				return true
			})
			r.external[v] = ext
		}
	})
}

// mergeNode tries to move singleton v into a neighboring refined community
// and reports whether it did. Both sides must be well-connected before the
// merge and the merged community after it, so every refined community with
// more than one member stays well-connected once refinement ends.
func (r *refinement) mergeNode(v int64) bool {
	oc := r.original[v]
	originalVolume := r.originalVolumes.Get(oc)
	volume := r.nodeVolumes[v]

	if !wellConnected(r.external[v], volume, originalVolume, r.gamma) {
		return false
	}

	r.enc.reset()
	r.g.ForEachRelationship(v, 1.0, func(_, t int64, w float64) bool {
		if t == v || r.original[t] != oc {
			return true
		}
		c := r.refined[t]
		if wellConnected(r.external[c], r.refinedVolumes[c], originalVolume, r.gamma) {
			r.enc.add(c, w)
		}
		return true
	})
	if len(r.enc.touched) == 0 {
		return false
	}

	r.sampler.Reset()
	r.candidates = r.candidates[:0]
	r.candidateWeights = r.candidateWeights[:0]
	greedy := int64(-1)
	greedyGain := 0.0
	for _, c := range r.enc.touched {
		if !keepsWellConnected(r.external[c], r.external[v], r.enc.weight(c), r.refinedVolumes[c]+volume, originalVolume, r.gamma) {
			continue
		}
		gain := r.enc.weight(c) - volume*r.refinedVolumes[c]*r.gamma
		if gain > greedyGain {
			greedy = c
			greedyGain = gain
		}
		weight := 0.0
		if gain >= 0 {
			weight = math.Exp(gain / r.theta)
		}
		r.candidates = append(r.candidates, c)
		r.candidateWeights = append(r.candidateWeights, r.enc.weight(c))
		r.sampler.Add(weight)
	}

	target := int64(-1)
	var targetWeight float64
	if i := r.sampler.Sample(r.rng); i >= 0 {
		target = r.candidates[i]
		targetWeight = r.candidateWeights[i]
	} else if greedy >= 0 {
		target = greedy
		targetWeight = r.enc.weight(greedy)
	}
	if target < 0 || target == v {
		return false
	}

	r.refined[v] = target
	r.refinedVolumes[target] += volume
	r.refinedVolumes[v] = 0
	r.external[target] += r.external[v] - 2*targetWeight
	r.singleton[target] = false
	r.singleton[v] = false
	return true
}
