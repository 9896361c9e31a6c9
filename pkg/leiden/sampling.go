package leiden

import (
	"math"
	"math/rand/v2"
	"sort"
)

// CategoricalSampler draws an index with probability proportional to its
// weight, using an explicit prefix-sum array and a single uniform draw.
type CategoricalSampler struct {
	prefix []float64
}

// Reset empties the sampler, keeping its buffer
func (s *CategoricalSampler) Reset() {
	s.prefix = s.prefix[:0]
}

// Add appends a category with the given non-negative weight
func (s *CategoricalSampler) Add(weight float64) {
	total := 0.0
	if len(s.prefix) > 0 {
		total = s.prefix[len(s.prefix)-1]
	}
	s.prefix = append(s.prefix, total+weight)
}

// Len returns the number of categories
func (s *CategoricalSampler) Len() int {
	return len(s.prefix)
}

// Total returns the sum of all weights
func (s *CategoricalSampler) Total() float64 {
	if len(s.prefix) == 0 {
		return 0
	}
	return s.prefix[len(s.prefix)-1]
}

// Usable reports whether the total weight is finite and positive.
func (s *CategoricalSampler) Usable() bool {
	total := s.Total()
	return total > 0 && !math.IsInf(total, 0) && !math.IsNaN(total)
}

// Pick returns the index whose prefix interval contains u·Total, for u in
// [0, 1). It returns -1 when the sampler is not Usable.
func (s *CategoricalSampler) Pick(u float64) int {
	if !s.Usable() {
		return -1
	}
	target := u * s.Total()
	i := sort.Search(len(s.prefix), func(i int) bool { return s.prefix[i] > target })
	if i == len(s.prefix) {
		// u rounds up to the total; fall back to the last positive weight
		i = len(s.prefix) - 1
		for i > 0 && s.prefix[i] == s.prefix[i-1] {
			i--
		}
	}
	return i
}

// Sample draws one index using rng, or -1 when the sampler is not Usable.
func (s *CategoricalSampler) Sample(rng *rand.Rand) int {
	return s.Pick(rng.Float64())
}

// newRand returns a PCG-backed generator. A nil seed draws one from the
// runtime's random source.
func newRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
}
