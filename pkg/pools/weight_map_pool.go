package pools

import (
	"sync"
)

// WeightMapPool pools map[int64]float64, the shape used to accumulate
// edge weight or volume per community id.
type WeightMapPool struct {
	pool sync.Pool
}

// maxPooledEntries keeps huge maps from pinning memory after a big partition.
const maxPooledEntries = 1 << 16

// NewWeightMapPool creates a new weight map pool.
func NewWeightMapPool() *WeightMapPool {
	return &WeightMapPool{
		pool: sync.Pool{
			New: func() any {
				return make(map[int64]float64, 64)
			},
		},
	}
}

// Get returns an empty map from the pool.
func (p *WeightMapPool) Get() map[int64]float64 {
	m, ok := p.pool.Get().(map[int64]float64)
	if !ok {
		return make(map[int64]float64, 64)
	}
	clear(m)
	return m
}

// Put returns a map to the pool.
func (p *WeightMapPool) Put(m map[int64]float64) {
	if m == nil || len(m) > maxPooledEntries {
		return
	}
	p.pool.Put(m)
}

var defaultWeightMapPool = NewWeightMapPool()

// GetWeightMap returns an empty map from the default pool.
func GetWeightMap() map[int64]float64 {
	return defaultWeightMapPool.Get()
}

// PutWeightMap returns a map to the default pool.
func PutWeightMap(m map[int64]float64) {
	defaultWeightMapPool.Put(m)
}
