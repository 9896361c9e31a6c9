package pools

import (
	"sync"
)

// Int64Pool pools int64 slices in three capacity classes.
type Int64Pool struct {
	small  sync.Pool // <= 64 elements
	medium sync.Pool // <= 1024 elements
	large  sync.Pool // <= 16384 elements
}

const (
	int64Small  = 64
	int64Medium = 1024
	int64Large  = 16384
)

func newInt64Class(capacity int) sync.Pool {
	return sync.Pool{
		New: func() any {
			s := make([]int64, 0, capacity)
			return &s
		},
	}
}

// NewInt64Pool creates a new int64 slice pool.
func NewInt64Pool() *Int64Pool {
	return &Int64Pool{
		small:  newInt64Class(int64Small),
		medium: newInt64Class(int64Medium),
		large:  newInt64Class(int64Large),
	}
}

func (p *Int64Pool) class(capacity int) *sync.Pool {
	switch {
	case capacity <= int64Small:
		return &p.small
	case capacity <= int64Medium:
		return &p.medium
	case capacity <= int64Large:
		return &p.large
	}
	return nil
}

// Get returns an empty slice with at least the requested capacity.
func (p *Int64Pool) Get(size int) []int64 {
	pool := p.class(size)
	if pool == nil {
		return make([]int64, 0, size)
	}
	sp, ok := pool.Get().(*[]int64)
	if !ok || cap(*sp) < size {
		return make([]int64, 0, size)
	}
	return (*sp)[:0]
}

// Put returns a slice to the pool. Slices above the largest class are dropped.
func (p *Int64Pool) Put(s []int64) {
	// a slice that grew past its class goes back into the class it now fits
	c := cap(s)
	var pool *sync.Pool
	switch {
	case c >= int64Large && c <= 4*int64Large:
		pool = &p.large
	case c >= int64Medium && c < int64Large:
		pool = &p.medium
	case c >= int64Small && c < int64Medium:
		pool = &p.small
	default:
		return
	}
	s = s[:0]
	pool.Put(&s)
}

var defaultInt64Pool = NewInt64Pool()

// GetInt64s returns an int64 slice from the default pool.
func GetInt64s(size int) []int64 {
	return defaultInt64Pool.Get(size)
}

// PutInt64s returns an int64 slice to the default pool.
func PutInt64s(s []int64) {
	defaultInt64Pool.Put(s)
}
