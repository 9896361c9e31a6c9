package pools

import (
	"sync"
)

// Line buffer size classes. Edge-list lines are short; the larger classes
// serve files with long property columns.
const (
	SmallBuffer  = 4 << 10
	MediumBuffer = 64 << 10
	LargeBuffer  = 1 << 20
)

// BytePool provides size-class based pooling for byte slices.
type BytePool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
}

func newByteClass(capacity int) sync.Pool {
	return sync.Pool{
		New: func() any {
			b := make([]byte, 0, capacity)
			return &b
		},
	}
}

// NewBytePool creates a new byte pool.
func NewBytePool() *BytePool {
	return &BytePool{
		small:  newByteClass(SmallBuffer),
		medium: newByteClass(MediumBuffer),
		large:  newByteClass(LargeBuffer),
	}
}

// Get returns a zero-length byte slice with at least the requested capacity.
func (p *BytePool) Get(size int) []byte {
	var pool *sync.Pool
	switch {
	case size <= SmallBuffer:
		pool = &p.small
	case size <= MediumBuffer:
		pool = &p.medium
	case size <= LargeBuffer:
		pool = &p.large
	default:
		return make([]byte, 0, size)
	}

	bp, ok := pool.Get().(*[]byte)
	if !ok || cap(*bp) < size {
		return make([]byte, 0, size)
	}
	return (*bp)[:0]
}

// Put returns a byte slice to the pool. Oversized slices are dropped.
func (p *BytePool) Put(b []byte) {
	var pool *sync.Pool
	switch c := cap(b); {
	case c == SmallBuffer:
		pool = &p.small
	case c == MediumBuffer:
		pool = &p.medium
	case c == LargeBuffer:
		pool = &p.large
	default:
		return
	}
	b = b[:0]
	pool.Put(&b)
}

var defaultBytePool = NewBytePool()

// GetBytes returns a byte slice from the default pool.
func GetBytes(size int) []byte {
	return defaultBytePool.Get(size)
}

// PutBytes returns a byte slice to the default pool.
func PutBytes(b []byte) {
	defaultBytePool.Put(b)
}
