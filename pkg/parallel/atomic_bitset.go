package parallel

import (
	"math/bits"
	"sync/atomic"
)

// AtomicBitSet is a fixed-size bitset safe for concurrent use.
// GetAndSet is the test-and-set primitive: among concurrent callers for the
// same clear bit exactly one observes false.
type AtomicBitSet struct {
	words []atomic.Uint64
	size  int64
}

// NewAtomicBitSet allocates a cleared bitset holding size bits
func NewAtomicBitSet(size int64) *AtomicBitSet {
	return &AtomicBitSet{
		words: make([]atomic.Uint64, (size+63)/64),
		size:  size,
	}
}

// Size returns the number of addressable bits
func (b *AtomicBitSet) Size() int64 {
	return b.size
}

// Get reports whether bit i is set
func (b *AtomicBitSet) Get(i int64) bool {
	return b.words[i>>6].Load()&(1<<(uint64(i)&63)) != 0
}

// Set sets bit i
func (b *AtomicBitSet) Set(i int64) {
	b.words[i>>6].Or(1 << (uint64(i) & 63))
}

// Clear clears bit i
func (b *AtomicBitSet) Clear(i int64) {
	b.words[i>>6].And(^(uint64(1) << (uint64(i) & 63)))
}

// GetAndSet sets bit i and returns its previous state
func (b *AtomicBitSet) GetAndSet(i int64) bool {
	mask := uint64(1) << (uint64(i) & 63)
	return b.words[i>>6].Or(mask)&mask != 0
}

// Cardinality counts the set bits
func (b *AtomicBitSet) Cardinality() int64 {
	var n int64
	for i := range b.words {
		n += int64(bits.OnesCount64(b.words[i].Load()))
	}
	return n
}

// NextSetBit returns the index of the first set bit at or after from, or -1.
func (b *AtomicBitSet) NextSetBit(from int64) int64 {
	if from < 0 {
		from = 0
	}
	if from >= b.size {
		return -1
	}
	w := from >> 6
	word := b.words[w].Load() & (^uint64(0) << (uint64(from) & 63))
	for {
		if word != 0 {
			idx := w<<6 + int64(bits.TrailingZeros64(word))
			if idx >= b.size {
				return -1
			}
			return idx
		}
		w++
		if w >= int64(len(b.words)) {
			return -1
		}
		word = b.words[w].Load()
	}
}
