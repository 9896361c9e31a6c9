package parallel

import (
	"math"
	"sync/atomic"
)

// AtomicDoubleArray is a fixed-size float64 array whose elements can be read,
// written and incremented concurrently. Add is a compare-and-swap loop on the
// IEEE-754 bit pattern, so concurrent adds to one slot are never lost.
type AtomicDoubleArray struct {
	bits []atomic.Uint64
}

// NewAtomicDoubleArray allocates a zeroed array of the given size
func NewAtomicDoubleArray(size int64) *AtomicDoubleArray {
	return &AtomicDoubleArray{bits: make([]atomic.Uint64, size)}
}

// Size returns the number of slots
func (a *AtomicDoubleArray) Size() int64 {
	return int64(len(a.bits))
}

// Get atomically loads slot i
func (a *AtomicDoubleArray) Get(i int64) float64 {
	return math.Float64frombits(a.bits[i].Load())
}

// Set atomically stores v into slot i
func (a *AtomicDoubleArray) Set(i int64, v float64) {
	a.bits[i].Store(math.Float64bits(v))
}

// Add atomically adds delta to slot i and returns the new value
func (a *AtomicDoubleArray) Add(i int64, delta float64) float64 {
	slot := &a.bits[i]
	for {
		old := slot.Load()
		next := math.Float64frombits(old) + delta
		if slot.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// Sum adds up every slot. Not atomic with respect to concurrent writers.
func (a *AtomicDoubleArray) Sum() float64 {
	var sum float64
	for i := range a.bits {
		sum += math.Float64frombits(a.bits[i].Load())
	}
	return sum
}

// ToSlice copies the current values out
func (a *AtomicDoubleArray) ToSlice() []float64 {
	out := make([]float64, len(a.bits))
	for i := range a.bits {
		out[i] = math.Float64frombits(a.bits[i].Load())
	}
	return out
}

// AtomicDoubleArrayOf wraps a copy of values
func AtomicDoubleArrayOf(values []float64) *AtomicDoubleArray {
	a := NewAtomicDoubleArray(int64(len(values)))
	for i, v := range values {
		a.bits[i].Store(math.Float64bits(v))
	}
	return a
}
