package parallel

import "sync/atomic"

// DefaultChunkSize is the number of queue slots a worker claims at once.
const DefaultChunkSize = 64

// WorkQueue is a double-buffered queue of node ids processed in rounds.
//
// During a round, workers call Claim concurrently; each call hands out a
// disjoint chunk of the current buffer through an atomic cursor, so every
// queued item is claimed exactly once. Items discovered during the round are
// Pushed into the calling worker's private buffer, never into the shared one.
// Between rounds, a single goroutine calls Flush, which concatenates the
// private buffers (in worker order) into the shared buffer and rewinds the
// cursor. Claim/Push must not run concurrently with Flush.
type WorkQueue struct {
	items  []int64
	cursor atomic.Int64
	chunk  int64
	local  [][]int64
}

// NewWorkQueue creates a queue for the given number of workers. capacity is
// a sizing hint for the shared buffer.
func NewWorkQueue(capacity int64, workers int, chunk int64) *WorkQueue {
	if workers < 1 {
		workers = 1
	}
	if chunk < 1 {
		chunk = DefaultChunkSize
	}
	return &WorkQueue{
		items: make([]int64, 0, capacity),
		chunk: chunk,
		local: make([][]int64, workers),
	}
}

// Seed replaces the shared buffer with items and rewinds the cursor.
func (q *WorkQueue) Seed(items []int64) {
	q.items = append(q.items[:0], items...)
	q.cursor.Store(0)
}

// Len returns the number of items in the current round
func (q *WorkQueue) Len() int64 {
	return int64(len(q.items))
}

// Claim returns the next unclaimed range [lo, hi) of the current round.
func (q *WorkQueue) Claim() (lo, hi int64, ok bool) {
	n := int64(len(q.items))
	lo = q.cursor.Add(q.chunk) - q.chunk
	if lo >= n {
		return 0, 0, false
	}
	hi = lo + q.chunk
	if hi > n {
		hi = n
	}
	return lo, hi, true
}

// At returns the item at position i of the current round
func (q *WorkQueue) At(i int64) int64 {
	return q.items[i]
}

// Push buffers item in worker's private buffer for the next round
func (q *WorkQueue) Push(worker int, item int64) {
	q.local[worker] = append(q.local[worker], item)
}

// Flush starts the next round with every buffered item and returns its size.
func (q *WorkQueue) Flush() int64 {
	q.items = q.items[:0]
	for w, buf := range q.local {
		q.items = append(q.items, buf...)
		q.local[w] = buf[:0]
	}
	q.cursor.Store(0)
	return int64(len(q.items))
}
