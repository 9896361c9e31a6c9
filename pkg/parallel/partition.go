package parallel

// Partition is a contiguous node range [Start, Start+Count).
type Partition struct {
	Start int64
	Count int64
}

// End returns the exclusive upper bound of the range
func (p Partition) End() int64 {
	return p.Start + p.Count
}

// MinBatchSize keeps tiny graphs from being split into many near-empty ranges.
const MinBatchSize = 1000

// RangePartitions splits [0, nodeCount) into at most concurrency ranges of
// roughly equal node count, none smaller than minBatch unless it is the last.
func RangePartitions(nodeCount int64, concurrency int, minBatch int64) []Partition {
	if nodeCount <= 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if minBatch < 1 {
		minBatch = 1
	}

	// int64 arithmetic keeps (n + c - 1) from overflowing
	batch := (nodeCount + int64(concurrency) - 1) / int64(concurrency)
	if batch < minBatch {
		batch = minBatch
	}

	partitions := make([]Partition, 0, (nodeCount+batch-1)/batch)
	for start := int64(0); start < nodeCount; start += batch {
		count := batch
		if start+count > nodeCount {
			count = nodeCount - start
		}
		partitions = append(partitions, Partition{Start: start, Count: count})
	}
	return partitions
}

// DegreePartitions splits [0, nodeCount) into contiguous ranges carrying
// roughly equal total degree, so that edge-heavy work is balanced across
// workers. A range never exceeds one node more than its degree budget.
func DegreePartitions(nodeCount int64, degree func(int64) int, concurrency int) []Partition {
	if nodeCount <= 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var total int64
	for n := int64(0); n < nodeCount; n++ {
		total += int64(degree(n))
	}
	budget := (total + int64(concurrency) - 1) / int64(concurrency)
	if budget < 1 {
		return RangePartitions(nodeCount, concurrency, 1)
	}

	partitions := make([]Partition, 0, concurrency)
	start := int64(0)
	var acc int64
	for n := int64(0); n < nodeCount; n++ {
		acc += int64(degree(n))
		if acc >= budget {
			partitions = append(partitions, Partition{Start: start, Count: n + 1 - start})
			start = n + 1
			acc = 0
		}
	}
	if start < nodeCount {
		partitions = append(partitions, Partition{Start: start, Count: nodeCount - start})
	}
	return partitions
}

// ForEachPartition runs fn once per partition on the pool and waits.
func ForEachPartition(pool *WorkerPool, partitions []Partition, fn func(Partition)) error {
	tasks := make([]func(), len(partitions))
	for i, p := range partitions {
		p := p
		tasks[i] = func() { fn(p) }
	}
	return pool.RunAll(tasks...)
}
