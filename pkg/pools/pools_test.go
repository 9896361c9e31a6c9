package pools

import (
	"sync"
	"testing"
)

func TestInt64Pool_Get(t *testing.T) {
	pool := NewInt64Pool()

	for _, size := range []int{0, 10, 64, 65, 1024, 5000, 16384, 100000} {
		s := pool.Get(size)
		if len(s) != 0 {
			t.Errorf("Get(%d) length = %d, want 0", size, len(s))
		}
		if cap(s) < size {
			t.Errorf("Get(%d) capacity = %d, want >= %d", size, cap(s), size)
		}
	}
}

func TestInt64Pool_PutGrownSlice(t *testing.T) {
	pool := NewInt64Pool()

	s := pool.Get(10)
	for i := 0; i < 2000; i++ {
		s = append(s, int64(i))
	}
	pool.Put(s)

	// whichever buffer comes back must honor the requested capacity
	for _, size := range []int{64, 1024} {
		got := pool.Get(size)
		if cap(got) < size || len(got) != 0 {
			t.Errorf("Get(%d) = len %d cap %d", size, len(got), cap(got))
		}
	}
}

func TestInt64Pool_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s := GetInt64s(i % 200)
				s = append(s, int64(g), int64(i))
				if s[0] != int64(g) {
					t.Errorf("slice shared between goroutines")
				}
				PutInt64s(s)
			}
		}(g)
	}
	wg.Wait()
}

func TestWeightMapPool(t *testing.T) {
	m := GetWeightMap()
	m[1] = 2.5
	m[7] = 1
	PutWeightMap(m)

	again := GetWeightMap()
	if len(again) != 0 {
		t.Errorf("pooled map not cleared: %v", again)
	}
	PutWeightMap(again)

	// nil and oversized maps are ignored
	PutWeightMap(nil)
	big := make(map[int64]float64, maxPooledEntries+1)
	for i := int64(0); i <= maxPooledEntries; i++ {
		big[i] = 1
	}
	NewWeightMapPool().Put(big)
}

func TestBytePool(t *testing.T) {
	pool := NewBytePool()

	tests := []struct {
		size   int
		minCap int
	}{
		{1, SmallBuffer},
		{SmallBuffer + 1, MediumBuffer},
		{MediumBuffer, MediumBuffer},
		{LargeBuffer, LargeBuffer},
		{LargeBuffer + 1, LargeBuffer + 1},
	}

	for _, tt := range tests {
		b := pool.Get(tt.size)
		if len(b) != 0 || cap(b) < tt.minCap {
			t.Errorf("Get(%d) = len %d cap %d, want len 0 cap >= %d", tt.size, len(b), cap(b), tt.minCap)
		}
		pool.Put(b)
	}
}

func BenchmarkWeightMapPool(b *testing.B) {
	for i := 0; i < b.N; i++ {
		m := GetWeightMap()
		for c := int64(0); c < 32; c++ {
			m[c] += 1
		}
		PutWeightMap(m)
	}
}
