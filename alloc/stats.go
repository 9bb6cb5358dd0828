package alloc

import "sync"

// StatsSnapshot is a point-in-time copy of an allocator's counters.
// Cur fields describe live state, Max fields the peak of the matching Cur
// field and Total fields the lifetime sum. Backing memory is also counted in
// the memory-use fields.
type StatsSnapshot struct {
	CurMemoryUse   uint64 `json:"cur_memory_use"`
	MaxMemoryUse   uint64 `json:"max_memory_use"`
	TotalMemoryUse uint64 `json:"total_memory_use"`

	CurAllocs   uint64 `json:"cur_allocs"`
	MaxAllocs   uint64 `json:"max_allocs"`
	TotalAllocs uint64 `json:"total_allocs"`

	CurOverhead   uint64 `json:"cur_overhead"`
	MaxOverhead   uint64 `json:"max_overhead"`
	TotalOverhead uint64 `json:"total_overhead"`

	CurBackingMemory   uint64 `json:"cur_backing_memory"`
	MaxBackingMemory   uint64 `json:"max_backing_memory"`
	TotalBackingMemory uint64 `json:"total_backing_memory"`

	LastDefragMoved  uint64 `json:"last_defrag_moved"`
	TotalDefragMoved uint64 `json:"total_defrag_moved"`
	LastDefragFreed  uint64 `json:"last_defrag_freed"`
	TotalDefragFreed uint64 `json:"total_defrag_freed"`
}

// Add returns the field-wise sum of s and o. Max fields are summed as well,
// which gives an upper bound on the combined peak.
func (s StatsSnapshot) Add(o StatsSnapshot) StatsSnapshot {
	return StatsSnapshot{
		CurMemoryUse:       s.CurMemoryUse + o.CurMemoryUse,
		MaxMemoryUse:       s.MaxMemoryUse + o.MaxMemoryUse,
		TotalMemoryUse:     s.TotalMemoryUse + o.TotalMemoryUse,
		CurAllocs:          s.CurAllocs + o.CurAllocs,
		MaxAllocs:          s.MaxAllocs + o.MaxAllocs,
		TotalAllocs:        s.TotalAllocs + o.TotalAllocs,
		CurOverhead:        s.CurOverhead + o.CurOverhead,
		MaxOverhead:        s.MaxOverhead + o.MaxOverhead,
		TotalOverhead:      s.TotalOverhead + o.TotalOverhead,
		CurBackingMemory:   s.CurBackingMemory + o.CurBackingMemory,
		MaxBackingMemory:   s.MaxBackingMemory + o.MaxBackingMemory,
		TotalBackingMemory: s.TotalBackingMemory + o.TotalBackingMemory,
		LastDefragMoved:    s.LastDefragMoved + o.LastDefragMoved,
		TotalDefragMoved:   s.TotalDefragMoved + o.TotalDefragMoved,
		LastDefragFreed:    s.LastDefragFreed + o.LastDefragFreed,
		TotalDefragFreed:   s.TotalDefragFreed + o.TotalDefragFreed,
	}
}

// Stats is the mutex-guarded counter block owned by one allocator instance.
// The zero value is ready to use.
type Stats struct {
	mu sync.Mutex
	s  StatsSnapshot
}

// Snapshot returns a copy of the current counters.
func (st *Stats) Snapshot() StatsSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

// ResetCur zeroes the current fields. Peaks and lifetime totals are kept.
func (st *Stats) ResetCur() {
	st.mu.Lock()
	st.s.CurMemoryUse = 0
	st.s.CurAllocs = 0
	st.s.CurOverhead = 0
	st.s.CurBackingMemory = 0
	st.mu.Unlock()
}

// RecordAlloc accounts for a successful allocation of size bytes that cost
// overhead extra bytes of bookkeeping or padding.
func (st *Stats) RecordAlloc(size, overhead uintptr, backing bool) {
	st.mu.Lock()
	s := &st.s
	bump(&s.CurMemoryUse, &s.MaxMemoryUse, &s.TotalMemoryUse, uint64(size))
	bump(&s.CurAllocs, &s.MaxAllocs, &s.TotalAllocs, 1)
	if overhead > 0 {
		bump(&s.CurOverhead, &s.MaxOverhead, &s.TotalOverhead, uint64(overhead))
	}
	if backing {
		bump(&s.CurBackingMemory, &s.MaxBackingMemory, &s.TotalBackingMemory, uint64(size))
	}
	st.mu.Unlock()
}

// RecordFree reverses RecordAlloc for the current fields.
func (st *Stats) RecordFree(size, overhead uintptr, backing bool) {
	st.mu.Lock()
	s := &st.s
	s.CurMemoryUse = sub(s.CurMemoryUse, uint64(size))
	s.CurAllocs = sub(s.CurAllocs, 1)
	s.CurOverhead = sub(s.CurOverhead, uint64(overhead))
	if backing {
		s.CurBackingMemory = sub(s.CurBackingMemory, uint64(size))
	}
	st.mu.Unlock()
}

// AddOverhead accounts for bookkeeping memory not tied to one allocation.
func (st *Stats) AddOverhead(n uintptr) {
	st.mu.Lock()
	bump(&st.s.CurOverhead, &st.s.MaxOverhead, &st.s.TotalOverhead, uint64(n))
	st.mu.Unlock()
}

// ReleaseOverhead reverses AddOverhead.
func (st *Stats) ReleaseOverhead(n uintptr) {
	st.mu.Lock()
	st.s.CurOverhead = sub(st.s.CurOverhead, uint64(n))
	st.mu.Unlock()
}

// RecordDefrag records the outcome of one defragmentation pass.
func (st *Stats) RecordDefrag(moved, freed uint64) {
	st.mu.Lock()
	st.s.LastDefragMoved = moved
	st.s.TotalDefragMoved += moved
	st.s.LastDefragFreed = freed
	st.s.TotalDefragFreed += freed
	st.mu.Unlock()
}

func bump(cur, peak, total *uint64, n uint64) {
	*cur += n
	*total += n
	if *cur > *peak {
		*peak = *cur
	}
}

// sub saturates at zero; frees of refs issued before a Linear reset would
// otherwise wrap.
func sub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
