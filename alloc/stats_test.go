package alloc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStats_NAllocations tests the counters after N identical allocations.
func TestStats_NAllocations(t *testing.T) {
	const n = 50
	h := NewHeap()

	refs := make([]Ref[uint64], 0, n)
	for range n {
		r := Allocate[uint64](h)
		require.True(t, r.Valid())
		refs = append(refs, r)
	}

	s := h.Stats().Snapshot()
	assert.Equal(t, uint64(n), s.CurAllocs)
	assert.GreaterOrEqual(t, s.MaxAllocs, uint64(n))
	assert.Equal(t, uint64(n), s.TotalAllocs)
	assert.Equal(t, uint64(n*8), s.CurMemoryUse)

	for i := range refs {
		Deallocate(h, &refs[i])
	}

	s = h.Stats().Snapshot()
	assert.Zero(t, s.CurAllocs)
	assert.Zero(t, s.CurMemoryUse)
	assert.Zero(t, s.CurOverhead)
	assert.Equal(t, uint64(n), s.TotalAllocs)
	assert.Equal(t, uint64(n), s.MaxAllocs)
}

// TestStats_Record tests the counter arithmetic directly.
func TestStats_Record(t *testing.T) {
	var st Stats
	st.RecordAlloc(100, 20, false)
	st.RecordAlloc(400, 0, true)
	st.RecordFree(100, 20, false)
	st.AddOverhead(64)
	st.RecordDefrag(10, 5)
	st.RecordDefrag(3, 1)

	want := StatsSnapshot{
		CurMemoryUse:       400,
		MaxMemoryUse:       500,
		TotalMemoryUse:     500,
		CurAllocs:          1,
		MaxAllocs:          2,
		TotalAllocs:        2,
		CurOverhead:        64,
		MaxOverhead:        64,
		TotalOverhead:      84,
		CurBackingMemory:   400,
		MaxBackingMemory:   400,
		TotalBackingMemory: 400,
		LastDefragMoved:    3,
		TotalDefragMoved:   13,
		LastDefragFreed:    1,
		TotalDefragFreed:   6,
	}
	if diff := cmp.Diff(want, st.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	st.ReleaseOverhead(64)
	assert.Zero(t, st.Snapshot().CurOverhead)
}

// TestStats_ResetCur tests that only current fields are cleared.
func TestStats_ResetCur(t *testing.T) {
	var st Stats
	st.RecordAlloc(128, 8, true)
	before := st.Snapshot()

	st.ResetCur()
	after := st.Snapshot()

	want := before
	want.CurMemoryUse, want.CurAllocs, want.CurOverhead, want.CurBackingMemory = 0, 0, 0, 0
	if diff := cmp.Diff(want, after); diff != "" {
		t.Fatalf("ResetCur touched more than current fields (-want +got):\n%s", diff)
	}
}

// TestStats_FreeSaturates tests that frees never wrap the current counters.
func TestStats_FreeSaturates(t *testing.T) {
	var st Stats
	st.RecordFree(64, 8, true)
	s := st.Snapshot()
	assert.Zero(t, s.CurMemoryUse)
	assert.Zero(t, s.CurAllocs)
	assert.Zero(t, s.CurOverhead)
	assert.Zero(t, s.CurBackingMemory)
}

// TestStatsSnapshot_Add tests the field-wise merge used by Fallback.
func TestStatsSnapshot_Add(t *testing.T) {
	a := StatsSnapshot{CurAllocs: 1, TotalAllocs: 4, MaxMemoryUse: 10, TotalDefragFreed: 2}
	b := StatsSnapshot{CurAllocs: 2, TotalAllocs: 1, MaxMemoryUse: 5, LastDefragMoved: 7}
	got := a.Add(b)
	want := StatsSnapshot{CurAllocs: 3, TotalAllocs: 5, MaxMemoryUse: 15, TotalDefragFreed: 2, LastDefragMoved: 7}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Add mismatch (-want +got):\n%s", diff)
	}
}
