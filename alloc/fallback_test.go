package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFallback_Overflow tests a 64-byte arena that overflows to the heap.
func TestFallback_Overflow(t *testing.T) {
	arena, _ := newTestLinear(t, 64, 8)
	heap := NewHeap()
	fb := NewFallback(arena, heap)

	baseline := heap.Stats().Snapshot()

	r := Allocate[byte](fb, WithSize(128))
	require.True(t, r.Valid())
	assert.Same(t, heap, r.Allocator(), "request is served by the fallback")
	assert.True(t, Owns(fb, r))
	assert.False(t, Owns(arena, r))
	assert.Equal(t, uint64(1), heap.Stats().Snapshot().CurAllocs)

	Deallocate(fb, &r)
	after := heap.Stats().Snapshot()
	assert.Equal(t, baseline.CurMemoryUse, after.CurMemoryUse)
	assert.Equal(t, baseline.CurAllocs, after.CurAllocs)
	assert.Equal(t, baseline.CurOverhead, after.CurOverhead)
	assert.Equal(t, uint64(1), after.TotalAllocs)
}

// TestFallback_PrefersMain tests that main serves what it can.
func TestFallback_PrefersMain(t *testing.T) {
	arena, _ := newTestLinear(t, 64, 8)
	heap := NewHeap()
	fb := NewFallback(arena, heap)

	small := Allocate[uint64](fb, WithCount(4))
	require.True(t, small.Valid())
	assert.Same(t, arena, small.Allocator())

	spill := Allocate[uint64](fb, WithCount(8))
	require.True(t, spill.Valid())
	assert.Same(t, heap, spill.Allocator())

	s := fb.Stats().Snapshot()
	assert.Equal(t, uint64(2), s.CurAllocs)
	assert.Equal(t, uint64(96), s.CurMemoryUse)

	Deallocate(fb, &small)
	Deallocate(fb, &spill)
	assert.Zero(t, fb.Stats().Snapshot().CurAllocs)
}

// TestFallback_BothFail tests that the fallback's invalid result is returned.
func TestFallback_BothFail(t *testing.T) {
	arena, _ := newTestLinear(t, 64, 8)
	fb := NewFallback(arena, NewHeap(WithHeapLimit(64)))

	r := fb.AllocateRaw(1024, 8, false)
	assert.False(t, r.Valid())
}

// TestFallback_Nested tests routing through a composition of compositions.
func TestFallback_Nested(t *testing.T) {
	stack, err := NewStack(&StackConfig{Size: 32, MaxAlign: 16})
	require.NoError(t, err)
	arena, _ := newTestLinear(t, 128, 16)
	heap := NewHeap()

	inner := NewFallback(stack, arena)
	outer := NewFallback(inner, heap)

	a := outer.AllocateRaw(32, 8, false) // stack
	b := outer.AllocateRaw(64, 8, false) // arena
	c := outer.AllocateRaw(256, 8, false) // heap
	require.True(t, a.Valid() && b.Valid() && c.Valid())
	assert.Same(t, stack, a.Allocator())
	assert.Same(t, arena, b.Allocator())
	assert.Same(t, heap, c.Allocator())

	for _, r := range []Ref[byte]{a, b, c} {
		assert.True(t, outer.OwnsRaw(r))
	}

	outer.DeallocateRaw(c)
	outer.DeallocateRaw(b)
	outer.DeallocateRaw(a)
	assert.Zero(t, outer.Stats().Snapshot().CurAllocs)
	assert.Zero(t, stack.Used())

	foreign := NewHeap().AllocateRaw(8, 8, false)
	requirePanicContains(t, "foreign", func() { outer.DeallocateRaw(foreign) })
}

// TestFallback_Accessors tests construction defaults.
func TestFallback_Accessors(t *testing.T) {
	arena, _ := newTestLinear(t, 64, 8)
	fb := NewFallback(arena, nil)
	assert.Same(t, arena, fb.Main())
	assert.Equal(t, Default(), fb.Secondary())
	assert.Panics(t, func() { NewFallback(nil, NewHeap()) })
}

// TestFallback_OwnStats tests that the composition's counters are its own and
// can be reset through the Allocator interface.
func TestFallback_OwnStats(t *testing.T) {
	arena, _ := newTestLinear(t, 64, 8)
	heap := NewHeap()
	var a Allocator = NewFallback(arena, heap)

	small := a.AllocateRaw(32, 8, false)
	spill := a.AllocateRaw(128, 8, false)
	require.True(t, small.Valid() && spill.Valid())
	require.Equal(t, uint64(2), a.Stats().Snapshot().CurAllocs)
	require.Same(t, a.Stats(), a.Stats())

	a.Stats().ResetCur()
	s := a.Stats().Snapshot()
	assert.Zero(t, s.CurAllocs)
	assert.Zero(t, s.CurMemoryUse)
	assert.Equal(t, uint64(2), s.TotalAllocs)
	assert.Equal(t, uint64(1), arena.Stats().Snapshot().CurAllocs, "children keep their counters")
	assert.Equal(t, uint64(1), heap.Stats().Snapshot().CurAllocs)

	a.DeallocateRaw(spill)
	a.DeallocateRaw(small)
	assert.Zero(t, a.Stats().Snapshot().CurAllocs)
}

// TestFallback_Combined tests the merged view of both sub-allocators.
func TestFallback_Combined(t *testing.T) {
	arena, _ := newTestLinear(t, 64, 8)
	heap := NewHeap()
	fb := NewFallback(arena, heap)

	direct := heap.AllocateRaw(16, 8, false)
	routed := fb.AllocateRaw(24, 8, false)
	require.True(t, direct.Valid() && routed.Valid())

	assert.Equal(t, uint64(1), fb.Stats().Snapshot().CurAllocs)
	combined := fb.Combined()
	assert.Equal(t, uint64(2), combined.CurAllocs)
	assert.Equal(t, uint64(40), combined.CurMemoryUse)

	heap.DeallocateRaw(direct)
	fb.DeallocateRaw(routed)
	assert.Zero(t, fb.Combined().CurAllocs)
}
