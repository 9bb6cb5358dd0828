package alloc

import "fmt"

// Fallback serves requests from a main allocator and retries the identical
// request on a fallback allocator when main returns an invalid Ref. Every Ref
// names the sub-allocator that produced it. The composition keeps its own
// statistics for the requests routed through it; Combined reports what both
// sub-allocators hold.
//
// Typical use is a small fast arena that overflows to the heap:
//
//	arena, _ := alloc.NewLinear(nil, &alloc.LinearConfig{Size: 4096, Align: 16})
//	a := alloc.NewFallback(arena, alloc.NewHeap())
type Fallback struct {
	main     Allocator
	fallback Allocator
	stats    Stats
}

// NewFallback composes main and fallback. A nil fallback means Default().
func NewFallback(main, fallback Allocator) *Fallback {
	if main == nil {
		panic("alloc: fallback: nil main allocator")
	}
	if fallback == nil {
		fallback = Default()
	}
	return &Fallback{main: main, fallback: fallback}
}

// Main returns the allocator tried first.
func (f *Fallback) Main() Allocator { return f.main }

// Secondary returns the allocator tried when Main fails.
func (f *Fallback) Secondary() Allocator { return f.fallback }

// AllocateRaw implements Allocator.
func (f *Fallback) AllocateRaw(size, align uintptr, backing bool) Ref[byte] {
	ref := f.main.AllocateRaw(size, align, backing)
	if !ref.Valid() {
		logDebug("fallback retry", "request", size, "align", align)
		ref = f.fallback.AllocateRaw(size, align, backing)
	}
	if ref.Valid() {
		f.stats.RecordAlloc(ref.Size(), 0, backing)
	}
	return ref
}

// DeallocateRaw implements Allocator. The ref is routed to the sub-allocator
// it names; refs from nested compositions are routed by ownership.
func (f *Fallback) DeallocateRaw(ref Ref[byte]) {
	if !ref.Valid() {
		return
	}
	switch {
	case ref.owner == f.main:
		f.main.DeallocateRaw(ref)
	case ref.owner == f.fallback:
		f.fallback.DeallocateRaw(ref)
	case f.main.OwnsRaw(ref):
		f.main.DeallocateRaw(ref)
	case f.fallback.OwnsRaw(ref):
		f.fallback.DeallocateRaw(ref)
	default:
		panic(fmt.Sprintf("alloc: fallback: foreign %v", ref))
	}
	f.stats.RecordFree(ref.Size(), 0, ref.IsBacking())
}

// OwnsRaw implements Allocator.
func (f *Fallback) OwnsRaw(ref Ref[byte]) bool {
	return f.main.OwnsRaw(ref) || f.fallback.OwnsRaw(ref)
}

// Stats returns the statistics of requests served through the composition.
func (f *Fallback) Stats() *Stats { return &f.stats }

// Combined returns the merged counters of both sub-allocators, including
// allocations made on them directly and their own overhead.
func (f *Fallback) Combined() StatsSnapshot {
	return f.main.Stats().Snapshot().Add(f.fallback.Stats().Snapshot())
}
