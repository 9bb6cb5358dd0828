package alloc

import "sync/atomic"

type defaultSlot struct {
	a Allocator
}

var current atomic.Pointer[defaultSlot]

// Default returns the process-wide default allocator, installing a Heap on
// first use.
func Default() Allocator {
	if s := current.Load(); s != nil {
		return s.a
	}
	s := &defaultSlot{a: NewHeap()}
	if current.CompareAndSwap(nil, s) {
		return s.a
	}
	return current.Load().a
}

// SetDefault installs a as the default allocator and returns the previous one
// (nil if none was installed yet). A nil a restores the lazily created Heap.
//
// The installed allocator must outlive every allocation made through it.
// Refs remember their own allocator, so swapping the default never changes
// how an existing Ref is released.
func SetDefault(a Allocator) Allocator {
	var next *defaultSlot
	if a != nil {
		next = &defaultSlot{a: a}
	}
	prev := current.Swap(next)
	if prev == nil {
		return nil
	}
	return prev.a
}
