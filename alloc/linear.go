package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/format"
)

// Linear is a bump allocator over one region obtained from a parent
// allocator. Blocks cannot be freed individually; Reset rewinds the whole
// region at once.
//
// Key characteristics:
//   - O(1) allocation: align the head, carve, advance
//   - DeallocateRaw only updates statistics
//   - Every block is aligned to at least the configured base alignment
//   - Alignment is computed on absolute addresses, so any power of two works
//     as long as the padding fits
//
// Linear is not safe for concurrent use.
type Linear struct {
	blockBacked
	head      uintptr // offset of the next free byte
	baseAlign uintptr // minimum alignment of every block
}

// NewLinear creates a Linear allocator whose region comes from parent
// (Default() when nil). A nil cfg uses DefaultLinearConfig.
func NewLinear(parent Allocator, cfg *LinearConfig) (*Linear, error) {
	if cfg == nil {
		cfg = &DefaultLinearConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	l := &Linear{baseAlign: cfg.Align}
	if err := l.acquire("linear", parent, cfg.Size, cfg.Align); err != nil {
		return nil, err
	}
	return l, nil
}

// AllocateRaw implements Allocator.
func (l *Linear) AllocateRaw(size, align uintptr, backing bool) Ref[byte] {
	if size == 0 || !format.IsPow2(align) || l.mem == nil {
		return RefFor[byte](l)
	}
	align = max(align, l.baseAlign)
	addr, ok := format.AlignUpChecked(l.base+l.head, align)
	if !ok {
		return RefFor[byte](l)
	}
	start := addr - l.base
	if start > l.Cap() || size > l.Cap()-start {
		logDebug("linear exhausted", "request", size, "align", align, "used", l.head, "cap", l.Cap())
		return RefFor[byte](l)
	}

	padding := start - l.head
	l.head = start + size
	l.stats.RecordAlloc(size, padding, backing)
	return MakeRef[byte](l.at(start), l, format.Log2(align), size, backing)
}

// DeallocateRaw implements Allocator. Memory is only reclaimed by Reset.
func (l *Linear) DeallocateRaw(ref Ref[byte]) {
	if !ref.Valid() {
		return
	}
	if !l.contains(ref.Addr(), ref.Size()) {
		panic(fmt.Sprintf("alloc: linear: foreign %v", ref))
	}
	l.stats.RecordFree(ref.Size(), 0, ref.IsBacking())
}

// Reset rewinds the head to the start of the region and zeroes the current
// statistics. Every Ref issued before the reset must no longer be used or
// deallocated.
func (l *Linear) Reset() {
	l.head = 0
	l.stats.ResetCur()
}

// Used returns the number of bytes consumed, padding included.
func (l *Linear) Used() uintptr { return l.head }

// Remaining returns the number of bytes left after the head.
func (l *Linear) Remaining() uintptr { return l.Cap() - l.head }
