package alloc

import (
	"fmt"
	"unsafe"
)

// blockBacked is the common base of strategies that manage one contiguous
// region obtained from a parent allocator. The region is requested with
// backing = true so the parent's statistics show it as backing memory.
type blockBacked struct {
	name   string
	parent Allocator
	region Ref[byte]
	mem    []byte
	base   uintptr
	stats  Stats
}

func (b *blockBacked) acquire(name string, parent Allocator, size, align uintptr) error {
	if parent == nil {
		parent = Default()
	}
	region := parent.AllocateRaw(size, align, true)
	if !region.Valid() {
		return fmt.Errorf("%s: %d bytes aligned to %d: %w", name, size, align, ErrNoBacking)
	}
	b.name = name
	b.parent = parent
	b.region = region
	b.mem = region.Bytes()
	b.base = region.Addr()
	logDebug("region acquired", "allocator", name, "bytes", size, "addr", fmt.Sprintf("%#x", b.base))
	return nil
}

// Close returns the region to the parent allocator. Every Ref issued from the
// region becomes invalid to use. A second Close returns ErrClosed.
func (b *blockBacked) Close() error {
	if !b.region.Valid() {
		return fmt.Errorf("%s: %w", b.name, ErrClosed)
	}
	logDebug("region released", "allocator", b.name, "bytes", len(b.mem))
	b.region.Dealloc()
	b.mem = nil
	b.base = 0
	return nil
}

// Stats returns the allocator's statistics.
func (b *blockBacked) Stats() *Stats { return &b.stats }

// Parent returns the allocator the region came from.
func (b *blockBacked) Parent() Allocator { return b.parent }

// Cap returns the region size in bytes.
func (b *blockBacked) Cap() uintptr { return uintptr(len(b.mem)) }

// contains reports whether [addr, addr+size) lies inside the region.
func (b *blockBacked) contains(addr, size uintptr) bool {
	if b.mem == nil || addr < b.base {
		return false
	}
	off := addr - b.base
	return off <= uintptr(len(b.mem)) && size <= uintptr(len(b.mem))-off
}

// OwnsRaw answers by address containment.
func (b *blockBacked) OwnsRaw(ref Ref[byte]) bool {
	return ref.Valid() && b.contains(ref.Addr(), ref.Size())
}

// at returns a pointer to the region byte at off.
func (b *blockBacked) at(off uintptr) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(b.mem)), off)
}
