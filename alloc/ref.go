package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/memkit/internal/format"
)

// Ref describes one block of memory obtained from a specific allocator.
//
// The zero value is invalid. A valid Ref's address is aligned to Align() and
// the span [Addr(), Addr()+Size()) belongs to Allocator(). Size and alignment
// never change after creation.
//
// Copying a Ref copies the descriptor only; exactly one copy may be released.
// Release it with Deallocate or Dealloc, both of which zero the Ref.
type Ref[T any] struct {
	ptr   unsafe.Pointer // keeps the backing region reachable
	owner Allocator
	meta  uint64 // packed descriptor, see internal/format
}

// RefFor returns an invalid Ref that remembers which allocator to use.
func RefFor[T any](a Allocator) Ref[T] {
	return Ref[T]{owner: a}
}

// MakeRef builds a fully described Ref. It is meant for Allocator
// implementations; callers obtain Refs through Allocate.
func MakeRef[T any](ptr unsafe.Pointer, owner Allocator, log2Align uint8, size uintptr, backing bool) Ref[T] {
	if log2Align > format.MaxLog2Align {
		panic(fmt.Sprintf("alloc: ref: alignment exponent %d exceeds %d", log2Align, format.MaxLog2Align))
	}
	if uint64(size) > format.MaxSize {
		panic(fmt.Sprintf("alloc: ref: size %d exceeds descriptor range", size))
	}
	return Ref[T]{
		ptr:   ptr,
		owner: owner,
		meta:  format.PackDescriptor(log2Align, backing, uint64(size)),
	}
}

// retype reinterprets the descriptor for another element type without any checks.
func retype[U, T any](r Ref[T]) Ref[U] {
	return Ref[U]{ptr: r.ptr, owner: r.owner, meta: r.meta}
}

// Valid reports whether r refers to live memory.
func (r Ref[T]) Valid() bool {
	return r.ptr != nil && r.owner != nil
}

// Allocator returns the allocator that produced r (or the one an invalid
// placeholder remembers).
func (r Ref[T]) Allocator() Allocator { return r.owner }

// Ptr returns a typed pointer to the first element, or nil if r is invalid.
func (r Ref[T]) Ptr() *T {
	return (*T)(r.ptr)
}

// Slice views the block as elements of T. Trailing bytes that do not fill a
// whole element are not included.
func (r Ref[T]) Slice() []T {
	if r.ptr == nil {
		return nil
	}
	var zero T
	elem := unsafe.Sizeof(zero)
	if elem == 0 {
		return nil
	}
	return unsafe.Slice((*T)(r.ptr), r.Size()/elem)
}

// Bytes views the block as raw bytes.
func (r Ref[T]) Bytes() []byte {
	if r.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(r.ptr), r.Size())
}

// Addr returns the block address.
func (r Ref[T]) Addr() uintptr { return uintptr(r.ptr) }

// Size returns the block size in bytes.
func (r Ref[T]) Size() uintptr { return uintptr(format.DescriptorSize(r.meta)) }

// Log2Align returns the base-2 logarithm of the block alignment.
func (r Ref[T]) Log2Align() uint8 { return format.DescriptorLog2Align(r.meta) }

// Align returns the block alignment in bytes.
func (r Ref[T]) Align() uintptr { return uintptr(1) << r.Log2Align() }

// IsBacking reports whether the block supplies another allocator's region.
func (r Ref[T]) IsBacking() bool { return format.DescriptorBacking(r.meta) }

// Same reports whether r and o name the same block of the same allocator.
// Two invalid refs are never the same.
func (r Ref[T]) Same(o Ref[T]) bool {
	return r.Valid() && o.Valid() && r.ptr == o.ptr && r.owner == o.owner
}

// String implements fmt.Stringer.
func (r Ref[T]) String() string {
	if !r.Valid() {
		return "Ref{invalid}"
	}
	s := fmt.Sprintf("Ref{addr=%#x size=%d align=%d", r.Addr(), r.Size(), r.Align())
	if r.IsBacking() {
		s += " backing"
	}
	return s + "}"
}

// Dealloc returns the block to the allocator that produced it and zeroes r.
// It is a no-op on an invalid ref.
func (r *Ref[T]) Dealloc() {
	if !r.Valid() {
		return
	}
	r.owner.DeallocateRaw(retype[byte](*r))
	*r = Ref[T]{}
}

// Cast reinterprets r as a Ref to elements of U over the same bytes. The
// alignment is recomputed for U and the byte size is kept. Cast panics if the
// block is smaller than one U or its address is misaligned for U.
func Cast[U, T any](r Ref[T]) Ref[U] {
	if !r.Valid() {
		return Ref[U]{owner: r.owner}
	}
	mustBePointerFree[U]()
	var zero U
	size, align := unsafe.Sizeof(zero), unsafe.Alignof(zero)
	if r.Size() < size {
		panic(fmt.Sprintf("alloc: cast: block of %d bytes cannot hold %d-byte element", r.Size(), size))
	}
	if !format.IsAligned(r.Addr(), align) {
		panic(fmt.Sprintf("alloc: cast: address %#x not aligned to %d", r.Addr(), align))
	}
	return Ref[U]{
		ptr:   r.ptr,
		owner: r.owner,
		meta:  format.PackDescriptor(format.Log2(align), r.IsBacking(), uint64(r.Size())),
	}
}
