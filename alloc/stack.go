package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/memkit/internal/format"
)

// Stack is a LIFO allocator over a region it owns. Every block is padded to
// the maximum alignment fixed at construction, and blocks must be released
// in exact reverse order of allocation. Only the head is tracked, so an
// out-of-order release panics.
//
// Stack is not safe for concurrent use.
type Stack struct {
	stats    Stats
	mem      []byte
	base     uintptr
	head     uintptr
	maxAlign uintptr
}

// NewStack creates a Stack allocator. A nil cfg uses DefaultStackConfig.
func NewStack(cfg *StackConfig) (*Stack, error) {
	if cfg == nil {
		cfg = &DefaultStackConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	raw := make([]byte, cfg.Size+cfg.MaxAlign)
	start := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := format.AlignUp(start, cfg.MaxAlign) - start
	s := &Stack{
		mem:      raw[off : off+cfg.Size : off+cfg.Size],
		maxAlign: cfg.MaxAlign,
	}
	s.base = uintptr(unsafe.Pointer(unsafe.SliceData(s.mem)))
	return s, nil
}

// AllocateRaw implements Allocator. Alignments above the maximum fail.
func (s *Stack) AllocateRaw(size, align uintptr, backing bool) Ref[byte] {
	if size == 0 || !format.IsPow2(align) || align > s.maxAlign {
		return RefFor[byte](s)
	}
	padded, ok := format.AlignUpChecked(size, s.maxAlign)
	if !ok || padded > s.Cap()-s.head {
		logDebug("stack exhausted", "request", size, "used", s.head, "cap", s.Cap())
		return RefFor[byte](s)
	}

	ptr := unsafe.Add(unsafe.Pointer(unsafe.SliceData(s.mem)), s.head)
	s.head += padded
	s.stats.RecordAlloc(padded, 0, backing)
	return MakeRef[byte](ptr, s, format.Log2(s.maxAlign), padded, backing)
}

// DeallocateRaw implements Allocator. ref must be the most recent live block.
func (s *Stack) DeallocateRaw(ref Ref[byte]) {
	if !ref.Valid() {
		return
	}
	if !s.contains(ref.Addr(), ref.Size()) {
		panic(fmt.Sprintf("alloc: stack: foreign %v", ref))
	}
	if ref.Addr()+ref.Size() != s.base+s.head {
		panic(fmt.Sprintf("alloc: stack: out of order free of block at offset %d (head %d)",
			ref.Addr()-s.base, s.head))
	}
	s.head -= ref.Size()
	s.stats.RecordFree(ref.Size(), 0, ref.IsBacking())
}

// OwnsRaw implements Allocator by address containment.
func (s *Stack) OwnsRaw(ref Ref[byte]) bool {
	return ref.Valid() && s.contains(ref.Addr(), ref.Size())
}

// Stats implements Allocator.
func (s *Stack) Stats() *Stats { return &s.stats }

// Used returns the number of bytes held by live blocks.
func (s *Stack) Used() uintptr { return s.head }

// Cap returns the region size in bytes.
func (s *Stack) Cap() uintptr { return uintptr(len(s.mem)) }

// MaxAlign returns the alignment every block is padded to.
func (s *Stack) MaxAlign() uintptr { return s.maxAlign }

func (s *Stack) contains(addr, size uintptr) bool {
	if addr < s.base {
		return false
	}
	off := addr - s.base
	return off <= s.Cap() && size <= s.Cap()-off
}
