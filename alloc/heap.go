package alloc

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/format"
)

// maxHeapBlock bounds a single request; larger ones fail instead of
// aborting the runtime with an out-of-memory error.
const maxHeapBlock uint64 = 1 << 40

// Heap allocates every block from the Go heap. Each block is over-allocated
// by align-1 plus a 16-byte header that sits right before the aligned address
// and records how to validate the block on free. Heap is safe for concurrent use.
type Heap struct {
	stats Stats
	limit uintptr
	live  atomic.Uint64 // raw bytes currently held, checked against limit
}

// HeapOption configures a Heap.
type HeapOption func(*Heap)

// WithHeapLimit caps the raw bytes (blocks plus headers and padding) the heap
// may hold at once. Requests beyond the cap return an invalid Ref.
func WithHeapLimit(n uintptr) HeapOption {
	return func(h *Heap) { h.limit = n }
}

// NewHeap creates a heap allocator.
func NewHeap(opts ...HeapOption) *Heap {
	h := &Heap{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AllocateRaw implements Allocator.
func (h *Heap) AllocateRaw(size, align uintptr, backing bool) Ref[byte] {
	if size == 0 || uint64(size) > format.MaxSize || !format.IsPow2(align) || uint64(align) > format.HeapMaxAdjust {
		return RefFor[byte](h)
	}
	total, ok := buf.AddOverflowSafe(size, align-1+format.HeapHeaderSize)
	if !ok || uint64(total) > maxHeapBlock {
		return RefFor[byte](h)
	}
	if h.limit > 0 {
		if h.live.Add(uint64(total)) > uint64(h.limit) {
			h.live.Add(-uint64(total))
			logDebug("heap limit reached", "request", size, "limit", h.limit)
			return RefFor[byte](h)
		}
	}

	raw := make([]byte, total)
	start := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	adjust := format.AlignUp(start+format.HeapHeaderSize, align) - start
	hdr := format.HeapHeader{Magic: format.HeapMagic, Adjust: uint32(adjust), Size: uint64(total)}
	if err := format.PutHeapHeader(raw[adjust-format.HeapHeaderSize:adjust], hdr); err != nil {
		panic(fmt.Sprintf("alloc: heap: %v", err))
	}

	h.stats.RecordAlloc(size, total-size, backing)
	return MakeRef[byte](unsafe.Pointer(&raw[adjust]), h, format.Log2(align), size, backing)
}

// heapHeader returns the header bytes in front of ref.
func heapHeader(ref Ref[byte]) []byte {
	return unsafe.Slice((*byte)(unsafe.Add(ref.ptr, -format.HeapHeaderSize)), format.HeapHeaderSize)
}

// DeallocateRaw implements Allocator. Freeing a block twice or freeing a
// block from another allocator panics.
func (h *Heap) DeallocateRaw(ref Ref[byte]) {
	if !ref.Valid() {
		return
	}
	if ref.owner != Allocator(h) {
		panic(fmt.Sprintf("alloc: heap: foreign %v", ref))
	}
	b := heapHeader(ref)
	hdr, err := format.ReadHeapHeader(b)
	if err != nil {
		panic(fmt.Sprintf("alloc: heap: double free or corrupt block at %#x: %v", ref.Addr(), err))
	}
	if uint64(hdr.Adjust)+uint64(ref.Size()) > hdr.Size {
		panic(fmt.Sprintf("alloc: heap: block at %#x larger than its buffer", ref.Addr()))
	}
	format.PutU32(b, format.HeapMagicOffset, 0)

	total := uintptr(hdr.Size)
	if h.limit > 0 {
		h.live.Add(-uint64(total))
	}
	h.stats.RecordFree(ref.Size(), total-ref.Size(), ref.IsBacking())
}

// OwnsRaw is best effort: the ref must name this heap and still carry a live header.
func (h *Heap) OwnsRaw(ref Ref[byte]) bool {
	if !ref.Valid() || ref.owner != Allocator(h) {
		return false
	}
	_, err := format.ReadHeapHeader(heapHeader(ref))
	return err == nil
}

// Stats implements Allocator.
func (h *Heap) Stats() *Stats { return &h.stats }
