package alloc

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/internal/pages"
)

// Pages allocates whole OS pages outside the Go heap: mmap on unix,
// VirtualAlloc on windows. Sizes are rounded up to the page size and
// alignments above it fail. Pages is safe for concurrent use and is a natural
// parent for large Linear or Buddy regions.
type Pages struct {
	stats    Stats
	pageSize uintptr

	mu   sync.Mutex
	live map[uintptr]mapping
}

type mapping struct {
	data    []byte
	release func() error
}

// NewPages creates a page allocator.
func NewPages() *Pages {
	return &Pages{
		pageSize: uintptr(pages.Size()),
		live:     make(map[uintptr]mapping),
	}
}

// PageSize returns the OS page size.
func (p *Pages) PageSize() uintptr { return p.pageSize }

// AllocateRaw implements Allocator.
func (p *Pages) AllocateRaw(size, align uintptr, backing bool) Ref[byte] {
	if size == 0 || !format.IsPow2(align) || align > p.pageSize || uint64(size) > math.MaxInt/2 {
		return RefFor[byte](p)
	}
	data, release, err := pages.Map(int(size))
	if err != nil {
		logDebug("pages map failed", "request", size, "err", err)
		return RefFor[byte](p)
	}
	ptr := unsafe.Pointer(unsafe.SliceData(data))

	p.mu.Lock()
	p.live[uintptr(ptr)] = mapping{data: data, release: release}
	p.mu.Unlock()

	p.stats.RecordAlloc(size, uintptr(len(data))-size, backing)
	return MakeRef[byte](ptr, p, format.Log2(align), size, backing)
}

// DeallocateRaw implements Allocator. Unknown or already released refs panic.
func (p *Pages) DeallocateRaw(ref Ref[byte]) {
	if !ref.Valid() {
		return
	}
	p.mu.Lock()
	m, ok := p.live[ref.Addr()]
	if ok {
		delete(p.live, ref.Addr())
	}
	p.mu.Unlock()
	if !ok || ref.owner != Allocator(p) {
		panic(fmt.Sprintf("alloc: pages: foreign or released %v", ref))
	}

	if err := m.release(); err != nil {
		logger.Error("pages unmap failed", "addr", fmt.Sprintf("%#x", ref.Addr()), "err", err)
	}
	p.stats.RecordFree(ref.Size(), uintptr(len(m.data))-ref.Size(), ref.IsBacking())
}

// OwnsRaw implements Allocator.
func (p *Pages) OwnsRaw(ref Ref[byte]) bool {
	if !ref.Valid() || ref.owner != Allocator(p) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.live[ref.Addr()]
	return ok
}

// Stats implements Allocator.
func (p *Pages) Stats() *Stats { return &p.stats }
