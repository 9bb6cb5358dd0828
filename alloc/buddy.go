package alloc

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/joshuapare/memkit/internal/format"
)

// Buddy is a binary buddy allocator over one power-of-two region obtained
// from a parent allocator.
//
// The region is the root of a complete binary tree Levels deep. Node i has
// children 2i+1 and 2i+2; each node carries a 2-bit state (free, split, used)
// in a bitmap stored at the front of the region. The leaves covering the
// bitmap are marked used at construction.
//
// A request is served by the deepest block that still fits it, so the Ref
// size is always the block size. Freed blocks merge with a free sibling, level
// by level. All bitmap access is serialized by one mutex, which makes Buddy
// safe for concurrent use.
type Buddy struct {
	blockBacked

	mu       sync.Mutex
	levels   uint8
	nodes    int
	leafSize uintptr
	mgmt     uintptr
	maxAlign uintptr
}

// NewBuddy creates a Buddy allocator whose region comes from parent
// (Default() when nil). A nil cfg uses DefaultBuddyConfig.
func NewBuddy(parent Allocator, cfg *BuddyConfig) (*Buddy, error) {
	if cfg == nil {
		cfg = &DefaultBuddyConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b := &Buddy{
		levels:   cfg.Levels,
		nodes:    cfg.nodeCount(),
		leafSize: cfg.LeafSize(),
		mgmt:     cfg.mgmtSize(),
	}
	if err := b.acquire("buddy", parent, cfg.Size, b.leafSize); err != nil {
		return nil, err
	}
	// Blocks are aligned to their size relative to the base, so the base's
	// own alignment caps what can be promised.
	b.maxAlign = min(b.leafSize, uintptr(1)<<bits.TrailingZeros64(uint64(b.base)))

	// Parent memory may be recycled; start from an all-free tree.
	clear(b.mem[:cfg.bitmapBytes()])
	firstLeaf := b.firstAtDepth(b.levels)
	for i := range int(b.mgmt / b.leafSize) {
		b.markUsed(firstLeaf + i)
	}
	b.stats.AddOverhead(b.mgmt)

	logDebug("buddy ready", "region", cfg.Size, "levels", cfg.Levels, "leaf", b.leafSize, "mgmt", b.mgmt)
	return b, nil
}

// Close returns the region to the parent allocator.
func (b *Buddy) Close() error {
	if err := b.blockBacked.Close(); err != nil {
		return err
	}
	b.stats.ReleaseOverhead(b.mgmt)
	return nil
}

// state returns the 2-bit state of node i.
func (b *Buddy) state(i int) byte {
	shift := uint(i%format.BuddyNodesPerByte) * format.BuddyStateBits
	return (b.mem[i/format.BuddyNodesPerByte] >> shift) & format.BuddyStateMask
}

func (b *Buddy) setState(i int, s byte) {
	shift := uint(i%format.BuddyNodesPerByte) * format.BuddyStateBits
	p := &b.mem[i/format.BuddyNodesPerByte]
	*p = *p&^(format.BuddyStateMask<<shift) | s<<shift
}

// markUsed marks node i used and every ancestor split.
func (b *Buddy) markUsed(i int) {
	b.setState(i, format.BuddyUsed)
	for i > 0 {
		i = (i - 1) / 2
		if b.state(i) == format.BuddySplit {
			break
		}
		b.setState(i, format.BuddySplit)
	}
}

func (b *Buddy) firstAtDepth(d uint8) int { return 1<<d - 1 }

func (b *Buddy) blockSize(d uint8) uintptr { return b.Cap() >> d }

func depthOf(i int) uint8 { return uint8(bits.Len(uint(i+1)) - 1) }

// offsetOf returns the region offset of node i.
func (b *Buddy) offsetOf(i int) uintptr {
	d := depthOf(i)
	return uintptr(i-b.firstAtDepth(d)) * b.blockSize(d)
}

// depthFor returns the deepest level whose blocks hold size bytes.
func (b *Buddy) depthFor(size uintptr) (uint8, bool) {
	block := max(format.NextPow2(size), b.leafSize)
	if size > b.Cap() || block > b.Cap() {
		return 0, false
	}
	return format.Log2(b.Cap()) - format.Log2(block), true
}

// find searches the subtree at node i (depth d) for a free node at depth
// target, splitting free nodes on the way down.
func (b *Buddy) find(i int, d, target uint8) int {
	switch b.state(i) {
	case format.BuddyUsed:
		return -1
	case format.BuddyFree:
		if d == target {
			return i
		}
		b.setState(i, format.BuddySplit)
		return b.find(2*i+1, d+1, target)
	default:
		if d == target {
			return -1
		}
		if n := b.find(2*i+1, d+1, target); n >= 0 {
			return n
		}
		return b.find(2*i+2, d+1, target)
	}
}

// AllocateRaw implements Allocator. Alignments above the leaf size fail.
func (b *Buddy) AllocateRaw(size, align uintptr, backing bool) Ref[byte] {
	if size == 0 || !format.IsPow2(align) || align > b.maxAlign || b.mem == nil {
		return RefFor[byte](b)
	}
	depth, ok := b.depthFor(size)
	if !ok {
		return RefFor[byte](b)
	}

	b.mu.Lock()
	node := b.find(0, 0, depth)
	if node >= 0 {
		b.markUsed(node)
	}
	b.mu.Unlock()

	if node < 0 {
		logDebug("buddy exhausted", "request", size, "block", b.blockSize(depth))
		return RefFor[byte](b)
	}
	block := b.blockSize(depth)
	b.stats.RecordAlloc(block, 0, backing)
	return MakeRef[byte](b.at(b.offsetOf(node)), b, format.Log2(align), block, backing)
}

// nodeFor maps a block back to its tree node.
func (b *Buddy) nodeFor(ref Ref[byte]) int {
	size := ref.Size()
	off := ref.Addr() - b.base
	if !format.IsPow2(size) || size < b.leafSize || !format.IsAligned(off, size) {
		panic(fmt.Sprintf("alloc: buddy: %v is not a buddy block", ref))
	}
	d := format.Log2(b.Cap()) - format.Log2(size)
	return b.firstAtDepth(d) + int(off/size)
}

// DeallocateRaw implements Allocator. Freeing a block twice panics.
func (b *Buddy) DeallocateRaw(ref Ref[byte]) {
	if !ref.Valid() {
		return
	}
	if !b.contains(ref.Addr(), ref.Size()) {
		panic(fmt.Sprintf("alloc: buddy: foreign %v", ref))
	}
	node := b.nodeFor(ref)

	b.mu.Lock()
	if b.state(node) != format.BuddyUsed {
		b.mu.Unlock()
		panic(fmt.Sprintf("alloc: buddy: double free of %v", ref))
	}
	b.setState(node, format.BuddyFree)
	for node > 0 {
		sibling := node + 1
		if node%2 == 0 {
			sibling = node - 1
		}
		if b.state(sibling) != format.BuddyFree {
			break
		}
		node = (node - 1) / 2
		b.setState(node, format.BuddyFree)
	}
	b.mu.Unlock()

	b.stats.RecordFree(ref.Size(), 0, ref.IsBacking())
}

// BuddyLayout describes the geometry of a Buddy allocator.
type BuddyLayout struct {
	RegionSize     uintptr `json:"region_size"`
	Levels         uint8   `json:"levels"`
	LeafSize       uintptr `json:"leaf_size"`
	Nodes          int     `json:"nodes"`
	MgmtSize       uintptr `json:"mgmt_size"`
	ReservedLeaves int     `json:"reserved_leaves"`
}

// Layout returns the allocator's geometry.
func (b *Buddy) Layout() BuddyLayout {
	return BuddyLayout{
		RegionSize:     b.Cap(),
		Levels:         b.levels,
		LeafSize:       b.leafSize,
		Nodes:          b.nodes,
		MgmtSize:       b.mgmt,
		ReservedLeaves: int(b.mgmt / b.leafSize),
	}
}

// BuddyBlock is one free or used block of the tree.
type BuddyBlock struct {
	Offset uintptr `json:"offset"`
	Size   uintptr `json:"size"`
	Used   bool    `json:"used"`
}

// Blocks returns every free or used block in address order. Split nodes are
// expanded into their children; reserved bitmap leaves show up as used.
func (b *Buddy) Blocks() []BuddyBlock {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []BuddyBlock
	b.walk(0, func(i int, used bool) {
		out = append(out, BuddyBlock{Offset: b.offsetOf(i), Size: b.blockSize(depthOf(i)), Used: used})
	})
	return out
}

// FreeBytes returns the total size of free blocks.
func (b *Buddy) FreeBytes() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n uintptr
	b.walk(0, func(i int, used bool) {
		if !used {
			n += b.blockSize(depthOf(i))
		}
	})
	return n
}

func (b *Buddy) walk(i int, fn func(node int, used bool)) {
	if b.mem == nil {
		return
	}
	switch b.state(i) {
	case format.BuddySplit:
		b.walk(2*i+1, fn)
		b.walk(2*i+2, fn)
	case format.BuddyUsed:
		fn(i, true)
	default:
		fn(i, false)
	}
}
