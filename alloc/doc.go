// Package alloc provides a swappable memory allocation abstraction and a set
// of composable allocation strategies.
//
// # Overview
//
// Data structures written against the Allocator interface can be parameterised
// over memory strategy without changing their code. Every allocation is
// described by a Ref, a compact handle that records the block address, the
// allocator that produced it, the block size, its alignment and whether the
// block backs another allocator.
//
// # Allocator Interface
//
// Strategies implement four raw methods:
//
//   - AllocateRaw(size, align, backing): carve out a block or return an invalid Ref
//   - DeallocateRaw(ref): release a block produced by this allocator
//   - OwnsRaw(ref): report whether a block belongs to this allocator
//   - Stats(): per-instance statistics
//
// Callers use the typed package functions, which compute size and alignment
// from the element type:
//
//	ref := alloc.Allocate[Vertex](a, alloc.WithCount(64))
//	if !ref.Valid() {
//	    return errOutOfMemory
//	}
//	verts := ref.Slice()
//	...
//	alloc.Deallocate(a, &ref) // ref is zeroed
//
// # Implementations
//
// Heap: one Go heap allocation per request, aligned by over-allocation
//
//   - 16-byte header in front of every block (see internal/format)
//   - Thread-safe, optional byte limit
//
// Linear: bump allocation inside one region from a parent allocator
//
//   - O(1) allocation, no per-block free, Reset rewinds everything
//   - Not thread-safe
//
// Stack: bump allocation with strict LIFO release
//
//   - Region owned in place, every block padded to one maximum alignment
//   - Not thread-safe
//
// Buddy: binary buddy system over a power-of-two region
//
//   - 2-bit node states stored at the front of the region
//   - Sibling blocks coalesce on free
//   - Thread-safe (one mutex per instance)
//
// Fallback: tries a main allocator, then a fallback one
//
// Pages: anonymous OS pages outside the Go heap
//
// # Memory Rules
//
// Regions handed out by these strategies are plain byte memory that the Go
// garbage collector does not scan. Element types must therefore be
// pointer-free; Allocate and Cast panic otherwise.
//
// Copying a Ref copies the descriptor only. Exactly one copy may be released,
// and Deallocate zeroes the Ref it is handed.
//
// Exhaustion is reported with an invalid Ref. Contract violations (freeing out
// of LIFO order, double free, foreign refs) panic.
//
// # Debug Logging
//
// Set MEMKIT_LOG_ALLOC=1 to log exhaustion, fallback retries and region
// lifecycle through internal/logger at debug level.
package alloc
