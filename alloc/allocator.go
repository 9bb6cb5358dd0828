package alloc

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/format"
)

// Allocator is the capability every strategy implements.
//
// Implementations:
//   - Heap: Go heap, one allocation per request
//   - Linear: bump allocation over one parent region
//   - Stack: LIFO bump allocation over an owned region
//   - Buddy: binary buddy system over one parent region
//   - Fallback: main allocator with a fallback
//   - Pages: anonymous OS pages
//
// The raw methods are the extension points. Callers normally use the typed
// package functions Allocate, Deallocate and Owns.
type Allocator interface {
	// AllocateRaw returns a block of at least size bytes aligned to align,
	// or an invalid Ref when the request cannot be satisfied. backing marks a
	// block that supplies another allocator's region.
	AllocateRaw(size, align uintptr, backing bool) Ref[byte]

	// DeallocateRaw releases a block this allocator produced. Invalid refs
	// are ignored. Foreign refs are a contract violation.
	DeallocateRaw(ref Ref[byte])

	// OwnsRaw reports whether ref was produced by this allocator or one of
	// its nested allocators.
	OwnsRaw(ref Ref[byte]) bool

	// Stats returns the allocator's statistics.
	Stats() *Stats
}

// request is the resolved form of the options passed to Allocate.
type request struct {
	size    uintptr
	sizeSet bool
	align   uintptr
	count   uintptr
	backing bool
}

// AllocOption adjusts one Allocate request.
type AllocOption func(*request)

// WithSize requests n bytes instead of the element size.
func WithSize(n uintptr) AllocOption {
	return func(r *request) {
		r.size = n
		r.sizeSet = true
	}
}

// WithAlign requests a stricter alignment than the element type's own.
func WithAlign(align uintptr) AllocOption {
	return func(r *request) { r.align = align }
}

// WithCount requests room for n elements.
func WithCount(n uintptr) AllocOption {
	return func(r *request) { r.count = n }
}

// AsBacking marks the block as the region of another allocator.
func AsBacking() AllocOption {
	return func(r *request) { r.backing = true }
}

// Allocate obtains memory for T from a. A nil allocator means Default().
//
// Size defaults to unsafe.Sizeof(T) (times WithCount) and alignment to
// unsafe.Alignof(T). The result is invalid when a is exhausted, the alignment
// is not a power of two or cannot be met, or the size is zero or overflows.
// Allocate panics if T contains Go pointers.
func Allocate[T any](a Allocator, opts ...AllocOption) Ref[T] {
	mustBePointerFree[T]()
	if a == nil {
		a = Default()
	}

	var zero T
	req := request{align: unsafe.Alignof(zero), count: 1}
	for _, opt := range opts {
		opt(&req)
	}

	size := req.size
	if !req.sizeSet {
		var ok bool
		size, ok = buf.MulOverflowSafe(unsafe.Sizeof(zero), req.count)
		if !ok {
			return RefFor[T](a)
		}
	}
	align := max(req.align, unsafe.Alignof(zero))
	if size == 0 || uint64(size) > format.MaxSize || !format.IsPow2(align) {
		return RefFor[T](a)
	}

	return retype[T](a.AllocateRaw(size, align, req.backing))
}

// Deallocate releases *ref through a and zeroes it. Invalid refs are ignored.
// A nil allocator routes to the ref's own allocator.
func Deallocate[T any](a Allocator, ref *Ref[T]) {
	if ref == nil || !ref.Valid() {
		return
	}
	if a == nil {
		a = ref.owner
	}
	a.DeallocateRaw(retype[byte](*ref))
	*ref = Ref[T]{}
}

// Owns reports whether ref was produced by a or one of its nested allocators.
func Owns[T any](a Allocator, ref Ref[T]) bool {
	if a == nil || !ref.Valid() {
		return false
	}
	return a.OwnsRaw(retype[byte](ref))
}

// pointerFree caches the per-type result of hasNoPointers.
var pointerFree sync.Map // reflect.Type -> bool

// mustBePointerFree panics if T holds Go pointers. Allocator memory is never
// scanned by the garbage collector.
func mustBePointerFree[T any]() {
	t := reflect.TypeFor[T]()
	ok, cached := pointerFree.Load(t)
	if !cached {
		ok, _ = pointerFree.LoadOrStore(t, hasNoPointers(t))
	}
	if !ok.(bool) {
		panic(fmt.Sprintf("alloc: element type %s contains Go pointers", t))
	}
}

func hasNoPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || hasNoPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !hasNoPointers(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
