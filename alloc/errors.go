package alloc

import "errors"

var (
	// ErrBadConfig indicates an allocator configuration that cannot be built
	// (non-power-of-two sizes, zero sizes, too many levels).
	ErrBadConfig = errors.New("alloc: invalid configuration")

	// ErrNoBacking indicates the parent allocator could not supply a region.
	ErrNoBacking = errors.New("alloc: parent could not supply backing region")

	// ErrClosed indicates an operation on an allocator whose region was already returned.
	ErrClosed = errors.New("alloc: allocator closed")
)
