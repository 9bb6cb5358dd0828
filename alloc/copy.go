package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
)

// Copy copies the first n bytes of src to the start of dst.
// See CopyAt for the preconditions.
func Copy[T any](dst, src Ref[T], n uintptr) {
	CopyAt(dst, 0, src, 0, n)
}

// CopyAt copies n raw bytes from src at srcOff to dst at dstOff.
//
// Both refs must be valid, both spans must lie inside their blocks and the
// spans must not overlap. Violations panic.
func CopyAt[T any](dst Ref[T], dstOff uintptr, src Ref[T], srcOff uintptr, n uintptr) {
	if n == 0 {
		return
	}
	if !dst.Valid() || !src.Valid() {
		panic("alloc: copy: invalid ref")
	}
	dstEnd, err := buf.CheckSpan(dst.Size(), dstOff, n)
	if err != nil {
		panic(fmt.Sprintf("alloc: copy: destination %v", err))
	}
	srcEnd, err := buf.CheckSpan(src.Size(), srcOff, n)
	if err != nil {
		panic(fmt.Sprintf("alloc: copy: source %v", err))
	}
	if buf.Overlaps(dst.Addr()+dstOff, n, src.Addr()+srcOff, n) {
		panic(fmt.Sprintf("alloc: copy: spans overlap (dst=%#x src=%#x n=%d)",
			dst.Addr()+dstOff, src.Addr()+srcOff, n))
	}
	copy(dst.Bytes()[dstOff:dstEnd], src.Bytes()[srcOff:srcEnd])
}
