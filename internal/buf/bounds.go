// Package buf contains overflow-safe arithmetic and span checks used when
// sizing allocations and copying between memory references.
package buf

import "fmt"

const maxUintptr = ^uintptr(0)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow uintptr.
func AddOverflowSafe(a, b uintptr) (uintptr, bool) {
	if a > maxUintptr-b {
		return 0, false
	}
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow uintptr.
// This is essential for count * elementSize calculations when sizing arrays.
func MulOverflowSafe(a, b uintptr) (uintptr, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// CheckSpan validates that n bytes starting at off fit in a region of
// regionLen bytes. Returns the end offset if valid, or an error describing the
// specific failure (overflow or out of bounds).
//
//	end, err := buf.CheckSpan(ref.Size(), off, n)
//	if err != nil {
//	    panic(fmt.Sprintf("copy: %v", err))
//	}
func CheckSpan(regionLen, off, n uintptr) (uintptr, error) {
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", off, n)
	}
	if end > regionLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, regionLen)
	}
	return end, nil
}

// Overlaps reports whether [a, a+aLen) and [b, b+bLen) share at least one byte.
// Empty spans never overlap.
func Overlaps(a, aLen, b, bLen uintptr) bool {
	if aLen == 0 || bLen == 0 {
		return false
	}
	return a < b+bLen && b < a+aLen
}
