package format

import "math/bits"

// Alignment utilities shared by every allocation strategy. All alignments are
// powers of two; callers validate with IsPow2 before using the other helpers.

// IsPow2 reports whether n is a non-zero power of two.
func IsPow2(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// AlignUp returns n rounded up to the next multiple of align.
// align must be a power of two. The result wraps on overflow; use
// AlignUpChecked when n comes from a caller.
//
// Example:
//
//	AlignUp(100, 8) = 104
//	AlignUp(104, 8) = 104
func AlignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// AlignUpChecked is AlignUp that reports ok = false instead of wrapping.
func AlignUpChecked(n, align uintptr) (uintptr, bool) {
	sum, carry := bits.Add64(uint64(n), uint64(align-1), 0)
	if carry != 0 || sum > uint64(^uintptr(0)) {
		return 0, false
	}
	return uintptr(sum) &^ (align - 1), true
}

// IsAligned reports whether n is a multiple of align.
func IsAligned(n, align uintptr) bool {
	return n&(align-1) == 0
}

// Log2 returns the exponent of a power of two.
func Log2(n uintptr) uint8 {
	return uint8(bits.TrailingZeros64(uint64(n)))
}

// NextPow2 returns the smallest power of two >= n (1 for n == 0).
func NextPow2(n uintptr) uintptr {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(uint64(n-1))
}
