//go:build !unix && !windows

// Package pages maps anonymous, page-granular memory straight from the
// operating system, outside the Go heap.
package pages

import "fmt"

const fallbackPageSize = 4096

// Size returns the emulated page size.
func Size() int {
	return fallbackPageSize
}

// Map allocates from the Go heap when the platform has no anonymous mmap.
// The slice is over-allocated so the returned region starts on a page boundary.
func Map(n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("pages: invalid mapping size %d", n)
	}
	n = roundUp(n, fallbackPageSize)
	raw := make([]byte, n+fallbackPageSize)
	off := pageOffset(raw, fallbackPageSize)
	return raw[off : off+n : off+n], func() error { return nil }, nil
}
