//go:build windows

// Package pages maps anonymous, page-granular memory straight from the
// operating system, outside the Go heap.
package pages

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Size returns the OS page size in bytes.
func Size() int {
	return windows.Getpagesize()
}

// Map commits n bytes (rounded up to whole pages) of zeroed read-write
// memory with VirtualAlloc. The returned release func frees it.
func Map(n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("pages: invalid mapping size %d", n)
	}
	n = roundUp(n, Size())
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, fmt.Errorf("pages: VirtualAlloc %d bytes: %w", n, err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	}
	return data, release, nil
}
