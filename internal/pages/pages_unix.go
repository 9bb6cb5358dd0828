//go:build unix

// Package pages maps anonymous, page-granular memory straight from the
// operating system, outside the Go heap.
package pages

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Size returns the OS page size in bytes.
func Size() int {
	return unix.Getpagesize()
}

// Map maps n bytes (rounded up to whole pages) of zeroed, private,
// read-write memory. The returned release func unmaps it.
func Map(n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("pages: invalid mapping size %d", n)
	}
	n = roundUp(n, Size())
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("pages: mmap %d bytes: %w", n, err)
	}
	release := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		data = nil
		return err
	}
	return data, release, nil
}
