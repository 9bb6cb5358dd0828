package format

import "errors"

var (
	// ErrBadMagic indicates a heap block header did not carry HeapMagic.
	ErrBadMagic = errors.New("format: bad block magic")
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
)
