package format

// PackDescriptor encodes alignment exponent, backing flag and size into one
// descriptor word. Callers must keep log2Align <= MaxLog2Align and
// size <= MaxSize; excess bits are masked off.
func PackDescriptor(log2Align uint8, backing bool, size uint64) uint64 {
	w := uint64(log2Align) & Log2AlignMask
	if backing {
		w |= BackingBit
	}
	return w | (size&MaxSize)<<SizeShift
}

// DescriptorLog2Align returns the alignment exponent stored in w.
func DescriptorLog2Align(w uint64) uint8 {
	return uint8(w & Log2AlignMask)
}

// DescriptorBacking reports whether w carries the backing flag.
func DescriptorBacking(w uint64) bool {
	return w&BackingBit != 0
}

// DescriptorSize returns the block size stored in w.
func DescriptorSize(w uint64) uint64 {
	return w >> SizeShift
}
