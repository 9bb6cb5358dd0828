// Package format houses the low-level binary layouts memkit writes into
// memory: the packed descriptor word carried by every memory reference and the
// header the heap allocator places in front of each block. Keeping the layouts
// here keeps the allocator code free of shift-and-mask noise.
package format

// Descriptor word layout (bit 0 is the least significant bit):
//
//	bits 0..6   log2 of the block alignment
//	bit  7      block backs another allocator
//	bits 8..63  block size in bytes
const (
	// Log2AlignBits is the width of the log2-alignment field.
	Log2AlignBits = 7

	// Log2AlignMask extracts the log2-alignment field.
	Log2AlignMask = 1<<Log2AlignBits - 1

	// MaxLog2Align is the largest alignment exponent a descriptor can hold.
	MaxLog2Align = Log2AlignMask

	// BackingBit marks a block that supplies another allocator's region.
	BackingBit = 1 << Log2AlignBits

	// SizeShift is the position of the size field.
	SizeShift = Log2AlignBits + 1

	// MaxSize is the largest block size a descriptor can hold (2^56 - 1).
	MaxSize = 1<<(64-SizeShift) - 1
)

// Heap block header, stored immediately before the aligned address handed out
// by the heap allocator.
//
//	0x00  magic (u32)
//	0x04  adjustment from the raw buffer start to the aligned address (u32)
//	0x08  raw buffer length (u64)
const (
	// HeapHeaderSize is the size of the heap block header in bytes.
	HeapHeaderSize = 16

	// HeapMagicOffset is the offset of the magic field within the header.
	HeapMagicOffset = 0x00

	// HeapAdjustOffset is the offset of the adjustment field within the header.
	HeapAdjustOffset = 0x04

	// HeapSizeOffset is the offset of the raw length field within the header.
	HeapSizeOffset = 0x08

	// HeapMagic identifies a live heap block ("MEMK" little-endian).
	HeapMagic uint32 = 0x4B4D454D

	// HeapMaxAdjust bounds the adjustment so it fits the u32 field.
	HeapMaxAdjust = 1<<32 - 1
)

// Buddy node states, two bits per node in the management bitmap.
const (
	BuddyFree  = 0b00
	BuddySplit = 0b01
	BuddyUsed  = 0b10

	// BuddyStateBits is the number of bits per node.
	BuddyStateBits = 2

	// BuddyNodesPerByte is the number of node states packed in one bitmap byte.
	BuddyNodesPerByte = 8 / BuddyStateBits

	// BuddyStateMask extracts one node state.
	BuddyStateMask = 1<<BuddyStateBits - 1

	// BuddyMaxLevels bounds the subdivision depth (2^25 nodes, 8 MiB of bitmap).
	BuddyMaxLevels = 24
)
