package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/format"
)

// LinearConfig sizes a Linear allocator.
type LinearConfig struct {
	Size  uintptr // Region size in bytes
	Align uintptr // Alignment of the region and minimum alignment of every block
}

// DefaultLinearConfig is used when NewLinear is given a nil config.
var DefaultLinearConfig = LinearConfig{Size: 64 << 10, Align: 16}

func (c LinearConfig) validate() error {
	if c.Size == 0 {
		return fmt.Errorf("linear: zero region size: %w", ErrBadConfig)
	}
	if !format.IsPow2(c.Align) {
		return fmt.Errorf("linear: region alignment %d is not a power of two: %w", c.Align, ErrBadConfig)
	}
	return nil
}

// StackConfig sizes a Stack allocator.
type StackConfig struct {
	Size     uintptr // Region size in bytes
	MaxAlign uintptr // Every block is padded to this alignment
}

// DefaultStackConfig is used when NewStack is given a nil config.
var DefaultStackConfig = StackConfig{Size: 16 << 10, MaxAlign: 16}

func (c StackConfig) validate() error {
	if c.Size == 0 {
		return fmt.Errorf("stack: zero region size: %w", ErrBadConfig)
	}
	if !format.IsPow2(c.MaxAlign) {
		return fmt.Errorf("stack: max alignment %d is not a power of two: %w", c.MaxAlign, ErrBadConfig)
	}
	if !format.IsAligned(c.Size, c.MaxAlign) {
		return fmt.Errorf("stack: size %d is not a multiple of max alignment %d: %w", c.Size, c.MaxAlign, ErrBadConfig)
	}
	return nil
}

// BuddyConfig defines the region and subdivision depth of a Buddy allocator.
// The smallest block (leaf) is Size >> Levels bytes.
type BuddyConfig struct {
	// Name for this configuration (for memctl and benchmarks)
	Name string

	Size   uintptr // Region size, a power of two
	Levels uint8   // Number of subdivisions below the root
}

// Predefined configurations.
var (
	// BuddyConfigSmall: 64 KiB region, 256-byte leaves. Bitmap fits in one leaf.
	BuddyConfigSmall = BuddyConfig{
		Name:   "Small",
		Size:   64 << 10,
		Levels: 8,
	}

	// BuddyConfigMedium: 1 MiB region, 1 KiB leaves.
	BuddyConfigMedium = BuddyConfig{
		Name:   "Medium",
		Size:   1 << 20,
		Levels: 10,
	}

	// BuddyConfigLarge: 16 MiB region, 4 KiB leaves. Page-sized leaves suit a Pages parent.
	BuddyConfigLarge = BuddyConfig{
		Name:   "Large",
		Size:   16 << 20,
		Levels: 12,
	}

	// Default configuration (used if none specified).
	DefaultBuddyConfig = BuddyConfigMedium
)

// LeafSize returns the smallest block size of the configuration.
func (c BuddyConfig) LeafSize() uintptr {
	return c.Size >> c.Levels
}

// nodeCount is the number of nodes in the complete tree.
func (c BuddyConfig) nodeCount() int {
	return 1<<(int(c.Levels)+1) - 1
}

// bitmapBytes is the management bitmap size before rounding to whole leaves.
func (c BuddyConfig) bitmapBytes() uintptr {
	n := uintptr(c.nodeCount())
	return (n + format.BuddyNodesPerByte - 1) / format.BuddyNodesPerByte
}

// mgmtSize is the bitmap size rounded up to whole leaves.
func (c BuddyConfig) mgmtSize() uintptr {
	return format.AlignUp(c.bitmapBytes(), c.LeafSize())
}

func (c BuddyConfig) validate() error {
	if !format.IsPow2(c.Size) {
		return fmt.Errorf("buddy: region size %d is not a power of two: %w", c.Size, ErrBadConfig)
	}
	if c.Levels == 0 || c.Levels > format.BuddyMaxLevels {
		return fmt.Errorf("buddy: %d levels outside 1..%d: %w", c.Levels, format.BuddyMaxLevels, ErrBadConfig)
	}
	if c.LeafSize() == 0 {
		return fmt.Errorf("buddy: %d levels subdivide %d bytes below one byte: %w", c.Levels, c.Size, ErrBadConfig)
	}
	return nil
}
