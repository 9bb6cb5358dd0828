package alloc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// requirePanicContains runs fn and requires a panic whose message contains want.
func requirePanicContains(t *testing.T, want string, fn func()) {
	t.Helper()
	var msg string
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected panic containing %q", want)
			msg = fmt.Sprint(r)
		}()
		fn()
	}()
	require.True(t, strings.Contains(msg, want), "panic %q does not contain %q", msg, want)
}

// requireAligned checks the alignment and size guarantees of a valid ref.
func requireAligned[T any](t *testing.T, ref Ref[T], size, align uintptr) {
	t.Helper()
	require.True(t, ref.Valid(), "ref should be valid")
	require.Zero(t, ref.Addr()%ref.Align(), "address %#x not aligned to its own alignment %d", ref.Addr(), ref.Align())
	require.Zero(t, ref.Addr()%align, "address %#x not aligned to %d", ref.Addr(), align)
	require.GreaterOrEqual(t, ref.Size(), size, "ref smaller than requested")
}

// newTestLinear builds a Linear over a fresh heap.
func newTestLinear(t *testing.T, size, align uintptr) (*Linear, *Heap) {
	t.Helper()
	parent := NewHeap()
	l, err := NewLinear(parent, &LinearConfig{Size: size, Align: align})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, parent
}

// newTestBuddy builds a Buddy over a fresh heap.
func newTestBuddy(t *testing.T, size uintptr, levels uint8) (*Buddy, *Heap) {
	t.Helper()
	parent := NewHeap()
	b, err := NewBuddy(parent, &BuddyConfig{Name: "test", Size: size, Levels: levels})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, parent
}

// offset returns ref's offset inside a block-backed allocator's region.
func offset(b *blockBacked, ref Ref[byte]) uintptr {
	return ref.Addr() - b.base
}
