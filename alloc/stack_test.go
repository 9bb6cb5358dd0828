package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStack(t *testing.T, size, maxAlign uintptr) *Stack {
	t.Helper()
	s, err := NewStack(&StackConfig{Size: size, MaxAlign: maxAlign})
	require.NoError(t, err)
	return s
}

// TestStack_LIFO tests padding to the maximum alignment and ordered release.
func TestStack_LIFO(t *testing.T) {
	s := newTestStack(t, 128, 16)

	a := s.AllocateRaw(10, 1, false)
	requireAligned(t, a, 10, 16)
	assert.Equal(t, uintptr(16), a.Size())
	assert.Equal(t, uintptr(0), a.Addr()-s.base)

	b := s.AllocateRaw(20, 4, false)
	requireAligned(t, b, 20, 16)
	assert.Equal(t, uintptr(32), b.Size())
	assert.Equal(t, uintptr(16), b.Addr()-s.base)
	assert.Equal(t, uintptr(48), s.Used())

	requirePanicContains(t, "out of order", func() { s.DeallocateRaw(a) })

	s.DeallocateRaw(b)
	assert.Equal(t, uintptr(16), s.Used())
	s.DeallocateRaw(a)
	assert.Zero(t, s.Used())

	st := s.Stats().Snapshot()
	assert.Zero(t, st.CurAllocs)
	assert.Zero(t, st.CurMemoryUse)
	assert.Equal(t, uint64(2), st.TotalAllocs)
}

// TestStack_AlignmentCeiling tests that stricter alignments fail.
func TestStack_AlignmentCeiling(t *testing.T) {
	s := newTestStack(t, 128, 16)
	assert.False(t, s.AllocateRaw(8, 32, false).Valid())
	assert.False(t, s.AllocateRaw(8, 6, false).Valid())
	assert.True(t, s.AllocateRaw(8, 16, false).Valid())
}

// TestStack_Exhaustion tests that a full stack returns invalid refs.
func TestStack_Exhaustion(t *testing.T) {
	s := newTestStack(t, 64, 16)
	var refs []Ref[byte]
	for range 4 {
		r := s.AllocateRaw(16, 8, false)
		require.True(t, r.Valid())
		refs = append(refs, r)
	}
	assert.False(t, s.AllocateRaw(1, 1, false).Valid())

	for i := len(refs) - 1; i >= 0; i-- {
		s.DeallocateRaw(refs[i])
	}
	assert.Zero(t, s.Used())
}

// TestStack_TypedAndOwnership tests the typed glue and containment.
func TestStack_TypedAndOwnership(t *testing.T) {
	s := newTestStack(t, 256, 16)
	v := Allocate[vec3](s)
	require.True(t, v.Valid())
	assert.True(t, Owns(s, v))

	h := NewHeap()
	other := Allocate[vec3](h)
	defer Deallocate(h, &other)
	assert.False(t, Owns(s, other))
	requirePanicContains(t, "foreign", func() { s.DeallocateRaw(retype[byte](other)) })

	Deallocate(s, &v)
	assert.Zero(t, s.Used())
}

// TestStack_Config tests configuration validation.
func TestStack_Config(t *testing.T) {
	_, err := NewStack(&StackConfig{Size: 0, MaxAlign: 16})
	assert.ErrorIs(t, err, ErrBadConfig)
	_, err = NewStack(&StackConfig{Size: 128, MaxAlign: 24})
	assert.ErrorIs(t, err, ErrBadConfig)
	_, err = NewStack(&StackConfig{Size: 100, MaxAlign: 16})
	assert.ErrorIs(t, err, ErrBadConfig)

	s, err := NewStack(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultStackConfig.Size, s.Cap())
	assert.Equal(t, DefaultStackConfig.MaxAlign, s.MaxAlign())
}
