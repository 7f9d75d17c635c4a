package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmheap/heap"
)

func newTestBump(t *testing.T, maxHeap uint64, align uint32) (*BumpAllocator, *heap.Memory) {
	t.Helper()
	cfg := newTestConfig(t, heap.BackendBump, maxHeap, func(c *heap.Config) { c.Alignment = align })
	mem := newTestMemory(t, cfg)
	ba, err := NewBump(mem, cfg)
	require.NoError(t, err, "NewBump should not error")
	return ba, mem
}

// TestBumpAllocator_FourByteScenario checks the documented host scenario:
// 10 bytes at base+0, then 1 byte at base+12.
func TestBumpAllocator_FourByteScenario(t *testing.T) {
	ba, _ := newTestBump(t, 4096, 4)
	base := ba.Region().Base

	a, err := ba.Allocate(10, heap.Ordinary)
	require.NoError(t, err)
	assert.Equal(t, base, a)

	b, err := ba.Allocate(1, heap.Ordinary)
	require.NoError(t, err)
	assert.Equal(t, base+12, b)

	assert.Equal(t, uint64(16), ba.UsedBytes())
}

// TestBumpAllocator_MonotonicAndAligned checks strictly increasing,
// non-overlapping, aligned addresses for a mixed request sequence.
func TestBumpAllocator_MonotonicAndAligned(t *testing.T) {
	for _, align := range []uint32{4, 8} {
		ba, _ := newTestBump(t, 64*1024, align)

		sizes := []uint32{5, 7, 9, 13, 17, 25, 0, 1, 64, 3}
		var prevEnd heap.Address
		for i, size := range sizes {
			addr, err := ba.Allocate(size, heap.Kind(i%3))
			require.NoError(t, err, "Allocate(%d) should succeed", size)
			assert.Zero(t, addr%align, "address should be %d-byte aligned for size %d", align, size)
			assert.GreaterOrEqual(t, addr, prevEnd, "allocation %d overlaps its predecessor", i)

			prevEnd = addr + max(size, 1)
		}
	}
}

func TestBumpAllocator_ZeroFill(t *testing.T) {
	ba, mem := newTestBump(t, 4096, 8)
	dirtyClaimed(mem)

	addr, err := ba.Allocate(100, heap.Atomic)
	require.NoError(t, err)

	b, err := mem.Slice(addr, 104)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 104), b, "returned range including padding is zeroed")
}

func TestBumpAllocator_ZeroSizeGetsDistinctAddresses(t *testing.T) {
	ba, _ := newTestBump(t, 4096, 8)

	a, err := ba.Allocate(0, heap.Ordinary)
	require.NoError(t, err)
	b, err := ba.Allocate(0, heap.Ordinary)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBumpAllocator_Exhaustion(t *testing.T) {
	ba, _ := newTestBump(t, 4096, 8)

	_, err := ba.Allocate(4000, heap.Ordinary)
	require.NoError(t, err)

	_, err = ba.Allocate(100, heap.Ordinary)
	require.ErrorIs(t, err, heap.ErrOutOfMemory)

	// A request that still fits is served after a failed one.
	_, err = ba.Allocate(96, heap.Ordinary)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), ba.UsedBytes())
}

func TestBumpAllocator_RegionSmallerThanHeap(t *testing.T) {
	cfg := newTestConfig(t, heap.BackendBump, 64*1024, func(c *heap.Config) { c.RegionBytes = 1024 })
	mem := newTestMemory(t, cfg)
	ba, err := NewBump(mem, cfg)
	require.NoError(t, err)

	_, err = ba.Allocate(1024, heap.Ordinary)
	require.NoError(t, err)
	_, err = ba.Allocate(1, heap.Ordinary)
	require.ErrorIs(t, err, heap.ErrOutOfMemory)
	assert.Equal(t, uint64(1024), ba.Stats().ReservedBytes)
}

func TestBumpAllocator_FreeUnsupported(t *testing.T) {
	ba, _ := newTestBump(t, 4096, 8)

	addr, err := ba.Allocate(16, heap.Uncollectable)
	require.NoError(t, err)

	require.ErrorIs(t, ba.Free(addr), heap.ErrUnsupportedFree)

	next, err := ba.Allocate(16, heap.Uncollectable)
	require.NoError(t, err)
	assert.Greater(t, next, addr, "freed memory is never reused")
}

func TestBumpAllocator_BadKind(t *testing.T) {
	ba, _ := newTestBump(t, 4096, 8)
	_, err := ba.Allocate(8, heap.Kind(42))
	require.ErrorIs(t, err, heap.ErrBadKind)
}

func TestBumpAllocator_Stats(t *testing.T) {
	ba, _ := newTestBump(t, 8192, 8)
	for range 3 {
		_, err := ba.Allocate(10, heap.Ordinary)
		require.NoError(t, err)
	}

	st := ba.Stats()
	assert.Equal(t, heap.BackendBump, st.Backend)
	assert.Equal(t, uint64(8192), st.MaxHeapBytes)
	assert.Equal(t, uint64(8192), st.ReservedBytes)
	assert.Equal(t, uint64(48), st.UsedBytes)
	assert.Equal(t, uint64(3), st.Allocations)
	assert.Equal(t, 1, st.Chunks)
}
