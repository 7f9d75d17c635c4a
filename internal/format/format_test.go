package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlign(t *testing.T) {
	tests := []struct {
		n, align, want uint64
	}{
		{0, 4, 0},
		{1, 4, 4},
		{10, 4, 12},
		{12, 4, 12},
		{1, 8, 8},
		{4097, PageSize, 2 * PageSize},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignUp(tt.n, tt.align), "AlignUp(%d, %d)", tt.n, tt.align)
	}

	assert.Equal(t, uint64(8), AlignGranule(1))
	assert.Equal(t, uint64(8), AlignGranule(8))
	assert.Equal(t, uint64(16), AlignGranule(9))
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []uint64{1, 2, 4, 8, PageSize, SegmentBytes, MaxAddressSpace} {
		assert.True(t, IsPowerOfTwo(n), "%d", n)
	}
	for _, n := range []uint64{0, 3, 6, 12, PageSize + 1} {
		assert.False(t, IsPowerOfTwo(n), "%d", n)
	}
}

func TestWordsLittleEndian(t *testing.T) {
	b := make([]byte, 16)

	PutU32(b, 4, 0x11223344)
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, b[4:8])
	assert.Equal(t, uint32(0x11223344), ReadU32(b, 4))

	// A long is the low word followed by the high word.
	PutU64(b, 8, 0x0102030405060708)
	assert.Equal(t, uint32(0x05060708), ReadU32(b, 8))
	assert.Equal(t, uint32(0x01020304), ReadU32(b, 8+LongHighOffset))
	assert.Equal(t, uint64(0x0102030405060708), ReadU64(b, 8))
}
