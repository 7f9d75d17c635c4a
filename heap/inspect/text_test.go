package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmheap/heap"
)

func TestDecodeUTF16(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte{'h', 0, 'i', 0}, "hi"},
		{"bmp", []byte{0xE9, 0x00, 0x34, 0x6C}, "é水"},
		{"surrogate pair", []byte{0x3D, 0xD8, 0x00, 0xDE}, "😀"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUTF16(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeUTF16([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestReadChars(t *testing.T) {
	mem, err := heap.NewMemory(1 << 16)
	require.NoError(t, err)
	addr, err := mem.Claim(16, 8)
	require.NoError(t, err)

	copy(mem.Bytes()[addr:], []byte{'V', 0, 'M', 0})
	s, err := ReadChars(mem, addr, 2)
	require.NoError(t, err)
	assert.Equal(t, "VM", s)

	_, err = ReadChars(mem, addr, 100)
	require.ErrorIs(t, err, heap.ErrBadAddress)
}
