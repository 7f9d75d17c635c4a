package vmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_ZeroFilledAndWritable(t *testing.T) {
	data, err := Reserve(64 * 1024)
	require.NoError(t, err)
	require.Len(t, data, 64*1024)

	for i := 0; i < len(data); i += 4096 {
		require.Zero(t, data[i], "byte %d should be zero", i)
	}

	data[0] = 0xAA
	data[len(data)-1] = 0x55
	assert.Equal(t, byte(0xAA), data[0])
	assert.Equal(t, byte(0x55), data[len(data)-1])
}

func TestReserve_Empty(t *testing.T) {
	_, err := Reserve(0)
	require.ErrorIs(t, err, ErrEmpty)
}
