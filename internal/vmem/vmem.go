// Package vmem reserves the zero-filled backing store for the heap's address
// space. The reservation is made once at startup and never returned; pages are
// committed lazily by the operating system where it supports doing so.
package vmem

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmpty is returned when a zero-length reservation is requested.
var ErrEmpty = errors.New("vmem: reservation size must be positive")

// Reserve returns size bytes of zero-filled, read-write memory.
func Reserve(size uint64) ([]byte, error) {
	if size == 0 {
		return nil, ErrEmpty
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("vmem: reservation too large (%d bytes)", size)
	}
	data, err := reserve(int(size))
	if err != nil {
		return nil, fmt.Errorf("vmem: reserve %d bytes: %w", size, err)
	}
	return data, nil
}
