//go:build !unix && !windows

package vmem

// reserve falls back to a Go-managed slice when no mapping API is available.
func reserve(size int) ([]byte, error) {
	return make([]byte, size), nil
}
