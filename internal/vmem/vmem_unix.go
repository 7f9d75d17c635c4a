//go:build unix

package vmem

import "golang.org/x/sys/unix"

// reserve maps private anonymous memory. The kernel hands back zeroed pages
// on first touch, so untouched heap space costs nothing.
func reserve(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}
