//go:build windows

package vmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// reserve reserves and commits the region in one step; Windows zero-fills
// committed pages on first access.
func reserve(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}
