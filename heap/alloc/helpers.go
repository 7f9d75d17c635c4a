package alloc

import (
	"os"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/format"
)

// Runtime debug flag for allocation logging - controlled by VMHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("VMHEAP_LOG_ALLOC") != ""

// alignRequest applies the shared size rules: zero becomes one, then the
// size is rounded up to align.
func alignRequest(size uint32, align uint32, kind heap.Kind) (uint64, error) {
	if !kind.Valid() {
		return 0, heap.ErrBadKind
	}
	return format.AlignUp(uint64(max(size, 1)), uint64(align)), nil
}
