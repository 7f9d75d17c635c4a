package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/logger"
)

// BumpAllocator is an append-only allocator over a single region claimed at
// construction. It never reclaims memory.
//
// Key characteristics:
//   - O(1) initialization: one Claim from the address space
//   - O(1) allocation: pure bump pointer, no free lists
//   - Free() is unsupported
//   - Exhaustion (cursor would pass the region end) is reported as
//     heap.ErrOutOfMemory
type BumpAllocator struct {
	mem   *heap.Memory
	align uint32

	region Region

	allocs uint64

	log *slog.Logger
}

// NewBump claims cfg.RegionBytes of address space and returns an allocator
// bumping through it. cfg must already be validated.
func NewBump(mem *heap.Memory, cfg heap.Config) (*BumpAllocator, error) {
	base, err := mem.Claim(cfg.RegionBytes, uint64(cfg.Alignment))
	if err != nil {
		return nil, fmt.Errorf("alloc: bump region: %w", err)
	}
	return &BumpAllocator{
		mem:   mem,
		align: cfg.Alignment,
		log:   logger.L,
		region: Region{
			Base: base,
			Size: cfg.RegionBytes,
		},
	}, nil
}

// SetLogger sends the allocator's records to l instead of the package logger.
func (ba *BumpAllocator) SetLogger(l *slog.Logger) {
	if l != nil {
		ba.log = l
	}
}

// Allocate hands out the next aligned slice of the region.
func (ba *BumpAllocator) Allocate(size uint32, kind heap.Kind) (heap.Address, error) {
	need, err := alignRequest(size, ba.align, kind)
	if err != nil {
		return 0, err
	}

	if !ba.region.fits(need) {
		return 0, fmt.Errorf("%w: bump region exhausted (need=%d, free=%d)",
			heap.ErrOutOfMemory, need, ba.region.Free())
	}

	addr := ba.region.Base + heap.Address(ba.region.Cursor)
	ba.region.Cursor += need
	ba.allocs++

	ba.mem.Zero(addr, uint32(need))

	if logAlloc {
		ba.log.Debug("bump alloc", "addr", addr, "size", size, "aligned", need, "kind", kind)
	}
	return addr, nil
}

// Free is unsupported: bump memory is never reclaimed.
func (ba *BumpAllocator) Free(addr heap.Address) error {
	return fmt.Errorf("%w: bump backend (addr=%#x)", heap.ErrUnsupportedFree, addr)
}

// UsedBytes returns the cursor offset into the region.
func (ba *BumpAllocator) UsedBytes() uint64 { return ba.region.Cursor }

// Region returns the allocator's region.
func (ba *BumpAllocator) Region() Region { return ba.region }

func (ba *BumpAllocator) Stats() heap.Stats {
	return heap.Stats{
		Backend:       heap.BackendBump,
		MaxHeapBytes:  ba.mem.Capacity(),
		ReservedBytes: ba.region.Size,
		UsedBytes:     ba.region.Cursor,
		Allocations:   ba.allocs,
		Chunks:        1,
	}
}

// Compile-time interface check
var _ Backend = (*BumpAllocator)(nil)
