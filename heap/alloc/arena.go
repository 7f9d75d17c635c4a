package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/logger"
)

// ArenaAllocator is a chunked bump allocator. Chunks are claimed lazily from
// the address space; a request that does not fit the current chunk opens a
// new chunk of max(chunkSize, request) bytes. Earlier chunks are retained for
// the process lifetime and never allocated from again.
type ArenaAllocator struct {
	mem       *heap.Memory
	align     uint32
	chunkSize uint64

	// chunks is ordered by creation; the last one is current.
	chunks []Region

	used   uint64
	allocs uint64

	log *slog.Logger
}

// NewArena returns an arena allocator. No address space is claimed until the
// first allocation. cfg must already be validated.
func NewArena(mem *heap.Memory, cfg heap.Config) (*ArenaAllocator, error) {
	return &ArenaAllocator{
		mem:       mem,
		align:     cfg.Alignment,
		chunkSize: uint64(cfg.ChunkSizeBytes),
		log:       logger.L,
	}, nil
}

// SetLogger sends the allocator's records to l instead of the package logger.
func (aa *ArenaAllocator) SetLogger(l *slog.Logger) {
	if l != nil {
		aa.log = l
	}
}

// Allocate bumps through the current chunk, opening a new one when needed.
func (aa *ArenaAllocator) Allocate(size uint32, kind heap.Kind) (heap.Address, error) {
	need, err := alignRequest(size, aa.align, kind)
	if err != nil {
		return 0, err
	}

	if len(aa.chunks) == 0 || !aa.chunks[len(aa.chunks)-1].fits(need) {
		if err := aa.grow(need); err != nil {
			return 0, err
		}
	}

	cur := &aa.chunks[len(aa.chunks)-1]
	addr := cur.Base + heap.Address(cur.Cursor)
	cur.Cursor += need
	aa.used += need
	aa.allocs++

	aa.mem.Zero(addr, uint32(need))

	if logAlloc {
		aa.log.Debug("arena alloc", "addr", addr, "size", size, "aligned", need,
			"kind", kind, "chunk", len(aa.chunks)-1)
	}
	return addr, nil
}

// grow claims a chunk able to hold need bytes and makes it current.
func (aa *ArenaAllocator) grow(need uint64) error {
	size := max(aa.chunkSize, need)
	base, err := aa.mem.Claim(size, uint64(aa.align))
	if err != nil {
		return fmt.Errorf("alloc: arena chunk of %d bytes: %w", size, err)
	}
	aa.chunks = append(aa.chunks, Region{Base: base, Size: size})

	aa.log.Debug("arena chunk", "index", len(aa.chunks)-1, "base", base, "size", size)
	return nil
}

// Free is unsupported: arena memory is never reclaimed.
func (aa *ArenaAllocator) Free(addr heap.Address) error {
	return fmt.Errorf("%w: arena backend (addr=%#x)", heap.ErrUnsupportedFree, addr)
}

// UsedBytes returns the bytes handed out across all chunks.
func (aa *ArenaAllocator) UsedBytes() uint64 { return aa.used }

// Chunks returns a copy of the chunk list in creation order.
func (aa *ArenaAllocator) Chunks() []Region {
	out := make([]Region, len(aa.chunks))
	copy(out, aa.chunks)
	return out
}

func (aa *ArenaAllocator) Stats() heap.Stats {
	var reserved uint64
	for _, c := range aa.chunks {
		reserved += c.Size
	}
	return heap.Stats{
		Backend:       heap.BackendArena,
		MaxHeapBytes:  aa.mem.Capacity(),
		ReservedBytes: reserved,
		UsedBytes:     aa.used,
		Allocations:   aa.allocs,
		Chunks:        len(aa.chunks),
	}
}

// Compile-time interface check
var _ Backend = (*ArenaAllocator)(nil)
