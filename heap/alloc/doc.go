// Package alloc provides the backend abstraction for heap allocation and the
// two collector-free strategies.
//
// # Backend Interface
//
// Every strategy satisfies Backend:
//
//   - Allocate(size, kind): return the address of size zeroed bytes
//   - Free(addr): explicit release (Uncollectable under the managed backend only)
//   - UsedBytes(): bytes currently accounted as in use
//   - Stats(): a heap.Stats snapshot
//
// Backends that reclaim memory additionally satisfy Collecting.
//
// # Implementations
//
// BumpAllocator: one region claimed at construction
//
//   - O(1) allocation: round up to the alignment, advance the cursor
//   - Free() is unsupported; memory is never reclaimed
//
// ArenaAllocator: ordered list of chunks
//
//   - Requests that do not fit the current chunk open a new chunk of
//     max(ChunkSizeBytes, request) bytes
//   - Earlier chunks are kept, never reused, and their tails are wasted
//
// The managed collector lives in package heap/gc.
//
// # Usage Example
//
//	mem, err := heap.NewMemory(cfg.MaxHeapBytes)
//	if err != nil {
//	    return err
//	}
//	ba, err := alloc.NewBump(mem, cfg)
//	if err != nil {
//	    return err
//	}
//	addr, err := ba.Allocate(24, heap.Ordinary)
//
// # Alignment
//
// Sizes are rounded up to Config.Alignment (4 or 8). A zero-byte request is
// treated as a one-byte request so that every allocation has its own address.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally.
package alloc
