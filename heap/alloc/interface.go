package alloc

import "github.com/joshuapare/vmheap/heap"

// Backend is the allocation strategy behind the VM's allocation ABI.
//
// Implementations:
//   - BumpAllocator: single region, no reclamation
//   - ArenaAllocator: chunked regions, no reclamation
//   - gc.Collector: tracing collector
//
// All implementations return zero-filled memory and never hand out an
// address range overlapping a live allocation.
type Backend interface {
	// Allocate returns the address of size zeroed bytes of the given kind.
	// Exhaustion is reported as heap.ErrOutOfMemory.
	Allocate(size uint32, kind heap.Kind) (heap.Address, error)

	// Free releases an explicitly managed allocation.
	// Backends without explicit reclamation return heap.ErrUnsupportedFree.
	Free(addr heap.Address) error

	// UsedBytes returns the bytes currently accounted as in use.
	UsedBytes() uint64

	// Stats returns a snapshot of backend statistics.
	Stats() heap.Stats
}

// Collecting is implemented by backends that reclaim unreachable memory.
type Collecting interface {
	Backend

	// ForceCollection runs a full stop-the-world collection, then any
	// finalizers it made ready.
	ForceCollection()

	// CollectIncrement performs one bounded unit of collection work and
	// reports whether a collection cycle completed during the call.
	CollectIncrement() bool
}

// Region is a bump region: [Base, Base+Size) with Cursor bytes handed out.
type Region struct {
	Base   heap.Address
	Size   uint64
	Cursor uint64
}

// Free returns the bytes left in the region.
func (r Region) Free() uint64 { return r.Size - r.Cursor }

// fits reports whether need more bytes fit in the region.
func (r Region) fits(need uint64) bool { return need <= r.Size-r.Cursor }
