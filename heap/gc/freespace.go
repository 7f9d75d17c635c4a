package gc

import (
	minheap "container/heap"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/format"
)

// freeRange is a free span of address space sitting in one of the heaps.
type freeRange struct {
	addr      heap.Address
	size      uint32
	sc        int // heap index; numClasses is the large heap
	heapIndex int // position in heap (for heap.Remove)
}

// freeRangeHeap is a min-heap keyed on size, so the top is the best fit
// among ranges of its class.
type freeRangeHeap []*freeRange

func (h *freeRangeHeap) Len() int { return len(*h) }

func (h *freeRangeHeap) Less(i, j int) bool {
	if (*h)[i].size != (*h)[j].size {
		return (*h)[i].size < (*h)[j].size
	}
	return (*h)[i].addr < (*h)[j].addr
}

func (h *freeRangeHeap) Swap(i, j int) {
	(*h)[i], (*h)[j] = (*h)[j], (*h)[i]
	(*h)[i].heapIndex = i
	(*h)[j].heapIndex = j
}

func (h *freeRangeHeap) Push(x any) {
	r := x.(*freeRange) //nolint:errcheck // heap.Interface contract guarantees type
	r.heapIndex = len(*h)
	*h = append(*h, r)
}

func (h *freeRangeHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.heapIndex = -1
	*h = old[:n-1]
	return r
}

// freeSpace tracks reusable address space for the collector.
//
//   - Segregated min-heaps per size class give best fit in O(log n)
//   - The last heap holds ranges too large for any class
//   - startIdx/endIdx make coalescing with both neighbours O(1)
type freeSpace struct {
	table *sizeClassTable
	heaps []freeRangeHeap

	byAddr map[heap.Address]*freeRange
	// endIdx: end address -> start address (for backward coalescing)
	endIdx map[heap.Address]heap.Address

	bytes uint64
}

func newFreeSpace(config SizeClassConfig) *freeSpace {
	table := newSizeClassTable(config)
	return &freeSpace{
		table:  table,
		heaps:  make([]freeRangeHeap, table.numClasses()+1),
		byAddr: make(map[heap.Address]*freeRange, 256),
		endIdx: make(map[heap.Address]heap.Address, 256),
	}
}

// Bytes returns the total free bytes held.
func (fs *freeSpace) Bytes() uint64 { return fs.bytes }

// Len returns the number of free ranges held.
func (fs *freeSpace) Len() int { return len(fs.byAddr) }

// release returns [addr, addr+size) to the free space, merging it with any
// free neighbours.
func (fs *freeSpace) release(addr heap.Address, size uint32) {
	if start, ok := fs.endIdx[addr]; ok {
		prev := fs.byAddr[start]
		fs.remove(prev)
		addr = prev.addr
		size += prev.size
	}
	if next, ok := fs.byAddr[addr+size]; ok {
		fs.remove(next)
		size += next.size
	}
	fs.insert(addr, size)
}

// take carves need bytes (a granule multiple) out of the best fitting range.
func (fs *freeSpace) take(need uint32) (heap.Address, bool) {
	r := fs.bestFit(need)
	if r == nil {
		return 0, false
	}
	fs.remove(r)

	// Split: the remainder cannot touch another free range, so no coalescing.
	if rest := r.size - need; rest >= format.Granule {
		fs.insert(r.addr+need, rest)
	}
	return r.addr, true
}

func (fs *freeSpace) bestFit(need uint32) *freeRange {
	sc := fs.table.class(need)
	for i := sc; i < len(fs.heaps); i++ {
		h := fs.heaps[i]
		if len(h) == 0 {
			continue
		}
		// Heap top is the smallest in its class.
		if h[0].size >= need {
			return h[0]
		}
		// The requested class and the large heap can hold ranges smaller
		// than need further down.
		var best *freeRange
		for _, r := range h[1:] {
			if r.size >= need && (best == nil || r.size < best.size) {
				best = r
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func (fs *freeSpace) insert(addr heap.Address, size uint32) {
	r := &freeRange{addr: addr, size: size, sc: fs.table.class(size)}
	minheap.Push(&fs.heaps[r.sc], r)
	fs.byAddr[addr] = r
	fs.endIdx[addr+size] = addr
	fs.bytes += uint64(size)
}

func (fs *freeSpace) remove(r *freeRange) {
	minheap.Remove(&fs.heaps[r.sc], r.heapIndex)
	delete(fs.byAddr, r.addr)
	delete(fs.endIdx, r.addr+r.size)
	fs.bytes -= uint64(r.size)
}

// largest returns the size of the biggest free range.
func (fs *freeSpace) largest() uint32 {
	var m uint32
	for i := len(fs.heaps) - 1; i >= 0; i-- {
		for _, r := range fs.heaps[i] {
			m = max(m, r.size)
		}
		if m > 0 {
			return m
		}
	}
	return 0
}
