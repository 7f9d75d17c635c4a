package gc

import (
	"math/bits"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/format"
)

// object is a managed allocation. Objects carry no in-memory header; all
// metadata lives here.
type object struct {
	addr heap.Address
	size uint32 // granule-rounded
	kind heap.Kind

	// mark equals the collector epoch when the object is marked in the
	// current cycle.
	mark uint64
}

func (o *object) end() uint64 { return uint64(o.addr) + uint64(o.size) }

func (o *object) contains(addr heap.Address) bool {
	return addr >= o.addr && uint64(addr) < o.end()
}

// objectTable maps addresses to objects. A bitmap with one bit per granule
// flags object starts so interior pointers resolve without a header.
type objectTable struct {
	base   heap.Address
	byAddr map[heap.Address]*object
	starts []uint64
}

func newObjectTable(base heap.Address) *objectTable {
	return &objectTable{
		base:   base,
		byAddr: make(map[heap.Address]*object, 1024),
	}
}

func (t *objectTable) granule(addr heap.Address) uint32 {
	return (addr - t.base) >> format.GranuleShift
}

func (t *objectTable) add(o *object) {
	g := t.granule(o.addr)
	word := int(g / 64)
	if word >= len(t.starts) {
		grown := make([]uint64, max(word+1, 2*len(t.starts)))
		copy(grown, t.starts)
		t.starts = grown
	}
	t.starts[word] |= 1 << (g % 64)
	t.byAddr[o.addr] = o
}

func (t *objectTable) remove(o *object) {
	g := t.granule(o.addr)
	t.starts[g/64] &^= 1 << (g % 64)
	delete(t.byAddr, o.addr)
}

// get returns the object starting exactly at addr.
func (t *objectTable) get(addr heap.Address) *object {
	return t.byAddr[addr]
}

// find returns the object containing addr, accepting interior pointers.
func (t *objectTable) find(addr heap.Address) *object {
	if addr < t.base {
		return nil
	}
	g := t.granule(addr)
	word := int(g / 64)
	if word >= len(t.starts) {
		return nil
	}

	// Closest start at or below g.
	w := t.starts[word] & (^uint64(0) >> (63 - g%64))
	for w == 0 {
		word--
		if word < 0 {
			return nil
		}
		w = t.starts[word]
	}
	start := uint32(word)*64 + uint32(63-bits.LeadingZeros64(w))

	o := t.byAddr[t.base+start<<format.GranuleShift]
	if o == nil || !o.contains(addr) {
		return nil
	}
	return o
}

func (t *objectTable) len() int { return len(t.byAddr) }

// next returns the first object starting at or after addr and below limit.
func (t *objectTable) next(addr heap.Address, limit uint64) *object {
	addr = max(addr, t.base)
	g := (addr - t.base + format.GranuleMask) >> format.GranuleShift
	word := int(g / 64)
	if word >= len(t.starts) {
		return nil
	}

	w := t.starts[word] &^ (uint64(1)<<(g%64) - 1)
	for w == 0 {
		word++
		if word >= len(t.starts) || uint64(t.base)+uint64(word)*64*format.Granule >= limit {
			return nil
		}
		w = t.starts[word]
	}

	start := uint64(t.base) + (uint64(word)*64+uint64(bits.TrailingZeros64(w)))*format.Granule
	if start >= limit {
		return nil
	}
	return t.byAddr[heap.Address(start)]
}
