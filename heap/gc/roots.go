package gc

import (
	"fmt"

	"github.com/joshuapare/vmheap/heap"
)

// RootScanner reports the host's roots (VM stacks, registers, globals) by
// calling mark with each value that may reference a heap object. Interior
// and non-heap values are accepted.
type RootScanner func(mark func(heap.Address))

type rootRange struct {
	lo, hi heap.Address
}

// AddRoots registers [lo, hi) of the address space as a root range. Every
// aligned word in it is scanned conservatively on each cycle.
func (c *Collector) AddRoots(lo, hi heap.Address) error {
	if lo >= hi || uint64(hi) > c.mem.Limit() {
		return fmt.Errorf("%w: [%#x, %#x)", ErrBadRootRange, lo, hi)
	}
	c.roots = append(c.roots, rootRange{lo: lo, hi: hi})
	return nil
}

// RemoveRoots unregisters a range previously added with the same bounds.
func (c *Collector) RemoveRoots(lo, hi heap.Address) bool {
	for i, r := range c.roots {
		if r.lo == lo && r.hi == hi {
			c.roots = append(c.roots[:i], c.roots[i+1:]...)
			return true
		}
	}
	return false
}

// AddRootScanner registers a callback consulted for roots on each cycle.
func (c *Collector) AddRootScanner(scan RootScanner) {
	if scan != nil {
		c.scanners = append(c.scanners, scan)
	}
}
