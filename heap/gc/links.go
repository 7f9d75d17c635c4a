package gc

import (
	"fmt"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/format"
)

// RegisterDisappearingLink makes the word at slot a weak reference to the
// live object at referent. When the referent becomes unreachable the slot is
// set to 0. Registering a slot again replaces its referent.
func (c *Collector) RegisterDisappearingLink(slot, referent heap.Address) error {
	if slot&format.WordMask != 0 || !c.mem.Contains(slot, format.WordSize) {
		return fmt.Errorf("%w: link slot %#x", heap.ErrBadAddress, slot)
	}
	if !c.live(c.objs.get(referent)) {
		return fmt.Errorf("%w: link referent %#x", heap.ErrNotHeapObject, referent)
	}
	c.links[slot] = referent
	return nil
}

// UnregisterDisappearingLink removes the link at slot. It reports whether a
// link was registered.
func (c *Collector) UnregisterDisappearingLink(slot heap.Address) bool {
	if _, ok := c.links[slot]; !ok {
		return false
	}
	delete(c.links, slot)

	// The slot is a strong reference from now on. Its word may already have
	// been skipped by this cycle's marking.
	if c.phase == phaseMark {
		v, err := c.mem.Load32(slot)
		if err == nil {
			c.markAddr(v)
		}
	}
	return true
}

// clearLink zeroes slot and removes its link.
func (c *Collector) clearLink(slot heap.Address) {
	delete(c.links, slot)
	if err := c.mem.Store32(slot, uint32(heap.Null)); err != nil {
		c.log.Warn("gc: clear link", "slot", slot, "err", err)
		return
	}
	c.linksCleared++
}

// clearLinksTo clears every link whose referent is addr.
func (c *Collector) clearLinksTo(addr heap.Address) {
	for slot, referent := range c.links {
		if referent == addr {
			c.clearLink(slot)
		}
	}
}

// dropLinksIn removes, without writing, every link whose slot lies in [lo, hi).
func (c *Collector) dropLinksIn(lo, hi uint64) {
	if len(c.links) == 0 {
		return
	}
	if uint64(len(c.links)) < (hi-lo)/format.WordSize {
		for slot := range c.links {
			if uint64(slot) >= lo && uint64(slot) < hi {
				delete(c.links, slot)
			}
		}
		return
	}
	for a := lo; a < hi; a += format.WordSize {
		delete(c.links, heap.Address(a))
	}
}
