package gc

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/joshuapare/vmheap/heap"
)

// FinalizerFunc is called once with the address of an object found
// unreachable and the client data given at registration. The object's
// memory is still intact while the callback runs.
type FinalizerFunc func(addr heap.Address, clientData any)

type finalizer struct {
	fn         FinalizerFunc
	clientData any
}

type pendingFinalizer struct {
	addr heap.Address
	finalizer

	started bool
}

// RegisterFinalizer attaches fn to the live object at addr, replacing any
// finalizer already registered for it. An object already queued keeps its
// single pending record, which is replaced in place. Registration fails with
// ErrFinalizerRunning once the object's callback has started.
func (c *Collector) RegisterFinalizer(addr heap.Address, fn FinalizerFunc, clientData any) error {
	if fn == nil {
		return ErrNilFinalizer
	}
	if !c.live(c.objs.get(addr)) {
		return fmt.Errorf("%w: finalizer for %#x", heap.ErrNotHeapObject, addr)
	}
	fin := finalizer{fn: fn, clientData: clientData}
	if p := c.pending(addr); p != nil {
		if p.started {
			return fmt.Errorf("%w: %#x", ErrFinalizerRunning, addr)
		}
		p.finalizer = fin
		return nil
	}
	c.finalizers[addr] = fin
	return nil
}

// UnregisterFinalizer removes the finalizer registered for addr, if any,
// including one queued but not yet started.
func (c *Collector) UnregisterFinalizer(addr heap.Address) bool {
	if _, ok := c.finalizers[addr]; ok {
		delete(c.finalizers, addr)
		return true
	}
	for i, p := range c.queue {
		if p.addr == addr {
			c.queue = slices.Delete(c.queue, i, i+1)
			return true
		}
	}
	if p := c.pending(addr); p != nil && !p.started && p.fn != nil {
		p.fn = nil
		return true
	}
	return false
}

// pending returns the queued or running record for addr.
func (c *Collector) pending(addr heap.Address) *pendingFinalizer {
	for i := range c.queue {
		if c.queue[i].addr == addr {
			return &c.queue[i]
		}
	}
	for i := range c.running {
		if c.running[i].addr == addr {
			return &c.running[i]
		}
	}
	return nil
}

// InvokeFinalizers runs every ready finalizer in address order and returns
// how many ran. Finalizers made ready while it runs are run as well.
func (c *Collector) InvokeFinalizers() int {
	n := 0
	for len(c.queue) > 0 {
		batch := len(c.queue)
		mark := len(c.running)

		// Objects stay rooted until their callback has returned.
		c.running = append(c.running, c.queue...)
		c.queue = nil
		for i := mark; i < mark+batch; i++ {
			c.running[i].started = true
			p := c.running[i]
			if p.fn == nil {
				continue
			}
			p.fn(p.addr, p.clientData)
			n++
			c.finalizersRun++
		}
		c.running = c.running[:mark]
	}
	if n > 0 {
		c.log.Debug("gc finalizers run", "count", n)
	}
	return n
}

// processUnreachable runs at the end of marking. Links whose referent is
// unmarked are cleared, and unmarked objects with finalizers are queued and
// marked, together with everything they reference, so they survive until
// their callback has run.
func (c *Collector) processUnreachable() {
	var ready []heap.Address
	for addr := range c.finalizers {
		if o := c.objs.get(addr); o != nil && o.mark != c.epoch {
			ready = append(ready, addr)
		}
	}
	slices.Sort(ready)

	var dead []heap.Address
	for slot, referent := range c.links {
		if o := c.objs.get(referent); o == nil || o.mark != c.epoch {
			dead = append(dead, slot)
		}
	}

	for _, addr := range ready {
		fin := c.finalizers[addr]
		delete(c.finalizers, addr)
		c.queue = append(c.queue, pendingFinalizer{addr: addr, finalizer: fin})
		c.markObject(c.objs.get(addr))
	}
	// Dead link slots are still registered, so this cannot revive a referent
	// through its own link.
	c.drain(-1)

	for _, slot := range dead {
		// A slot inside an object the sweep will reclaim is never written.
		if o := c.objs.find(slot); o != nil && o.kind != heap.Uncollectable && o.mark != c.epoch {
			delete(c.links, slot)
			continue
		}
		c.clearLink(slot)
	}

	if len(ready) > 0 || len(dead) > 0 {
		c.log.Debug("gc unreachable", "epoch", c.epoch, "finalizable", len(ready), "links", len(dead))
	}
}
