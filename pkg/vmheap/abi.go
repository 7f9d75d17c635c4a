package vmheap

import (
	"errors"
	"fmt"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/heap/alloc"
	"github.com/joshuapare/vmheap/heap/gc"
)

// GCMalloc allocates size bytes of ordinary, collectable memory.
func (c *Context) GCMalloc(size uint32) heap.Address {
	return c.malloc("gcMalloc", size, heap.Ordinary)
}

// GCMallocAtomic allocates size bytes that will never hold references.
func (c *Context) GCMallocAtomic(size uint32) heap.Address {
	return c.malloc("gcMallocAtomic", size, heap.Atomic)
}

// GCMallocUncollectable allocates size bytes that are scanned for
// references but only reclaimed by GCFree.
func (c *Context) GCMallocUncollectable(size uint32) heap.Address {
	return c.malloc("gcMallocUncollectable", size, heap.Uncollectable)
}

func (c *Context) malloc(op string, size uint32, kind heap.Kind) heap.Address {
	addr, err := c.backend.Allocate(size, kind)
	if err == nil {
		return addr
	}

	if c.cfg.OOMPolicy == heap.OOMReturnNull && errors.Is(err, heap.ErrOutOfMemory) {
		c.log.Warn("allocation failed, returning null", "op", op, "size", size, "err", err)
		return heap.Null
	}

	st := c.backend.Stats()
	c.log.Error("allocation failed",
		"op", op,
		"size", size,
		"used", st.UsedBytes,
		"reserved", st.ReservedBytes,
		"max_heap", st.MaxHeapBytes,
		"err", err)
	panic(&heap.FatalError{Op: op, Size: size, Err: err})
}

// GCFree releases an Uncollectable allocation. Freeing the null address is a
// no-op; any other unsupported free is logged and ignored.
func (c *Context) GCFree(addr heap.Address) {
	if addr == heap.Null {
		return
	}
	if err := c.backend.Free(addr); err != nil {
		c.log.Warn("gcFree ignored", "addr", addr, "backend", c.cfg.Backend, "err", err)
	}
}

func (c *Context) managed(op string) (*gc.Collector, error) {
	if c.collector == nil {
		return nil, fmt.Errorf("%w: %s on %s backend", heap.ErrUnsupported, op, c.cfg.Backend)
	}
	return c.collector, nil
}

// RegisterFinalizer arranges for the finalize hook to be told about addr once
// it becomes unreachable.
func (c *Context) RegisterFinalizer(addr heap.Address) error {
	col, err := c.managed("registerFinalizer")
	if err != nil {
		return err
	}
	return col.RegisterFinalizer(addr, c.finalize, nil)
}

// RegisterFinalizerFunc attaches fn and clientData to addr directly.
func (c *Context) RegisterFinalizerFunc(addr heap.Address, fn gc.FinalizerFunc, clientData any) error {
	col, err := c.managed("registerFinalizer")
	if err != nil {
		return err
	}
	return col.RegisterFinalizer(addr, fn, clientData)
}

func (c *Context) finalize(addr heap.Address, _ any) {
	c.log.Debug("finalize", "addr", addr)
	if c.onFinalize != nil {
		c.onFinalize(addr)
	}
}

// GCRegisterDisappearingLink makes the word at slot a weak reference to referent.
func (c *Context) GCRegisterDisappearingLink(slot, referent heap.Address) error {
	col, err := c.managed("registerDisappearingLink")
	if err != nil {
		return err
	}
	return col.RegisterDisappearingLink(slot, referent)
}

// GCUnregisterDisappearingLink removes the link at slot and reports whether
// one was registered.
func (c *Context) GCUnregisterDisappearingLink(slot heap.Address) (bool, error) {
	col, err := c.managed("unregisterDisappearingLink")
	if err != nil {
		return false, err
	}
	return col.UnregisterDisappearingLink(slot), nil
}

// AddRoots registers [lo, hi) as a conservatively scanned root range.
func (c *Context) AddRoots(lo, hi heap.Address) error {
	col, err := c.managed("addRoots")
	if err != nil {
		return err
	}
	return col.AddRoots(lo, hi)
}

// AddRootScanner registers a callback reporting the VM's own roots.
func (c *Context) AddRootScanner(scan gc.RootScanner) error {
	col, err := c.managed("addRootScanner")
	if err != nil {
		return err
	}
	col.AddRootScanner(scan)
	return nil
}

// ForceCollection runs a full collection and the finalizers it readies.
// Backends without a collector ignore it.
func (c *Context) ForceCollection() {
	if col, ok := c.backend.(alloc.Collecting); ok {
		col.ForceCollection()
	}
}

// CollectALittle performs one bounded increment of collection work and
// reports whether it completed a cycle.
func (c *Context) CollectALittle() bool {
	if col, ok := c.backend.(alloc.Collecting); ok {
		return col.CollectIncrement()
	}
	return false
}

// InvokeFinalizers runs finalizers made ready by collections triggered from
// allocation, returning how many ran.
func (c *Context) InvokeFinalizers() int {
	if c.collector == nil {
		return 0
	}
	return c.collector.InvokeFinalizers()
}

// GetUsedHeapSize returns the bytes the backend accounts as in use.
func (c *Context) GetUsedHeapSize() uint64 { return c.backend.UsedBytes() }

// GetTotalMemory returns the configured maximum heap size.
func (c *Context) GetTotalMemory() uint64 { return c.cfg.MaxHeapBytes }

// GetFreeMemory returns the maximum heap size minus the used bytes.
func (c *Context) GetFreeMemory() uint64 { return c.backend.Stats().FreeBytes() }

// Stats returns the backend's statistics.
func (c *Context) Stats() heap.Stats { return c.backend.Stats() }

// Snapshot returns the managed heap's object graph.
func (c *Context) Snapshot() (gc.Snapshot, error) {
	col, err := c.managed("snapshot")
	if err != nil {
		return gc.Snapshot{}, err
	}
	return col.Snapshot(), nil
}

// Load32 reads the word at addr.
func (c *Context) Load32(addr heap.Address) (uint32, error) { return c.mem.Load32(addr) }

// Store32 writes the word at addr through the write barrier.
func (c *Context) Store32(addr heap.Address, v uint32) error { return c.mem.Store32(addr, v) }

// Load64 reads the two-word value at addr.
func (c *Context) Load64(addr heap.Address) (int64, error) { return c.mem.Load64(addr) }

// Store64 writes the two-word value at addr through the write barrier.
func (c *Context) Store64(addr heap.Address, v int64) error { return c.mem.Store64(addr, v) }
