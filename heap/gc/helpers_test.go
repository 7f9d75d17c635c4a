package gc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmheap/heap"
)

// newTestCollector returns a collector over a fresh 1MB address space.
// Allocation-triggered collection is effectively disabled unless mutate
// lowers GCTriggerBytes.
func newTestCollector(t testing.TB, mutate func(*heap.Config)) *Collector {
	t.Helper()
	cfg := heap.Config{
		Backend:        heap.BackendManaged,
		MaxHeapBytes:   1 << 20,
		GCTriggerBytes: 1 << 40,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	mem, err := heap.NewMemory(cfg.MaxHeapBytes)
	require.NoError(t, err)

	c, err := New(mem, cfg)
	require.NoError(t, err)
	return c
}

func mustAlloc(t testing.TB, c *Collector, size uint32, kind heap.Kind) heap.Address {
	t.Helper()
	addr, err := c.Allocate(size, kind)
	require.NoError(t, err, "Allocate(%d, %s)", size, kind)
	return addr
}

func store(t testing.TB, c *Collector, addr heap.Address, v uint32) {
	t.Helper()
	require.NoError(t, c.mem.Store32(addr, v))
}

func load(t testing.TB, c *Collector, addr heap.Address) uint32 {
	t.Helper()
	v, err := c.mem.Load32(addr)
	require.NoError(t, err)
	return v
}

func isLive(c *Collector, addr heap.Address) bool {
	return c.objs.get(addr) != nil
}

// liveSet returns the addresses of all objects the collector still tracks.
func liveSet(c *Collector) map[heap.Address]heap.Kind {
	out := make(map[heap.Address]heap.Kind, c.objs.len())
	for addr, o := range c.objs.byAddr {
		out[addr] = o.kind
	}
	return out
}
