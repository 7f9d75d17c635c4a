package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmheap/heap"
)

// newTestConfig returns a validated config for the given backend.
func newTestConfig(t testing.TB, backend heap.Backend, maxHeap uint64, mutate func(*heap.Config)) heap.Config {
	t.Helper()
	cfg := heap.Config{Backend: backend, MaxHeapBytes: maxHeap}
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestMemory(t testing.TB, cfg heap.Config) *heap.Memory {
	t.Helper()
	mem, err := heap.NewMemory(cfg.MaxHeapBytes)
	require.NoError(t, err)
	return mem
}

// dirty fills the whole claimed address space with 0xFF so that zero-fill
// checks cannot pass by accident.
func dirtyClaimed(mem *heap.Memory) {
	b := mem.Bytes()[mem.Base() : uint64(mem.Base())+mem.Claimed()]
	for i := range b {
		b[i] = 0xFF
	}
}
