// Package vmheap is the host-facing allocation ABI of the heap.
//
// A Context owns one address space and one backend, chosen from
// heap.Config at construction:
//
//	ctx, err := vmheap.New(heap.Config{Backend: heap.BackendArena})
//	addr := ctx.GCMalloc(24)
//
// The VM calls the GC* methods exactly as it would call a native
// allocator: they return addresses, never errors. Exhaustion aborts the
// process by panicking with *heap.FatalError unless the config selects
// heap.OOMReturnNull, in which case the null address is returned.
//
// Lifecycle operations (finalizers, disappearing links, roots) exist only
// on the managed backend and report heap.ErrUnsupported elsewhere.
//
// The L* methods implement 64-bit arithmetic for hosts without native
// 64-bit integers. Operands and results live in heap memory as two
// little-endian words, low word first.
//
// Startup and Default provide the process-wide context for hosts that
// cannot thread a Context through their call sites. A Context is not safe
// for concurrent use.
package vmheap
