// Package gc implements the managed heap backend: a conservative
// mark/sweep collector over heap.Memory with finalization and
// disappearing (weak) links.
//
// # Allocation
//
// Free address space is kept in segregated size-class min-heaps with O(1)
// neighbour coalescing. When no free range fits, the collector claims a
// fresh segment (64KB or larger) from the address space. Objects carry no
// header; a per-granule start bitmap maps interior pointers back to their
// object.
//
// # Collection
//
// Roots are every Uncollectable object, every range registered with
// AddRoots, every RootScanner callback and every object waiting for its
// finalizer. Ordinary and Uncollectable objects are scanned word by word;
// any word pointing inside a live object keeps it alive. Atomic objects are
// never scanned, and words held in registered disappearing-link slots are
// skipped.
//
// Collections run either as one stop-the-world cycle (ForceCollection) or
// in bounded increments (CollectIncrement). During incremental marking new
// objects are allocated marked, and stores made through heap.Memory's store
// helpers are recorded page by page; marked objects on dirty pages are
// rescanned, together with all roots, before marking ends.
//
// # Finalization
//
// When marking ends, links whose referent is unmarked are cleared to 0 and
// every unmarked object with a finalizer is queued and kept alive (with
// everything it references) for one more cycle. Queued finalizers run in
// address order from ForceCollection, from the CollectIncrement call that
// completes a cycle, or from InvokeFinalizers, never from Allocate.
//
// The collector is single-threaded: callers must serialize all calls.
package gc
