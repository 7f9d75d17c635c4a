// Package heap defines the flat address space shared by every allocation
// backend, together with the process-wide heap configuration, allocation
// kinds, and the statistics view.
//
// # Address Space
//
// The VM addresses the heap with 32-bit offsets into one contiguous byte
// space (Memory). The first ReservedLowBytes are never handed out, so the
// null address 0 is never a valid allocation:
//
//	0x0000 ........ 0x1000 ........................... Limit()
//	| reserved low | claimed by backends -> | unclaimed |
//
// Backends claim address space from Memory with Claim, which only ever
// advances. Claimed space is never returned during the process lifetime.
//
// # Allocation Kinds
//
//   - Ordinary: may contain references; scanned by the managed collector
//   - Atomic: pointer-free; never scanned
//   - Uncollectable: scanned like Ordinary, treated as a root, and only
//     released by an explicit free
//
// # Backends
//
// The backend is fixed once by Config.Backend:
//
//   - BackendManaged: tracing mark/sweep collector (package heap/gc)
//   - BackendBump: single region bump pointer, no reclamation (package heap/alloc)
//   - BackendArena: chunked bump pointer, no reclamation (package heap/alloc)
//
// # Thread Safety
//
// Memory and all backends assume a single mutator. Callers must synchronize
// access externally.
package heap
