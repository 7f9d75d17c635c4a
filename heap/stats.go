package heap

// Stats is a read-only view of heap usage derived from the active backend.
type Stats struct {
	Backend      Backend `json:"backend"`
	MaxHeapBytes uint64  `json:"max_heap_bytes"`

	// ReservedBytes is the address space the backend has claimed.
	ReservedBytes uint64 `json:"reserved_bytes"`

	// UsedBytes is what the backend currently accounts as in use.
	UsedBytes uint64 `json:"used_bytes"`

	Allocations uint64 `json:"allocations"`
	Frees       uint64 `json:"frees"`

	// Bump/Arena
	Chunks int `json:"chunks,omitempty"`

	// Managed
	LiveObjects       int    `json:"live_objects,omitempty"`
	Collections       uint64 `json:"collections,omitempty"`
	Increments        uint64 `json:"increments,omitempty"`
	Finalizers        int    `json:"finalizers,omitempty"`
	PendingFinalizers int    `json:"pending_finalizers,omitempty"`
	FinalizersRun     uint64 `json:"finalizers_run,omitempty"`
	Links             int    `json:"links,omitempty"`
	LinksCleared      uint64 `json:"links_cleared,omitempty"`
}

// FreeBytes returns MaxHeapBytes minus UsedBytes.
func (s Stats) FreeBytes() uint64 {
	if s.UsedBytes >= s.MaxHeapBytes {
		return 0
	}
	return s.MaxHeapBytes - s.UsedBytes
}
