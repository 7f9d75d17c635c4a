// Package format holds the layout constants and little-endian word helpers
// shared by every heap backend. The VM sees the heap as a flat byte space
// addressed by 32-bit offsets, so everything here speaks in those terms.
package format

const (
	// WordSize is the width of a host word (and of a heap pointer) in bytes.
	// Conservative scanning walks objects in WordSize steps.
	WordSize = 4

	// WordMask masks the low bits of a word-aligned offset.
	WordMask = WordSize - 1

	// LongSize is the width of a two-word 64-bit value.
	// Layout (little-endian):
	//   +0  low 32 bits
	//   +4  high 32 bits
	LongSize = 8

	// LongHighOffset is the offset of the high word inside a two-word value.
	LongHighOffset = 4

	// Granule is the allocation unit of the managed collector. Every managed
	// object starts on a granule boundary and its size is a granule multiple.
	Granule = 8

	// GranuleMask masks the low bits of a granule-aligned offset.
	GranuleMask = Granule - 1

	// GranuleShift converts byte offsets to granule indexes.
	GranuleShift = 3

	// PageSize is the dirty-tracking and reservation page size.
	PageSize = 4096

	// PageMask masks the low bits of a page-aligned offset.
	PageMask = PageSize - 1

	// ReservedLowBytes is the size of the never-allocated area at address 0.
	// Keeping it unused guarantees that no allocation returns the null address.
	ReservedLowBytes = PageSize

	// SegmentBytes is the step in which the managed collector claims fresh
	// address space to refill its free lists.
	SegmentBytes = 64 * 1024

	// MaxAddressSpace is the largest address space a 32-bit host can address.
	MaxAddressSpace = 1 << 32
)
