package format

// Alignment helpers. Alignments passed in must be powers of two.

// AlignUp returns n rounded up to the next multiple of align.
//
// Example:
//
//	AlignUp(10, 4) = 12
//	AlignUp(12, 4) = 12
//	AlignUp(1, 8)  = 8
func AlignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// AlignGranule returns n rounded up to the next granule (8-byte) boundary.
//
// Example:
//
//	AlignGranule(1)  = 8
//	AlignGranule(8)  = 8
//	AlignGranule(9)  = 16
func AlignGranule(n uint64) uint64 {
	return (n + GranuleMask) &^ GranuleMask
}

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}
