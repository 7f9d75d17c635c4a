package gc

import "math"

// SizeClassConfig defines how free ranges are bucketed by size.
type SizeClassConfig struct {
	// Name for this configuration (for benchmarking)
	Name string

	// Small sizes (linear increments)
	SmallMin       uint32
	SmallMax       uint32
	SmallIncrement uint32

	// Medium sizes (logarithmic growth); anything larger goes to the large heap.
	MediumMax    uint32
	GrowthFactor float64
}

// Predefined configurations.
var (
	// SizeClassesFine: one class per granule up to 256 bytes, then 1.5x growth.
	// Suits VM workloads dominated by small objects and short arrays.
	SizeClassesFine = SizeClassConfig{
		Name:           "Fine",
		SmallMin:       8,
		SmallMax:       256,
		SmallIncrement: 8,
		MediumMax:      16384,
		GrowthFactor:   1.5,
	}

	// SizeClassesCoarse: fewer buckets, more slack per allocation.
	SizeClassesCoarse = SizeClassConfig{
		Name:           "Coarse",
		SmallMin:       8,
		SmallMax:       512,
		SmallIncrement: 32,
		MediumMax:      16384,
		GrowthFactor:   2.0,
	}

	// DefaultSizeClasses is used when no configuration is given.
	DefaultSizeClasses = SizeClassesFine
)

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config     SizeClassConfig
	boundaries []uint32 // inclusive upper bound for each class
}

func newSizeClassTable(config SizeClassConfig) *sizeClassTable {
	table := &sizeClassTable{
		config:     config,
		boundaries: make([]uint32, 0, 64),
	}

	for size := config.SmallMin; size < config.SmallMax; size += config.SmallIncrement {
		table.boundaries = append(table.boundaries, size+config.SmallIncrement-1)
	}

	size := max(config.SmallMax, config.SmallMin)
	for size < config.MediumMax {
		next := uint32(math.Ceil(float64(size) * config.GrowthFactor))
		if next <= size {
			next = size + 1
		}
		table.boundaries = append(table.boundaries, next-1)
		size = next
	}

	return table
}

// class returns the class index for size, or numClasses() for the large heap.
func (t *sizeClassTable) class(size uint32) int {
	lo, hi := 0, len(t.boundaries)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return len(t.boundaries)
}

func (t *sizeClassTable) numClasses() int { return len(t.boundaries) }

func (t *sizeClassTable) String() string { return t.config.Name }
