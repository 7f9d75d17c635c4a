// Package dirty provides page-level dirty tracking for the heap's write
// barrier.
//
// While the managed collector marks incrementally, the mutator may store a
// reference into an object that has already been scanned. Every store made
// through heap.Memory is reported to the installed Tracker; at mark
// termination the collector rescans the marked objects overlapping the
// coalesced dirty pages so no such reference is lost.
//
// NOT thread-safe. Only one goroutine should use a Tracker at a time.
package dirty

import (
	"sort"

	"github.com/joshuapare/vmheap/internal/format"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64
)

// Range represents a dirty byte range (absolute heap offsets).
type Range struct {
	Off int64
	Len int64
}

// End returns the exclusive end offset of the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and coalesces them into pages on demand.
type Tracker struct {
	ranges   []Range // Raw ranges; coalesced lazily in Pages
	pageSize int64
}

// NewTracker creates a tracker using the heap's page size.
func NewTracker() *Tracker {
	return &Tracker{
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: format.PageSize,
	}
}

// Add records a dirty range. It only appends, so it is cheap enough to run
// on every store.
func (t *Tracker) Add(off, length int) {
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Empty reports whether nothing has been recorded since the last Reset.
func (t *Tracker) Empty() bool { return len(t.ranges) == 0 }

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Pages returns the dirty ranges page-aligned, sorted and merged.
func (t *Tracker) Pages() []Range {
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
//
// Returns a new slice of non-overlapping, sorted ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	// Page-align all ranges
	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{
			Off: start,
			Len: end - start,
		}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]

	for i := 1; i < len(aligned); i++ {
		next := aligned[i]

		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}

	merged = append(merged, current)
	return merged
}
