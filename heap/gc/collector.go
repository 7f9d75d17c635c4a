package gc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/heap/alloc"
	"github.com/joshuapare/vmheap/heap/dirty"
	"github.com/joshuapare/vmheap/internal/format"
	"github.com/joshuapare/vmheap/internal/logger"
)

type phase uint8

const (
	phaseIdle phase = iota
	phaseMark
	phaseSweep
)

func (p phase) String() string {
	switch p {
	case phaseMark:
		return "mark"
	case phaseSweep:
		return "sweep"
	default:
		return "idle"
	}
}

// Collector is the managed backend. It is not safe for concurrent use.
type Collector struct {
	mem  *heap.Memory
	cfg  heap.Config
	free *freeSpace
	objs *objectTable

	// uncollectable objects are permanent roots.
	uncollectable map[heap.Address]*object

	roots    []rootRange
	scanners []RootScanner

	finalizers map[heap.Address]finalizer
	queue      []pendingFinalizer // ready, not yet run
	running    []pendingFinalizer // currently being run by InvokeFinalizers

	// links maps a weak slot to its referent.
	links map[heap.Address]heap.Address

	// Cycle state
	epoch     uint64
	phase     phase
	work      []span
	barrier   *dirty.Tracker
	sweepList []heap.Address
	sweepPos  int

	reserved uint64 // address space claimed from mem
	used     uint64 // bytes in live (unswept) objects
	sinceGC  uint64 // bytes allocated since the last cycle started

	allocs        uint64
	frees         uint64
	collections   uint64
	increments    uint64
	finalizersRun uint64
	linksCleared  uint64

	log *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithSizeClasses selects the free-list size class layout.
func WithSizeClasses(config SizeClassConfig) Option {
	return func(c *Collector) {
		c.free = newFreeSpace(config)
	}
}

// WithLogger sends the collector's records to l instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a collector allocating from mem. cfg must already be
// validated. No address space is claimed until the first allocation.
func New(mem *heap.Memory, cfg heap.Config, opts ...Option) (*Collector, error) {
	if cfg.Backend != heap.BackendManaged {
		return nil, fmt.Errorf("%w: gc collector with %s backend", heap.ErrInvalidConfig, cfg.Backend)
	}
	c := &Collector{
		mem:           mem,
		cfg:           cfg,
		free:          newFreeSpace(DefaultSizeClasses),
		objs:          newObjectTable(mem.Base()),
		uncollectable: make(map[heap.Address]*object),
		finalizers:    make(map[heap.Address]finalizer),
		links:         make(map[heap.Address]heap.Address),
		barrier:       dirty.NewTracker(),
		log:           logger.L,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Allocate returns size zeroed bytes of the given kind, collecting first
// when the allocation trigger has been reached.
func (c *Collector) Allocate(size uint32, kind heap.Kind) (heap.Address, error) {
	if !kind.Valid() {
		return 0, heap.ErrBadKind
	}
	need64 := format.AlignGranule(uint64(max(size, 1)))
	if need64 > c.mem.Capacity() {
		return 0, fmt.Errorf("%w: request of %d bytes exceeds max heap %d",
			heap.ErrOutOfMemory, size, c.mem.Capacity())
	}
	need := uint32(need64)

	c.maybeCollect()

	addr, err := c.reserve(need)
	if err != nil {
		return 0, err
	}

	o := &object{addr: addr, size: need, kind: kind}
	if c.phase != phaseIdle {
		// Allocated black: the cycle in progress must not reclaim it.
		o.mark = c.epoch
	}
	c.objs.add(o)
	if kind == heap.Uncollectable {
		c.uncollectable[addr] = o
	}
	c.mem.Zero(addr, need)

	c.used += uint64(need)
	c.sinceGC += uint64(need)
	c.allocs++

	if logAlloc {
		c.log.Debug("gc alloc", "addr", addr, "size", size, "aligned", need,
			"kind", kind, "phase", c.phase)
	}
	return addr, nil
}

func (c *Collector) maybeCollect() {
	if c.cfg.Incremental {
		if c.phase != phaseIdle || c.sinceGC > c.cfg.GCTriggerBytes {
			c.step()
		}
		return
	}
	if c.sinceGC > c.cfg.GCTriggerBytes {
		c.collect()
	}
}

// reserve finds need bytes of free space, claiming new address space or
// collecting when necessary.
func (c *Collector) reserve(need uint32) (heap.Address, error) {
	if addr, ok := c.free.take(need); ok {
		return addr, nil
	}
	if c.grow(need) {
		addr, _ := c.free.take(need)
		return addr, nil
	}

	c.log.Debug("gc: heap exhausted, collecting", "need", need,
		"used", c.used, "free", c.free.Bytes(), "largest", c.free.largest())
	c.collect()

	if addr, ok := c.free.take(need); ok {
		return addr, nil
	}
	if c.grow(need) {
		addr, _ := c.free.take(need)
		return addr, nil
	}
	return 0, fmt.Errorf("%w: managed heap (need=%d, used=%d, free=%d, largest=%d)",
		heap.ErrOutOfMemory, need, c.used, c.free.Bytes(), c.free.largest())
}

// grow claims a fresh segment able to hold need bytes. When a full segment
// no longer fits, it claims whatever address space remains.
func (c *Collector) grow(need uint32) bool {
	size := format.AlignUp(uint64(need), format.SegmentBytes)
	if size > c.mem.Remaining() {
		size = c.mem.Remaining() &^ format.GranuleMask
		if size < uint64(need) {
			return false
		}
	}

	addr, err := c.mem.Claim(size, format.Granule)
	if err != nil {
		return false
	}
	c.reserved += size
	c.free.release(addr, uint32(size))

	c.log.Debug("gc segment", "base", addr, "size", size, "reserved", c.reserved)
	return true
}

// Free releases a live Uncollectable object. Its finalizer record and any
// links stored inside it are dropped; links to it are cleared.
func (c *Collector) Free(addr heap.Address) error {
	o := c.objs.get(addr)
	if o == nil {
		return fmt.Errorf("%w: free %#x", heap.ErrNotHeapObject, addr)
	}
	if o.kind != heap.Uncollectable {
		return fmt.Errorf("%w: %s object at %#x", heap.ErrUnsupportedFree, o.kind, addr)
	}

	delete(c.finalizers, addr)
	c.dropLinksIn(uint64(o.addr), o.end())
	c.clearLinksTo(addr)
	delete(c.uncollectable, addr)
	c.release(o)
	c.frees++

	if logAlloc {
		c.log.Debug("gc free", "addr", addr, "size", o.size)
	}
	return nil
}

// release returns o's memory to the free space.
func (c *Collector) release(o *object) {
	c.objs.remove(o)
	c.free.release(o.addr, o.size)
	c.used -= uint64(o.size)
}

// live reports whether o may be handed to the lifecycle API. Objects
// awaiting reclamation by the running sweep are not live.
func (c *Collector) live(o *object) bool {
	if o == nil {
		return false
	}
	return c.phase != phaseSweep || o.kind == heap.Uncollectable || o.mark == c.epoch
}

// UsedBytes returns the bytes held by live and not yet swept objects.
func (c *Collector) UsedBytes() uint64 { return c.used }

// InProgress reports whether an incremental cycle has started and not completed.
func (c *Collector) InProgress() bool { return c.phase != phaseIdle }

func (c *Collector) Stats() heap.Stats {
	return heap.Stats{
		Backend:           heap.BackendManaged,
		MaxHeapBytes:      c.mem.Capacity(),
		ReservedBytes:     c.reserved,
		UsedBytes:         c.used,
		Allocations:       c.allocs,
		Frees:             c.frees,
		LiveObjects:       c.objs.len(),
		Collections:       c.collections,
		Increments:        c.increments,
		Finalizers:        len(c.finalizers),
		PendingFinalizers: len(c.queue),
		FinalizersRun:     c.finalizersRun,
		Links:             len(c.links),
		LinksCleared:      c.linksCleared,
	}
}

// Compile-time interface check
var _ alloc.Collecting = (*Collector)(nil)
