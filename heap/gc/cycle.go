package gc

import (
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/format"
)

// Runtime debug flag for allocation logging - controlled by VMHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("VMHEAP_LOG_ALLOC") != ""

// span is a word range waiting to be scanned.
type span struct {
	lo, hi uint64
}

func (s span) words() int { return int((s.hi - s.lo) / format.WordSize) }

// ForceCollection finishes any cycle in progress, runs one complete cycle
// and then the finalizers it made ready.
func (c *Collector) ForceCollection() {
	c.collect()
	c.InvokeFinalizers()
}

// CollectIncrement performs one bounded unit of collection work, starting a
// cycle when none is running. It reports whether a cycle completed, in which
// case ready finalizers have been run.
func (c *Collector) CollectIncrement() bool {
	done := c.step()
	if done {
		c.InvokeFinalizers()
	}
	return done
}

// step advances the current cycle by at most MarkBudgetWords scanned words
// or SweepBudgetObjects swept objects.
func (c *Collector) step() bool {
	c.increments++
	switch c.phase {
	case phaseIdle:
		c.startCycle()
		fallthrough
	case phaseMark:
		if c.drain(c.cfg.MarkBudgetWords) {
			c.finishMark()
		}
		return false
	default:
		if !c.sweep(c.cfg.SweepBudgetObjects) {
			return false
		}
		c.endCycle()
		return true
	}
}

// collect completes the running cycle, if any, then runs a full one.
func (c *Collector) collect() {
	if c.phase != phaseIdle {
		c.finishCycle()
	}
	c.startCycle()
	c.finishCycle()
}

func (c *Collector) finishCycle() {
	if c.phase == phaseMark {
		c.drain(-1)
		c.finishMark()
	}
	c.sweep(-1)
	c.endCycle()
}

func (c *Collector) startCycle() {
	c.epoch++
	c.phase = phaseMark
	c.sinceGC = 0
	c.work = c.work[:0]

	c.barrier.Reset()
	c.mem.SetTracker(c.barrier)

	c.log.Debug("gc cycle start", "epoch", c.epoch, "objects", c.objs.len(),
		"used", c.used, "incremental", c.cfg.Incremental)

	for _, o := range c.uncollectable {
		c.markObject(o)
	}
	c.markRoots()
}

// markRoots pushes the non-object roots: registered ranges, scanner
// callbacks and objects waiting for their finalizer.
func (c *Collector) markRoots() {
	for _, r := range c.roots {
		c.push(span{lo: uint64(r.lo), hi: uint64(r.hi)})
	}
	for _, scan := range c.scanners {
		scan(c.markAddr)
	}
	for _, p := range c.queue {
		c.markAddr(p.addr)
	}
	for _, p := range c.running {
		c.markAddr(p.addr)
	}
}

func (c *Collector) markAddr(addr heap.Address) {
	if o := c.objs.find(addr); o != nil {
		c.markObject(o)
	}
}

func (c *Collector) markObject(o *object) {
	if o.mark == c.epoch {
		return
	}
	o.mark = c.epoch
	if o.kind.Scanned() {
		c.push(span{lo: uint64(o.addr), hi: o.end()})
	}
}

func (c *Collector) push(s span) {
	s.lo = format.AlignUp(s.lo, format.WordSize)
	if s.lo+format.WordSize <= s.hi {
		c.work = append(c.work, s)
	}
}

// drain scans queued spans until the worklist is empty or budget words have
// been scanned. A negative budget is unbounded. It reports whether the
// worklist is empty.
func (c *Collector) drain(budget int) bool {
	unbounded := budget < 0
	for len(c.work) > 0 {
		if !unbounded && budget == 0 {
			return false
		}
		top := &c.work[len(c.work)-1]
		n := top.words()
		if !unbounded && n > budget {
			lo := top.lo
			top.lo += uint64(budget) * format.WordSize
			c.scan(lo, top.lo)
			return false
		}
		s := *top
		c.work = c.work[:len(c.work)-1]
		c.scan(s.lo, s.hi)
		if !unbounded {
			budget -= n
		}
	}
	return true
}

// scan treats every word in [lo, hi) as a potential reference.
func (c *Collector) scan(lo, hi uint64) {
	c.eachRef(lo, hi, c.markObject)
}

// finishMark rescans everything the mutator may have changed since marking
// began, completes marking, and prepares the sweep.
func (c *Collector) finishMark() {
	for _, o := range c.uncollectable {
		c.push(span{lo: uint64(o.addr), hi: o.end()})
	}
	c.markRoots()
	c.rescanDirty()
	c.drain(-1)

	c.mem.SetTracker(nil)
	c.barrier.Reset()

	c.processUnreachable()

	c.sweepList = maps.Keys(c.objs.byAddr)
	slices.Sort(c.sweepList)
	c.sweepPos = 0
	c.phase = phaseSweep
}

// rescanDirty pushes the dirty parts of marked objects.
func (c *Collector) rescanDirty() {
	if c.barrier.Empty() {
		return
	}
	for _, r := range c.barrier.Pages() {
		lo, hi := uint64(r.Off), uint64(r.End())
		o := c.objs.find(heap.Address(lo))
		if o == nil {
			o = c.objs.next(heap.Address(lo), hi)
		}
		for o != nil {
			if o.mark == c.epoch && o.kind.Scanned() {
				c.push(span{lo: max(lo, uint64(o.addr)), hi: min(hi, o.end())})
			}
			if o.end() >= hi {
				break
			}
			o = c.objs.next(heap.Address(o.end()), hi)
		}
	}
}

// sweep reclaims unmarked collectable objects from the sweep list, at most
// budget of them (negative: all). It reports whether the sweep is complete.
func (c *Collector) sweep(budget int) bool {
	for c.sweepPos < len(c.sweepList) {
		if budget == 0 {
			return false
		}
		addr := c.sweepList[c.sweepPos]
		c.sweepPos++
		budget--

		o := c.objs.get(addr)
		if o == nil || o.kind == heap.Uncollectable || o.mark == c.epoch {
			continue
		}
		delete(c.finalizers, addr)
		c.dropLinksIn(uint64(o.addr), o.end())
		c.release(o)
	}
	c.sweepList = nil
	return true
}

func (c *Collector) endCycle() {
	c.phase = phaseIdle
	c.collections++

	c.log.Debug("gc cycle done", "epoch", c.epoch, "objects", c.objs.len(),
		"used", c.used, "free", c.free.Bytes(), "pending_finalizers", len(c.queue))
}
