package gc

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/format"
)

// ObjectInfo describes one managed object in a Snapshot.
type ObjectInfo struct {
	Addr        heap.Address `json:"addr"`
	Size        uint32       `json:"size"`
	Kind        heap.Kind    `json:"kind"`
	Finalizable bool         `json:"finalizable,omitempty"`
}

// Edge is a conservative reference from one object to another.
type Edge struct {
	From heap.Address `json:"from"`
	To   heap.Address `json:"to"`
}

// Link is a registered disappearing link.
type Link struct {
	Slot     heap.Address `json:"slot"`
	Referent heap.Address `json:"referent"`
}

// Snapshot is a point-in-time view of the managed heap's object graph.
// Everything is sorted by address.
type Snapshot struct {
	Objects []ObjectInfo `json:"objects"`
	Edges   []Edge       `json:"edges"`

	// Roots lists the objects referenced directly by a root, including every
	// Uncollectable object and every object awaiting its finalizer.
	Roots []heap.Address `json:"roots"`

	Links []Link `json:"links,omitempty"`
}

// Snapshot walks the heap without changing any collector state. Edges are
// found the same way marking finds them: every aligned word that points into
// an object counts, except words held in link slots. During an incremental
// sweep, objects the sweep will reclaim are left out.
func (c *Collector) Snapshot() Snapshot {
	addrs := maps.Keys(c.objs.byAddr)
	slices.Sort(addrs)

	var snap Snapshot
	snap.Objects = make([]ObjectInfo, 0, len(addrs))
	seen := make(map[Edge]struct{})
	for _, addr := range addrs {
		o := c.objs.get(addr)
		if !c.live(o) {
			continue
		}
		_, fin := c.finalizers[addr]
		snap.Objects = append(snap.Objects, ObjectInfo{Addr: addr, Size: o.size, Kind: o.kind, Finalizable: fin})
		if !o.kind.Scanned() {
			continue
		}
		c.eachRef(uint64(o.addr), o.end(), func(to *object) {
			e := Edge{From: addr, To: to.addr}
			if to.addr == addr || !c.live(to) {
				return
			}
			if _, dup := seen[e]; !dup {
				seen[e] = struct{}{}
				snap.Edges = append(snap.Edges, e)
			}
		})
	}
	slices.SortFunc(snap.Edges, func(a, b Edge) bool {
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})

	roots := make(map[heap.Address]struct{})
	addRoot := func(addr heap.Address) {
		if o := c.objs.find(addr); c.live(o) {
			roots[o.addr] = struct{}{}
		}
	}
	for addr := range c.uncollectable {
		roots[addr] = struct{}{}
	}
	for _, r := range c.roots {
		c.eachRef(uint64(r.lo), uint64(r.hi), func(to *object) { addRoot(to.addr) })
	}
	for _, scan := range c.scanners {
		scan(addRoot)
	}
	for _, p := range c.queue {
		addRoot(p.addr)
	}
	snap.Roots = maps.Keys(roots)
	slices.Sort(snap.Roots)

	for slot, referent := range c.links {
		snap.Links = append(snap.Links, Link{Slot: slot, Referent: referent})
	}
	slices.SortFunc(snap.Links, func(a, b Link) bool { return a.Slot < b.Slot })

	return snap
}

// eachRef calls fn for every object referenced by a strong word in [lo, hi).
func (c *Collector) eachRef(lo, hi uint64, fn func(*object)) {
	data := c.mem.Bytes()
	for a := format.AlignUp(lo, format.WordSize); a+format.WordSize <= hi; a += format.WordSize {
		if _, weak := c.links[heap.Address(a)]; weak {
			continue
		}
		if to := c.objs.find(format.ReadU32(data, int(a))); to != nil {
			fn(to)
		}
	}
}
