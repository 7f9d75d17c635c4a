// Package inspect analyses a managed heap snapshot as a directed graph:
// why an object is retained, what it keeps alive, and which objects form
// reference cycles.
package inspect

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/heap/gc"
)

var (
	// ErrUnknownObject indicates an address that is not an object in the snapshot.
	ErrUnknownObject = errors.New("inspect: not an object in the snapshot")

	// ErrUnreachable indicates an object no root reaches.
	ErrUnreachable = errors.New("inspect: object is unreachable")
)

// rootID is the synthetic node standing for all roots. No object lives at
// the null address, so it cannot collide with an object node.
const rootID = int64(heap.Null)

// Graph is the object graph of one snapshot. Node IDs are object addresses.
type Graph struct {
	g       *simple.DirectedGraph
	root    graph.Node
	objects map[heap.Address]gc.ObjectInfo

	// Lazily computed
	shortest *path.Shortest
	dom      *flow.DominatorTree
}

// Build turns a snapshot into a graph with an edge from the synthetic root
// to every root object.
func Build(snap gc.Snapshot) *Graph {
	g := &Graph{
		g:       simple.NewDirectedGraph(),
		root:    simple.Node(rootID),
		objects: make(map[heap.Address]gc.ObjectInfo, len(snap.Objects)),
	}
	g.g.AddNode(g.root)
	for _, o := range snap.Objects {
		g.objects[o.Addr] = o
		g.g.AddNode(simple.Node(int64(o.Addr)))
	}
	for _, e := range snap.Edges {
		if e.From == e.To {
			continue
		}
		g.g.SetEdge(g.g.NewEdge(g.g.Node(int64(e.From)), g.g.Node(int64(e.To))))
	}
	for _, r := range snap.Roots {
		if _, ok := g.objects[r]; ok {
			g.g.SetEdge(g.g.NewEdge(g.root, g.g.Node(int64(r))))
		}
	}
	return g
}

// Len returns the number of objects.
func (g *Graph) Len() int { return len(g.objects) }

// Object returns the snapshot record for addr.
func (g *Graph) Object(addr heap.Address) (gc.ObjectInfo, bool) {
	o, ok := g.objects[addr]
	return o, ok
}

func (g *Graph) node(addr heap.Address) (graph.Node, error) {
	if _, ok := g.objects[addr]; !ok {
		return nil, fmt.Errorf("%w: %#x", ErrUnknownObject, addr)
	}
	return g.g.Node(int64(addr)), nil
}

// Reachable reports whether any root reaches addr.
func (g *Graph) Reachable(addr heap.Address) bool {
	n, err := g.node(addr)
	if err != nil {
		return false
	}
	return topo.PathExistsIn(g.g, g.root, n)
}

// Unreachable returns, in address order, the objects no root reaches: what
// the next collection will reclaim or finalize.
func (g *Graph) Unreachable() []heap.Address {
	sp := g.shortestFromRoot()
	var out []heap.Address
	for addr := range g.objects {
		if p, _ := sp.To(int64(addr)); len(p) == 0 {
			out = append(out, addr)
		}
	}
	slices.Sort(out)
	return out
}

// RetentionPath returns the shortest chain of references from a root object
// to addr, starting with the root object and ending with addr.
func (g *Graph) RetentionPath(addr heap.Address) ([]heap.Address, error) {
	if _, err := g.node(addr); err != nil {
		return nil, err
	}
	nodes, _ := g.shortestFromRoot().To(int64(addr))
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %#x", ErrUnreachable, addr)
	}
	out := make([]heap.Address, 0, len(nodes)-1)
	for _, n := range nodes[1:] {
		out = append(out, heap.Address(n.ID()))
	}
	return out, nil
}

func (g *Graph) shortestFromRoot() *path.Shortest {
	if g.shortest == nil {
		sp := path.DijkstraFrom(g.root, g.g)
		g.shortest = &sp
	}
	return g.shortest
}

// RetainedSize returns the bytes that would become unreachable if addr did:
// the sizes of every object addr dominates, itself included.
func (g *Graph) RetainedSize(addr heap.Address) (uint64, error) {
	if _, err := g.node(addr); err != nil {
		return 0, err
	}
	if !g.Reachable(addr) {
		return 0, fmt.Errorf("%w: %#x", ErrUnreachable, addr)
	}
	if g.dom == nil {
		dt := flow.Dominators(g.root, g.g)
		g.dom = &dt
	}

	var total uint64
	stack := []int64{int64(addr)}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total += uint64(g.objects[heap.Address(id)].Size)
		for _, n := range g.dom.DominatedBy(id) {
			stack = append(stack, n.ID())
		}
	}
	return total, nil
}

// Cycles returns the strongly connected components with more than one
// object, each sorted by address, ordered by their lowest address.
func (g *Graph) Cycles() [][]heap.Address {
	var out [][]heap.Address
	for _, scc := range topo.TarjanSCC(g.g) {
		if len(scc) < 2 {
			continue
		}
		c := make([]heap.Address, 0, len(scc))
		for _, n := range scc {
			c = append(c, heap.Address(n.ID()))
		}
		slices.Sort(c)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b []heap.Address) bool { return a[0] < b[0] })
	return out
}
