// Package cfg implements the generic directed graph shared by CFG
// construction and by register-allocation interference graphs.
//
// Vertices are identity-keyed: a vertex's identity is whatever value the
// caller hands in (in practice always a pointer), so any comparable type
// works. Labels are small integers assigned on insertion; they may have
// gaps after removals.
package cfg

import "excc/internal/diag"

// EdgeKind is a flag set classifying a single directed edge. Multiple
// flags may be OR'd together on one edge.
type EdgeKind uint8

const (
	EdgeNormal EdgeKind = 1 << iota
	EdgeYes
	EdgeNo
	EdgeBack
	EdgeLoop
	EdgeSymmetrical
)

// Has reports whether all bits of f are set in k.
func (k EdgeKind) Has(f EdgeKind) bool { return k&f == f }

// Any reports whether any bit of f is set in k.
func (k EdgeKind) Any(f EdgeKind) bool { return k&f != 0 }

// Branch resolves the EDGE_NORMAL|EDGE_YES ambiguity noted in the design
// notes: once YES or NO is present, NORMAL is not a meaningful sequencing
// flag alongside it, so strip it.
func (k EdgeKind) Branch() EdgeKind {
	if k.Any(EdgeYes | EdgeNo) {
		return k &^ EdgeNormal
	}
	return k
}

// String renders the flag letters used in Graphviz edge labels.
func (k EdgeKind) String() string {
	var s []byte
	k = k.Branch()
	if k.Has(EdgeYes) {
		s = append(s, 'Y')
	}
	if k.Has(EdgeNo) {
		s = append(s, 'N')
	}
	if k.Has(EdgeBack) {
		s = append(s, 'B')
	}
	if k.Has(EdgeLoop) {
		s = append(s, 'L')
	}
	if k.Has(EdgeSymmetrical) {
		s = append(s, 'S')
	}
	if len(s) == 0 {
		return ""
	}
	return string(s)
}

// Graph is a directed graph with OR-combinable edge flags. The zero value
// is not usable; construct with New.
type Graph[V comparable] struct {
	vertices  []V // label -> vertex; zero value marks a removed slot
	present   []bool
	labels    map[V]int
	forward   map[V]map[V]EdgeKind
	backward  map[V]map[V]EdgeKind
}

// New returns an empty graph.
func New[V comparable]() *Graph[V] {
	return &Graph[V]{
		labels:   make(map[V]int),
		forward:  make(map[V]map[V]EdgeKind),
		backward: make(map[V]map[V]EdgeKind),
	}
}

// AddVertex assigns v the next label. No-op if v is already present.
func (g *Graph[V]) AddVertex(v V) int {
	if label, ok := g.labels[v]; ok {
		return label
	}
	label := len(g.vertices)
	g.vertices = append(g.vertices, v)
	g.present = append(g.present, true)
	g.labels[v] = label
	g.forward[v] = make(map[V]EdgeKind)
	g.backward[v] = make(map[V]EdgeKind)
	return label
}

// Label returns v's label and whether v is present in the graph.
func (g *Graph[V]) Label(v V) (int, bool) {
	l, ok := g.labels[v]
	return l, ok
}

// Has reports whether v is a live vertex of the graph.
func (g *Graph[V]) Has(v V) bool {
	_, ok := g.labels[v]
	return ok
}

// AddEdge unions k into the existing edge flags if the edge already
// exists, or creates it otherwise. Both endpoints must already be
// vertices.
func (g *Graph[V]) AddEdge(u, v V, k EdgeKind) {
	if _, ok := g.labels[u]; !ok {
		diag.Fatal("cfg: AddEdge from unknown vertex")
	}
	if _, ok := g.labels[v]; !ok {
		diag.Fatal("cfg: AddEdge to unknown vertex")
	}
	g.forward[u][v] |= k
	g.backward[v][u] |= k
}

// RemoveVertex nulls v's slot, drops its label, and removes every edge
// touching it.
func (g *Graph[V]) RemoveVertex(v V) {
	label, ok := g.labels[v]
	if !ok {
		return
	}
	for succ := range g.forward[v] {
		delete(g.backward[succ], v)
	}
	for pred := range g.backward[v] {
		delete(g.forward[pred], v)
	}
	delete(g.forward, v)
	delete(g.backward, v)
	delete(g.labels, v)
	var zero V
	g.vertices[label] = zero
	g.present[label] = false
}

// RemoveEdge drops the edge u->v symmetrically. u's successor map and v's
// predecessor map stay in place even when this leaves them empty; only
// RemoveVertex deletes a vertex's adjacency entries.
func (g *Graph[V]) RemoveEdge(u, v V) {
	if m, ok := g.forward[u]; ok {
		delete(m, v)
	}
	if m, ok := g.backward[v]; ok {
		delete(m, u)
	}
}

// Successors returns v's forward adjacency (not a copy; don't mutate
// while iterating and also structurally editing the graph).
func (g *Graph[V]) Successors(v V) map[V]EdgeKind { return g.forward[v] }

// Predecessors returns v's backward adjacency.
func (g *Graph[V]) Predecessors(v V) map[V]EdgeKind { return g.backward[v] }

// Vertices returns every live vertex, in label order.
func (g *Graph[V]) Vertices() []V {
	out := make([]V, 0, len(g.labels))
	for label, present := range g.present {
		if present {
			out = append(out, g.vertices[label])
		}
	}
	return out
}

// InjectBefore rewires every predecessor p of y (with edge kind k') to
// p->x->y: edge p->x inherits k', edge x->y gets k|NORMAL. x must already
// be a vertex with no edges of its own to y.
func (g *Graph[V]) InjectBefore(x, y V, k EdgeKind) {
	preds := make(map[V]EdgeKind, len(g.backward[y]))
	for p, pk := range g.backward[y] {
		preds[p] = pk
	}
	for p, pk := range preds {
		g.RemoveEdge(p, y)
		g.AddEdge(p, x, pk)
	}
	g.AddEdge(x, y, k|EdgeNormal)
}

// InjectAfter is InjectBefore's dual: rewires every successor s of x (with
// edge kind k') to x->y->s.
func (g *Graph[V]) InjectAfter(x, y V, k EdgeKind) {
	succs := make(map[V]EdgeKind, len(g.forward[x]))
	for s, sk := range g.forward[x] {
		succs[s] = sk
	}
	for s, sk := range succs {
		g.RemoveEdge(x, s)
		g.AddEdge(y, s, sk)
	}
	g.AddEdge(x, y, k|EdgeNormal)
}

// ReplaceForward moves every successor of old to new, OR'ing k into each
// edge's kind. If hasNew is false, old's outgoing edges are simply
// dropped.
func (g *Graph[V]) ReplaceForward(old V, new V, hasNew bool, k EdgeKind) {
	succs := make(map[V]EdgeKind, len(g.forward[old]))
	for s, sk := range g.forward[old] {
		succs[s] = sk
	}
	for s, sk := range succs {
		g.RemoveEdge(old, s)
		if hasNew {
			g.AddEdge(new, s, sk|k)
		}
	}
}

// ReplaceBackward is ReplaceForward's dual, operating on old's
// predecessors.
func (g *Graph[V]) ReplaceBackward(old V, new V, hasNew bool, k EdgeKind) {
	preds := make(map[V]EdgeKind, len(g.backward[old]))
	for p, pk := range g.backward[old] {
		preds[p] = pk
	}
	for p, pk := range preds {
		g.RemoveEdge(p, old)
		if hasNew {
			g.AddEdge(p, new, pk|k)
		}
	}
}

// Cleanup removes every vertex for which spliceable returns true, splicing
// callers around it onto its single successor and OR'ing the incoming and
// outgoing edge kinds. Runs to fixpoint. Every spliceable vertex must have
// exactly one successor (this is how PASS and JOIN vertices are expected
// to look); one that doesn't is a fatal internal error via diag.Fatal,
// which panics.
func (g *Graph[V]) Cleanup(spliceable func(V) bool) {
	changed := true
	for changed {
		changed = false
		for _, v := range g.Vertices() {
			if !spliceable(v) {
				continue
			}
			succs := g.forward[v]
			if len(succs) != 1 {
				diag.Fatal("cfg: Cleanup: spliceable vertex without exactly one successor")
			}
			var succ V
			var kOut EdgeKind
			for s, sk := range succs {
				succ, kOut = s, sk
			}
			preds := make(map[V]EdgeKind, len(g.backward[v]))
			for p, pk := range g.backward[v] {
				preds[p] = pk
			}
			for p, pk := range preds {
				g.AddEdge(p, succ, pk|kOut)
			}
			g.RemoveVertex(v)
			changed = true
		}
	}
}
