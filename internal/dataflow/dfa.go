// Package dataflow implements the generic forward/backward worklist
// dataflow framework shared by definite-assignment and liveness analysis.
//
// The worklist is a plain FIFO queue of vertex handles with a companion
// membership set, per spec.md §9 ("well-defined and directly
// implementable without coroutines") — no third-party queue/graph library
// is warranted for this (see DESIGN.md).
package dataflow

import "excc/internal/cfg"

type Direction int

const (
	Forward Direction = iota
	Backward
)

// Slot holds one set-valued input or output position. FirstTime
// implements the "first-time" sentinel: every output slot starts out
// holding a CreateDefaultSet value with FirstTime set, which is cleared
// when its vertex is analysed or when the slot is first read as another
// vertex's input (inputsFor then refills it with a fresh default). For
// liveness the default is the empty set, so this changes nothing; for
// definite-assignment it is the "universe", so a predecessor that hasn't
// been analysed yet doesn't narrow a JOIN's intersection.
type Slot[S any] struct {
	Set       S
	FirstTime bool
}

// Functions is the capability bundle a DFA client supplies, mirroring the
// original's DFA_FUNCTIONS/EMIT_FUNCTIONS table (spec.md §9 "dynamic
// dispatch... model as a small interface").
type Functions[V comparable, S any] struct {
	CreateStartSet   func() S
	CreateDefaultSet func() S

	// Analyse computes vertex v's output set from its inputs (one slot per
	// upstream neighbor) and reports whether output changed.
	Analyse func(v V, inputs []*Slot[S], output *Slot[S]) bool

	// Verify runs once, after the fixpoint, and reports whether v's
	// inputs satisfy the client's invariant (e.g. definite-assignment's
	// "every used variable is defined").
	Verify func(v V, inputs []*Slot[S], output *Slot[S]) bool
}

// DFA runs Functions over Graph in Dir, optionally inserting JOIN vertices
// first.
type DFA[V comparable, S any] struct {
	Graph    *cfg.Graph[V]
	Dir      Direction
	AddJoins bool
	Funcs    Functions[V, S]

	// Root is the single starting vertex: ENTER for Forward, EXIT for
	// Backward.
	Root V

	// NewJoin mints a fresh JOIN vertex; required when AddJoins is true.
	NewJoin func() V
	// IsJoin reports whether v is already a JOIN vertex (so join-insertion
	// doesn't try to join-ify an existing join).
	IsJoin func(V) bool

	outputs map[V]*Slot[S]
}

func (d *DFA[V, S]) upstream(v V) map[V]cfg.EdgeKind {
	if d.Dir == Forward {
		return d.Graph.Predecessors(v)
	}
	return d.Graph.Successors(v)
}

func (d *DFA[V, S]) downstream(v V) map[V]cfg.EdgeKind {
	if d.Dir == Forward {
		return d.Graph.Successors(v)
	}
	return d.Graph.Predecessors(v)
}

// insertJoins inserts a fresh JOIN wherever a vertex has more than one
// upstream neighbor, re-routing incoming edges through it and preserving
// edge kinds, repeating until stable (step 1 of the algorithm in
// spec.md §4.C).
func (d *DFA[V, S]) insertJoins() {
	changed := true
	for changed {
		changed = false
		for _, v := range d.Graph.Vertices() {
			if d.IsJoin(v) {
				continue
			}
			if len(d.upstream(v)) <= 1 {
				continue
			}
			j := d.NewJoin()
			d.Graph.AddVertex(j)
			if d.Dir == Forward {
				d.Graph.InjectBefore(j, v, 0)
			} else {
				d.Graph.InjectAfter(v, j, 0)
			}
			changed = true
		}
	}
}

// Run executes the worklist to fixpoint and then the verify pass,
// returning the conjunction of every vertex's verify result.
func (d *DFA[V, S]) Run() bool {
	if d.AddJoins {
		d.insertJoins()
	}

	d.outputs = make(map[V]*Slot[S])
	for _, v := range d.Graph.Vertices() {
		d.outputs[v] = &Slot[S]{Set: d.Funcs.CreateDefaultSet(), FirstTime: true}
	}

	queue := []V{d.Root}
	queued := map[V]bool{d.Root: true}
	visited := make(map[V]bool)

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		queued[v] = false

		inputs := d.inputsFor(v)
		out := d.outputs[v]
		out.FirstTime = false

		// A vertex's first analysis always propagates downstream, so every
		// vertex reachable from Root is analysed at least once even when
		// its output happens to equal the default set.
		first := !visited[v]
		visited[v] = true
		if d.Funcs.Analyse(v, inputs, out) || first {
			for n := range d.downstream(v) {
				if !queued[n] {
					queue = append(queue, n)
					queued[n] = true
				}
			}
		}
	}

	ok := true
	for _, v := range d.Graph.Vertices() {
		inputs := d.inputsFor(v)
		if !d.Funcs.Verify(v, inputs, d.outputs[v]) {
			ok = false
		}
	}
	return ok
}

// inputsFor gathers one slot per upstream neighbor of v, lazily
// materializing any that are still on their first-time default.
func (d *DFA[V, S]) inputsFor(v V) []*Slot[S] {
	preds := d.upstream(v)
	inputs := make([]*Slot[S], 0, len(preds))
	for p := range preds {
		slot := d.outputs[p]
		if slot.FirstTime {
			slot.Set = d.Funcs.CreateDefaultSet()
			slot.FirstTime = false
		}
		inputs = append(inputs, slot)
	}
	if len(inputs) == 0 {
		// No upstream neighbor (e.g. ENTER in forward direction): supply a
		// single start-set slot so Analyse always has something to read.
		inputs = append(inputs, &Slot[S]{Set: d.Funcs.CreateStartSet()})
	}
	return inputs
}

// Output returns v's computed output set after Run has completed.
func (d *DFA[V, S]) Output(v V) S { return d.outputs[v].Set }
