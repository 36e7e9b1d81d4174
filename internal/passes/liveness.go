package passes

import (
	"excc/internal/dataflow"
	"excc/internal/ir"
)

// Liveness is 4.H: a BACKWARD dataflow instance over the set of
// declarations live at a program point, starting from the empty set at
// EXIT. No join insertion is needed for correctness the way
// definite-assignment needs it (union is associative regardless of how
// many immediate successors a vertex has), so this instance runs without
// ADD_JOINS — matching the original's dfa.c call with only DFA_BACKWARD.
//
// Grounded on original_source/compiler/src/liveness.c.
func Liveness(fn *ir.Function) map[ir.Statement]declSet {
	log.Debugf("performing liveness analysis on %q", fn.Decl.Name)
	dfa := &dataflow.DFA[ir.Statement, declSet]{
		Graph: fn.CFG,
		Dir:   dataflow.Backward,
		Root:  exitOf(fn.CFG),
		Funcs: dataflow.Functions[ir.Statement, declSet]{
			CreateStartSet:   func() declSet { return declSet{} },
			CreateDefaultSet: func() declSet { return declSet{} },
			Analyse:          analyseLiveness,
			Verify:           func(ir.Statement, []*dataflow.Slot[declSet], *dataflow.Slot[declSet]) bool { return true },
		},
	}
	dfa.Run()

	out := make(map[ir.Statement]declSet, len(fn.CFG.Vertices()))
	for _, v := range fn.CFG.Vertices() {
		out[v] = dfa.Output(v)
	}
	return out
}

func analyseLiveness(v ir.Statement, inputs []*dataflow.Slot[declSet], output *dataflow.Slot[declSet]) bool {
	prev := output.Set
	merged := declSet{}
	for _, in := range inputs {
		merged = unionDecls(merged, in.Set)
	}

	switch s := v.(type) {
	case *ir.AssignStmt:
		for _, d := range destinations(s.Dest) {
			delete(merged, d)
		}
		sources := declSet{}
		usedVars(s.Expr, sources)
		merged = unionDecls(merged, sources)
	case *ir.ReturnStmt:
		sources := declSet{}
		usedVars(s.Expr, sources)
		merged = unionDecls(merged, sources)
	case *ir.TestStmt:
		sources := declSet{}
		usedVars(s.Cond, sources)
		merged = unionDecls(merged, sources)
	}

	output.Set = merged
	return !setsEqual(prev, merged)
}

func setsEqual(a, b declSet) bool {
	if len(a) != len(b) {
		return false
	}
	for d := range a {
		if !b[d] {
			return false
		}
	}
	return true
}
