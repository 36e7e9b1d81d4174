package passes

import (
	"excc/internal/dataflow"
	"excc/internal/diag"
	"excc/internal/ir"
)

// declSet is the lattice element for definite-assignment: the set of
// declarations known to be assigned.
type declSet map[*ir.Declaration]bool

func unionDecls(a, b declSet) declSet {
	out := make(declSet, len(a)+len(b))
	for d := range a {
		out[d] = true
	}
	for d := range b {
		out[d] = true
	}
	return out
}

func intersectDecls(sets []declSet) declSet {
	if len(sets) == 0 {
		return declSet{}
	}
	out := make(declSet)
	for d := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if !s[d] {
				inAll = false
				break
			}
		}
		if inAll {
			out[d] = true
		}
	}
	return out
}

func destinations(expr ir.Expression) []*ir.Declaration {
	switch e := expr.(type) {
	case *ir.VariableExpr:
		return []*ir.Declaration{e.Decl}
	case *ir.TupleExpr:
		var out []*ir.Declaration
		for _, el := range e.Elems {
			out = append(out, destinations(el)...)
		}
		return out
	default:
		return nil
	}
}

func usedVars(expr ir.Expression, out map[*ir.Declaration]bool) {
	switch e := expr.(type) {
	case nil:
		return
	case *ir.VariableExpr:
		out[e.Decl] = true
	case *ir.CallExpr:
		usedVars(e.Args, out)
	case *ir.TupleExpr:
		for _, el := range e.Elems {
			usedVars(el, out)
		}
	case *ir.UnaryExpr:
		usedVars(e.X, out)
	case *ir.BinaryExpr:
		usedVars(e.X, out)
		usedVars(e.Y, out)
	}
}

// DefiniteAssignment is 4.G: a FORWARD, ADD_JOINS dataflow instance whose
// lattice is "declarations known assigned on every path so far". Reports
// every use of a possibly-undefined variable to reporter as a warning and
// continues (spec.md: "the compiler currently continues past
// definite-assignment failures").
//
// Grounded on original_source/compiler/def-assign.c.
func DefiniteAssignment(fn *ir.Function, reporter *diag.Reporter) bool {
	log.Debugf("performing definite assignment analysis on %q", fn.Decl.Name)
	joinCounter := 0
	dfa := &dataflow.DFA[ir.Statement, declSet]{
		Graph:    fn.CFG,
		Dir:      dataflow.Forward,
		AddJoins: true,
		Root:     enterOf(fn.CFG),
		NewJoin:  func() ir.Statement { joinCounter++; return &ir.JoinStmt{} },
		IsJoin:   func(v ir.Statement) bool { _, ok := v.(*ir.JoinStmt); return ok },
		Funcs: dataflow.Functions[ir.Statement, declSet]{
			CreateStartSet:   func() declSet { return declSet{} },
			CreateDefaultSet: func() declSet { return universe(fn) },
			Analyse: func(v ir.Statement, inputs []*dataflow.Slot[declSet], output *dataflow.Slot[declSet]) bool {
				return analyseDefAssign(fn, v, inputs, output)
			},
			Verify: func(v ir.Statement, inputs []*dataflow.Slot[declSet], output *dataflow.Slot[declSet]) bool {
				return verifyDefAssign(fn, v, inputs, reporter)
			},
		},
	}
	ok := dfa.Run()
	fn.CFG.Cleanup(isCleanupVertex)
	return ok
}

func universe(fn *ir.Function) declSet {
	out := make(declSet)
	for _, d := range fn.Table.Declarations() {
		out[d] = true
	}
	return out
}

func analyseDefAssign(fn *ir.Function, v ir.Statement, inputs []*dataflow.Slot[declSet], output *dataflow.Slot[declSet]) bool {
	// The output is recomputed from the empty start set on every call; the
	// universe default a slot starts with only stands in until then.
	prev := output.Set
	output.Set = declSet{}

	switch s := v.(type) {
	case *ir.EnterStmt:
		merged := declSet{}
		for _, p := range fn.Params {
			merged[p] = true
		}
		output.Set = unionDecls(output.Set, merged)
		return !setsEqual(prev, output.Set)

	case *ir.JoinStmt:
		sets := make([]declSet, len(inputs))
		for i, in := range inputs {
			sets[i] = in.Set
		}
		output.Set = unionDecls(output.Set, intersectDecls(sets))
		return !setsEqual(prev, output.Set)

	case *ir.AssignStmt:
		if verifyExprDefined(s.Expr, inputs[0].Set) {
			merged := declSet{}
			for _, d := range destinations(s.Dest) {
				merged[d] = true
			}
			output.Set = unionDecls(output.Set, merged)
		}
	}

	for _, in := range inputs {
		output.Set = unionDecls(output.Set, in.Set)
	}
	return !setsEqual(prev, output.Set)
}

func verifyExprDefined(expr ir.Expression, in declSet) bool {
	switch e := expr.(type) {
	case nil:
		return true
	case *ir.IntegerExpr, *ir.StringExpr:
		return true
	case *ir.VariableExpr:
		return in[e.Decl]
	case *ir.CallExpr:
		return verifyExprDefined(e.Args, in)
	default:
		ok := true
		for _, child := range childExprs(e) {
			if !verifyExprDefined(child, in) {
				ok = false
			}
		}
		return ok
	}
}

func childExprs(expr ir.Expression) []ir.Expression {
	switch e := expr.(type) {
	case *ir.TupleExpr:
		return e.Elems
	case *ir.UnaryExpr:
		return []ir.Expression{e.X}
	case *ir.BinaryExpr:
		return []ir.Expression{e.X, e.Y}
	case *ir.ClosureExpr:
		return nil
	default:
		return nil
	}
}

func verifyDefAssign(fn *ir.Function, v ir.Statement, inputs []*dataflow.Slot[declSet], reporter *diag.Reporter) bool {
	var expr ir.Expression
	switch s := v.(type) {
	case *ir.AssignStmt:
		expr = s.Expr
	case *ir.ReturnStmt:
		expr = s.Expr
	case *ir.TestStmt:
		expr = s.Cond
	default:
		return true
	}
	ok := true
	reportUndefined(expr, inputs[0].Set, v.Line(), fn, reporter, &ok)
	return ok
}

func reportUndefined(expr ir.Expression, in declSet, line int, fn *ir.Function, reporter *diag.Reporter, ok *bool) {
	switch e := expr.(type) {
	case nil:
		return
	case *ir.VariableExpr:
		if !in[e.Decl] {
			*ok = false
			if reporter != nil {
				reporter.Warn(line, "variable %q may not be defined in %q", e.Name, fn.Decl.Name)
			}
		}
	case *ir.CallExpr:
		reportUndefined(e.Args, in, line, fn, reporter, ok)
	default:
		for _, child := range childExprs(expr) {
			reportUndefined(child, in, line, fn, reporter, ok)
		}
	}
}

