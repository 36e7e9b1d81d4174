package passes

import (
	"excc/internal/cfg"
	"excc/internal/diag"
	"excc/internal/ir"
)

// I386Normalize is 4.L: rewrites every remaining binary/unary ASSIGN so its
// destination equals its first source operand, as the i386 target's
// destructive two-operand instructions require, and expands any
// tuple-destination ASSIGN (a parallel move) into a sequence of scalar
// ASSIGNs in original order.
//
// Grounded on original_source/compiler/i386-normalize.c.
func I386Normalize(fn *ir.Function) bool {
	log.Debugf("normalizing i386 two-operand form in %q", fn.Decl.Name)
	g := fn.CFG
	changed := false
	for _, v := range g.Vertices() {
		assign, ok := v.(*ir.AssignStmt)
		if !ok {
			continue
		}
		if tup, isTuple := assign.Dest.(*ir.TupleExpr); isTuple {
			expandTupleAssign(g, assign, tup)
			changed = true
			continue
		}
		if normalizeScalarAssign(fn, g, assign) {
			changed = true
		}
	}
	return changed
}

// normalizeScalarAssign handles the unary/binary destructive-form cases.
// It mutates assign in place and may insert a new ASSIGN before it.
func normalizeScalarAssign(fn *ir.Function, g *cfg.Graph[ir.Statement], assign *ir.AssignStmt) bool {
	dest, isVar := assign.Dest.(*ir.VariableExpr)
	if !isVar {
		return false
	}

	switch e := assign.Expr.(type) {
	case *ir.UnaryExpr:
		if sameVar(e.X, dest) {
			return false
		}
		prepend(fn, g, assign, &ir.AssignStmt{Dest: copyVariable(dest), Expr: e.X})
		e.X = copyVariable(dest)
		return true

	case *ir.BinaryExpr:
		xIsDest := sameVar(e.X, dest)
		yIsDest := sameVar(e.Y, dest)
		if xIsDest {
			return false
		}
		if yIsDest {
			if e.Op.Commutes() {
				e.X, e.Y = e.Y, e.X
				return true
			}
			// Non-commuting op with only Y == d: d is about to be
			// overwritten by the general case's "d = X" prepend, so save
			// Y's current value (== d) in a temp before that happens.
			t := fn.NewTemp(dest.ExprType())
			prepend(fn, g, assign, &ir.AssignStmt{Dest: &ir.VariableExpr{Name: t.Name, Decl: t}, Expr: copyVariable(dest)})
			e.Y = &ir.VariableExpr{Name: t.Name, Decl: t}
			// Y is no longer the destination; fall through to the general
			// case below.
		}
		prepend(fn, g, assign, &ir.AssignStmt{Dest: copyVariable(dest), Expr: e.X})
		e.X = copyVariable(dest)
		return true

	default:
		return false
	}
}

func sameVar(e ir.Expression, dest *ir.VariableExpr) bool {
	v, ok := e.(*ir.VariableExpr)
	return ok && v.Decl == dest.Decl
}

func copyVariable(v *ir.VariableExpr) *ir.VariableExpr {
	c := *v
	return &c
}

// prepend inserts a new ASSIGN vertex immediately before at in the graph.
func prepend(fn *ir.Function, g *cfg.Graph[ir.Statement], at ir.Statement, stmt *ir.AssignStmt) {
	g.AddVertex(stmt)
	g.InjectBefore(stmt, at, cfg.EdgeNormal)
}

// expandTupleAssign replaces a parallel-move ASSIGN(tuple-dest, tuple-expr)
// with one scalar ASSIGN per element, in original order, chained with
// NORMAL edges in place of the original vertex. Arity mismatch between the
// destination and source tuples is a fatal internal error (data model
// invariant, not a user-recoverable condition).
func expandTupleAssign(g *cfg.Graph[ir.Statement], assign *ir.AssignStmt, destTup *ir.TupleExpr) {
	srcTup, ok := assign.Expr.(*ir.TupleExpr)
	if !ok || len(srcTup.Elems) != len(destTup.Elems) {
		diag.Fatal("passes: I386Normalize: tuple-destination ASSIGN with mismatched arity")
	}

	scalars := make([]*ir.AssignStmt, len(destTup.Elems))
	for i := range destTup.Elems {
		scalars[i] = &ir.AssignStmt{Dest: destTup.Elems[i], Expr: srcTup.Elems[i]}
		g.AddVertex(scalars[i])
	}
	for i := 0; i+1 < len(scalars); i++ {
		g.AddEdge(scalars[i], scalars[i+1], cfg.EdgeNormal)
	}
	g.InjectBefore(scalars[0], assign, cfg.EdgeNormal)

	succ, kind, hasSucc := onlySuccessor(g, assign)
	if hasSucc {
		g.RemoveEdge(assign, succ)
		g.AddEdge(scalars[len(scalars)-1], succ, kind)
	}
	g.RemoveVertex(assign)
}
