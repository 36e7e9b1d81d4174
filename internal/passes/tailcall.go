// Package passes implements every middle-end transformation pass, one
// file per original compiler/*.c source it's grounded on.
package passes

import "excc/internal/ir"

// RewriteTailCalls implements 4.I: for each RETURN whose expression is a
// CALL to the enclosing function itself, replace it with an ASSIGN that
// writes the call's argument tuple into the function's input tuple,
// followed by a RESTART. Runs on the structured AST, before flattening.
//
// Grounded on original_source/compiler/tail-rec.c.
func RewriteTailCalls(fn *ir.Function) bool {
	changed := false
	rewriteBlock(fn, fn.Body, &changed)
	if changed {
		log.Debugf("tail call in %q optimised", fn.Decl.Name)
	}
	return changed
}

func rewriteBlock(fn *ir.Function, block *ir.Block, changed *bool) {
	if block == nil {
		return
	}
	for i, stmt := range block.Stmts {
		block.Stmts[i] = rewriteStmt(fn, stmt, changed)
	}
}

func rewriteStmt(fn *ir.Function, stmt ir.Statement, changed *bool) ir.Statement {
	switch s := stmt.(type) {
	case *ir.ReturnStmt:
		call, ok := s.Expr.(*ir.CallExpr)
		if !ok {
			return s
		}
		callee, ok := call.Callee.(*ir.VariableExpr)
		if !ok || callee.Decl != fn.Decl {
			return s
		}
		*changed = true
		fn.Decl.RefCount--

		inputTuple := inputTupleExpr(fn)
		assign := &ir.AssignStmt{Dest: inputTuple, Expr: call.Args}
		restart := &ir.RestartStmt{}
		seq := &ir.Block{Stmts: []ir.Statement{assign, restart}}
		return seq
	case *ir.IfStmt:
		rewriteBlock(fn, s.Then, changed)
		rewriteBlock(fn, s.Else, changed)
		return s
	case *ir.WhileStmt:
		rewriteBlock(fn, s.Body, changed)
		return s
	case *ir.ForStmt:
		rewriteBlock(fn, s.Body, changed)
		return s
	case *ir.Block:
		rewriteBlock(fn, s, changed)
		return s
	default:
		return s
	}
}

// inputTupleExpr builds the left-hand side of the rewritten assignment: a
// TupleExpr of VariableExprs referencing every parameter, in declaration
// order, or a bare VariableExpr when there is exactly one parameter.
func inputTupleExpr(fn *ir.Function) ir.Expression {
	if len(fn.Params) == 1 {
		p := fn.Params[0]
		return &ir.VariableExpr{Name: p.Name, Decl: p}
	}
	elems := make([]ir.Expression, len(fn.Params))
	for i, p := range fn.Params {
		elems[i] = &ir.VariableExpr{Name: p.Name, Decl: p}
	}
	return &ir.TupleExpr{Elems: elems}
}
