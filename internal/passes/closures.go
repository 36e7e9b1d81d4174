package passes

import (
	"sort"

	"excc/internal/ir"
)

const makeClosureName = "make_closure"

// LowerClosures is the second half of 4.D: every CLOSURE expression
// becomes a call to the make_closure runtime primitive, and the closure's
// function is promoted to a top-level function in the module — with its
// enclosed declarations marked ARGUMENT and prepended to its parameter
// list, so the generated code receives the environment as ordinary
// leading parameters.
//
// AnalyzeEnclosedVariables must have already run, so every ENCLOSED
// declaration chain is in place.
//
// Grounded on original_source/compiler/closures.c's lower_closures /
// lower_expr.
func LowerClosures(module *ir.Module) {
	for i := 0; i < len(module.Functions); i++ {
		fn := module.Functions[i]
		log.Debugf("lowering closures in %q", fn.Decl.Name)
		rewriteBlockExprs(module, fn, fn.Body)
	}
}

func rewriteBlockExprs(module *ir.Module, fn *ir.Function, block *ir.Block) {
	if block == nil {
		return
	}
	for _, stmt := range block.Stmts {
		switch s := stmt.(type) {
		case *ir.IfStmt:
			s.Cond = rewriteExprClosures(module, fn, s.Cond)
			rewriteBlockExprs(module, fn, s.Then)
			rewriteBlockExprs(module, fn, s.Else)
		case *ir.WhileStmt:
			s.Cond = rewriteExprClosures(module, fn, s.Cond)
			rewriteBlockExprs(module, fn, s.Body)
		case *ir.ForStmt:
			s.Cond = rewriteExprClosures(module, fn, s.Cond)
			rewriteBlockExprs(module, fn, s.Body)
		case *ir.ReturnStmt:
			s.Expr = rewriteExprClosures(module, fn, s.Expr)
		case *ir.AssignStmt:
			s.Expr = rewriteExprClosures(module, fn, s.Expr)
		case *ir.Block:
			rewriteBlockExprs(module, fn, s)
		}
	}
}

func rewriteExprClosures(module *ir.Module, fn *ir.Function, expr ir.Expression) ir.Expression {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ir.ClosureExpr:
		return lowerOneClosure(module, fn, e)
	case *ir.CallExpr:
		e.Callee = rewriteExprClosures(module, fn, e.Callee)
		e.Args = rewriteExprClosures(module, fn, e.Args).(*ir.TupleExpr)
		return e
	case *ir.TupleExpr:
		for i, el := range e.Elems {
			e.Elems[i] = rewriteExprClosures(module, fn, el)
		}
		return e
	case *ir.UnaryExpr:
		e.X = rewriteExprClosures(module, fn, e.X)
		return e
	case *ir.BinaryExpr:
		e.X = rewriteExprClosures(module, fn, e.X)
		e.Y = rewriteExprClosures(module, fn, e.Y)
		return e
	default:
		return expr
	}
}

func lowerOneClosure(module *ir.Module, enclosing *ir.Function, ce *ir.ClosureExpr) ir.Expression {
	closureFn := ce.Function

	var enclosed []*ir.Declaration
	for _, d := range closureFn.Table.Declarations() {
		if d.Flags.Has(ir.FlagEnclosed) {
			enclosed = append(enclosed, d)
		}
	}
	// make_closure's enclosed-value order is incidental hash order in the
	// original; here it's made deterministic by sorting on name (see
	// DESIGN.md Open Question 4).
	sort.Slice(enclosed, func(i, j int) bool { return enclosed[i].Name < enclosed[j].Name })

	for _, d := range enclosed {
		d.Flags |= ir.FlagArgument
	}
	closureFn.Params = append(append([]*ir.Declaration{}, enclosed...), closureFn.Params...)

	args := make([]ir.Expression, 0, len(enclosed)+2)
	args = append(args, &ir.IntegerExpr{Value: int64(4 * len(enclosed))})
	for _, d := range enclosed {
		valueDecl, ok := enclosing.Table.Lookup(d.Name)
		if !ok {
			valueDecl = d
		}
		args = append(args, &ir.VariableExpr{Name: valueDecl.Name, Decl: valueDecl})
	}
	args = append(args, &ir.VariableExpr{Name: closureFn.Decl.Name, Decl: closureFn.Decl})
	closureFn.Decl.RefCount++

	module.Functions = append(module.Functions, closureFn)

	return &ir.CallExpr{
		Callee: &ir.VariableExpr{Name: makeClosureName},
		Args:   &ir.TupleExpr{Elems: args},
	}
}
