package passes

import (
	"excc/internal/cfg"
	"excc/internal/ir"
)

// Reduce is 4.F: after this pass, every vertex expression is atomic or a
// single binary/unary/call whose operands are atomic, and no short-circuit
// AND/OR operator remains anywhere in the graph. Runs to fixpoint since
// atomizing one vertex's expression introduces a new vertex that itself
// needs checking.
//
// Grounded on original_source/compiler/reduce.c.
func Reduce(fn *ir.Function) bool {
	log.Debugf("reducing %q", fn.Decl.Name)
	g := fn.CFG
	changed := false
	for {
		round := false
		for _, v := range g.Vertices() {
			switch s := v.(type) {
			case *ir.TestStmt:
				if be, ok := s.Cond.(*ir.BinaryExpr); ok && be.Op.ShortCircuit() {
					lowerShortCircuitTest(g, s, be)
					round = true
					continue
				}
				if newCond, ch := atomizeExpr(fn, g, s, s.Cond); ch {
					s.Cond = newCond
					round = true
				}
			case *ir.AssignStmt:
				if be, ok := s.Expr.(*ir.BinaryExpr); ok && be.Op.ShortCircuit() {
					lowerShortCircuitAssign(g, s, be)
					round = true
					continue
				}
				if newExpr, ch := atomizeExpr(fn, g, s, s.Expr); ch {
					s.Expr = newExpr
					round = true
				}
			case *ir.ReturnStmt:
				if s.Expr != nil {
					if newExpr, ch := atomizeExpr(fn, g, s, s.Expr); ch {
						s.Expr = newExpr
						round = true
					}
				}
			}
		}
		if !round {
			break
		}
		changed = true
	}
	return changed
}

// atomizeExpr atomizes expr's immediate non-atomic children by hoisting
// each into a fresh ASSIGN(temp, child) vertex inserted before `at`,
// replacing the child with a reference to the temp. It does not
// recursively atomize the temp's own initializer in the same call — that
// happens on a later fixpoint round, once the new vertex itself is
// visited.
func atomizeExpr(fn *ir.Function, g *cfg.Graph[ir.Statement], at ir.Statement, expr ir.Expression) (ir.Expression, bool) {
	if ir.IsAtomic(expr) {
		return expr, false
	}
	switch e := expr.(type) {
	case *ir.TupleExpr:
		changed := false
		for i, el := range e.Elems {
			if ir.IsAtomic(el) {
				continue
			}
			e.Elems[i] = hoistTemp(fn, g, at, el)
			changed = true
		}
		return e, changed
	case *ir.UnaryExpr:
		if ir.IsAtomic(e.X) {
			return e, false
		}
		e.X = hoistTemp(fn, g, at, e.X)
		return e, true
	case *ir.BinaryExpr:
		changed := false
		if !ir.IsAtomic(e.X) {
			e.X = hoistTemp(fn, g, at, e.X)
			changed = true
		}
		if !ir.IsAtomic(e.Y) {
			e.Y = hoistTemp(fn, g, at, e.Y)
			changed = true
		}
		return e, changed
	case *ir.CallExpr:
		if ir.IsAtomic(e.Args) {
			return e, false
		}
		newArgs, ch := atomizeExpr(fn, g, at, e.Args)
		if ch {
			e.Args = newArgs.(*ir.TupleExpr)
		}
		return e, ch
	default:
		return expr, false
	}
}

// hoistTemp synthesizes a fresh temporary, inserts ASSIGN(temp, child)
// before `at`, and returns a VariableExpr referencing it.
func hoistTemp(fn *ir.Function, g *cfg.Graph[ir.Statement], at ir.Statement, child ir.Expression) ir.Expression {
	temp := fn.NewTemp(child.ExprType())
	assign := &ir.AssignStmt{Dest: &ir.VariableExpr{Name: temp.Name, Decl: temp}, Expr: child}
	g.AddVertex(assign)
	g.InjectBefore(assign, at, cfg.EdgeNormal)
	return &ir.VariableExpr{Name: temp.Name, Decl: temp}
}

// lowerShortCircuitTest handles `if (A && B) ...` / `if (A || B) ...`:
// a fresh TEST(A) is inserted before the existing TEST, which is rewritten
// in place to test B; the new TEST's bypass edge (NO for AND, YES for OR)
// points wherever the original TEST's matching edge already pointed,
// short-circuiting evaluation of B.
func lowerShortCircuitTest(g *cfg.Graph[ir.Statement], test *ir.TestStmt, be *ir.BinaryExpr) {
	newTest := &ir.TestStmt{Cond: be.X}
	g.AddVertex(newTest)

	if be.Op == ir.OpAnd {
		g.InjectBefore(newTest, test, cfg.EdgeYes)
		test.Cond = be.Y
		if target, k, ok := successorWith(g, test, cfg.EdgeNo); ok {
			g.AddEdge(newTest, target, k)
		}
	} else {
		g.InjectBefore(newTest, test, cfg.EdgeNo)
		test.Cond = be.Y
		if target, k, ok := successorWith(g, test, cfg.EdgeYes); ok {
			g.AddEdge(newTest, target, k)
		}
	}
}

// lowerShortCircuitAssign handles `x = A && B` / `x = A || B` outside a
// branch condition: it needs its own join, since both the short-circuited
// 0/1 result and the full evaluation must converge before whatever
// followed the original ASSIGN.
func lowerShortCircuitAssign(g *cfg.Graph[ir.Statement], assign *ir.AssignStmt, be *ir.BinaryExpr) {
	origSucc, origKind, hasSucc := onlySuccessor(g, assign)
	if hasSucc {
		g.RemoveEdge(assign, origSucc)
	}

	newTest := &ir.TestStmt{Cond: be.X}
	g.AddVertex(newTest)
	pass := &ir.PassStmt{}
	g.AddVertex(pass)

	preds := make(map[ir.Statement]cfg.EdgeKind, len(g.Predecessors(assign)))
	for p, k := range g.Predecessors(assign) {
		preds[p] = k
	}
	for p, k := range preds {
		g.RemoveEdge(p, assign)
		g.AddEdge(p, newTest, k)
	}

	assign.Expr = be.Y
	g.AddEdge(assign, pass, cfg.EdgeNormal)

	short := &ir.AssignStmt{Dest: copyVar(assign.Dest)}
	g.AddVertex(short)
	g.AddEdge(short, pass, cfg.EdgeNormal)

	if be.Op == ir.OpAnd {
		short.Expr = &ir.IntegerExpr{Value: 0}
		g.AddEdge(newTest, assign, cfg.EdgeYes)
		g.AddEdge(newTest, short, cfg.EdgeNo)
	} else {
		short.Expr = &ir.IntegerExpr{Value: 1}
		g.AddEdge(newTest, short, cfg.EdgeYes)
		g.AddEdge(newTest, assign, cfg.EdgeNo)
	}

	if hasSucc {
		g.AddEdge(pass, origSucc, origKind)
	}
}

func copyVar(e ir.Expression) ir.Expression {
	v := e.(*ir.VariableExpr)
	c := *v
	return &c
}

func successorWith(g *cfg.Graph[ir.Statement], v ir.Statement, flag cfg.EdgeKind) (ir.Statement, cfg.EdgeKind, bool) {
	for s, k := range g.Successors(v) {
		if k.Has(flag) {
			return s, k, true
		}
	}
	return nil, 0, false
}

func onlySuccessor(g *cfg.Graph[ir.Statement], v ir.Statement) (ir.Statement, cfg.EdgeKind, bool) {
	for s, k := range g.Successors(v) {
		return s, k, true
	}
	return nil, 0, false
}
