package passes

import (
	"strconv"

	"github.com/iancoleman/strcase"

	"excc/internal/cfg"
	"excc/internal/ir"
)

// Inline is 4.J: splice a copy of every inlinable callee's CFG into each of
// its call sites, replacing the call vertex with the callee's ENTER
// successor and rewiring the callee's EXIT edges onto whatever followed the
// original call. Every copied declaration is renamed under the
// `$n<offset><name>` scheme (SPEC_FULL.md §4), so two inlined copies of the
// same callee never collide.
//
// Grounded on original_source/compiler/inline.c.
func Inline(module *ir.Module) bool {
	byDecl := make(map[*ir.Declaration]*ir.Function, len(module.Functions))
	for _, fn := range module.Functions {
		byDecl[fn.Decl] = fn
	}

	changed := false
	offset := 0
	for _, fn := range module.Functions {
		if fn.CFG == nil {
			continue
		}
		for {
			site, call, callee, ok := findInlinableCall(fn, byDecl)
			if !ok {
				break
			}
			offset++
			spliceCall(fn, site, call, callee, offset)
			callee.Decl.RefCount--
			changed = true
		}
	}

	for _, fn := range module.Functions {
		if fn.Decl.RefCount == 0 && !fn.Decl.Flags.Has(ir.FlagPublic) && fn != module.Functions[0] {
			module.RemoveFunction(fn)
		}
	}
	return changed
}

// findInlinableCall locates the first vertex in fn whose expression is a
// direct CALL to an inlinable, non-self-recursive callee.
func findInlinableCall(fn *ir.Function, byDecl map[*ir.Declaration]*ir.Function) (site ir.Statement, call *ir.CallExpr, callee *ir.Function, ok bool) {
	for _, v := range fn.CFG.Vertices() {
		var expr ir.Expression
		switch s := v.(type) {
		case *ir.AssignStmt:
			expr = s.Expr
		case *ir.ReturnStmt:
			expr = s.Expr
		}
		ce, isCall := expr.(*ir.CallExpr)
		if !isCall {
			continue
		}
		varExpr, isVar := ce.Callee.(*ir.VariableExpr)
		if !isVar {
			continue
		}
		target, known := byDecl[varExpr.Decl]
		if !known || target == fn || !target.IsInlinable() {
			if known {
				log.Debugf("call to %q in %q is not inlinable", varExpr.Name, fn.Decl.Name)
			}
			continue
		}
		log.Debugf("call to %q in %q is inlinable", varExpr.Name, fn.Decl.Name)
		return v, ce, target, true
	}
	return nil, nil, nil, false
}

// spliceCall replaces site (an ASSIGN or RETURN vertex whose expression is
// the call) with a renamed copy of callee's CFG: parameters are bound by a
// prefix of parallel ASSIGNs from the call arguments, the copy's ENTER
// successor takes over site's predecessors, and the copy's EXIT edges are
// redirected onto whatever followed site.
func spliceCall(fn *ir.Function, site ir.Statement, call *ir.CallExpr, callee *ir.Function, offset int) {
	g := fn.CFG

	rename := renamerFor(fn, callee, offset)
	vertexCopy := make(map[ir.Statement]ir.Statement, len(callee.CFG.Vertices()))
	for _, v := range callee.CFG.Vertices() {
		switch v.(type) {
		case *ir.EnterStmt, *ir.ExitStmt:
			continue
		}
		vertexCopy[v] = ir.CopyStatement(v, rename)
		g.AddVertex(vertexCopy[v])
	}
	var entrySucc ir.Statement
	for succ := range callee.CFG.Successors(enterOf(callee.CFG)) {
		entrySucc = vertexCopy[succ]
	}
	var exitPreds []ir.Statement
	for pred := range callee.CFG.Predecessors(exitOf(callee.CFG)) {
		exitPreds = append(exitPreds, vertexCopy[pred])
	}
	for _, v := range callee.CFG.Vertices() {
		nv, ok := vertexCopy[v]
		if !ok {
			continue
		}
		for succ, kind := range callee.CFG.Successors(v) {
			if ns, ok := vertexCopy[succ]; ok {
				g.AddEdge(nv, ns, kind)
			}
		}
	}

	// Bind parameters: one ASSIGN per callee parameter, evaluated before
	// the spliced body, in call-argument order.
	var argExprs []ir.Expression
	if call.Args != nil {
		argExprs = call.Args.Elems
	}
	var bindHead ir.Statement = entrySucc
	for i := len(callee.Params) - 1; i >= 0; i-- {
		if i >= len(argExprs) {
			continue
		}
		paramCopy := rename(callee.Params[i])
		bind := &ir.AssignStmt{Dest: &ir.VariableExpr{Name: paramCopy.Name, Decl: paramCopy}, Expr: ir.CopyExpression(argExprs[i], nil)}
		g.AddVertex(bind)
		if bindHead != nil {
			g.AddEdge(bind, bindHead, cfg.EdgeNormal)
		}
		bindHead = bind
	}

	// Retarget site's predecessors onto the bound entry.
	preds := make(map[ir.Statement]cfg.EdgeKind, len(g.Predecessors(site)))
	for p, k := range g.Predecessors(site) {
		preds[p] = k
	}
	for p, k := range preds {
		g.RemoveEdge(p, site)
		if bindHead != nil {
			g.AddEdge(p, bindHead, k)
		}
	}

	// Retarget site's successor onto every copied exit predecessor, then
	// fold site itself into whichever copied vertex produces the result
	// (a RETURN becomes an ASSIGN of its value to site's destination).
	succ, kind, hasSucc := onlySuccessor(g, site)
	if hasSucc {
		g.RemoveEdge(site, succ)
	}
	for _, ep := range exitPreds {
		final := rewriteExitPred(g, site, ep)
		if hasSucc {
			g.AddEdge(final, succ, kind)
		}
	}
	g.RemoveVertex(site)
}

// rewriteExitPred replaces a copied RETURN-derived vertex (renamed from
// callee's own ReturnStmt) with a genuine ASSIGN of the returned value to
// site's original destination, per spec.md §4.J ("every RETURN in the
// inlined body is replaced by an ASSIGN writing the return expression to
// the original CALL's destination"), and returns the vertex that should
// now carry exitPred's edges. A ReturnStmt can't be turned into an
// AssignStmt in place — it's a distinct Go type — so this builds the
// replacement node, rewires exitPred's predecessors onto it, and removes
// exitPred from the graph. If exitPred isn't a ReturnStmt (the callee
// falls off its last statement with no explicit return) or site isn't an
// ASSIGN (e.g. the call's result is discarded, a bare RETURN splice), it
// is left untouched and returned as-is.
func rewriteExitPred(g *cfg.Graph[ir.Statement], site ir.Statement, exitPred ir.Statement) ir.Statement {
	ret, isReturn := exitPred.(*ir.ReturnStmt)
	if !isReturn {
		return exitPred
	}
	dest, ok := site.(*ir.AssignStmt)
	if !ok {
		return exitPred
	}
	assign := &ir.AssignStmt{Dest: ir.CopyExpression(dest.Dest, nil), Expr: ret.Expr}
	g.AddVertex(assign)
	g.ReplaceBackward(exitPred, assign, true, 0)
	g.RemoveVertex(exitPred)
	return assign
}

// renamerFor builds the rename function passed to ir.CopyStatement /
// ir.CopyExpression: every declaration local to callee (including its
// parameters) is copied under `$n<offset><name>`, with name normalized
// through strcase so generated identifiers stay stable and legible in -g
// dumps regardless of the caller's own naming conventions.
func renamerFor(fn *ir.Function, callee *ir.Function, offset int) func(*ir.Declaration) *ir.Declaration {
	copies := make(map[*ir.Declaration]*ir.Declaration)
	return func(d *ir.Declaration) *ir.Declaration {
		if c, ok := copies[d]; ok {
			return c
		}
		newName := "$n" + strconv.Itoa(offset) + strcase.ToSnake(d.Name)
		c := ir.CopyDeclaration(d, newName)
		fn.Table.Define(newName, c)
		copies[d] = c
		return c
	}
}
