package passes

import "excc/internal/ir"

// AnalyzeEnclosedVariables is the first half of 4.D: for each function,
// walk its body and classify every VARIABLE reference whose name isn't in
// the current function's own table (nor the module's table) as an
// "enclosed" use — referring to a binding from some lexically enclosing
// function. A copy of the original declaration, with FlagEnclosed set, is
// inserted into the referencing function's own table, and the
// VariableExpr's Decl is rebound to point at that copy.
//
// Grounded on original_source/compiler/closures.c's analyse_function /
// analyse_block / analyse_stmt / analyse_expr.
func AnalyzeEnclosedVariables(module *ir.Module) {
	for _, fn := range module.Functions {
		log.Debugf("analysing symbols in %q", fn.Decl.Name)
		analyzeFunction(module, []*ir.Function{fn}, fn)
	}
}

// analyzeFunction walks fn's body with scope being the chain of lexically
// enclosing functions, innermost (fn itself) last.
func analyzeFunction(module *ir.Module, scope []*ir.Function, fn *ir.Function) {
	analyzeBlock(module, scope, fn.Body)
}

// analyzeBlock matches analyse_block in closures.c exactly, including its
// documented gap: it recurses into IF and WHILE bodies and examines
// RETURN/ASSIGN expressions, but does not recurse into FOR bodies. This
// is a deliberately preserved open question (spec.md §9) — not silently
// fixed. Each block it visits has its local table folded into the current
// function's table (and Block.Table cleared) before its statements are
// walked.
func analyzeBlock(module *ir.Module, scope []*ir.Function, block *ir.Block) {
	if block == nil {
		return
	}
	if block.Table != nil {
		current := scope[len(scope)-1]
		for _, name := range block.Table.Names() {
			d, _ := block.Table.Lookup(name)
			current.Table.Define(name, d)
		}
		block.Table = nil
	}
	for _, stmt := range block.Stmts {
		switch s := stmt.(type) {
		case *ir.IfStmt:
			analyzeExpr(module, scope, s.Cond)
			analyzeBlock(module, scope, s.Then)
			analyzeBlock(module, scope, s.Else)
		case *ir.WhileStmt:
			analyzeExpr(module, scope, s.Cond)
			analyzeBlock(module, scope, s.Body)
		case *ir.ForStmt:
			// Deliberately not recursed into — see doc comment above.
		case *ir.ReturnStmt:
			analyzeExpr(module, scope, s.Expr)
		case *ir.AssignStmt:
			analyzeExpr(module, scope, s.Dest)
			analyzeExpr(module, scope, s.Expr)
		case *ir.Block:
			analyzeBlock(module, scope, s)
		}
	}
}

func analyzeExpr(module *ir.Module, scope []*ir.Function, expr ir.Expression) {
	switch e := expr.(type) {
	case nil:
		return
	case *ir.VariableExpr:
		resolveEnclosed(module, scope, e)
	case *ir.CallExpr:
		analyzeExpr(module, scope, e.Callee)
		analyzeExpr(module, scope, e.Args)
	case *ir.TupleExpr:
		for _, el := range e.Elems {
			analyzeExpr(module, scope, el)
		}
	case *ir.UnaryExpr:
		analyzeExpr(module, scope, e.X)
	case *ir.BinaryExpr:
		analyzeExpr(module, scope, e.X)
		analyzeExpr(module, scope, e.Y)
	case *ir.ClosureExpr:
		inner := append(append([]*ir.Function{}, scope...), e.Function)
		analyzeFunction(module, inner, e.Function)
	}
}

// resolveEnclosed looks up ref.Name in the innermost (current) function's
// table, then the module table; if neither has it, it's enclosed from
// some outer function in scope. Every function between the defining
// scope and the current one gets its own ENCLOSED copy, so the chain can
// be lowered to explicit environment parameters one level at a time.
func resolveEnclosed(module *ir.Module, scope []*ir.Function, ref *ir.VariableExpr) {
	current := scope[len(scope)-1]
	if d, ok := current.Table.Lookup(ref.Name); ok {
		ref.Decl = d
		return
	}
	if d, ok := module.Table.Lookup(ref.Name); ok {
		ref.Decl = d
		return
	}

	// Search enclosing scopes, innermost-first, for the defining function.
	for i := len(scope) - 2; i >= 0; i-- {
		outer := scope[i]
		if d, ok := outer.Table.Lookup(ref.Name); ok {
			propagateEnclosed(scope[i:], d, ref)
			return
		}
	}
}

// propagateEnclosed threads an ENCLOSED copy of origDecl into every
// function from chain[0] (the defining scope) down to chain[len-1] (the
// referencing scope), then rebinds ref to the innermost copy.
func propagateEnclosed(chain []*ir.Function, origDecl *ir.Declaration, ref *ir.VariableExpr) {
	current := origDecl
	for _, fn := range chain[1:] {
		copyDecl, ok := fn.Table.Lookup(origDecl.Name)
		if !ok {
			copyDecl = ir.CopyDeclaration(current, current.Name)
			copyDecl.Flags |= ir.FlagEnclosed
			fn.Table.Define(copyDecl.Name, copyDecl)
		}
		current = copyDecl
	}
	ref.Decl = current
}
