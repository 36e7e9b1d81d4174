package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"excc/internal/ir"
)

// newDoubleLeaf builds a tiny leaf function: int dbl(int x) { return x +
// x; } — not public, so Inline may drop it once unused; a CALL-free
// 3-vertex body (ENTER, RETURN, EXIT) once flattened, well under the
// 500-vertex inlining cap.
func newDoubleLeaf() *ir.Function {
	x := &ir.Declaration{Name: "x", Flags: ir.FlagArgument, Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("x", x)
	decl := &ir.Declaration{Name: "dbl", Type: ir.IntType{}}
	xVar := &ir.VariableExpr{Name: "x", Decl: x}
	body := &ir.Block{Stmts: []ir.Statement{
		&ir.ReturnStmt{Expr: &ir.BinaryExpr{Op: ir.OpSum, X: xVar, Y: xVar}},
	}}
	fn := &ir.Function{Decl: decl, Params: []*ir.Declaration{x}, Body: body, Table: table}
	Flatten(fn)
	return fn
}

// newCallerOfDblTwice builds: public int caller(int a, int b) { return
// dbl(a) + dbl(b); } split into two ASSIGNs then a RETURN, so each call
// site is its own vertex.
func newCallerOfDblTwice(leaf *ir.Function) *ir.Function {
	a := &ir.Declaration{Name: "a", Flags: ir.FlagArgument, Type: ir.IntType{}}
	b := &ir.Declaration{Name: "b", Flags: ir.FlagArgument, Type: ir.IntType{}}
	r1 := &ir.Declaration{Name: "r1", Type: ir.IntType{}}
	r2 := &ir.Declaration{Name: "r2", Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("a", a)
	table.Define("b", b)
	table.Define("r1", r1)
	table.Define("r2", r2)
	decl := &ir.Declaration{Name: "caller", Flags: ir.FlagPublic, Type: ir.IntType{}}

	call := func(arg *ir.Declaration) *ir.CallExpr {
		leaf.Decl.RefCount++
		return &ir.CallExpr{
			Callee: &ir.VariableExpr{Name: leaf.Decl.Name, Decl: leaf.Decl},
			Args:   &ir.TupleExpr{Elems: []ir.Expression{&ir.VariableExpr{Name: arg.Name, Decl: arg}}},
		}
	}

	body := &ir.Block{Stmts: []ir.Statement{
		&ir.AssignStmt{Dest: &ir.VariableExpr{Name: "r1", Decl: r1}, Expr: call(a)},
		&ir.AssignStmt{Dest: &ir.VariableExpr{Name: "r2", Decl: r2}, Expr: call(b)},
		&ir.ReturnStmt{Expr: &ir.BinaryExpr{
			Op: ir.OpSum,
			X:  &ir.VariableExpr{Name: "r1", Decl: r1},
			Y:  &ir.VariableExpr{Name: "r2", Decl: r2},
		}},
	}}
	fn := &ir.Function{Decl: decl, Params: []*ir.Declaration{a, b}, Body: body, Table: table}
	Flatten(fn)
	return fn
}

func TestInlineSplicesBothCallSitesAndZeroesUseCount(t *testing.T) {
	leaf := newDoubleLeaf()
	caller := newCallerOfDblTwice(leaf)
	module := &ir.Module{Functions: []*ir.Function{caller, leaf}, Table: ir.NewSymbolTable()}

	require.True(t, leaf.IsInlinable())
	require.Equal(t, 2, leaf.Decl.RefCount)

	changed := Inline(module)
	require.True(t, changed)
	require.Equal(t, 0, leaf.Decl.RefCount)

	for _, v := range caller.CFG.Vertices() {
		if assign, ok := v.(*ir.AssignStmt); ok {
			_, isCall := assign.Expr.(*ir.CallExpr)
			require.False(t, isCall, "no CALL vertex to the leaf should remain")
		}
	}

	// The leaf's use count reaching zero makes it eligible for whole-
	// function dead-code elimination (SPEC_FULL.md §4); Inline performs
	// that removal for non-public functions.
	require.NotContains(t, module.Functions, leaf)

	// Each call site's destination must end up assigned the callee's
	// actual return expression (the renamed copy of x + x), not left
	// empty and not aliased onto its own destination.
	declByName := map[string]*ir.Declaration{}
	for _, v := range caller.Table.Declarations() {
		declByName[v.Name] = v
	}
	r1, r2 := declByName["r1"], declByName["r2"]
	require.NotNil(t, r1)
	require.NotNil(t, r2)

	foundR1, foundR2 := false, false
	for _, v := range caller.CFG.Vertices() {
		assign, ok := v.(*ir.AssignStmt)
		if !ok {
			continue
		}
		dest, isVar := assign.Dest.(*ir.VariableExpr)
		if !isVar {
			continue
		}
		bin, isBinary := assign.Expr.(*ir.BinaryExpr)
		if !isBinary {
			continue
		}
		require.Equal(t, ir.OpSum, bin.Op, "inlined return expression must survive, not be replaced by the destination")
		switch dest.Decl {
		case r1:
			foundR1 = true
		case r2:
			foundR2 = true
		}
	}
	require.True(t, foundR1, "r1 must be assigned the inlined leaf's return expression")
	require.True(t, foundR2, "r2 must be assigned the inlined leaf's return expression")
}
