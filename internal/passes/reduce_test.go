package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"excc/internal/cfg"
	"excc/internal/ir"
)

// newShortCircuitFunction builds spec.md §8 scenario 2:
//
//	public int f(int a, int b) {
//	  if (a > 0 && b > 0) return 1; else return 0;
//	}
func newShortCircuitFunction() *ir.Function {
	a := &ir.Declaration{Name: "a", Flags: ir.FlagArgument, Type: ir.IntType{}}
	b := &ir.Declaration{Name: "b", Flags: ir.FlagArgument, Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("a", a)
	table.Define("b", b)
	decl := &ir.Declaration{Name: "f", Flags: ir.FlagPublic, Type: ir.IntType{}}

	aVar := &ir.VariableExpr{Name: "a", Decl: a}
	bVar := &ir.VariableExpr{Name: "b", Decl: b}
	cond := &ir.BinaryExpr{
		Op: ir.OpAnd,
		X:  &ir.BinaryExpr{Op: ir.OpGt, X: aVar, Y: &ir.IntegerExpr{Value: 0}},
		Y:  &ir.BinaryExpr{Op: ir.OpGt, X: bVar, Y: &ir.IntegerExpr{Value: 0}},
	}
	body := &ir.Block{Stmts: []ir.Statement{
		&ir.IfStmt{
			Cond: cond,
			Then: &ir.Block{Stmts: []ir.Statement{&ir.ReturnStmt{Expr: &ir.IntegerExpr{Value: 1}}}},
			Else: &ir.Block{Stmts: []ir.Statement{&ir.ReturnStmt{Expr: &ir.IntegerExpr{Value: 0}}}},
		},
	}}
	return &ir.Function{Decl: decl, Params: []*ir.Declaration{a, b}, Body: body, Table: table}
}

func TestReduceLowersShortCircuitAndIntoTwoTests(t *testing.T) {
	fn := newShortCircuitFunction()
	Flatten(fn)
	Reduce(fn)

	var tests []*ir.TestStmt
	var returns []*ir.ReturnStmt
	for _, v := range fn.CFG.Vertices() {
		switch s := v.(type) {
		case *ir.TestStmt:
			tests = append(tests, s)
			if be, ok := s.Cond.(*ir.BinaryExpr); ok {
				require.False(t, be.Op.ShortCircuit(), "no AND/OR should survive reduction")
			}
		case *ir.ReturnStmt:
			returns = append(returns, s)
		}
	}
	require.Len(t, tests, 2)
	require.Len(t, returns, 2)
}

func TestAtomizeExprHoistsNestedBinary(t *testing.T) {
	x := &ir.Declaration{Name: "x", Type: ir.IntType{}}
	y := &ir.Declaration{Name: "y", Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("x", x)
	table.Define("y", y)
	fn := &ir.Function{Decl: &ir.Declaration{Name: "g", Type: ir.IntType{}}, Table: table}

	nested := &ir.BinaryExpr{
		Op: ir.OpSum,
		X:  &ir.VariableExpr{Name: "x", Decl: x},
		Y:  &ir.BinaryExpr{Op: ir.OpProduct, X: &ir.VariableExpr{Name: "y", Decl: y}, Y: &ir.IntegerExpr{Value: 2}},
	}
	ret := &ir.ReturnStmt{Expr: nested}
	fn.CFG = freshGraphWithEnterExit()
	fn.CFG.AddVertex(ret)
	fn.CFG.AddEdge(enterOf(fn.CFG), ret, cfg.EdgeNormal)
	fn.CFG.AddEdge(ret, exitOf(fn.CFG), cfg.EdgeNormal)

	Reduce(fn)

	v, ok := ret.Expr.(*ir.BinaryExpr)
	require.True(t, ok)
	require.True(t, ir.IsAtomic(v.X))
	require.True(t, ir.IsAtomic(v.Y))
}
