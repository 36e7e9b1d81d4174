package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"excc/internal/cfg"
	"excc/internal/ir"
)

func TestDeadCodeRemovesUnreachableVertex(t *testing.T) {
	fn := newIdentityFunction()
	Flatten(fn)

	orphan := &ir.AssignStmt{Dest: &ir.VariableExpr{Name: "dead"}, Expr: &ir.IntegerExpr{Value: 1}}
	fn.CFG.AddVertex(orphan)
	fn.CFG.AddEdge(orphan, exitOf(fn.CFG), cfg.EdgeNormal)

	changed := DeadCode(fn)
	require.True(t, changed)
	require.False(t, fn.CFG.Has(orphan))
}

func TestDeadCodeLeavesEnterAlone(t *testing.T) {
	fn := newIdentityFunction()
	Flatten(fn)
	enter := enterOf(fn.CFG)
	changed := DeadCode(fn)
	require.False(t, changed)
	require.True(t, fn.CFG.Has(enter))
}

func TestConstFoldRemovesLiteralTest(t *testing.T) {
	fn := freshFunctionWithLiteralTest(t, 1)
	changed := ConstFold(fn)
	require.True(t, changed)

	for _, v := range fn.CFG.Vertices() {
		_, isTest := v.(*ir.TestStmt)
		require.False(t, isTest)
	}
}

func TestConstFoldPlusDeadCodeLeavesNoLiteralTest(t *testing.T) {
	fn := freshFunctionWithLiteralTest(t, 0)
	for {
		c1 := ConstFold(fn)
		c2 := DeadCode(fn)
		if !c1 && !c2 {
			break
		}
	}
	for _, v := range fn.CFG.Vertices() {
		test, isTest := v.(*ir.TestStmt)
		if isTest {
			_, isLiteral := test.Cond.(*ir.IntegerExpr)
			require.False(t, isLiteral)
		}
	}
}

func freshFunctionWithLiteralTest(t *testing.T, literal int64) *ir.Function {
	t.Helper()
	decl := &ir.Declaration{Name: "g", Type: ir.IntType{}}
	yes := &ir.ReturnStmt{Expr: &ir.IntegerExpr{Value: 1}}
	no := &ir.ReturnStmt{Expr: &ir.IntegerExpr{Value: 0}}
	test := &ir.TestStmt{Cond: &ir.IntegerExpr{Value: literal}}

	g := freshGraphWithEnterExit()
	g.AddVertex(test)
	g.AddVertex(yes)
	g.AddVertex(no)
	g.AddEdge(enterOf(g), test, cfg.EdgeNormal)
	g.AddEdge(test, yes, cfg.EdgeYes)
	g.AddEdge(test, no, cfg.EdgeNo)
	g.AddEdge(yes, exitOf(g), cfg.EdgeNormal)
	g.AddEdge(no, exitOf(g), cfg.EdgeNormal)

	return &ir.Function{Decl: decl, Table: ir.NewSymbolTable(), CFG: g}
}
