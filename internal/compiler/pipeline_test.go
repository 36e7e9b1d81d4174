package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"excc/internal/ir"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newIdentityModule builds spec.md §8 scenario 1: public int id(int x) {
// return x; }
func newIdentityModule() *ir.Module {
	x := &ir.Declaration{Name: "x", Flags: ir.FlagArgument, Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("x", x)
	decl := &ir.Declaration{Name: "id", Flags: ir.FlagPublic, Type: ir.IntType{}}
	body := &ir.Block{Stmts: []ir.Statement{
		&ir.ReturnStmt{Expr: &ir.VariableExpr{Name: "x", Decl: x}},
	}}
	fn := &ir.Function{Decl: decl, Params: []*ir.Declaration{x}, Body: body, Table: table}
	return &ir.Module{Functions: []*ir.Function{fn}, Table: ir.NewSymbolTable()}
}

func TestCompileColorsIdentityParameter(t *testing.T) {
	module := newIdentityModule()
	reporter := Compile(module, DefaultOptions())

	require.False(t, reporter.HasErrors())
	x, _ := module.Functions[0].Table.Lookup("x")
	require.Equal(t, 1, x.Color)
	require.False(t, x.Spilled)
}

// newTailRecursiveModule builds spec.md §8 scenario 3: public int
// sum(int n, int acc) { if (n == 0) return acc; else return sum(n-1,
// acc+n); }
func newTailRecursiveModule() *ir.Module {
	n := &ir.Declaration{Name: "n", Flags: ir.FlagArgument, Type: ir.IntType{}}
	acc := &ir.Declaration{Name: "acc", Flags: ir.FlagArgument, Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("n", n)
	table.Define("acc", acc)
	decl := &ir.Declaration{Name: "sum", Flags: ir.FlagPublic, Type: ir.IntType{}}

	nVar := &ir.VariableExpr{Name: "n", Decl: n}
	accVar := &ir.VariableExpr{Name: "acc", Decl: acc}

	fn := &ir.Function{Decl: decl, Params: []*ir.Declaration{n, acc}, Table: table}

	recurse := &ir.CallExpr{
		Callee: &ir.VariableExpr{Name: "sum", Decl: decl},
		Args: &ir.TupleExpr{Elems: []ir.Expression{
			&ir.BinaryExpr{Op: ir.OpDifference, X: nVar, Y: &ir.IntegerExpr{Value: 1}},
			&ir.BinaryExpr{Op: ir.OpSum, X: accVar, Y: nVar},
		}},
	}
	decl.RefCount = 1

	fn.Body = &ir.Block{Stmts: []ir.Statement{
		&ir.IfStmt{
			Cond: &ir.BinaryExpr{Op: ir.OpEq, X: nVar, Y: &ir.IntegerExpr{Value: 0}},
			Then: &ir.Block{Stmts: []ir.Statement{&ir.ReturnStmt{Expr: accVar}}},
			Else: &ir.Block{Stmts: []ir.Statement{&ir.ReturnStmt{Expr: recurse}}},
		},
	}}

	return &ir.Module{Functions: []*ir.Function{fn}, Table: ir.NewSymbolTable()}
}

func TestCompileRewritesTailRecursionAndDecrementsUseCount(t *testing.T) {
	module := newTailRecursiveModule()
	fn := module.Functions[0]

	reporter := Compile(module, DefaultOptions())
	require.False(t, reporter.HasErrors())
	require.Equal(t, 0, fn.Decl.RefCount)

	var sawRestart bool
	for _, v := range fn.CFG.Vertices() {
		if _, ok := v.(*ir.RestartStmt); ok {
			sawRestart = true
		}
		if assign, ok := v.(*ir.AssignStmt); ok {
			_, isCall := assign.Expr.(*ir.CallExpr)
			require.False(t, isCall, "tail-recursive call must not survive as a CFG vertex")
		}
	}
	require.True(t, sawRestart)
}
