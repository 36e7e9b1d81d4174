package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"excc/internal/diag"
	"excc/internal/ir"
)

func TestDefiniteAssignmentAcceptsIdentity(t *testing.T) {
	fn := newIdentityFunction()
	Flatten(fn)
	reporter := diag.NewReporter()
	ok := DefiniteAssignment(fn, reporter)
	require.True(t, ok)
	require.False(t, reporter.HasErrors())
}

func TestDefiniteAssignmentReportsUseBeforeAssign(t *testing.T) {
	x := &ir.Declaration{Name: "x", Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("x", x)
	decl := &ir.Declaration{Name: "f", Type: ir.IntType{}}
	body := &ir.Block{Stmts: []ir.Statement{
		&ir.ReturnStmt{Expr: &ir.VariableExpr{Name: "x", Decl: x}},
	}}
	fn := &ir.Function{Decl: decl, Table: table, Body: body}
	Flatten(fn)

	reporter := diag.NewReporter()
	ok := DefiniteAssignment(fn, reporter)
	require.False(t, ok)
	require.NotEmpty(t, reporter.Diagnostics())
}

func TestDefiniteAssignmentJoinsAfterIf(t *testing.T) {
	fn := newSumFunction()
	Flatten(fn)
	reporter := diag.NewReporter()
	ok := DefiniteAssignment(fn, reporter)
	require.True(t, ok)
	require.False(t, reporter.HasErrors())

	// Cleanup after DefiniteAssignment must have spliced away every JOIN it
	// inserted (spec.md §8's "cleanup twice == cleanup once" property).
	for _, v := range fn.CFG.Vertices() {
		_, isJoin := v.(*ir.JoinStmt)
		require.False(t, isJoin)
	}
}
