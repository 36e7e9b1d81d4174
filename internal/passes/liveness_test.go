package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"excc/internal/ir"
)

func TestLivenessIdentityHasNoLiveVariablesAtExit(t *testing.T) {
	fn := newIdentityFunction()
	Flatten(fn)
	live := Liveness(fn)
	require.Empty(t, live[exitOf(fn.CFG)])
}

func TestLivenessParameterLiveBetweenEnterAndUse(t *testing.T) {
	fn := newIdentityFunction()
	Flatten(fn)
	live := Liveness(fn)

	enter := enterOf(fn.CFG)
	var found bool
	for d := range live[enter] {
		if d.Name == "x" {
			found = true
		}
	}
	require.True(t, found, "x must be live immediately after ENTER, since the single RETURN uses it")
}

func TestLivenessDropsVariableAfterReassignment(t *testing.T) {
	n := &ir.Declaration{Name: "n", Flags: ir.FlagArgument, Type: ir.IntType{}}
	table := ir.NewSymbolTable()
	table.Define("n", n)
	decl := &ir.Declaration{Name: "reset", Type: ir.IntType{}}
	nVar := &ir.VariableExpr{Name: "n", Decl: n}
	body := &ir.Block{Stmts: []ir.Statement{
		&ir.AssignStmt{Dest: nVar, Expr: &ir.IntegerExpr{Value: 0}},
		&ir.ReturnStmt{Expr: nVar},
	}}
	fn := &ir.Function{Decl: decl, Params: []*ir.Declaration{n}, Body: body, Table: table}
	Flatten(fn)
	live := Liveness(fn)

	enter := enterOf(fn.CFG)
	for d := range live[enter] {
		require.NotEqual(t, "n", d.Name, "n's incoming value is dead: it's overwritten before any use")
	}
}
