package ir

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSymbolTableReservedKey(t *testing.T) {
	table := NewSymbolTable()
	require.Panics(t, func() {
		table.Define(ParentKey, &Declaration{Name: ParentKey})
	})
}

func TestSymbolTableDeterministicOrder(t *testing.T) {
	table := NewSymbolTable()
	table.Define("b", &Declaration{Name: "b"})
	table.Define("a", &Declaration{Name: "a"})
	table.Define("c", &Declaration{Name: "c"})
	require.Equal(t, []string{"b", "a", "c"}, table.Names())
}

func TestIsAtomic(t *testing.T) {
	require.True(t, IsAtomic(&IntegerExpr{Value: 1}))
	require.True(t, IsAtomic(&VariableExpr{Name: "x"}))
	require.True(t, IsAtomic(&TupleExpr{Elems: []Expression{&IntegerExpr{Value: 1}, &VariableExpr{Name: "y"}}}))
	require.False(t, IsAtomic(&BinaryExpr{Op: OpSum, X: &IntegerExpr{Value: 1}, Y: &IntegerExpr{Value: 2}}))
}

func TestIsSimple(t *testing.T) {
	require.True(t, IsSimple(&BinaryExpr{Op: OpSum, X: &VariableExpr{Name: "a"}, Y: &IntegerExpr{Value: 1}}))
	require.False(t, IsSimple(&BinaryExpr{Op: OpAnd, X: &VariableExpr{Name: "a"}, Y: &VariableExpr{Name: "b"}}))
	nested := &BinaryExpr{Op: OpSum, X: &BinaryExpr{Op: OpProduct, X: &VariableExpr{Name: "a"}, Y: &VariableExpr{Name: "b"}}, Y: &IntegerExpr{Value: 1}}
	require.False(t, IsSimple(nested))
}

func TestCopyExpressionRenamesVariables(t *testing.T) {
	orig := &Declaration{Name: "x"}
	renamed := &Declaration{Name: "$n0x"}
	expr := &VariableExpr{Name: "x", Decl: orig}
	copied := CopyExpression(expr, func(d *Declaration) *Declaration {
		require.Same(t, orig, d)
		return renamed
	}).(*VariableExpr)
	require.Equal(t, "$n0x", copied.Name)
	require.Same(t, renamed, copied.Decl)
	require.Equal(t, "x", expr.Name, "original must be untouched")
}

func TestCopyExpressionPreservesShapeUnderIdentityRename(t *testing.T) {
	x := &Declaration{Name: "x"}
	orig := &BinaryExpr{
		baseExpr: baseExpr{Typ: IntType{}},
		Op:       OpSum,
		X:        &VariableExpr{Name: "x", Decl: x},
		Y:        &IntegerExpr{Value: 2},
	}
	copied := CopyExpression(orig, func(d *Declaration) *Declaration { return d }).(*BinaryExpr)

	declByIdentity := cmp.Comparer(func(a, b *Declaration) bool { return a == b })
	diff := cmp.Diff(orig, copied, declByIdentity, cmp.AllowUnexported(BinaryExpr{}, VariableExpr{}, IntegerExpr{}))
	require.Empty(t, diff, fmt.Sprintf("identity-renamed copy must be structurally identical to the original (-want +got):\n%s", diff))
	require.NotSame(t, orig, copied, "copy must allocate a new node, not alias the original")
}

func TestBinaryOpCommutes(t *testing.T) {
	require.True(t, OpSum.Commutes())
	require.False(t, OpDifference.Commutes())
	require.False(t, OpRatio.Commutes())
}
