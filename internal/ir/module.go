package ir

import "excc/internal/cfg"

// Function is a top-level function definition: its own Declaration (name,
// PUBLIC flag, etc.), its parameter list, its body (pre-flatten), its flat
// symbol table, and — once flattening has run — its CFG.
type Function struct {
	Decl   *Declaration
	Params []*Declaration
	Body   *Block
	Table  *SymbolTable

	// CFG is nil until flattening runs; every subsequent pass operates on
	// it instead of Body.
	CFG *cfg.Graph[Statement]

	InputSize  int // sum of parameter slot sizes, in words
	OutputSize int
	StackSize  int

	tempCounter int // synthesizes fresh $tN temporaries during reduction/i386 normalization
}

// NewTemp allocates a fresh compiler-generated temporary of type t and
// registers it in the function's table.
func (f *Function) NewTemp(t Type) *Declaration {
	f.tempCounter++
	d := &Declaration{Name: tempName(f.tempCounter), Type: t}
	f.Table.Define(d.Name, d)
	return d
}

func tempName(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	// $t1, $t2, ... — simple, always distinct within one function.
	return "$t" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// IsInlinable reports whether f may be spliced into a caller: it must
// already have a CFG, with at most 500 vertices, and contain no CALL
// expression anywhere in an ASSIGN/RETURN/TEST.
func (f *Function) IsInlinable() bool {
	if f.CFG == nil {
		return false
	}
	if len(f.CFG.Vertices()) > 500 {
		return false
	}
	for _, v := range f.CFG.Vertices() {
		if containsCall(exprsOf(v)) {
			return false
		}
	}
	return true
}

func exprsOf(v Statement) []Expression {
	switch s := v.(type) {
	case *AssignStmt:
		return []Expression{s.Dest, s.Expr}
	case *ReturnStmt:
		if s.Expr != nil {
			return []Expression{s.Expr}
		}
	case *TestStmt:
		return []Expression{s.Cond}
	}
	return nil
}

func containsCall(exprs []Expression) bool {
	for _, e := range exprs {
		if exprContainsCall(e) {
			return true
		}
	}
	return false
}

func exprContainsCall(e Expression) bool {
	switch x := e.(type) {
	case nil:
		return false
	case *CallExpr:
		return true
	case *UnaryExpr:
		return exprContainsCall(x.X)
	case *BinaryExpr:
		return exprContainsCall(x.X) || exprContainsCall(x.Y)
	case *TupleExpr:
		for _, el := range x.Elems {
			if exprContainsCall(el) {
				return true
			}
		}
	}
	return false
}

// Module is the root node: the functions it defines, its top-level symbol
// table, and its interned string pool.
type Module struct {
	Functions []*Function
	Table     *SymbolTable
	Strings   []string
}

// Intern appends s to the module's string pool and returns its index,
// without de-duplication — matching the scope of this component (string
// interning proper is explicitly out of scope per spec.md §1; this slice
// only exists so STRING expressions have somewhere to point).
func (m *Module) Intern(s string) int {
	m.Strings = append(m.Strings, s)
	return len(m.Strings) - 1
}

// RemoveFunction drops fn from the module's function list — used by the
// whole-function dead-code extension (SPEC_FULL.md §4) once every call
// site of a private function has been folded away.
func (m *Module) RemoveFunction(fn *Function) {
	for i, f := range m.Functions {
		if f == fn {
			m.Functions = append(m.Functions[:i], m.Functions[i+1:]...)
			return
		}
	}
}
