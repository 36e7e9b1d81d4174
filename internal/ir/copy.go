package ir

import "excc/internal/diag"

// CopyExpression deep-copies expr. rename, if non-nil, is applied to every
// VariableExpr's Decl to substitute a renamed declaration — inlining uses
// this to avoid capture between the caller and a spliced-in callee copy.
// Copying preserves payload but not parent links, matching 4.A.
func CopyExpression(expr Expression, rename func(*Declaration) *Declaration) Expression {
	switch e := expr.(type) {
	case nil:
		return nil
	case *IntegerExpr:
		c := *e
		return &c
	case *StringExpr:
		c := *e
		return &c
	case *VariableExpr:
		c := *e
		if rename != nil {
			c.Decl = rename(e.Decl)
			c.Name = c.Decl.Name
		}
		return &c
	case *CallExpr:
		return &CallExpr{
			baseExpr: e.baseExpr,
			Callee:   CopyExpression(e.Callee, rename),
			Args:     CopyExpression(e.Args, rename).(*TupleExpr),
		}
	case *ClosureExpr:
		c := *e
		return &c
	case *TupleExpr:
		elems := make([]Expression, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = CopyExpression(el, rename)
		}
		return &TupleExpr{baseExpr: e.baseExpr, Elems: elems}
	case *UnaryExpr:
		return &UnaryExpr{baseExpr: e.baseExpr, Op: e.Op, X: CopyExpression(e.X, rename)}
	case *BinaryExpr:
		return &BinaryExpr{
			baseExpr: e.baseExpr,
			Op:       e.Op,
			X:        CopyExpression(e.X, rename),
			Y:        CopyExpression(e.Y, rename),
		}
	default:
		diag.Fatal("ir: CopyExpression: unhandled expression kind %T", expr)
		return nil
	}
}

// CopyStatement deep-copies a single CFG-vertex statement (never a
// structured Block/If/While/For — those don't survive past flattening),
// applying rename to every referenced declaration.
func CopyStatement(stmt Statement, rename func(*Declaration) *Declaration) Statement {
	switch s := stmt.(type) {
	case *EnterStmt:
		c := *s
		return &c
	case *ExitStmt:
		c := *s
		return &c
	case *PassStmt:
		c := *s
		return &c
	case *JoinStmt:
		c := *s
		return &c
	case *RestartStmt:
		c := *s
		return &c
	case *TestStmt:
		return &TestStmt{baseStmt: s.baseStmt, Cond: CopyExpression(s.Cond, rename)}
	case *AssignStmt:
		return &AssignStmt{
			baseStmt: s.baseStmt,
			Dest:     CopyExpression(s.Dest, rename),
			Expr:     CopyExpression(s.Expr, rename),
		}
	case *ReturnStmt:
		return &ReturnStmt{baseStmt: s.baseStmt, Expr: CopyExpression(s.Expr, rename)}
	default:
		diag.Fatal("ir: CopyStatement: unhandled statement kind %T", stmt)
		return nil
	}
}

// CopyDeclaration copies decl's payload (name, flags, type) but resets
// allocation-pass-specific fields (color, spill state, stack position),
// as a fresh copy hasn't been through register allocation yet.
func CopyDeclaration(decl *Declaration, newName string) *Declaration {
	return &Declaration{
		Name:  newName,
		Flags: decl.Flags,
		Type:  decl.Type,
		Line:  decl.Line,
	}
}
