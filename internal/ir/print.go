package ir

import (
	"fmt"
	"strings"
)

// Print renders a CFG vertex as the short, one-line text the Graphviz
// dumper (internal/cfg/dot.go) uses for a node label, and that a
// diagnostic could quote for context — mirroring the vertex labels
// original_source/compiler/generate-as.c's dumper produces for -g output
// (spec.md §6).
func Print(s Statement) string {
	switch v := s.(type) {
	case *EnterStmt:
		return "ENTER"
	case *ExitStmt:
		return "EXIT"
	case *PassStmt:
		return "PASS"
	case *JoinStmt:
		return "JOIN"
	case *RestartStmt:
		return "RESTART"
	case *ContinueStmt:
		return "CONTINUE"
	case *BreakStmt:
		return "BREAK"
	case *TestStmt:
		return fmt.Sprintf("TEST %s", PrintExpr(v.Cond))
	case *AssignStmt:
		return fmt.Sprintf("%s = %s", PrintExpr(v.Dest), PrintExpr(v.Expr))
	case *ReturnStmt:
		if v.Expr == nil {
			return "RETURN"
		}
		return fmt.Sprintf("RETURN %s", PrintExpr(v.Expr))
	case *IfStmt:
		return fmt.Sprintf("IF %s", PrintExpr(v.Cond))
	case *WhileStmt:
		return fmt.Sprintf("WHILE %s", PrintExpr(v.Cond))
	case *ForStmt:
		return "FOR"
	case *Block:
		return "SEQUENCE"
	default:
		return fmt.Sprintf("%T", s)
	}
}

// PrintExpr renders an expression as the compact infix text used by Print
// and by diagnostics that need to name a variable or literal.
func PrintExpr(e Expression) string {
	switch x := e.(type) {
	case nil:
		return ""
	case *IntegerExpr:
		return fmt.Sprintf("%d", x.Value)
	case *StringExpr:
		return fmt.Sprintf("%q", x.Value)
	case *VariableExpr:
		if x.Decl != nil && x.Decl.Color > 0 {
			return fmt.Sprintf("%s$%d", x.Name, x.Decl.Color)
		}
		return x.Name
	case *CallExpr:
		return fmt.Sprintf("%s(%s)", PrintExpr(x.Callee), PrintExpr(x.Args))
	case *ClosureExpr:
		name := "<anonymous>"
		if x.Function != nil {
			name = x.Function.Decl.Name
		}
		return fmt.Sprintf("lambda %s", name)
	case *TupleExpr:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			parts[i] = PrintExpr(el)
		}
		return strings.Join(parts, ", ")
	case *UnaryExpr:
		return fmt.Sprintf("%s%s", unaryOpSymbol(x.Op), PrintExpr(x.X))
	case *BinaryExpr:
		return fmt.Sprintf("%s %s %s", PrintExpr(x.X), binaryOpSymbol(x.Op), PrintExpr(x.Y))
	default:
		return fmt.Sprintf("%T", e)
	}
}

func unaryOpSymbol(op UnaryOp) string {
	switch op {
	case OpNegation:
		return "-"
	case OpNot:
		return "!"
	default:
		return "?"
	}
}

func binaryOpSymbol(op BinaryOp) string {
	switch op {
	case OpSum:
		return "+"
	case OpProduct:
		return "*"
	case OpDifference:
		return "-"
	case OpRatio:
		return "/"
	case OpLeq:
		return "<="
	case OpLt:
		return "<"
	case OpGeq:
		return ">="
	case OpGt:
		return ">"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}
