package passes

import (
	"excc/internal/cfg"
	"excc/internal/diag"
	"excc/internal/ir"
)

// loopFrame tracks the TEST vertex (continue target) and the PASS vertex
// following a loop (break target) while lowering its body.
type loopFrame struct {
	test ir.Statement
	brk  ir.Statement
}

type flattenCtx struct {
	graph *cfg.Graph[ir.Statement]
	enter ir.Statement
	exit  ir.Statement
}

// Flatten is 4.E: build a fresh Graph, insert ENTER (label 0) and EXIT
// (label 1), and recursively lower the function body into CFG vertices.
// Any dangling predecessor left over is connected to EXIT, and the graph
// is cleaned up (PASS vertices spliced out) before returning.
//
// Grounded on original_source/compiler/flatten.c.
func Flatten(fn *ir.Function) {
	log.Debugf("flattening %q", fn.Decl.Name)
	g := cfg.New[ir.Statement]()
	enter := &ir.EnterStmt{}
	exit := &ir.ExitStmt{}
	g.AddVertex(enter)
	g.AddVertex(exit)

	ctx := &flattenCtx{graph: g, enter: enter, exit: exit}
	tail, hasTail := ctx.lowerBlock(fn.Body, enter, true, cfg.EdgeNormal, nil)
	if hasTail {
		g.AddEdge(tail, exit, cfg.EdgeNormal)
	}

	g.Cleanup(isCleanupVertex)
	fn.CFG = g
}

func isCleanupVertex(v ir.Statement) bool {
	switch v.(type) {
	case *ir.PassStmt, *ir.JoinStmt:
		return true
	default:
		return false
	}
}

// lowerBlock lowers every statement of block in sequence, returning the
// vertex that should become the predecessor of whatever follows (and
// whether there is one at all — a block ending in RETURN, RESTART,
// CONTINUE, or BREAK has no fall-through tail).
func (c *flattenCtx) lowerBlock(block *ir.Block, pred ir.Statement, hasPred bool, kind cfg.EdgeKind, loops []loopFrame) (ir.Statement, bool) {
	if block == nil {
		return pred, hasPred
	}
	first := true
	for _, stmt := range block.Stmts {
		k := cfg.EdgeNormal
		if first {
			k = kind
		}
		pred, hasPred = c.lowerStmt(stmt, pred, hasPred, k, loops)
		first = false
	}
	return pred, hasPred
}

func (c *flattenCtx) lowerStmt(stmt ir.Statement, pred ir.Statement, hasPred bool, kind cfg.EdgeKind, loops []loopFrame) (ir.Statement, bool) {
	switch s := stmt.(type) {
	case *ir.AssignStmt:
		c.graph.AddVertex(s)
		if hasPred {
			c.graph.AddEdge(pred, s, kind)
		}
		return s, true

	case *ir.ReturnStmt:
		c.graph.AddVertex(s)
		if hasPred {
			c.graph.AddEdge(pred, s, kind)
		}
		c.graph.AddEdge(s, c.exit, cfg.EdgeNormal)
		return nil, false

	case *ir.IfStmt:
		test := &ir.TestStmt{Cond: s.Cond}
		c.graph.AddVertex(test)
		if hasPred {
			c.graph.AddEdge(pred, test, kind)
		}
		pass := &ir.PassStmt{}
		c.graph.AddVertex(pass)

		thenTail, thenHas := c.lowerBlock(s.Then, test, true, cfg.EdgeYes, loops)
		if thenHas {
			c.graph.AddEdge(thenTail, pass, cfg.EdgeNormal)
		}

		if s.Else != nil {
			elseTail, elseHas := c.lowerBlock(s.Else, test, true, cfg.EdgeNo, loops)
			if elseHas {
				c.graph.AddEdge(elseTail, pass, cfg.EdgeNormal)
			}
		} else {
			c.graph.AddEdge(test, pass, cfg.EdgeNo)
		}
		return pass, true

	case *ir.WhileStmt:
		test := &ir.TestStmt{Cond: s.Cond}
		c.graph.AddVertex(test)
		if hasPred {
			c.graph.AddEdge(pred, test, kind)
		}
		pass := &ir.PassStmt{}
		c.graph.AddVertex(pass)
		c.graph.AddEdge(test, pass, cfg.EdgeNo)

		frames := append(append([]loopFrame{}, loops...), loopFrame{test: test, brk: pass})
		bodyTail, bodyHas := c.lowerBlock(s.Body, test, true, cfg.EdgeYes|cfg.EdgeLoop, frames)
		if bodyHas {
			c.graph.AddEdge(bodyTail, test, cfg.EdgeBack)
		}
		return pass, true

	case *ir.ForStmt:
		curPred, curHas := pred, hasPred
		curKind := kind
		if s.Init != nil {
			curPred, curHas = c.lowerStmt(s.Init, curPred, curHas, curKind, loops)
			curKind = cfg.EdgeNormal
		}

		test := &ir.TestStmt{Cond: s.Cond}
		c.graph.AddVertex(test)
		if curHas {
			c.graph.AddEdge(curPred, test, curKind)
		}
		pass := &ir.PassStmt{}
		c.graph.AddVertex(pass)
		c.graph.AddEdge(test, pass, cfg.EdgeNo)

		frames := append(append([]loopFrame{}, loops...), loopFrame{test: test, brk: pass})
		bodyTail, bodyHas := c.lowerBlock(s.Body, test, true, cfg.EdgeYes|cfg.EdgeLoop, frames)
		if bodyHas && s.Step != nil {
			bodyTail, bodyHas = c.lowerStmt(s.Step, bodyTail, bodyHas, cfg.EdgeNormal, loops)
		}
		if bodyHas {
			c.graph.AddEdge(bodyTail, test, cfg.EdgeBack)
		}
		return pass, true

	case *ir.ContinueStmt:
		frame := loops[len(loops)-1]
		if hasPred {
			c.graph.AddEdge(pred, frame.test, cfg.EdgeBack)
		}
		return nil, false

	case *ir.BreakStmt:
		frame := loops[len(loops)-1]
		if hasPred {
			c.graph.AddEdge(pred, frame.brk, cfg.EdgeNormal)
		}
		return nil, false

	case *ir.RestartStmt:
		c.graph.AddVertex(s)
		if hasPred {
			c.graph.AddEdge(pred, s, kind)
		}
		var target ir.Statement
		for succ := range c.graph.Successors(c.enter) {
			target = succ
		}
		c.graph.AddEdge(s, target, cfg.EdgeBack)
		return nil, false

	case *ir.Block:
		return c.lowerBlock(s, pred, hasPred, kind, loops)

	default:
		diag.Fatal("passes: Flatten: unhandled statement kind %T", stmt)
		return nil, false
	}
}
