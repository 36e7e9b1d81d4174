package passes

import (
	"excc/internal/cfg"
	"excc/internal/ir"
)

// ConstFold is 4.K's second half: a TEST whose condition is a literal
// integer never actually branches, so it's replaced by an unconditional
// edge to whichever successor its value selects (non-zero -> YES,
// zero -> NO), and the TEST vertex itself is dropped.
//
// Grounded on original_source/compiler/optconst.c. Only literal TESTs are
// folded; arithmetic expressions are left as they are (DESIGN.md, Open
// Question 5).
func ConstFold(fn *ir.Function) bool {
	log.Debugf("folding constant tests in %q", fn.Decl.Name)
	g := fn.CFG
	changed := false
	for {
		round := false
		for _, v := range g.Vertices() {
			test, ok := v.(*ir.TestStmt)
			if !ok {
				continue
			}
			lit, ok := test.Cond.(*ir.IntegerExpr)
			if !ok {
				continue
			}
			want := cfg.EdgeYes
			if lit.Value == 0 {
				want = cfg.EdgeNo
			}
			target, _, found := successorWith(g, test, want)
			if !found {
				continue
			}
			succs := make(map[ir.Statement]cfg.EdgeKind, len(g.Successors(test)))
			for s, k := range g.Successors(test) {
				succs[s] = k
			}
			for s := range succs {
				g.RemoveEdge(test, s)
			}
			g.AddEdge(test, target, cfg.EdgeNormal)
			g.Cleanup(func(s ir.Statement) bool { return s == test })
			round = true
		}
		if !round {
			break
		}
		changed = true
	}
	return changed
}
