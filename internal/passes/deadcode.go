package passes

import "excc/internal/ir"

// DeadCode is 4.K's first half: repeatedly remove any non-ENTER vertex that
// has no predecessor, since it can never execute. changed is explicitly
// initialized to false — the original C leaves the analogous flag
// uninitialized in at least one path (spec.md §9, Open Question 2); Go's
// zero-value semantics resolve that ambiguity conservatively rather than
// reproducing the undefined read.
//
// Grounded on original_source/compiler/dead-code.c.
func DeadCode(fn *ir.Function) bool {
	log.Debugf("eliminating dead code in %q", fn.Decl.Name)
	g := fn.CFG
	enter := enterOf(g)
	changed := false
	for {
		round := false
		for _, v := range g.Vertices() {
			if v == enter {
				continue
			}
			if len(g.Predecessors(v)) > 0 {
				continue
			}
			g.RemoveVertex(v)
			round = true
		}
		if !round {
			break
		}
		changed = true
	}
	return changed
}
