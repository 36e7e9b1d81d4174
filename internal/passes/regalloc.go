package passes

import (
	"sort"

	"excc/internal/cfg"
	"excc/internal/ir"
)

// maxRegisters is the fixed i386 register budget (SPEC_FULL.md §4): eax,
// ebx, ecx, edx, esi, edi. RegisterNames carries the literal table;
// cmd/excc uses only its length, to size the Graphviz fill palette, and
// nothing reads the names themselves — the emitter is out of scope.
const maxRegisters = 6

var RegisterNames = [maxRegisters]string{"eax", "ebx", "ecx", "edx", "esi", "edi"}

// Allocate is 4.M: builds an interference graph over fn's scalar
// declarations from the liveness result, colors it greedily, marks
// over-budget vertices spilled, and runs the rewrite/retry loop until a
// rewrite-free fixpoint is reached.
//
// Grounded on original_source/compiler/reg-alloc.c.
func Allocate(fn *ir.Function) bool {
	log.Debugf("allocating registers for %q", fn.Decl.Name)
	anyChange := false
	for {
		live := Liveness(fn)
		interference := buildInterference(fn, live)
		colorGraph(interference)

		changed := false // explicit: check_validity's uninitialized read (spec.md §9, Open Question 2) is not reproduced
		if rewriteSpills(fn) {
			changed = true
		}
		if !changed {
			break
		}
		anyChange = true
	}
	return anyChange
}

// buildInterference adds a SYMMETRICAL edge between every pair of scalar,
// integer-typed declarations simultaneously live at some program point.
func buildInterference(fn *ir.Function, live map[ir.Statement]declSet) *cfg.Graph[*ir.Declaration] {
	g := cfg.New[*ir.Declaration]()
	for _, d := range fn.Table.Declarations() {
		if isAllocatable(d) {
			g.AddVertex(d)
		}
	}
	for _, set := range live {
		decls := make([]*ir.Declaration, 0, len(set))
		for d := range set {
			if isAllocatable(d) {
				decls = append(decls, d)
			}
		}
		for i := 0; i < len(decls); i++ {
			for j := i + 1; j < len(decls); j++ {
				g.AddEdge(decls[i], decls[j], cfg.EdgeSymmetrical)
				g.AddEdge(decls[j], decls[i], cfg.EdgeSymmetrical)
			}
		}
	}
	return g
}

func isAllocatable(d *ir.Declaration) bool {
	_, isInt := d.Type.(ir.IntType)
	return isInt
}

// colorGraph assigns each vertex the smallest positive color distinct from
// any already-colored neighbor, visiting vertices in insertion order and
// then DFS-ing each vertex's neighbors, per spec.md §4.M step 2. A color
// exceeding maxRegisters marks the declaration spilled instead.
func colorGraph(g *cfg.Graph[*ir.Declaration]) {
	verts := g.Vertices()
	sort.Slice(verts, func(i, j int) bool {
		li, _ := g.Label(verts[i])
		lj, _ := g.Label(verts[j])
		return li < lj
	})
	visited := make(map[*ir.Declaration]bool, len(verts))
	for _, v := range verts {
		colorFrom(g, v, visited)
	}
}

func colorFrom(g *cfg.Graph[*ir.Declaration], d *ir.Declaration, visited map[*ir.Declaration]bool) {
	if visited[d] {
		return
	}
	visited[d] = true
	if d.Uncolored() {
		assignColor(g, d)
	}
	for n := range g.Successors(d) {
		colorFrom(g, n, visited)
	}
}

func assignColor(g *cfg.Graph[*ir.Declaration], d *ir.Declaration) {
	used := make(map[int]bool)
	for n := range g.Successors(d) {
		if n.Color > 0 {
			used[n.Color] = true
		}
	}
	c := 1
	for used[c] {
		c++
	}
	if c > maxRegisters {
		d.Color = 0
		d.Spilled = true
		log.Debugf("variable %s spilled", d.Name)
		return
	}
	d.Color = c
}

// rewriteSpills introduces a register-eligible temporary wherever a binary
// ASSIGN or TEST would otherwise require two memory-resident operands at
// once, per spec.md §4.M step 4.
func rewriteSpills(fn *ir.Function) bool {
	g := fn.CFG
	changed := false
	for _, v := range g.Vertices() {
		switch s := v.(type) {
		case *ir.AssignStmt:
			be, ok := s.Expr.(*ir.BinaryExpr)
			if !ok {
				continue
			}
			destVar, isVar := s.Dest.(*ir.VariableExpr)
			if !isVar || !destVar.Decl.Spilled {
				continue
			}
			yVar, yIsVar := be.Y.(*ir.VariableExpr)
			if !yIsVar || !yVar.Decl.Spilled {
				continue
			}
			t := fn.NewTemp(yVar.ExprType())
			prepend(fn, g, s, &ir.AssignStmt{Dest: &ir.VariableExpr{Name: t.Name, Decl: t}, Expr: copyVariable(yVar)})
			be.Y = &ir.VariableExpr{Name: t.Name, Decl: t}
			changed = true

		case *ir.TestStmt:
			be, ok := s.Cond.(*ir.BinaryExpr)
			if !ok {
				continue
			}
			xVar, xIsVar := be.X.(*ir.VariableExpr)
			yVar, yIsVar := be.Y.(*ir.VariableExpr)
			if !xIsVar || !yIsVar || !xVar.Decl.Spilled || !yVar.Decl.Spilled {
				continue
			}
			t := fn.NewTemp(yVar.ExprType())
			prepend(fn, g, s, &ir.AssignStmt{Dest: &ir.VariableExpr{Name: t.Name, Decl: t}, Expr: copyVariable(yVar)})
			be.Y = &ir.VariableExpr{Name: t.Name, Decl: t}
			changed = true
		}
	}
	return changed
}
