package passes

import (
	"excc/internal/cfg"
	"excc/internal/ir"
)

// freshGraphWithEnterExit returns a two-vertex graph (ENTER, EXIT) for tests
// that exercise a single pass directly on a hand-built CFG without running
// Flatten first.
func freshGraphWithEnterExit() *cfg.Graph[ir.Statement] {
	g := cfg.New[ir.Statement]()
	g.AddVertex(&ir.EnterStmt{})
	g.AddVertex(&ir.ExitStmt{})
	return g
}
