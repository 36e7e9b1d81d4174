package passes

import (
	"github.com/tliron/commonlog"

	"excc/internal/cfg"
	"excc/internal/ir"
)

// log is shared by every pass in this package. Each pass logs a line on
// entry naming the function it's running against, replacing the
// original's scattered fprintf(stderr, ...) pass announcements
// ("Performing liveness analysis on '%s'", "Tail call in '%s' optimised",
// "Analysing symbols in '%s'", etc.) with commonlog, as SPEC_FULL.md §2
// describes.
var log = commonlog.GetLogger("excc.passes")

func enterOf(g *cfg.Graph[ir.Statement]) ir.Statement {
	for _, v := range g.Vertices() {
		if _, ok := v.(*ir.EnterStmt); ok {
			return v
		}
	}
	return nil
}

func exitOf(g *cfg.Graph[ir.Statement]) ir.Statement {
	for _, v := range g.Vertices() {
		if _, ok := v.(*ir.ExitStmt); ok {
			return v
		}
	}
	return nil
}
