// Package compiler sequences every middle-end pass into the pipeline
// spec.md §2 lays out: setup (tail-call rewrite, closure lowering,
// flattening), a global fixpoint round of reduction / definite-assignment
// / inlining / dead-code / constant-test / i386 normalization, and a final
// register-allocation sweep (which runs its own internal spill-rewrite /
// liveness / allocation loop, per spec.md §4.M).
//
// Modeled on kanso/internal/ir/optimizations.go's OptimizationPass /
// OptimizationPipeline shape and original_source/compiler/main.c's
// process_functions driver.
package compiler

import (
	"excc/internal/diag"
	"excc/internal/ir"
	"excc/internal/passes"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("excc.compiler")

// Options configures a compilation run.
type Options struct {
	// Graphviz requests a CFG dump in place of assembly. Neither the
	// driver nor cmd/excc reads this field (cmd/excc tracks its -g flag
	// itself); it only travels with the rest of the run's configuration.
	Graphviz bool

	// MaxPipelineIterations bounds the outer fixpoint loop. The original
	// doesn't guarantee termination for hand-written passes the way it
	// does for register allocation's inner loop (spec.md §8), so the
	// driver caps it rather than looping forever on an oscillating pair
	// of passes.
	MaxPipelineIterations int
}

// DefaultOptions mirrors the original's fixed driver constants.
func DefaultOptions() Options {
	return Options{MaxPipelineIterations: 64}
}

// Compile runs every pass over module to fixpoint and returns the
// diagnostics accumulated along the way. Callers should check
// reporter.HasErrors() before treating the module as ready for code
// generation (spec.md §7).
func Compile(module *ir.Module, opts Options) *diag.Reporter {
	if opts.MaxPipelineIterations == 0 {
		opts = DefaultOptions()
	}
	reporter := diag.NewReporter()

	log.Infof("compiling module: %d function(s)", len(module.Functions))

	setUp(module)

	iterations := 0
	for ; iterations < opts.MaxPipelineIterations; iterations++ {
		if !runMiddleEnd(module, reporter) {
			break
		}
	}
	log.Debugf("middle-end reached fixpoint after %d round(s)", iterations+1)

	for _, fn := range module.Functions {
		passes.Allocate(fn)
		log.Debugf("function %q: %d CFG vertices after allocation", fn.Decl.Name, len(fn.CFG.Vertices()))
	}

	log.Infof("compilation finished: %d function(s), %d diagnostic(s)", len(module.Functions), len(reporter.Diagnostics()))
	return reporter
}

// setUp runs the passes that need only a single sweep: self-recursion
// rewriting (structured, pre-flatten, spec.md §4.I), enclosed-variable
// discovery and closure lowering (module-wide, since a closure becomes a
// new top-level function — spec.md §4.D), and CFG flattening (spec.md
// §4.E).
func setUp(module *ir.Module) {
	for _, fn := range module.Functions {
		passes.RewriteTailCalls(fn)
	}
	passes.AnalyzeEnclosedVariables(module)
	passes.LowerClosures(module)
	for _, fn := range module.Functions {
		passes.Flatten(fn)
	}
}

// runMiddleEnd executes one round of reduction, definite-assignment,
// inlining, dead-code / constant-test elimination and i386 normalization
// across every function currently in module, in the order spec.md §2
// lists them, and reports whether anything changed. Inlining runs at
// module scope (it can splice a callee's body into several callers and
// remove the callee outright), so it sits between the per-function
// passes rather than inside a per-function loop of its own.
func runMiddleEnd(module *ir.Module, reporter *diag.Reporter) bool {
	changed := false

	for _, fn := range module.Functions {
		if passes.Reduce(fn) {
			changed = true
		}
	}
	for _, fn := range module.Functions {
		passes.DefiniteAssignment(fn, reporter)
	}
	if passes.Inline(module) {
		changed = true
	}
	for _, fn := range module.Functions {
		if passes.DeadCode(fn) {
			changed = true
		}
		if passes.ConstFold(fn) {
			changed = true
		}
		if passes.I386Normalize(fn) {
			changed = true
		}
	}

	return changed
}
