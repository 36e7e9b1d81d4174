// Package diag implements the compiler's two error categories (spec.md
// §7): user diagnostics, which are reported and allow compilation to
// continue, and fatal internal errors, which abort immediately with a
// stack trace.
//
// Styled after kanso/internal/errors/reporter.go's colored reporter.
package diag

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/fatih/color"
)

type Level int

const (
	LevelWarning Level = iota
	LevelError
)

type Diagnostic struct {
	Level   Level
	Message string
	Line    int
}

// Reporter accumulates diagnostics across a single compilation so the
// driver can decide, once all passes have run, whether to proceed to code
// generation.
type Reporter struct {
	diagnostics []Diagnostic
}

func NewReporter() *Reporter { return &Reporter{} }

func (r *Reporter) Warn(line int, format string, args ...any) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Level: LevelWarning, Message: fmt.Sprintf(format, args...), Line: line})
}

func (r *Reporter) Error(line int, format string, args ...any) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Level: LevelError, Message: fmt.Sprintf(format, args...), Line: line})
}

// HasErrors reports whether any LevelError diagnostic was recorded —
// code generation is aborted in that case (spec.md §7).
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

func (r *Reporter) Diagnostics() []Diagnostic { return r.diagnostics }

// Print writes every accumulated diagnostic to stderr, colored by level.
func (r *Reporter) Print() {
	bold := color.New(color.Bold).SprintFunc()
	for _, d := range r.diagnostics {
		var tag string
		switch d.Level {
		case LevelError:
			tag = color.RedString("error")
		case LevelWarning:
			tag = color.YellowString("warning")
		}
		if d.Line > 0 {
			fmt.Fprintf(os.Stderr, "%s: %s %s\n", tag, bold(fmt.Sprintf("line %d:", d.Line)), d.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %s\n", tag, d.Message)
		}
	}
}

// Fatal reports an internal invariant violation: a broken graph, a failed
// cast, a JOIN with the wrong out-degree. These are compiler bugs, not
// user errors, so it prints a message and a stack trace and panics,
// mirroring the original's error() macro's backtrace dump. Fatal panics
// rather than calling os.Exit directly so it stays testable with
// require.Panics and so a caller (cmd/excc's main) can recover, print the
// banner once, and choose its own exit code — the process-level
// color.Red-and-exit(2) behavior lives there, not here.
func Fatal(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("internal error:"), message)
	os.Stderr.Write(debug.Stack())
	panic(message)
}
