package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI markers used by the reporter. Disabled when the output is not a
// terminal or when NO_COLOR is set.
const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiPurple = "\x1b[35m"
	ansiCyan  = "\x1b[36m"
)

// Reporter renders diagnostics in the GCC style
// `<prefix>: <file>: <line>:<column>: <severity>: <message>`.
type Reporter struct {
	Prefix string
	Out    io.Writer
	Color  bool
}

// NewReporter builds a reporter writing to w. Color is enabled only when w is
// a terminal and NO_COLOR is unset.
func NewReporter(prefix string, w io.Writer) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{Prefix: prefix, Out: w, Color: color}
}

func (r *Reporter) paint(code, s string) string {
	if !r.Color {
		return s
	}
	return code + s + ansiReset
}

func (r *Reporter) severity(s Severity) string {
	switch s {
	case Error:
		return r.paint(ansiBold+ansiRed, "error:")
	case Warning:
		return r.paint(ansiBold+ansiPurple, "warning:")
	default:
		return r.paint(ansiBold+ansiCyan, "note:")
	}
}

// Report writes one diagnostic.
func (r *Reporter) Report(d Diagnostic) {
	fmt.Fprintf(r.Out, "%s ", r.paint(ansiBold, r.Prefix+":"))
	if d.Span.File != "" {
		fmt.Fprintf(r.Out, "%s ", r.paint(ansiBold, d.Span.File+":"))
	}
	if d.Span.Line > 0 {
		fmt.Fprintf(r.Out, "%s ", r.paint(ansiBold, fmt.Sprintf("%d:%d:", d.Span.Line, d.Span.Column)))
	}
	fmt.Fprintf(r.Out, "%s %s\n", r.severity(d.Severity), r.paint(ansiBold, d.Message))
	for _, n := range d.Notes {
		fmt.Fprintf(r.Out, "%s %s %s\n", r.paint(ansiBold, r.Prefix+":"), r.severity(Note), n)
	}
}

// ReportAll sorts the diagnostics by source position and writes them all.
func (r *Reporter) ReportAll(diags []Diagnostic) {
	SortBySource(diags)
	for _, d := range diags {
		r.Report(d)
	}
}
