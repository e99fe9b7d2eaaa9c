// Package diag holds the diagnostic model shared by the lexer, parser,
// semantic validator and module loader, plus the GCC-style renderer used by
// the command line tools.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies where in the pipeline a diagnostic originated.
type Category int

const (
	Lexical Category = iota
	Syntactic
	Semantic
	Loader
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "lexical"
	case Syntactic:
		return "syntactic"
	case Semantic:
		return "semantic"
	case Loader:
		return "loader"
	default:
		return "unknown"
	}
}

// Severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Span locates a diagnostic in a source file. Line and Column are 1-based,
// Offset is the byte offset of the first byte, Length the byte length.
type Span struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Diagnostic is a single reported issue.
type Diagnostic struct {
	Span     Span     `json:"span"`
	Message  string   `json:"message"`
	Notes    []string `json:"notes,omitempty"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	if d.Span.File != "" {
		fmt.Fprintf(&sb, "%s: ", d.Span.File)
	}
	if d.Span.Line > 0 {
		fmt.Fprintf(&sb, "%d:%d: ", d.Span.Line, d.Span.Column)
	}
	fmt.Fprintf(&sb, "%s: %s", d.Severity, d.Message)
	return sb.String()
}

// Errorf builds an error-severity diagnostic.
func Errorf(cat Category, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
		Category: cat,
		Severity: Error,
	}
}

// Warningf builds a warning-severity diagnostic.
func Warningf(cat Category, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
		Category: cat,
		Severity: Warning,
	}
}

// HasErrors reports whether any diagnostic in the list is error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// SortBySource orders diagnostics by file, then offset. The sort is stable so
// diagnostics at the same position keep their emission order.
func SortBySource(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Span.File != diags[j].Span.File {
			return diags[i].Span.File < diags[j].Span.File
		}
		return diags[i].Span.Offset < diags[j].Span.Offset
	})
}
