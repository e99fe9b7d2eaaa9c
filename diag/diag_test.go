package diag

import (
	"strings"
	"testing"
)

func TestDiagnostic_String(t *testing.T) {
	d := Errorf(Semantic, Span{File: "main.qd", Line: 3, Column: 7}, "undefined function '%s'", "f")
	want := "main.qd: 3:7: error: undefined function 'f'"
	if d.String() != want {
		t.Errorf("String() = %q, want %q", d.String(), want)
	}
}

func TestDiagnostic_StringWithoutPosition(t *testing.T) {
	d := Errorf(Loader, Span{}, "module not found")
	if d.String() != "error: module not found" {
		t.Errorf("String() = %q", d.String())
	}
}

func TestHasErrors(t *testing.T) {
	warn := Warningf(Syntactic, Span{}, "odd spacing")
	if HasErrors([]Diagnostic{warn}) {
		t.Error("warning counted as error")
	}
	if !HasErrors([]Diagnostic{warn, Errorf(Lexical, Span{}, "bad byte")}) {
		t.Error("error not detected")
	}
	if HasErrors(nil) {
		t.Error("empty list reports errors")
	}
}

func TestSortBySource(t *testing.T) {
	diags := []Diagnostic{
		Errorf(Syntactic, Span{File: "b.qd", Offset: 10}, "third"),
		Errorf(Syntactic, Span{File: "a.qd", Offset: 20}, "second"),
		Errorf(Syntactic, Span{File: "a.qd", Offset: 5}, "first"),
	}
	SortBySource(diags)
	for i, want := range []string{"first", "second", "third"} {
		if diags[i].Message != want {
			t.Errorf("position %d = %q, want %q", i, diags[i].Message, want)
		}
	}
}

func TestReporter_PlainOutput(t *testing.T) {
	var sb strings.Builder
	r := &Reporter{Prefix: "quad", Out: &sb}
	r.Report(Diagnostic{
		Span:     Span{File: "main.qd", Line: 2, Column: 4},
		Message:  "unexpected token",
		Severity: Error,
		Category: Syntactic,
	})
	want := "quad: main.qd: 2:4: error: unexpected token\n"
	if sb.String() != want {
		t.Errorf("output = %q, want %q", sb.String(), want)
	}
}

func TestReporter_Notes(t *testing.T) {
	var sb strings.Builder
	r := &Reporter{Prefix: "quad", Out: &sb}
	r.Report(Diagnostic{
		Message:  "module not found",
		Severity: Error,
		Notes:    []string{"searched /usr/share/quadrate"},
	})
	out := sb.String()
	if !strings.Contains(out, "note: searched /usr/share/quadrate") {
		t.Errorf("output = %q", out)
	}
}

func TestReporter_ColorDisabledOffTerminal(t *testing.T) {
	var sb strings.Builder
	r := NewReporter("quad", &sb)
	if r.Color {
		t.Error("color enabled for a non-terminal writer")
	}
	r.Report(Errorf(Lexical, Span{}, "x"))
	if strings.Contains(sb.String(), "\x1b[") {
		t.Error("ANSI markers written to a non-terminal")
	}
}

func TestSeverityAndCategoryNames(t *testing.T) {
	if Error.String() != "error" || Warning.String() != "warning" || Note.String() != "note" {
		t.Error("severity names wrong")
	}
	if Lexical.String() != "lexical" || Syntactic.String() != "syntactic" ||
		Semantic.String() != "semantic" || Loader.String() != "loader" {
		t.Error("category names wrong")
	}
}
