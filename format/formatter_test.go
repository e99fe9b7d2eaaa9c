package format

import (
	"testing"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/parser"
)

func formatSource(t *testing.T, src string) string {
	t.Helper()
	out, diags, err := Source(src, "test.qd")
	if err != nil {
		t.Fatalf("format failed: %v (%v)", err, diags)
	}
	return out
}

func TestFormat_Canonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple_function",
			in:   "fn   main(  --  )   {  42  .  nl  }",
			want: "fn main( -- ) {\n\t42\n\t.\n\tnl\n}\n",
		},
		{
			name: "typed_signature",
			in:   "fn add(a:i64 b:i64 -- r:i64) { + }",
			want: "fn add(a:i64 b:i64 -- r:i64) {\n\t+\n}\n",
		},
		{
			name: "use_block_then_function",
			in:   "use math\nuse net\nfn main( -- ) { }",
			want: "use math\nuse net\n\nfn main( -- ) {\n}\n",
		},
		{
			name: "constants_grouped",
			in:   "const A = 1\nconst B = 2\nfn main( -- ) { A B + . }",
			want: "const A = 1\nconst B = 2\n\nfn main( -- ) {\n\tA\n\tB\n\t+\n\t.\n}\n",
		},
		{
			name: "if_else",
			in:   "fn f( -- ) { 1 == if { 1 . } else { 2 . } }",
			want: "fn f( -- ) {\n\t1\n\t==\n\tif {\n\t\t1\n\t\t.\n\t} else {\n\t\t2\n\t\t.\n\t}\n}\n",
		},
		{
			name: "scoped_and_local",
			in:   "use math\nfn f( -- ) { 9 math::sqrt -> r r: }",
			want: "use math\n\nfn f( -- ) {\n\t9\n\tmath::sqrt\n\t-> r\n\tr:\n}\n",
		},
		{
			name: "switch",
			in:   `fn f( -- ) { switch { case 1 { "one" prints } default { drop } } }`,
			want: "fn f( -- ) {\n\tswitch {\n\t\tcase 1 {\n\t\t\t\"one\"\n\t\t\tprints\n\t\t}\n\t\tdefault {\n\t\t\tdrop\n\t\t}\n\t}\n}\n",
		},
		{
			name: "defer_inline_and_block",
			in:   "fn f( -- ) { defer nl defer { clear drop } }",
			want: "fn f( -- ) {\n\tdefer nl\n\tdefer {\n\t\tclear\n\t\tdrop\n\t}\n}\n",
		},
		{
			name: "for_with_name",
			in:   "fn f( -- ) { for i { break } for { continue } }",
			want: "fn f( -- ) {\n\tfor i {\n\t\tbreak\n\t}\n\tfor {\n\t\tcontinue\n\t}\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatSource(t, tt.in)
			if got != tt.want {
				t.Errorf("format:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestFormat_BlankLineBetweenFunctions(t *testing.T) {
	got := formatSource(t, "fn a( -- ) { }\nfn b( -- ) { }")
	want := "fn a( -- ) {\n}\n\nfn b( -- ) {\n}\n"
	if got != want {
		t.Errorf("format = %q, want %q", got, want)
	}
}

// Formatting is idempotent: format(format(src)) == format(src).
func TestFormat_Idempotent(t *testing.T) {
	sources := []string{
		"fn main( -- ) { 42 . nl }",
		"use math\nuse net\nconst PI = 3.14\nfn f(a:i64 -- b:f64) { a castf }",
		`fn f( -- ) { if { "x" prints } else { nope2 } for i { switch { case 1 { dup } default { drop } } break } }`,
		"fn g(x -- ) { defer nl -> tmp lbl: 1 2 + . return }",
	}
	for _, src := range sources {
		once, _, err := Source(src, "test.qd")
		if err != nil {
			t.Fatalf("first format: %v", err)
		}
		twice, _, err := Source(once, "test.qd")
		if err != nil {
			t.Fatalf("second format: %v\nafter:\n%s", err, once)
		}
		if once != twice {
			t.Errorf("not idempotent:\nfirst:\n%q\nsecond:\n%q", once, twice)
		}
	}
}

func treeEqual(a, b *ast.Node) bool {
	if a.Type() != b.Type() || a.Name != b.Name || a.Scope != b.Scope ||
		a.TypeString != b.TypeString || a.LitKind != b.LitKind || a.Value != b.Value {
		return false
	}
	if a.ChildCount() != b.ChildCount() {
		return false
	}
	for i := 0; i < a.ChildCount(); i++ {
		if !treeEqual(a.Child(i), b.Child(i)) {
			return false
		}
	}
	return true
}

// Formatting preserves structure: parse(format(parse(src))) equals
// parse(src) up to positions.
func TestFormat_RoundTrip(t *testing.T) {
	src := `use math
const N = 10
fn helper(a:i64 -- r:i64) { dup * }
fn main( -- ) {
	N helper .
	if { math::sqrt } else { neg }
	nl
}`
	before := parser.Parse(src, "test.qd")
	if before.HasErrors() {
		t.Fatalf("parse: %v", before.Errors)
	}

	formatted := NewFormatter().Format(before.Root)
	after := parser.Parse(formatted, "formatted.qd")
	if after.HasErrors() {
		t.Fatalf("reparse: %v\nsource:\n%s", after.Errors, formatted)
	}
	if !treeEqual(before.Root, after.Root) {
		t.Errorf("structure changed by formatting:\n%s", formatted)
	}
}

func TestFormat_RejectsBrokenSource(t *testing.T) {
	if _, _, err := Source("fn broken( {", "bad.qd"); err == nil {
		t.Error("expected an error for unparseable source")
	}
}
