package parser

import (
	"reflect"
	"testing"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/diag"
)

func mustParse(t *testing.T, src string) *Result {
	t.Helper()
	result := Parse(src, "test.qd")
	if result.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", result.Errors)
	}
	return result
}

func TestParse_TrivialFunction(t *testing.T) {
	result := mustParse(t, "fn main( -- ) { 42 . nl }")

	root := result.Root
	if root.Type() != ast.Program {
		t.Fatalf("root kind = %s", root.Type())
	}
	if root.ChildCount() != 1 {
		t.Fatalf("top-level count = %d, want 1", root.ChildCount())
	}

	fn := root.Child(0)
	if fn.Type() != ast.FunctionDeclaration || fn.Name != "main" {
		t.Fatalf("fn = %s %q", fn.Type(), fn.Name)
	}
	if len(fn.Inputs) != 0 || len(fn.Outputs) != 0 {
		t.Errorf("signature = %d/%d params, want 0/0", len(fn.Inputs), len(fn.Outputs))
	}

	body := fn.Body()
	if body == nil || body.ChildCount() != 3 {
		t.Fatalf("body missing or wrong size")
	}
	lit := body.Child(0)
	if lit.Type() != ast.Literal || lit.LitKind != ast.IntLiteral || lit.Value != "42" {
		t.Errorf("first statement = %s %s %q", lit.Type(), lit.LitKind, lit.Value)
	}
	for i, want := range []string{".", "nl"} {
		instr := body.Child(i + 1)
		if instr.Type() != ast.Instruction || instr.Name != want {
			t.Errorf("statement %d = %s %q, want Instruction %q", i+1, instr.Type(), instr.Name, want)
		}
	}
}

func TestParse_Signature(t *testing.T) {
	result := mustParse(t, "fn div2(a:i64 b:i64 -- q:i64 r:i64) { swap }")
	fn := result.Root.Child(0)

	if got := len(fn.Inputs); got != 2 {
		t.Fatalf("inputs = %d, want 2", got)
	}
	if got := len(fn.Outputs); got != 2 {
		t.Fatalf("outputs = %d, want 2", got)
	}
	if fn.Inputs[0].Name != "a" || fn.Inputs[0].TypeString != "i64" {
		t.Errorf("input 0 = %s:%s", fn.Inputs[0].Name, fn.Inputs[0].TypeString)
	}
	if fn.Outputs[1].Name != "r" || fn.Outputs[1].TypeString != "i64" {
		t.Errorf("output 1 = %s:%s", fn.Outputs[1].Name, fn.Outputs[1].TypeString)
	}

	// Parameters hang off the declaration, per the tree invariant.
	for _, p := range append(append([]*ast.Node{}, fn.Inputs...), fn.Outputs...) {
		if p.Parent() != fn {
			t.Errorf("parameter %q parent is not the function", p.Name)
		}
	}
}

func TestParse_UntypedParameter(t *testing.T) {
	result := mustParse(t, "fn poke(addr -- ) { drop }")
	fn := result.Root.Child(0)
	if fn.Inputs[0].TypeString != "" {
		t.Errorf("untyped parameter has type %q", fn.Inputs[0].TypeString)
	}
}

func TestParse_NoOutputsWithoutSeparator(t *testing.T) {
	result := mustParse(t, "fn log(msg:str) { prints }")
	fn := result.Root.Child(0)
	if len(fn.Inputs) != 1 || len(fn.Outputs) != 0 {
		t.Errorf("signature = %d/%d, want 1/0", len(fn.Inputs), len(fn.Outputs))
	}
}

func TestParse_ScopedIdentifier(t *testing.T) {
	result := mustParse(t, "use math\nfn main( -- ) { 9 math::sqrt . nl }")
	body := result.Root.Child(1).Body()
	scoped := body.Child(1)
	if scoped.Type() != ast.ScopedIdentifier {
		t.Fatalf("kind = %s", scoped.Type())
	}
	if scoped.Scope != "math" || scoped.Name != "sqrt" {
		t.Errorf("scoped = %s::%s", scoped.Scope, scoped.Name)
	}
}

func TestParse_UseAndConst(t *testing.T) {
	result := mustParse(t, "use math\nuse helpers.qd\nconst LIMIT = 100\nfn main( -- ) { LIMIT . }")
	root := result.Root

	if use := root.Child(0); use.Type() != ast.UseStatement || use.Name != "math" {
		t.Errorf("use 0 = %s %q", use.Type(), use.Name)
	}
	if use := root.Child(1); use.Name != "helpers.qd" {
		t.Errorf("sibling use = %q, want helpers.qd", use.Name)
	}
	konst := root.Child(2)
	if konst.Type() != ast.ConstantDeclaration || konst.Name != "LIMIT" {
		t.Fatalf("const = %s %q", konst.Type(), konst.Name)
	}
	if v := konst.Child(0); v.Type() != ast.Literal || v.Value != "100" {
		t.Errorf("const value = %q", v.Value)
	}
}

func TestParse_ControlFlow(t *testing.T) {
	src := `fn main( -- ) {
		if { 1 . } else { 2 . }
		for { 1 == if { break } continue }
		switch {
			case 1 { "one" prints }
			default { "many" prints }
		}
		defer nl
		defer { clear }
		-> tmp
		here:
		return
	}`
	result := mustParse(t, src)
	body := result.Root.Child(0).Body()

	wantKinds := []ast.Kind{
		ast.IfStatement, ast.ForStatement, ast.SwitchStatement,
		ast.DeferStatement, ast.DeferStatement, ast.Local, ast.Label,
		ast.ReturnStatement,
	}
	if body.ChildCount() != len(wantKinds) {
		t.Fatalf("body size = %d, want %d", body.ChildCount(), len(wantKinds))
	}
	for i, want := range wantKinds {
		if got := body.Child(i).Type(); got != want {
			t.Errorf("statement %d = %s, want %s", i, got, want)
		}
	}

	ifStmt := body.Child(0)
	if ifStmt.ChildCount() != 2 {
		t.Errorf("if has %d blocks, want then+else", ifStmt.ChildCount())
	}
	sw := body.Child(2)
	if sw.ChildCount() != 2 {
		t.Fatalf("switch has %d cases, want 2", sw.ChildCount())
	}
	if sw.Child(1).Name != "default" {
		t.Errorf("second case = %q, want default", sw.Child(1).Name)
	}
	if local := body.Child(5); local.Name != "tmp" {
		t.Errorf("local = %q", local.Name)
	}
	if label := body.Child(6); label.Name != "here" {
		t.Errorf("label = %q", label.Name)
	}
}

func TestParse_BreakContinueOutsideLoop(t *testing.T) {
	result := Parse("fn ok( -- ) { }", "test.qd")
	if result.HasErrors() {
		t.Fatalf("baseline errors: %v", result.Errors)
	}

	tests := []struct {
		name string
		src  string
	}{
		{"break_outside_loop", "fn f( -- ) { break }"},
		{"continue_outside_loop", "fn f( -- ) { continue }"},
		{"continue_in_switch", "fn f( -- ) { switch { case 1 { continue } } }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !Parse(tt.src, "test.qd").HasErrors() {
				t.Error("expected a diagnostic")
			}
		})
	}

	// break binds to switch as well as for.
	ok := Parse("fn f( -- ) { switch { case 1 { break } } }", "test.qd")
	if ok.HasErrors() {
		t.Errorf("break in switch should parse: %v", ok.Errors)
	}
}

func TestParse_ErrorRecovery(t *testing.T) {
	src := "fn main( -- ) { 1 ) 2 }\nfn after( -- ) { nl }"
	result := Parse(src, "test.qd")
	if !result.HasErrors() {
		t.Fatal("expected diagnostics")
	}

	// The containing block and the following function both survive.
	root := result.Root
	if root.ChildCount() != 2 {
		t.Fatalf("top-level count = %d, want 2", root.ChildCount())
	}
	if root.Child(1).Name != "after" {
		t.Errorf("second function = %q", root.Child(1).Name)
	}
	for _, d := range result.Errors {
		if d.Category != diag.Syntactic && d.Category != diag.Lexical {
			t.Errorf("unexpected category %s", d.Category)
		}
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"}",
		"fn",
		"fn (",
		"fn f { }",
		"fn f( -- ) {",
		"fn f( -- ) { if }",
		"use",
		"const X",
		"const X =",
		"switch { case }",
		"{{{{",
		"\x00\xff",
	}
	for _, src := range inputs {
		result := Parse(src, "fuzz.qd")
		if result.Root == nil {
			t.Errorf("nil root for %q", src)
		}
	}
}

// Parent pointers must be consistent across the whole tree.
func TestParse_ParentConsistency(t *testing.T) {
	src := `use math
const N = 3
fn main( -- ) {
	if { 1 } else { 2 }
	switch { case 1 { dup } default { drop } }
	for i { N . math::sqrt break }
}`
	result := mustParse(t, src)

	ast.Walk(result.Root, func(n *ast.Node) bool {
		if n == result.Root {
			if n.Parent() != nil {
				t.Error("root has a parent")
			}
			return true
		}
		parent := n.Parent()
		if parent == nil {
			t.Errorf("%s has no parent", n.Type())
			return true
		}
		found := false
		for i := 0; i < parent.ChildCount(); i++ {
			if parent.Child(i) == n {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s not among its parent's children", n.Type())
		}
		return true
	})
}

func treeEqual(a, b *ast.Node) bool {
	if a.Type() != b.Type() || a.Position() != b.Position() {
		return false
	}
	if a.Name != b.Name || a.Scope != b.Scope || a.TypeString != b.TypeString ||
		a.LitKind != b.LitKind || a.Value != b.Value {
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

// Parsing is a pure function of the source.
func TestParse_Deterministic(t *testing.T) {
	src := `use math
fn main( -- ) {
	9 math::sqrt
	if { "yes" prints } else { nope }
	broken (
}`
	a := Parse(src, "test.qd")
	b := Parse(src, "test.qd")

	if !treeEqual(a.Root, b.Root) {
		t.Error("two parses produced different trees")
	}
	if !reflect.DeepEqual(a.Errors, b.Errors) {
		t.Errorf("diagnostic lists differ:\n%v\n%v", a.Errors, b.Errors)
	}
}

func BenchmarkParse(b *testing.B) {
	src := `use math
const LIMIT = 1000
fn body(n:i64 -- r:i64) {
	dup dup *
	swap math::sqrt
	+
}
fn main( -- ) {
	for { LIMIT body 1 == if { break } }
}`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := Parse(src, "bench.qd")
		if result.HasErrors() {
			b.Fatalf("unexpected errors: %v", result.Errors)
		}
	}
}
