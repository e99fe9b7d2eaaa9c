// Package cgen lowers Quadrate syntax trees to C source targeting the
// runtime library. Each compilation unit becomes one generated .c file whose
// functions guard their input and output stack shapes.
package cgen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/codegen"
)

// SourceFile is one emitted artefact.
type SourceFile struct {
	Path    string
	Package string
	Content string
}

// Emitter translates units to C sources. The temp-name counter lives here so
// concurrent emitters never share state.
type Emitter struct {
	OutDir string

	files   []SourceFile
	counter int
	lookup  codegen.InstructionLookup
}

// New creates an emitter writing artefacts below outDir.
func New(outDir string) *Emitter {
	return &Emitter{OutDir: outDir}
}

// Files returns the artefacts produced by the last Emit.
func (e *Emitter) Files() []SourceFile { return e.files }

// Emit implements codegen.Backend. Modules are emitted before the main unit
// so their declarations exist when the main unit's file is compiled.
func (e *Emitter) Emit(main codegen.Unit, modules []codegen.Unit, lookup codegen.InstructionLookup) error {
	e.files = nil
	e.counter = 0
	e.lookup = lookup

	for _, mod := range modules {
		e.files = append(e.files, e.emitUnit(mod))
	}
	e.files = append(e.files, e.emitUnit(main))

	if e.OutDir == "" {
		return nil
	}
	for _, f := range e.files {
		path := filepath.Join(e.OutDir, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("cgen: %w", err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("cgen: %w", err)
		}
	}
	return nil
}

// stackType maps a declared parameter type to the runtime tag constant. An
// untyped parameter means "skip the check", which the runtime spells PTR.
func stackType(declared string) string {
	switch declared {
	case "int", "i64":
		return "QD_STACK_TYPE_INT"
	case "float", "f64":
		return "QD_STACK_TYPE_FLOAT"
	case "str", "string":
		return "QD_STACK_TYPE_STR"
	default:
		return "QD_STACK_TYPE_PTR"
	}
}

func (e *Emitter) emitUnit(unit codegen.Unit) SourceFile {
	w := &writer{}
	w.line("// Generated by the Quadrate compiler. Do not edit.")
	w.line("")
	w.line("#include <quadrate/runtime/runtime.h>")

	pkg := sanitize(unit.Name)
	for i := 0; i < unit.Root.ChildCount(); i++ {
		e.emitTopLevel(w, pkg, unit.Root.Child(i))
	}

	return SourceFile{
		Path:    filepath.Join(pkg, pkg+".c"),
		Package: pkg,
		Content: w.String(),
	}
}

func (e *Emitter) emitTopLevel(w *writer, pkg string, n *ast.Node) {
	switch n.Type() {
	case ast.UseStatement:
		name := strings.TrimSuffix(n.Name, ".qd")
		w.linef("#include \"%s/module.h\"", sanitize(name))
	case ast.ConstantDeclaration:
		if v := n.Child(0); v != nil {
			w.linef("#define %s_%s %s", pkg, n.Name, v.Value)
		}
	case ast.FunctionDeclaration:
		e.emitFunction(w, pkg, n)
	}
}

func (e *Emitter) emitFunction(w *writer, pkg string, fn *ast.Node) {
	w.line("")
	w.linef("qd_exec_result usr_%s_%s(qd_context* ctx) {", pkg, fn.Name)
	w.indent++

	e.emitStackGuard(w, fn.Inputs, "input")

	if body := fn.Body(); body != nil {
		for i := 0; i < body.ChildCount(); i++ {
			e.emitStatement(w, pkg, body.Child(i))
		}
	}

	w.indent--
	w.line("qd_lbl_done:;")
	w.indent++

	e.emitStackGuard(w, fn.Outputs, "output")

	w.line("return (qd_exec_result){0};")
	w.indent--
	w.line("}")
}

func (e *Emitter) emitStackGuard(w *writer, params []*ast.Node, kind string) {
	if len(params) == 0 {
		return
	}
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = stackType(p.TypeString)
	}
	w.linef("qd_stack_type %s_types[] = {%s};", kind, strings.Join(types, ", "))
	w.linef("qd_check_stack(ctx, %d, %s_types, __func__);", len(params), kind)
}

func (e *Emitter) emitStatement(w *writer, pkg string, n *ast.Node) {
	switch n.Type() {
	case ast.Literal:
		switch n.LitKind {
		case ast.IntLiteral:
			w.linef("qd_push_i(ctx, (int64_t)%s);", n.Value)
		case ast.FloatLiteral:
			w.linef("qd_push_f(ctx, (double)%s);", n.Value)
		case ast.StringLiteral:
			w.linef("qd_push_s(ctx, %s);", n.Value)
		}

	case ast.Instruction:
		sym, ok := e.lookup(n.Name)
		if !ok {
			w.linef("// unknown instruction %s", n.Name)
			return
		}
		w.linef("qd_%s(ctx);", sym)

	case ast.Identifier:
		w.linef("usr_%s_%s(ctx);", pkg, n.Name)

	case ast.ScopedIdentifier:
		w.linef("usr_%s_%s(ctx);", sanitize(n.Scope), n.Name)

	case ast.IfStatement:
		cond := e.temp()
		w.linef("int64_t %s = qd_stack_pop_i(ctx);", cond)
		w.linef("if (%s != 0) {", cond)
		w.indent++
		e.emitBlock(w, pkg, n.Child(0))
		w.indent--
		if n.ChildCount() > 1 {
			w.line("} else {")
			w.indent++
			e.emitBlock(w, pkg, n.Child(1))
			w.indent--
		}
		w.line("}")

	case ast.ForStatement:
		w.line("for (;;) {")
		w.indent++
		e.emitBlock(w, pkg, n.Child(0))
		w.indent--
		w.line("}")

	case ast.SwitchStatement:
		e.emitSwitch(w, pkg, n)

	case ast.ReturnStatement:
		w.line("goto qd_lbl_done;")

	case ast.BreakStatement:
		w.line("break;")

	case ast.ContinueStatement:
		w.line("continue;")

	case ast.ConstantDeclaration:
		if v := n.Child(0); v != nil {
			w.linef("#define %s_%s %s", pkg, n.Name, v.Value)
		}

	case ast.DeferStatement, ast.Local, ast.Label, ast.Comment:
		// No runtime lowering.
	}
}

// emitSwitch lowers a switch to a compare chain over the popped selector.
func (e *Emitter) emitSwitch(w *writer, pkg string, n *ast.Node) {
	sel := e.temp()
	w.linef("int64_t %s = qd_stack_pop_i(ctx);", sel)
	first := true
	var deflt *ast.Node
	for i := 0; i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.Type() != ast.CaseStatement {
			continue
		}
		if c.Name == "default" {
			deflt = c
			continue
		}
		value := c.Child(0)
		body := c.Child(1)
		if value == nil || body == nil {
			continue
		}
		if first {
			w.linef("if (%s == %s) {", sel, value.Value)
			first = false
		} else {
			w.linef("} else if (%s == %s) {", sel, value.Value)
		}
		w.indent++
		e.emitBlock(w, pkg, body)
		w.indent--
	}
	if deflt != nil {
		if first {
			w.line("{")
		} else {
			w.line("} else {")
		}
		w.indent++
		e.emitBlock(w, pkg, deflt.Child(0))
		w.indent--
	}
	if !first || deflt != nil {
		w.line("}")
	}
}

func (e *Emitter) emitBlock(w *writer, pkg string, block *ast.Node) {
	if block == nil {
		return
	}
	for i := 0; i < block.ChildCount(); i++ {
		e.emitStatement(w, pkg, block.Child(i))
	}
}

func (e *Emitter) temp() string {
	name := fmt.Sprintf("qd_var_%d", e.counter)
	e.counter++
	return name
}

// sanitize turns a module name into a C identifier fragment.
func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(s string) {
	if s != "" {
		w.sb.WriteString(strings.Repeat("    ", w.indent))
	}
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

func (w *writer) String() string { return w.sb.String() }
