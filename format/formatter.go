// Package format renders Quadrate syntax trees back to canonical source
// text. Formatting is deterministic and idempotent: formatting already
// formatted source is a fixed point.
package format

import (
	"fmt"
	"strings"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/diag"
	"github.com/quadrate-lang/quadrate/parser"
)

// Formatter prints trees with the given indent string per nesting level.
type Formatter struct {
	Indent string

	sb    *strings.Builder
	depth int
}

// NewFormatter returns a formatter using one tab per level.
func NewFormatter() *Formatter {
	return &Formatter{Indent: "\t"}
}

// Source parses src and returns the canonical rendering. Parse errors are
// returned instead; a formatter must not rewrite files it cannot fully
// understand.
func Source(src, filename string) (string, []diag.Diagnostic, error) {
	result := parser.Parse(src, filename)
	if result.HasErrors() {
		return "", result.Errors, fmt.Errorf("%s: source contains syntax errors", filename)
	}
	return NewFormatter().Format(result.Root), result.Errors, nil
}

// Format renders a tree rooted at a Program node.
func (f *Formatter) Format(root *ast.Node) string {
	f.sb = &strings.Builder{}
	f.depth = 0
	f.formatProgram(root)
	return f.sb.String()
}

func (f *Formatter) write(s string)   { f.sb.WriteString(s) }
func (f *Formatter) newline()         { f.sb.WriteByte('\n') }
func (f *Formatter) writeIndent() {
	for i := 0; i < f.depth; i++ {
		f.sb.WriteString(f.Indent)
	}
}

func (f *Formatter) formatProgram(root *ast.Node) {
	n := root.ChildCount()
	for i := 0; i < n; i++ {
		cur := root.Child(i)
		f.formatNode(cur)

		if i == n-1 {
			continue
		}
		next := root.Child(i + 1)
		switch cur.Type() {
		case ast.FunctionDeclaration:
			f.newline()
		case ast.UseStatement:
			if next.Type() != ast.UseStatement {
				f.newline()
			}
		case ast.ConstantDeclaration:
			if next.Type() != ast.ConstantDeclaration {
				f.newline()
			}
		}
	}
}

func (f *Formatter) formatNode(n *ast.Node) {
	switch n.Type() {
	case ast.UseStatement:
		f.writeIndent()
		f.write("use " + n.Name)
		f.newline()
	case ast.ConstantDeclaration:
		f.writeIndent()
		f.write("const " + n.Name)
		if v := n.Child(0); v != nil {
			f.write(" = " + v.Value)
		}
		f.newline()
	case ast.FunctionDeclaration:
		f.formatFunction(n)
	case ast.Block:
		f.formatBlock(n)
	case ast.IfStatement:
		f.formatIf(n)
	case ast.ForStatement:
		f.formatFor(n)
	case ast.SwitchStatement:
		f.formatSwitch(n)
	case ast.CaseStatement:
		f.formatCase(n)
	case ast.DeferStatement:
		f.formatDefer(n)
	case ast.ReturnStatement:
		f.statementLine("return")
	case ast.BreakStatement:
		f.statementLine("break")
	case ast.ContinueStatement:
		f.statementLine("continue")
	case ast.Literal:
		f.statementLine(n.Value)
	case ast.Identifier, ast.Instruction:
		f.statementLine(n.Name)
	case ast.ScopedIdentifier:
		f.statementLine(n.Scope + "::" + n.Name)
	case ast.Local:
		f.statementLine("-> " + n.Name)
	case ast.Label:
		f.statementLine(n.Name + ":")
	case ast.Comment:
		f.statementLine(n.Value)
	}
}

func (f *Formatter) statementLine(s string) {
	f.writeIndent()
	f.write(s)
	f.newline()
}

func (f *Formatter) formatParams(params []*ast.Node) {
	for i, p := range params {
		if i > 0 {
			f.write(" ")
		}
		f.write(p.Name)
		if p.TypeString != "" {
			f.write(":" + p.TypeString)
		}
	}
}

func (f *Formatter) formatFunction(fn *ast.Node) {
	f.writeIndent()
	f.write("fn " + fn.Name + "(")
	f.formatParams(fn.Inputs)
	f.write(" -- ")
	f.formatParams(fn.Outputs)
	f.write(") {")
	f.newline()

	f.depth++
	if body := fn.Body(); body != nil {
		f.formatBlock(body)
	}
	f.depth--

	f.writeIndent()
	f.write("}")
	f.newline()
}

func (f *Formatter) formatBlock(block *ast.Node) {
	for i := 0; i < block.ChildCount(); i++ {
		f.formatNode(block.Child(i))
	}
}

func (f *Formatter) formatIf(n *ast.Node) {
	f.writeIndent()
	f.write("if {")
	f.newline()

	f.depth++
	if then := n.Child(0); then != nil {
		f.formatBlock(then)
	}
	f.depth--

	f.writeIndent()
	f.write("}")

	if elseBody := n.Child(1); elseBody != nil {
		f.write(" else {")
		f.newline()
		f.depth++
		f.formatBlock(elseBody)
		f.depth--
		f.writeIndent()
		f.write("}")
	}
	f.newline()
}

func (f *Formatter) formatFor(n *ast.Node) {
	f.writeIndent()
	if n.Name != "" {
		f.write("for " + n.Name + " {")
	} else {
		f.write("for {")
	}
	f.newline()

	f.depth++
	if body := n.Child(0); body != nil {
		f.formatBlock(body)
	}
	f.depth--

	f.writeIndent()
	f.write("}")
	f.newline()
}

func (f *Formatter) formatSwitch(n *ast.Node) {
	f.writeIndent()
	f.write("switch {")
	f.newline()

	f.depth++
	for i := 0; i < n.ChildCount(); i++ {
		f.formatNode(n.Child(i))
	}
	f.depth--

	f.writeIndent()
	f.write("}")
	f.newline()
}

func (f *Formatter) formatCase(n *ast.Node) {
	f.writeIndent()
	if n.Name == "default" {
		f.write("default {")
		f.newline()
		f.depth++
		if body := n.Child(0); body != nil {
			f.formatBlock(body)
		}
		f.depth--
	} else {
		value := n.Child(0)
		f.write("case ")
		if value != nil {
			f.write(caseValue(value))
		}
		f.write(" {")
		f.newline()
		f.depth++
		if body := n.Child(1); body != nil {
			f.formatBlock(body)
		}
		f.depth--
	}
	f.writeIndent()
	f.write("}")
	f.newline()
}

func caseValue(n *ast.Node) string {
	switch n.Type() {
	case ast.Literal:
		return n.Value
	case ast.ScopedIdentifier:
		return n.Scope + "::" + n.Name
	default:
		return n.Name
	}
}

func (f *Formatter) formatDefer(n *ast.Node) {
	body := n.Child(0)
	if body != nil && body.Type() == ast.Block {
		f.writeIndent()
		f.write("defer {")
		f.newline()
		f.depth++
		f.formatBlock(body)
		f.depth--
		f.writeIndent()
		f.write("}")
		f.newline()
		return
	}

	// Single-statement defer renders inline.
	f.writeIndent()
	f.write("defer")
	if body != nil {
		f.write(" ")
		f.write(strings.TrimSpace(f.capture(body)))
	}
	f.newline()
}

// capture renders a node into a detached buffer.
func (f *Formatter) capture(n *ast.Node) string {
	saved := f.sb
	savedDepth := f.depth
	f.sb = &strings.Builder{}
	f.depth = 0
	f.formatNode(n)
	out := f.sb.String()
	f.sb = saved
	f.depth = savedDepth
	return out
}
