// Package sema validates parsed Quadrate programs. The validator is pure: it
// walks the tree, reports diagnostics and never mutates a node.
package sema

import (
	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/diag"
)

// Validate checks a compilation unit in two passes: first every function
// definition is collected, then every reference is resolved against the
// definitions and the known instruction set. filename is used for
// diagnostics only.
func Validate(root *ast.Node, filename string) []diag.Diagnostic {
	var diags []diag.Diagnostic

	defined := make(map[string]bool)
	uses := make(map[string]bool)

	// Pass 1: collect definitions and use declarations.
	ast.Walk(root, func(n *ast.Node) bool {
		switch n.Type() {
		case ast.FunctionDeclaration:
			if defined[n.Name] {
				diags = append(diags, diag.Errorf(diag.Semantic, spanOf(n, filename),
					"duplicate definition '%s'", n.Name))
			}
			defined[n.Name] = true
		case ast.UseStatement:
			uses[n.Name] = true
		}
		return true
	})

	// Pass 2: resolve references.
	ast.Walk(root, func(n *ast.Node) bool {
		switch n.Type() {
		case ast.Identifier:
			if ast.IsKnownInstruction(n.Name) || defined[n.Name] {
				return true
			}
			diags = append(diags, diag.Errorf(diag.Semantic, spanOf(n, filename),
				"undefined function '%s'", n.Name))
		case ast.ScopedIdentifier:
			// The module itself is resolved by the loader; here only the
			// presence of the matching use declaration is checked.
			if !uses[n.Scope] {
				diags = append(diags, diag.Errorf(diag.Semantic, spanOf(n, filename),
					"module '%s' is referenced but never declared with 'use'", n.Scope))
			}
		}
		return true
	})

	return diags
}

func spanOf(n *ast.Node, filename string) diag.Span {
	pos := n.Position()
	return diag.Span{
		File:   filename,
		Line:   pos.Line,
		Column: pos.Column,
		Offset: pos.Offset,
		Length: pos.Length,
	}
}
