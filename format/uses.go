package format

import (
	"fmt"
	"sort"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/parser"
)

// NormalizeUses rewrites a unit's use block so it declares exactly the
// modules the code references through scoped identifiers, sorted by name.
// Sibling-file uses (suffix-qualified) carry no scope and are kept as
// written. The result is canonically formatted.
func NormalizeUses(src, filename string) (string, error) {
	result := parser.Parse(src, filename)
	if result.HasErrors() {
		return "", fmt.Errorf("%s: failed to parse (contains errors)", filename)
	}
	root := result.Root

	needed := make(map[string]struct{})
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Type() == ast.ScopedIdentifier {
			needed[n.Scope] = struct{}{}
		}
		return true
	})

	// Sibling references are not derivable from scoped identifiers, so they
	// survive the rewrite.
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child.Type() == ast.UseStatement && isSiblingRef(child.Name) {
			needed[child.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(needed))
	for name := range needed {
		names = append(names, name)
	}
	sort.Strings(names)

	rewritten := ast.New(ast.Program, ast.Position{Line: 1, Column: 1})
	for _, name := range names {
		use := ast.New(ast.UseStatement, ast.Position{})
		use.Name = name
		rewritten.AppendChild(use)
	}
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child.Type() == ast.UseStatement {
			continue
		}
		rewritten.AppendChild(child)
	}

	return NewFormatter().Format(rewritten), nil
}

func isSiblingRef(name string) bool {
	const suffix = ".qd"
	return len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix
}
