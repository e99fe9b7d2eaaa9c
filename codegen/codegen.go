// Package codegen defines the contract between the front end and a backend
// code generator: the main tree, the dependency-ordered module trees, and a
// lookup mapping builtin instruction names to runtime symbols.
package codegen

import (
	"errors"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/loader"
)

// Unit is one compilation unit handed to a backend.
type Unit struct {
	Name string
	Root *ast.Node
}

// InstructionLookup maps a builtin instruction name to the runtime symbol a
// backend should emit a call to.
type InstructionLookup func(name string) (symbol string, ok bool)

// Backend consumes units in the provided order and must not mutate them.
type Backend interface {
	Emit(main Unit, modules []Unit, lookup InstructionLookup) error
}

// ErrNoRoot is returned when Generate is called without a parsed main unit.
var ErrNoRoot = errors.New("codegen: no main unit")

// Generate adapts loader output to a backend invocation. Modules are passed
// through in loader order, which is dependency-first.
func Generate(b Backend, mainName string, main *ast.Node, entries []loader.Entry) error {
	if main == nil {
		return ErrNoRoot
	}
	units := make([]Unit, len(entries))
	for i, e := range entries {
		units[i] = Unit{Name: e.Name, Root: e.Root}
	}
	return b.Emit(Unit{Name: mainName, Root: main}, units, RuntimeSymbol)
}

// runtimeSymbols maps the symbolic instruction spellings onto their named
// runtime entry points. Alphanumeric instruction names map to themselves.
var runtimeSymbols = map[string]string{
	"+":  "add",
	"-":  "sub",
	"*":  "mul",
	"/":  "div",
	"%":  "mod",
	".":  "print",
	"==": "eq",
	"!=": "neq",
	"<":  "lt",
	"<=": "lte",
	">":  "gt",
	">=": "gte",
}

// RuntimeSymbol is the default InstructionLookup over the builtin set.
func RuntimeSymbol(name string) (string, bool) {
	if !ast.IsBuiltinInstruction(name) {
		return "", false
	}
	if sym, ok := runtimeSymbols[name]; ok {
		return sym, true
	}
	return name, true
}
