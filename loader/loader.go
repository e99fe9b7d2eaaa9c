// Package loader resolves `use` declarations into the ordered set of module
// syntax trees the code generator consumes. Resolution is breadth-first from
// the main unit; the collected modules are emitted in reverse insertion
// order so every module appears after its dependencies are emitted before
// the modules that depend on them.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/parser"
)

// Suffix is the Quadrate source file extension, including the dot.
const Suffix = ".qd"

// Sentinel failures. Any of them is fatal to orchestration: a partial module
// list is useless to the code generator.
var (
	ErrModuleNotFound    = errors.New("module not found")
	ErrModuleParseFailed = errors.New("module parse failed")
	ErrSiblingMissing    = errors.New("sibling source missing")
)

// Entry pairs a module name with one of its syntax trees. A module with
// sibling files contributes several entries under the same name, manifest
// tree first.
type Entry struct {
	Name string
	Root *ast.Node
}

// Loader locates and parses modules. Purely sequential; safe for concurrent
// use only across distinct instances.
type Loader struct {
	searchPaths []string
}

// New creates a loader over the standard search path:
// $QUADRATE_ROOT, $HOME/quadrate, /usr/share/quadrate, the working
// directory, ./modules and ./vendor/quadrate.
func New() *Loader {
	return &Loader{searchPaths: DefaultSearchPaths()}
}

// NewWithPaths creates a loader over an explicit search path list.
func NewWithPaths(paths []string) *Loader {
	return &Loader{searchPaths: paths}
}

// DefaultSearchPaths returns the directories consulted for module manifests,
// in priority order.
func DefaultSearchPaths() []string {
	var paths []string
	if root := os.Getenv("QUADRATE_ROOT"); root != "" {
		paths = append(paths, root)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "quadrate"))
	}
	paths = append(paths, "/usr/share/quadrate")
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, cwd)
	}
	paths = append(paths, "modules", filepath.Join("vendor", "quadrate"))
	return paths
}

type loadedModule struct {
	name  string
	roots []*ast.Node
}

// Resolve walks the main unit's use declarations and loads every transitive
// module. mainDir anchors sibling-file references made by the main unit.
// The returned entries are dependency-first.
func (l *Loader) Resolve(main *ast.Node, mainDir string) ([]Entry, error) {
	worklist := collectUses(main)
	var order []*loadedModule
	loaded := make(map[string]*loadedModule)

	for i := 0; i < len(worklist); i++ {
		name := worklist[i]
		if _, ok := loaded[name]; ok {
			continue
		}

		if strings.HasSuffix(name, Suffix) {
			// A sibling reference in the main unit resolves against the main
			// unit's own directory.
			mod, err := l.loadSibling(name, mainDir)
			if err != nil {
				return nil, err
			}
			loaded[name] = mod
			order = append(order, mod)
			continue
		}

		mod, uses, err := l.loadManifest(name)
		if err != nil {
			return nil, err
		}
		loaded[name] = mod
		order = append(order, mod)
		worklist = append(worklist, uses...)
	}

	// Dependencies were appended after their dependents; reversing yields the
	// dependency-first sequence the generator wants.
	var entries []Entry
	for i := len(order) - 1; i >= 0; i-- {
		for _, root := range order[i].roots {
			entries = append(entries, Entry{Name: moduleName(order[i].name), Root: root})
		}
	}
	return entries, nil
}

// loadManifest locates <base>/<name>/module.qd on the search path, parses it
// and resolves its sibling references. It returns the loaded module and the
// bare module names its manifest uses.
func (l *Loader) loadManifest(name string) (*loadedModule, []string, error) {
	dir, manifest, err := l.locate(name)
	if err != nil {
		return nil, nil, err
	}

	root, err := parseFile(manifest)
	if err != nil {
		return nil, nil, err
	}

	mod := &loadedModule{name: name, roots: []*ast.Node{root}}
	var pending []string
	for _, use := range collectUses(root) {
		if !strings.HasSuffix(use, Suffix) {
			pending = append(pending, use)
			continue
		}
		sibling, err := l.loadSibling(use, dir)
		if err != nil {
			return nil, nil, err
		}
		mod.roots = append(mod.roots, sibling.roots...)
	}
	return mod, pending, nil
}

func (l *Loader) loadSibling(name, dir string) (*loadedModule, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrSiblingMissing, name, dir)
	}
	root, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	return &loadedModule{name: name, roots: []*ast.Node{root}}, nil
}

func (l *Loader) locate(name string) (dir, manifest string, err error) {
	for _, base := range l.searchPaths {
		dir := filepath.Join(base, name)
		manifest := filepath.Join(dir, "module"+Suffix)
		if _, err := os.Stat(manifest); err == nil {
			return dir, manifest, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s (searched %s)", ErrModuleNotFound, name, strings.Join(l.searchPaths, ", "))
}

func parseFile(path string) (*ast.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleParseFailed, path, err)
	}
	result := parser.Parse(string(src), path)
	if result.HasErrors() {
		return nil, fmt.Errorf("%w: %s: %d error(s)", ErrModuleParseFailed, path, len(result.Errors))
	}
	return result.Root, nil
}

// collectUses returns the module names declared by the unit's top-level use
// statements, in source order.
func collectUses(root *ast.Node) []string {
	var names []string
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child.Type() == ast.UseStatement && child.Name != "" {
			names = append(names, child.Name)
		}
	}
	return names
}

// moduleName strips a sibling reference down to the name generated symbols
// are scoped by.
func moduleName(name string) string {
	return strings.TrimSuffix(name, Suffix)
}

// Discover lists the module names available on the search path, sorted and
// deduplicated. Used for completion.
func (l *Loader) Discover() []string {
	seen := make(map[string]struct{})
	for _, base := range l.searchPaths {
		matches, err := doublestar.Glob(os.DirFS(base), "*/module"+Suffix)
		if err != nil {
			continue
		}
		for _, m := range matches {
			seen[filepath.Dir(m)] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
