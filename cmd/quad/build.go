package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/codegen"
	"github.com/quadrate-lang/quadrate/codegen/cgen"
	"github.com/quadrate-lang/quadrate/config"
	"github.com/quadrate-lang/quadrate/db"
	"github.com/quadrate-lang/quadrate/diag"
	"github.com/quadrate-lang/quadrate/loader"
	"github.com/quadrate-lang/quadrate/parser"
	"github.com/quadrate-lang/quadrate/sema"
)

func newBuildCmd(cfg *config.Config) *cobra.Command {
	var outDir string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build <file.qd>",
		Short: "Compile a Quadrate program to C sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = cfg.OutDir
			}
			return runBuild(cfg, args[0], outDir, !noCache && cfg.CacheEnabled)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory for generated sources")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the build cache")
	return cmd
}

func runBuild(cfg *config.Config, path, outDir string, useCache bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	reporter := diag.NewReporter("quad", os.Stderr)

	var cache *db.Cache
	if useCache {
		if conn, err := db.Connect(cfg.CachePath, cfg.Debug); err == nil {
			if c, err := db.NewCache(conn, "build"); err == nil {
				cache = c
				defer cache.Close()
			}
		}
	}

	digest := db.Digest(source)
	var diags []diag.Diagnostic
	result := parser.Parse(string(source), path)

	if cache != nil {
		if cached, _, ok, err := cache.Lookup(path, digest); err == nil && ok {
			diags = cached
		} else {
			diags = check(result, path)
			_ = cache.Store(path, digest, diags, symbolsOf(result))
		}
	} else {
		diags = check(result, path)
	}

	if diag.HasErrors(diags) {
		reporter.ReportAll(diags)
		return fmt.Errorf("%s: %d error(s)", path, countErrors(diags))
	}

	entries, err := loader.New().Resolve(result.Root, filepath.Dir(path))
	if err != nil {
		reporter.Report(diag.Errorf(diag.Loader, diag.Span{File: path}, "%v", err))
		return err
	}

	mainName := strings.TrimSuffix(filepath.Base(path), loader.Suffix)
	emitter := cgen.New(outDir)
	if err := codegen.Generate(emitter, mainName, result.Root, entries); err != nil {
		return err
	}

	for _, f := range emitter.Files() {
		fmt.Println(filepath.Join(outDir, f.Path))
	}
	return nil
}

func check(result *parser.Result, path string) []diag.Diagnostic {
	diags := append([]diag.Diagnostic{}, result.Errors...)
	return append(diags, sema.Validate(result.Root, path)...)
}

func symbolsOf(result *parser.Result) []db.Symbol {
	var symbols []db.Symbol
	root := result.Root
	for i := 0; i < root.ChildCount(); i++ {
		n := root.Child(i)
		if n.Type() != ast.FunctionDeclaration {
			continue
		}
		pos := n.Position()
		symbols = append(symbols, db.Symbol{
			Name:   n.Name,
			Line:   pos.Line,
			Column: pos.Column,
		})
	}
	return symbols
}

func countErrors(diags []diag.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == diag.Error {
			n++
		}
	}
	return n
}
