package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/quadrate-lang/quadrate/format"
	"github.com/quadrate-lang/quadrate/loader"
)

func newFmtCmd() *cobra.Command {
	var write bool
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "fmt <file.qd|pattern>...",
		Short: "Format Quadrate source files",
		Long: "Format Quadrate source files. Arguments may be files or doublestar\n" +
			"patterns such as 'src/**/*.qd'. Without -w the formatted source is\n" +
			"written to stdout.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandPatterns(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no %s files matched", loader.Suffix)
			}

			failed := 0
			for _, file := range files {
				if err := formatFile(cmd, file, write, showDiff); err != nil {
					fmt.Fprintf(os.Stderr, "quad: %v\n", err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to source file instead of stdout")
	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "print a unified diff instead of the formatted source")
	return cmd
}

// expandPatterns resolves arguments that contain glob metacharacters against
// the working directory and passes plain paths through.
func expandPatterns(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !hasGlobMeta(arg) {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS("."), arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if filepath.Ext(m) == loader.Suffix {
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func hasGlobMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func formatFile(cmd *cobra.Command, path string, write, showDiff bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	formatted, _, err := format.Source(string(src), path)
	if err != nil {
		return err
	}

	switch {
	case showDiff:
		if formatted == string(src) {
			return nil
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(src)),
			B:        difflib.SplitLines(formatted),
			FromFile: path,
			ToFile:   path + " (formatted)",
			Context:  3,
		})
		if err != nil {
			return err
		}
		cmd.Print(diff)
	case write:
		if formatted == string(src) {
			return nil
		}
		if err := writeFileAtomic(path, []byte(formatted)); err != nil {
			return err
		}
		cmd.Printf("%s\n", path)
	default:
		cmd.Print(formatted)
	}
	return nil
}
