package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quadrate-lang/quadrate/format"
)

func newUsesCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "uses <file.qd>",
		Short: "Normalize use statements",
		Long: "Rewrite the use block so it declares exactly the modules the code\n" +
			"references, sorted by name. Without -w the result is written to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			result, err := format.NormalizeUses(string(src), path)
			if err != nil {
				return err
			}

			if write {
				if result != string(src) {
					if err := writeFileAtomic(path, []byte(result)); err != nil {
						return err
					}
				}
				cmd.Printf("%s: updated use statements\n", path)
				return nil
			}
			cmd.Print(result)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result back to the source file")
	return cmd
}
