package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quadrate-lang/quadrate/lsp"
)

func newLspCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return lsp.NewServer(os.Stdin, os.Stdout).Serve()
		},
	}
}
