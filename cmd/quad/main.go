// Command quad is the Quadrate toolchain front end: compiler driver,
// formatter, use-statement normalizer and language server.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quadrate-lang/quadrate/config"
)

var version = "0.1.0"

func main() {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "quad",
		Short:         "Quadrate language toolchain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newBuildCmd(&cfg),
		newFmtCmd(),
		newUsesCmd(),
		newLspCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the toolchain version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("quad version %s\n", version)
		},
	}
}
