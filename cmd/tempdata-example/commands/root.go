// Package commands holds the tempdata-example CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "tempdata-example",
		Short:        "Weather form demonstrating TempData across redirects",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), keygenCmd())
	return root
}
