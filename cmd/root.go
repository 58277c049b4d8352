package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "quantree",
	Short: "Quantum tree codec toolkit",
	Long: `Quantree scans directory trees into the quantum wire format: a compact
binary stream that flattens an entire tree into self-describing entries.
Stored streams can be decoded into JSON, a classic tree view, a hex field
dump, or aggregate statistics without materializing an intermediate tree.`,
}

// Execute executes the root command.
func Execute() error {
	return RootCmd.Execute()
}

// ExecuteWithContext executes the root command with the given context.
func ExecuteWithContext(ctx context.Context) error {
	// Set the context for the command
	RootCmd.SetContext(ctx)
	return RootCmd.Execute()
}
