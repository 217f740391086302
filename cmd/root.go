// Package cmd provides the command-line interface of chargersim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// NewRootCommand creates the chargersim command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "chargersim",
		Short: "chargersim runs battery-charger firmware against a simulated battery.",
		Long: `chargersim runs battery-charger firmware against a simulated ` +
			`battery. Every simulated second the controller loop runs once, ` +
			`then the battery model answers to the outputs it set.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newPresetsCommand())
	root.AddCommand(newInspectCommand())

	return root
}

// Execute runs the command line and exits through atexit so that recordings
// are flushed.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
