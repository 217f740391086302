package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/chargersim/config"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the simulation presets.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range config.PresetNames() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n",
					name, config.PresetDescription(name))
			}
		},
	}
}
