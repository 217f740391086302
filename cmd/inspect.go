package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/chargersim/datarecording"
	"github.com/sarchlab/chargersim/report"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <recording.sqlite3>",
		Short: "Print the iterations stored in a recording.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			onlyOnsets, _ := cmd.Flags().GetBool("overcharge")

			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			if onlyOnsets {
				return printOnsets(cmd, reader)
			}

			return printSamples(cmd, reader)
		},
	}

	cmd.Flags().Bool("overcharge", false,
		"Only print the iterations in which the overcharge latch tripped")

	return cmd
}

func printSamples(cmd *cobra.Command, reader datarecording.DataReader) error {
	samples, err := report.LoadSamples(cmd.Context(), reader)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "iter\tbat\tchg\tfast\tv_pin\tt_pin\tvoltage\ttemp\tphase\t")

	for _, s := range samples {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t\n",
			s.Iteration, s.BatteryPresent, s.Charging, s.FastCharging,
			s.VoltagePin, s.ThermistorPin, s.Voltage, s.Temperature, s.Phase)
	}

	return w.Flush()
}

func printOnsets(cmd *cobra.Command, reader datarecording.DataReader) error {
	onsets, err := report.LoadOnsets(cmd.Context(), reader)
	if err != nil {
		return err
	}

	if len(onsets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No overcharge recorded.")
		return nil
	}

	for _, o := range onsets {
		fmt.Fprintf(cmd.OutOrStdout(),
			"Overcharge at iteration %d: voltage pin %d, voltage %d, temperature %d\n",
			o.Iteration, o.VoltagePin, o.Voltage, o.Temperature)
	}

	return nil
}
