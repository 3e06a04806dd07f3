// Plot measured joint effort against the commanded value, one chart per
// joint.
package main

import (
	"github.com/spf13/cobra"

	"github.com/FuminoriSugawara/rosbag2-util/chart"
	"github.com/FuminoriSugawara/rosbag2-util/cli"
)

func newCommand() *cobra.Command {
	var jointStates, commands, outDir string
	c := &cobra.Command{
		Use:   "effortplot",
		Short: "Plot joint effort and command comparison charts from CSV files",
		Args:  cobra.NoArgs,
	}
	c.Flags().StringVarP(&jointStates, "joint-states", "j", "", "joint states CSV file")
	c.Flags().StringVarP(&commands, "commands", "c", "", "commands CSV file")
	c.Flags().StringVarP(&outDir, "output-dir", "o", "effort_command_plots", "output directory for plots")
	c.MarkFlagRequired("joint-states")
	c.MarkFlagRequired("commands")

	return cli.NewCommand(c, func(env *cli.Env, cmd *cobra.Command, args []string) error {
		outDir := cli.Pick(cmd, "output-dir", outDir, env.Config.Plot.ComparisonDir)
		in, err := chart.LoadInputs(env.Fs, jointStates, commands, env.Location)
		if err != nil {
			return err
		}
		written, err := chart.Comparison(in, outDir, chart.Options{
			Fs:       env.Fs,
			DPI:      env.Config.Plot.DPI,
			Location: env.Location,
			Logger:   env.Logger,
		})
		for _, path := range written {
			env.Printf("Saved plot to: %s\n", path)
		}
		if len(written) == 0 && err == nil {
			env.Printf("No joint effort data found in %s\n", jointStates)
		}
		return err
	})
}

func main() {
	cli.Execute(newCommand())
}
