// Plot command, position, velocity and current of one joint as stacked
// charts.
package main

import (
	"github.com/spf13/cobra"

	"github.com/FuminoriSugawara/rosbag2-util/chart"
	"github.com/FuminoriSugawara/rosbag2-util/cli"
)

func newCommand() *cobra.Command {
	var jointStates, commands, outDir string
	var joint int
	c := &cobra.Command{
		Use:   "stateplot",
		Short: "Plot joint states and commands from CSV files",
		Example: "  stateplot -j joint_states.csv -c commands.csv -n 1 -o output_dir\n" +
			"  stateplot --joint-states data/joint_states.csv --commands data/commands.csv --joint-number 2",
		Args: cobra.NoArgs,
	}
	c.Flags().StringVarP(&jointStates, "joint-states", "j", "", "joint states CSV file")
	c.Flags().StringVarP(&commands, "commands", "c", "", "commands CSV file")
	c.Flags().IntVarP(&joint, "joint-number", "n", 1, "joint number to analyze")
	c.Flags().StringVarP(&outDir, "output-dir", "o", "joint_states_plots", "output directory for plots")
	c.MarkFlagRequired("joint-states")
	c.MarkFlagRequired("commands")

	return cli.NewCommand(c, func(env *cli.Env, cmd *cobra.Command, args []string) error {
		cfg := &env.Config.Plot
		cfg.StatesDir = cli.Pick(cmd, "output-dir", outDir, cfg.StatesDir)
		cfg.JointNumber = cli.Pick(cmd, "joint-number", joint, cfg.JointNumber)
		if err := env.Config.Validate(); err != nil {
			return err
		}
		outDir, joint := cfg.StatesDir, cfg.JointNumber
		in, err := chart.LoadInputs(env.Fs, jointStates, commands, env.Location)
		if err != nil {
			return err
		}
		path, err := chart.AllStates(in, joint, outDir, chart.Options{
			Fs:       env.Fs,
			DPI:      env.Config.Plot.DPI,
			Location: env.Location,
			Logger:   env.Logger,
		})
		if err != nil {
			return err
		}
		env.Printf("Saved plot to: %s\n", path)
		return nil
	})
}

func main() {
	cli.Execute(newCommand())
}
