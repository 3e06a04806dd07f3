// Convert the command arrays of a ROS2 bag to a csv table.
package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/cli"
	"github.com/FuminoriSugawara/rosbag2-util/extract"
)

func newCommand() *cobra.Command {
	var output, suffix string
	c := &cobra.Command{
		Use:   "cmd2csv BAGPATH",
		Short: "Convert ROS2 command messages from a rosbag to CSV",
		Args:  cobra.ExactArgs(1),
	}
	c.Flags().StringVarP(&output, "output", "o", "commands.csv", "output CSV file")
	c.Flags().StringVar(&suffix, "topic-suffix", extract.DefaultCommandSuffix, "convert topics ending in this suffix")

	return cli.NewCommand(c, func(env *cli.Env, cmd *cobra.Command, args []string) error {
		cfg := &env.Config.Commands
		cfg.Output = cli.Pick(cmd, "output", output, cfg.Output)
		cfg.TopicSuffix = cli.Pick(cmd, "topic-suffix", suffix, cfg.TopicSuffix)
		if err := env.Config.Validate(); err != nil {
			return err
		}
		output, suffix := cfg.Output, cfg.TopicSuffix

		env.Printf("Reading ROS2 bag from '%s'...\n", args[0])
		r, err := bag.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		s, err := extract.Commands(r, output, suffix, extract.Options{
			Fs:       env.Fs,
			Location: env.Location,
			Logger:   env.Logger,
		})
		if err != nil {
			return err
		}
		env.Printf("Found command topics: %s\n", strings.Join(s.Topics, ", "))
		env.Printf("Command values saved to: %s\n", s.Output)
		env.Printf("Conversion complete!\n")
		env.Printf("Processed %d command messages (%d skipped)\n", s.Rows, s.Skipped)
		return nil
	})
}

func main() {
	cli.Execute(newCommand())
}
