// Convert the joint states of a ROS2 bag to a csv table.
package main

import (
	"github.com/spf13/cobra"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/cli"
	"github.com/FuminoriSugawara/rosbag2-util/extract"
)

func newCommand() *cobra.Command {
	var output, topic string
	var joints []string
	c := &cobra.Command{
		Use:   "joints2csv BAGPATH",
		Short: "Convert ROS2 joint_states messages from a rosbag to CSV",
		Args:  cobra.ExactArgs(1),
	}
	c.Flags().StringVarP(&output, "output", "o", "joint_states.csv", "output CSV file")
	c.Flags().StringVar(&topic, "topic", extract.DefaultJointTopic, "joint state topic")
	c.Flags().StringSliceVar(&joints, "joints", extract.DefaultJoints(), "joint names in column order")

	return cli.NewCommand(c, func(env *cli.Env, cmd *cobra.Command, args []string) error {
		cfg := &env.Config.JointStates
		cfg.Output = cli.Pick(cmd, "output", output, cfg.Output)
		cfg.Topic = cli.Pick(cmd, "topic", topic, cfg.Topic)
		cfg.Joints = cli.Pick(cmd, "joints", joints, cfg.Joints)
		if err := env.Config.Validate(); err != nil {
			return err
		}
		output, topic, joints := cfg.Output, cfg.Topic, cfg.Joints

		env.Printf("Converting ROS2 bag from '%s' to CSV file '%s'...\n", args[0], output)
		r, err := bag.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		s, err := extract.JointStates(r, output, topic, joints, extract.Options{
			Fs:       env.Fs,
			Location: env.Location,
			Logger:   env.Logger,
		})
		if err != nil {
			return err
		}
		env.Printf("Conversion complete! Processed %d messages (%d skipped).\n", s.Rows, s.Skipped)
		return nil
	})
}

func main() {
	cli.Execute(newCommand())
}
