// Make a synthetic ROS2 bag with joint states and effort commands, for
// trying the converters without a robot.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/cli"
	"github.com/FuminoriSugawara/rosbag2-util/extract"
	"github.com/FuminoriSugawara/rosbag2-util/msgs"
)

const commandTopic = "/effort_controller/command"

type mockConfig struct {
	messages    int
	joints      int
	rate        float64
	compression string
	split       int
	shuffle     bool
	seed        int64
	start       time.Time
}

var compressionModes = map[string]bag.CompressionMode{
	"none":    bag.CompressNone,
	"file":    bag.CompressFile,
	"message": bag.CompressMessage,
}

// mock writes the bag at dir. Joint i moves along a sine of its own phase;
// the command leads the measured effort slightly and is logged half a
// period of the record rate later.
func mock(dir string, cfg mockConfig) error {
	mode, ok := compressionModes[strings.ToLower(cfg.compression)]
	if !ok {
		return fmt.Errorf("compression %q is not one of none, file, message", cfg.compression)
	}
	opts := []bag.WriterOption{bag.WithCompression(mode)}
	if cfg.split > 0 {
		opts = append(opts, bag.WithSplit(cfg.split))
	}
	w, err := bag.Create(dir, opts...)
	if err != nil {
		return err
	}
	if err := w.AddConnection(extract.DefaultJointTopic, msgs.TypeJointState); err != nil {
		w.Close()
		return err
	}
	if err := w.AddConnection(commandTopic, msgs.MultiArrayType("Float64")); err != nil {
		w.Close()
		return err
	}

	rng := rand.New(rand.NewSource(cfg.seed))
	period := time.Duration(float64(time.Second) / cfg.rate)
	names := make([]string, cfg.joints)
	for j := range names {
		names[j] = fmt.Sprintf("joint_%d", j+1)
	}
	for i := 0; i < cfg.messages; i++ {
		stamp := cfg.start.Add(time.Duration(i) * period)
		t := stamp.Sub(cfg.start).Seconds()

		order := rng.Perm(cfg.joints)
		if !cfg.shuffle {
			for j := range order {
				order[j] = j
			}
		}
		js := &msgs.JointState{
			Header: msgs.Header{
				Stamp:   msgs.Time{Sec: int32(stamp.Unix()), Nanosec: uint32(stamp.Nanosecond())},
				FrameID: "base_link",
			},
			Name:     make([]string, cfg.joints),
			Position: make([]float64, cfg.joints),
			Velocity: make([]float64, cfg.joints),
			Effort:   make([]float64, cfg.joints),
		}
		command := make([]float64, cfg.joints)
		for k, j := range order {
			phase := float64(j) * math.Pi / 4
			js.Name[k] = names[j]
			js.Position[k] = math.Sin(t + phase)
			js.Velocity[k] = math.Cos(t + phase)
			js.Effort[k] = 2*math.Sin(2*t+phase) + rng.NormFloat64()*0.05
			command[j] = 2 * math.Sin(2*(t+0.05)+phase)
		}

		// The bag records receipt time, a little after the header stamp.
		if err := w.Write(extract.DefaultJointTopic, stamp.Add(time.Millisecond).UnixNano(), js.Encode()); err != nil {
			w.Close()
			return err
		}
		if err := w.Write(commandTopic, stamp.Add(period/2).UnixNano(), msgs.NewFloat64MultiArray(command).Encode()); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func newCommand() *cobra.Command {
	var cfg mockConfig
	var name string
	c := &cobra.Command{
		Use:   "bagmock ROOT",
		Short: "Write a synthetic ROS2 bag into the existing directory ROOT",
		Args:  cobra.ExactArgs(1),
	}
	c.Flags().IntVar(&cfg.messages, "messages", 100, "joint state records, each with one command")
	c.Flags().IntVar(&cfg.joints, "joints", 7, "number of joints")
	c.Flags().Float64Var(&cfg.rate, "rate", 100, "records per second")
	c.Flags().StringVar(&cfg.compression, "compression", "none", "none, file or message")
	c.Flags().IntVar(&cfg.split, "split", 0, "start a new storage file after this many messages")
	c.Flags().BoolVar(&cfg.shuffle, "shuffle", true, "list joints in a random order in each record")
	c.Flags().Int64Var(&cfg.seed, "seed", 1, "random seed")
	c.Flags().StringVar(&name, "name", "", "bag directory name (default rosbag2_<uuid>)")

	return cli.NewCommand(c, func(env *cli.Env, cmd *cobra.Command, args []string) error {
		root := args[0]
		// mock does not create the root
		if fi, err := os.Stat(root); err != nil {
			return err
		} else if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", root)
		}
		if cfg.messages <= 0 || cfg.joints <= 0 || cfg.rate <= 0 {
			return fmt.Errorf("--messages, --joints and --rate must be positive")
		}
		if name == "" {
			name = "rosbag2_" + uuid.NewString()
		}
		cfg.start = time.Now().Truncate(time.Second)
		dir := filepath.Join(root, name)
		env.Logger.Infow("writing mock bag", "bag", dir, "messages", cfg.messages, "joints", cfg.joints)
		if err := mock(dir, cfg); err != nil {
			return err
		}
		env.Printf("%s\n", dir)
		return nil
	})
}

func main() {
	cli.Execute(newCommand())
}
