// Package cli has the plumbing shared by the commands: global flags, the
// settings file, logging and summary output.
package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/FuminoriSugawara/rosbag2-util/config"
	"github.com/FuminoriSugawara/rosbag2-util/log"
)

// Env is what a command runs with. Config holds the defaults, overlaid by
// the --config file; explicit flags are applied by the command with Pick.
type Env struct {
	Config   *config.Config
	Logger   *zap.SugaredLogger
	Fs       afero.Fs
	Location *time.Location
	Out      io.Writer

	printer *message.Printer
}

// Printf writes a summary line with grouped digits.
func (e *Env) Printf(format string, args ...any) {
	e.printer.Fprintf(e.Out, format, args...)
}

type globals struct {
	configPath string
	logLevel   string
	logFile    string
}

// RunFunc is the body of a command.
type RunFunc func(env *Env, cmd *cobra.Command, args []string) error

// NewCommand adds the global flags to c and runs run with a ready Env.
func NewCommand(c *cobra.Command, run RunFunc) *cobra.Command {
	var g globals
	c.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML or TOML settings file")
	c.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error (default from config)")
	c.PersistentFlags().StringVar(&g.logFile, "log-file", "", "also write JSON logs to this rotated file")
	c.SilenceUsage = true
	c.RunE = func(cmd *cobra.Command, args []string) error {
		env, closeLog, err := setup(g, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeLog()
		return run(env, cmd, args)
	}
	return c
}

func setup(g globals, out io.Writer) (*Env, func() error, error) {
	env := &Env{
		Fs:      afero.NewOsFs(),
		Out:     out,
		printer: message.NewPrinter(language.English),
	}
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(env.Fs, g.configPath); err != nil {
			return nil, nil, err
		}
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFile != "" {
		cfg.Logging.File = g.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := log.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	env.Config, env.Logger, env.Location = cfg, logger, loc
	return env, closeLog, nil
}

// Pick returns the value of flag name if it was given on the command line,
// otherwise the configured value.
func Pick[T any](cmd *cobra.Command, name string, flagValue, configured T) T {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configured
}

// Execute runs c and exits with status 1 on failure. Cobra has already
// printed the error.
func Execute(c *cobra.Command) {
	if err := c.Execute(); err != nil {
		os.Exit(1)
	}
}
