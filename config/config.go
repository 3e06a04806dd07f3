// Package config holds the settings shared by the commands, read from a YAML
// or TOML file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type CommandsConfig struct {
	// Topics ending in this suffix carry command arrays, e.g. "/command"
	TopicSuffix string `yaml:"topic_suffix" toml:"topic_suffix"`
	Output      string `yaml:"output" toml:"output"`
}

type JointStatesConfig struct {
	Topic  string `yaml:"topic" toml:"topic"`
	Output string `yaml:"output" toml:"output"`
	// Column order of the table, e.g. joint_1 .. joint_7
	Joints []string `yaml:"joints" toml:"joints"`
}

type PlotConfig struct {
	DPI int `yaml:"dpi" toml:"dpi"`
	// Output directories of the comparison and all-states charts
	ComparisonDir string `yaml:"comparison_dir" toml:"comparison_dir"`
	StatesDir     string `yaml:"states_dir" toml:"states_dir"`
	JointNumber   int    `yaml:"joint_number" toml:"joint_number"`
}

type LoggingConfig struct {
	// debug, info, warn or error
	Level string `yaml:"level" toml:"level"`
	// Optional log file, rotated by size
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// Top-level document
type Config struct {
	// IANA zone for table timestamps and chart axes; empty means local time
	Timezone    string            `yaml:"timezone" toml:"timezone"`
	Commands    CommandsConfig    `yaml:"commands" toml:"commands"`
	JointStates JointStatesConfig `yaml:"joint_states" toml:"joint_states"`
	Plot        PlotConfig        `yaml:"plot" toml:"plot"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

func Default() *Config {
	joints := make([]string, 7)
	for i := range joints {
		joints[i] = fmt.Sprintf("joint_%d", i+1)
	}
	return &Config{
		Commands: CommandsConfig{
			TopicSuffix: "/command",
			Output:      "commands.csv",
		},
		JointStates: JointStatesConfig{
			Topic:  "/joint_states",
			Output: "joint_states.csv",
			Joints: joints,
		},
		Plot: PlotConfig{
			DPI:           300,
			ComparisonDir: "effort_command_plots",
			StatesDir:     "joint_states_plots",
			JointNumber:   1,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .yaml, .yml or .toml.
func Load(fs afero.Fs, path string) (*Config, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	case ".toml":
		_, err = toml.Decode(string(raw), cfg)
	default:
		return nil, fmt.Errorf("config %s: unknown format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func (c *Config) Validate() error {
	var errs []error
	if c.Commands.TopicSuffix == "" {
		errs = append(errs, errors.New("commands.topic_suffix is empty"))
	}
	if c.JointStates.Topic == "" {
		errs = append(errs, errors.New("joint_states.topic is empty"))
	}
	if len(c.JointStates.Joints) == 0 {
		errs = append(errs, errors.New("joint_states.joints is empty"))
	}
	seen := make(map[string]bool)
	for _, j := range c.JointStates.Joints {
		if j == "" || seen[j] {
			errs = append(errs, fmt.Errorf("joint_states.joints: empty or repeated joint %q", j))
		}
		seen[j] = true
	}
	if c.Plot.DPI <= 0 {
		errs = append(errs, fmt.Errorf("plot.dpi %d is not positive", c.Plot.DPI))
	}
	if c.Plot.JointNumber < 0 {
		errs = append(errs, fmt.Errorf("plot.joint_number %d is negative", c.Plot.JointNumber))
	}
	if !levels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}
