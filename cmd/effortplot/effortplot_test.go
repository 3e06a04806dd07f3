package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, jointStates string) (dir, settings string) {
	t.Helper()
	dir = t.TempDir()
	settings = filepath.Join(dir, "settings.toml")
	require.NoError(t, os.WriteFile(settings, []byte("timezone = \"UTC\"\n[plot]\ndpi = 20\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js.csv"), []byte(jointStates), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd.csv"), []byte("timestamp,topic,command_1\n"+
		"2023-11-14 22:13:20.000000,/command,1.0\n"), 0o644))
	return dir, settings
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	c := newCommand()
	c.SetArgs(args)
	c.SetOut(&out)
	c.SetErr(&bytes.Buffer{})
	err := c.Execute()
	return out.String(), err
}

func TestPlot(t *testing.T) {
	dir, settings := setup(t, "timestamp,joint_1_pos,joint_1_effort\n"+
		"2023-11-14 22:13:20.000000,0.5,1.5\n"+
		"2023-11-14 22:13:21.000000,0.6,1.7\n")
	outDir := filepath.Join(dir, "plots")

	summary, err := run("-j", filepath.Join(dir, "js.csv"), "-c", filepath.Join(dir, "cmd.csv"),
		"-o", outDir, "--config", settings)
	require.NoError(t, err)
	want := filepath.Join(outDir, "joint_1_comparison.png")
	assert.Equal(t, "Saved plot to: "+want+"\n", summary)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNoEffort(t *testing.T) {
	dir, settings := setup(t, "timestamp,joint_1_pos\n2023-11-14 22:13:20.000000,0.5\n")
	summary, err := run("-j", filepath.Join(dir, "js.csv"), "-c", filepath.Join(dir, "cmd.csv"),
		"-o", filepath.Join(dir, "plots"), "--config", settings)
	require.NoError(t, err)
	assert.Contains(t, summary, "No joint effort data found")
	_, err = os.Stat(filepath.Join(dir, "plots"))
	assert.True(t, os.IsNotExist(err))
}

func TestMissingInput(t *testing.T) {
	dir, settings := setup(t, "timestamp,joint_1_effort\n")
	_, err := run("-j", filepath.Join(dir, "nope.csv"), "-c", filepath.Join(dir, "cmd.csv"),
		"-o", filepath.Join(dir, "plots"), "--config", settings)
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(dir, "plots"))
	assert.True(t, os.IsNotExist(err))

	// Both flags are required.
	_, err = run("-j", filepath.Join(dir, "js.csv"))
	assert.Error(t, err)
}
