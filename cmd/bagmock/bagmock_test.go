package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/extract"
)

func TestMockConverts(t *testing.T) {
	for _, compression := range []string{"none", "file", "message"} {
		t.Run(compression, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "bag")
			cfg := mockConfig{
				messages:    10,
				joints:      3,
				rate:        50,
				compression: compression,
				split:       7,
				shuffle:     true,
				seed:        7,
				start:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			}
			require.NoError(t, mock(dir, cfg))

			r, err := bag.Open(dir)
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, []string{commandTopic, extract.DefaultJointTopic}, bag.Topics(r.Connections()))

			opts := extract.Options{Fs: afero.NewMemMapFs(), Location: time.UTC}
			joints := []string{"joint_1", "joint_2", "joint_3"}
			s, err := extract.JointStates(r, "js.csv", extract.DefaultJointTopic, joints, opts)
			require.NoError(t, err)
			assert.Equal(t, 10, s.Rows)
			assert.Zero(t, s.Skipped)

			raw, err := afero.ReadFile(opts.Fs, "js.csv")
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
			require.Len(t, lines, 11)
			// Header stamps, not receipt times.
			assert.True(t, strings.HasPrefix(lines[1], "2024-01-02 03:04:05.000000,"), lines[1])
			assert.True(t, strings.HasPrefix(lines[2], "2024-01-02 03:04:05.020000,"), lines[2])
			// joint_1 has phase zero: position sin(0), velocity cos(0).
			assert.True(t, strings.HasPrefix(lines[1], "2024-01-02 03:04:05.000000,0.0,1.0,"), lines[1])

			s, err = extract.Commands(r, "c.csv", extract.DefaultCommandSuffix, opts)
			require.NoError(t, err)
			assert.Equal(t, 10, s.Rows)
			assert.Equal(t, 5, s.Columns)
		})
	}
}

func TestMockErrors(t *testing.T) {
	root := t.TempDir()
	cfg := mockConfig{messages: 1, joints: 1, rate: 1, compression: "lz4", start: time.Unix(1700000000, 0)}
	assert.Error(t, mock(filepath.Join(root, "a"), cfg))

	cfg.compression = "none"
	require.NoError(t, mock(filepath.Join(root, "b"), cfg))
	assert.Error(t, mock(filepath.Join(root, "b"), cfg))
}

func TestCommand(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	c := newCommand()
	c.SetArgs([]string{root, "--name", "trial", "--messages", "5", "--shuffle=false"})
	c.SetOut(&out)
	require.NoError(t, c.Execute())
	assert.Equal(t, filepath.Join(root, "trial")+"\n", out.String())

	c = newCommand()
	c.SetArgs([]string{filepath.Join(root, "missing")})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	assert.Error(t, c.Execute())
}
