package extract

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/msgs"
)

type entry struct {
	topic   string
	msgtype string
	ts      int64
	data    []byte
}

func command(topic string, ts int64, values ...float64) entry {
	return entry{topic, msgs.MultiArrayType("Float64"), ts, msgs.NewFloat64MultiArray(values).Encode()}
}

func jointState(ts int64, js *msgs.JointState) entry {
	return entry{DefaultJointTopic, msgs.TypeJointState, ts, js.Encode()}
}

func openBag(t *testing.T, entries ...entry) *bag.Reader {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "bag")
	w, err := bag.Create(dir)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, e := range entries {
		if !seen[e.topic] {
			require.NoError(t, w.AddConnection(e.topic, e.msgtype))
			seen[e.topic] = true
		}
		require.NoError(t, w.Write(e.topic, e.ts, e.data))
	}
	require.NoError(t, w.Close())

	r, err := bag.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func testOptions() Options {
	return Options{Fs: afero.NewMemMapFs(), Location: time.UTC}
}

func readOutput(t *testing.T, opts Options, path string) []string {
	t.Helper()
	raw, err := afero.ReadFile(opts.Fs, path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    float64
		kind msgs.Kind
		want string
	}{
		{1, msgs.KindFloat64, "1.0"},
		{0, msgs.KindFloat64, "0.0"},
		{-0.5, msgs.KindFloat64, "-0.5"},
		{123.456, msgs.KindFloat64, "123.456"},
		{0.0001, msgs.KindFloat64, "0.0001"},
		{1e-05, msgs.KindFloat64, "1e-05"},
		{1e16, msgs.KindFloat64, "1e+16"},
		{9999999999999998, msgs.KindFloat64, "9999999999999998.0"},
		{1.5e300, msgs.KindFloat64, "1.5e+300"},
		{float64(float32(0.1)), msgs.KindFloat32, "0.1"},
		{float64(float32(2)), msgs.KindFloat32, "2.0"},
		{3, msgs.KindInt, "3"},
		{-2, msgs.KindInt, "-2"},
		{math.NaN(), msgs.KindFloat64, "nan"},
		{math.Inf(1), msgs.KindFloat64, "inf"},
		{math.Inf(-1), msgs.KindFloat32, "-inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.v, tt.kind), "%v", tt.v)
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2023-11-14 22:13:20.000000", FormatNanos(1700000000000000000, time.UTC))
	assert.Equal(t, "2023-11-14 22:13:20.500000", FormatSeconds(1700000000.5, time.UTC))
	// The fraction rounds up into the next second.
	assert.Equal(t, "1970-01-01 00:00:02.000000", FormatSeconds(1.9999999999, time.UTC))

	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, "2023-11-15 07:13:20.000000", FormatNanos(1700000000000000000, tokyo))
}

func TestCommands(t *testing.T) {
	r := openBag(t, command("/command", 1700000000000000000, 1, 2, 3))
	opts := testOptions()

	s, err := Commands(r, "out/commands.csv", DefaultCommandSuffix, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"timestamp,topic,command_1,command_2,command_3",
		"2023-11-14 22:13:20.000000,/command,1.0,2.0,3.0",
	}, readOutput(t, opts, "out/commands.csv"))
	assert.Equal(t, 1, s.Rows)
	assert.Equal(t, 1, s.Records)
	assert.Equal(t, 5, s.Columns)
	assert.NotEmpty(t, s.RunID)
}

func TestCommandsSkips(t *testing.T) {
	r := openBag(t,
		entry{"/text/command", "std_msgs/msg/String", 1, []byte{0, 1, 0, 0, 2, 0, 0, 0, 'a', 0}},
		command("/arm/command", 2, 1, 2),
		command("/grip/command", 3, 0.5, 1e-05),
		command("/grip/command", 4, 1),
		jointState(5, &msgs.JointState{Name: []string{"joint_1"}, Position: []float64{1}}),
		entry{"/text/command", "std_msgs/msg/String", 6, []byte{0, 1, 0, 0, 2, 0, 0, 0, 'a', 0}},
	)
	opts := testOptions()

	s, err := Commands(r, "c.csv", DefaultCommandSuffix, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"/arm/command", "/grip/command", "/text/command"}, s.Topics)
	assert.Equal(t, 5, s.Records)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 3, s.Skipped)

	lines := readOutput(t, opts, "c.csv")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,topic,command_1,command_2", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",/arm/command,1.0,2.0"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",/grip/command,0.5,1e-05"), lines[2])
	for _, l := range lines {
		assert.Equal(t, 3, strings.Count(l, ","))
	}
}

func TestNoMatchingChannels(t *testing.T) {
	r := openBag(t, command("/cmd", 1, 1))
	opts := testOptions()

	_, err := Commands(r, "c.csv", DefaultCommandSuffix, opts)
	var nm *NoMatchingChannelsError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, DefaultCommandSuffix, nm.Match)

	_, err = JointStates(r, "j.csv", DefaultJointTopic, DefaultJoints(), opts)
	require.True(t, errors.As(err, &nm))

	for _, p := range []string{"c.csv", "j.csv"} {
		ok, err := afero.Exists(opts.Fs, p)
		require.NoError(t, err)
		assert.False(t, ok, p)
	}
}

func TestDeterministic(t *testing.T) {
	var entries []entry
	for i := int64(0); i < 50; i++ {
		topic := "/a/command"
		if i%3 == 0 {
			topic = "/b/command"
		}
		entries = append(entries, command(topic, 1700000000000000000+i*1000003, float64(i), float64(i)/7))
	}
	r := openBag(t, entries...)
	opts := testOptions()

	s, err := Commands(r, "one.csv", DefaultCommandSuffix, opts)
	require.NoError(t, err)
	assert.Equal(t, len(entries), s.Rows)
	_, err = Commands(r, "two.csv", DefaultCommandSuffix, opts)
	require.NoError(t, err)

	one, err := afero.ReadFile(opts.Fs, "one.csv")
	require.NoError(t, err)
	two, err := afero.ReadFile(opts.Fs, "two.csv")
	require.NoError(t, err)
	assert.Equal(t, one, two)
}

func TestIndexMap(t *testing.T) {
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, IndexMap([]string{"a", "b", "a"}))
	assert.Empty(t, IndexMap(nil))
}

func TestJointStateRow(t *testing.T) {
	opts := testOptions()
	joints := []string{"joint_1", "joint_2"}
	stamp := msgs.Header{Stamp: msgs.Time{Sec: 1700000000, Nanosec: 250000000}}

	row, err := JointStateRow(&msgs.JointState{
		Header:   stamp,
		Name:     []string{"joint_2", "joint_1"},
		Position: []float64{9, 1},
		Velocity: []float64{0.5, -0.5},
		Effort:   []float64{3, 4},
	}, joints, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-11-14 22:13:20.250000", "1.0", "-0.5", "4.0", "9.0", "0.5", "3.0"}, row)

	permuted, err := JointStateRow(&msgs.JointState{
		Header:   stamp,
		Name:     []string{"joint_1", "extra", "joint_2"},
		Position: []float64{1, 7, 9},
		Velocity: []float64{-0.5, 7, 0.5},
		Effort:   []float64{4, 7, 3},
	}, joints, opts)
	require.NoError(t, err)
	assert.Equal(t, row, permuted)
	assert.Len(t, row, len(JointStateHeader(joints)))
}

func TestJointStateRowMissing(t *testing.T) {
	opts := testOptions()
	joints := []string{"joint_1", "joint_2"}

	_, err := JointStateRow(&msgs.JointState{
		Name:     []string{"joint_1"},
		Position: []float64{1},
		Velocity: []float64{1},
		Effort:   []float64{1},
	}, joints, opts)
	var mj *MissingJointError
	require.True(t, errors.As(err, &mj))
	assert.Equal(t, "joint_2", mj.Joint)
	assert.Empty(t, mj.Field)

	_, err = JointStateRow(&msgs.JointState{
		Name:     []string{"joint_1", "joint_2"},
		Position: []float64{1, 2},
		Velocity: []float64{1, 2},
		Effort:   []float64{1},
	}, joints, opts)
	require.True(t, errors.As(err, &mj))
	assert.Equal(t, "joint_2", mj.Joint)
	assert.Equal(t, "effort", mj.Field)
}

func TestJointStates(t *testing.T) {
	full := func(sec int32) *msgs.JointState {
		return &msgs.JointState{
			Header:   msgs.Header{Stamp: msgs.Time{Sec: sec}},
			Name:     DefaultJoints(),
			Position: []float64{1, 2, 3, 4, 5, 6, 7},
			Velocity: make([]float64, 7),
			Effort:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7},
		}
	}
	partial := full(1700000002)
	partial.Name = partial.Name[:6]

	r := openBag(t,
		jointState(10, full(1700000000)),
		entry{DefaultJointTopic, msgs.TypeJointState, 20, []byte{0, 1, 0, 0, 1}},
		jointState(30, partial),
		jointState(40, full(1700000001)),
		command("/command", 50, 1),
	)
	opts := testOptions()

	s, err := JointStates(r, "js.csv", DefaultJointTopic, DefaultJoints(), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 22, s.Columns)

	lines := readOutput(t, opts, "js.csv")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,joint_1_pos,joint_1_vel,joint_1_effort,joint_2_pos,"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], ",joint_7_pos,joint_7_vel,joint_7_effort"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2023-11-14 22:13:20.000000,1.0,0.0,0.1,2.0,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2023-11-14 22:13:21.000000,"), lines[2])

	_, err = JointStates(r, "js.csv", DefaultJointTopic, nil, opts)
	assert.Error(t, err)
}
