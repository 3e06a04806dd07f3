package bag

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	topic string
	ts    int64
	data  string
}

func writeBag(t *testing.T, dir string, records []record, opts ...WriterOption) {
	t.Helper()
	w, err := Create(dir, opts...)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, r := range records {
		if !seen[r.topic] {
			require.NoError(t, w.AddConnection(r.topic, "std_msgs/msg/Float64MultiArray"))
			seen[r.topic] = true
		}
		require.NoError(t, w.Write(r.topic, r.ts, []byte(r.data)))
	}
	require.NoError(t, w.Close())
}

func readAll(t *testing.T, r *Reader, conns []Connection) []record {
	t.Helper()
	it, err := r.Messages(conns)
	require.NoError(t, err)
	defer it.Close()
	var out []record
	for it.Next() {
		m := it.Message()
		out = append(out, record{m.Connection.Topic, m.Timestamp, string(m.Data)})
	}
	require.NoError(t, it.Err())
	return out
}

var sample = []record{
	{"/b/command", 30, "b30"},
	{"/a/command", 10, "a10"},
	{"/joint_states", 15, "j15"},
	{"/a/command", 40, "a40"},
	{"/b/command", 20, "b20"},
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0644))
	noMeta := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(noMeta, 0755))
	badMeta := filepath.Join(dir, "bad")
	require.NoError(t, os.Mkdir(badMeta, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(badMeta, MetadataFile),
		[]byte("rosbag2_bagfile_information:\n  version: 5\n  storage_identifier: mcap\n"), 0644))
	noFiles := filepath.Join(dir, "nofiles")
	require.NoError(t, os.Mkdir(noFiles, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(noFiles, MetadataFile),
		[]byte("rosbag2_bagfile_information:\n  version: 5\n  storage_identifier: sqlite3\n"), 0644))

	for _, p := range []string{filepath.Join(dir, "missing"), plain, noMeta, badMeta, noFiles} {
		t.Run(filepath.Base(p), func(t *testing.T) {
			r, err := Open(p)
			assert.Nil(t, r)
			var oe *OpenError
			require.True(t, errors.As(err, &oe), "got %v", err)
			assert.Equal(t, p, oe.Path)
		})
	}
}

func TestOpenVersion9(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bag")
	writeBag(t, dir, sample)

	// Jazzy records offered_qos_profiles as a list.
	path := filepath.Join(dir, MetadataFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw = regexp.MustCompile(`(?m)^(\s*)version: 5$`).ReplaceAll(raw, []byte("${1}version: 9"))
	raw = regexp.MustCompile(`(?m)^(\s*)offered_qos_profiles: ""$`).ReplaceAll(raw,
		[]byte("${1}offered_qos_profiles:\n${1}  - history: keep_last\n${1}    depth: 10"))
	require.Contains(t, string(raw), "- history: keep_last")
	require.NoError(t, os.WriteFile(path, raw, 0644))

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"/a/command", "/b/command", "/joint_states"}, Topics(r.Connections()))
	assert.Len(t, readAll(t, r, r.Connections()), len(sample))
}

func TestCreateExisting(t *testing.T) {
	_, err := Create(t.TempDir())
	assert.Error(t, err)
}

func TestConnections(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bag")
	writeBag(t, dir, sample)

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	conns := r.Connections()
	assert.Equal(t, []string{"/a/command", "/b/command", "/joint_states"}, Topics(conns))
	assert.Equal(t, int64(2), conns[0].MessageCount)
	assert.Equal(t, "cdr", conns[0].SerializationFormat)

	assert.Equal(t, []string{"/a/command", "/b/command"}, Topics(r.Filter(TopicSuffix("/command"))))
	assert.Equal(t, []string{"/joint_states"}, Topics(r.Filter(TopicEquals("/joint_states"))))
	assert.Empty(t, r.Filter(TopicEquals("/nothing")))

	info := r.Info()
	assert.Equal(t, int64(5), info.MessageCount)
	assert.Equal(t, StorageSQLite3, info.StorageIdentifier)
	assert.Equal(t, int64(30), info.Duration.Nanoseconds())
	require.Len(t, info.Files, 1)
	assert.Positive(t, info.Files[0].Size)
}

func TestMessagesOrder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bag")
	writeBag(t, dir, sample)

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	got := readAll(t, r, r.Filter(TopicSuffix("/command")))
	assert.Equal(t, []record{
		{"/a/command", 10, "a10"},
		{"/b/command", 20, "b20"},
		{"/b/command", 30, "b30"},
		{"/a/command", 40, "a40"},
	}, got)

	// A second iterator starts over.
	assert.Equal(t, got, readAll(t, r, r.Filter(TopicSuffix("/command"))))
	assert.Empty(t, readAll(t, r, nil))
}

func TestVariants(t *testing.T) {
	want := []record{
		{"/a/command", 10, "a10"},
		{"/joint_states", 15, "j15"},
		{"/b/command", 20, "b20"},
		{"/b/command", 30, "b30"},
		{"/a/command", 40, "a40"},
	}
	// Split files are read in file order, so records are written in time
	// order here.
	ordered := append([]record(nil), want...)

	tests := []struct {
		name string
		opts []WriterOption
	}{
		{"plain", nil},
		{"split", []WriterOption{WithSplit(2)}},
		{"file", []WriterOption{WithCompression(CompressFile), WithSplit(3)}},
		{"message", []WriterOption{WithCompression(CompressMessage)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "bag")
			writeBag(t, dir, ordered, tt.opts...)

			r, err := Open(dir)
			require.NoError(t, err)
			assert.Equal(t, want, readAll(t, r, r.Connections()))
			conns := r.Connections()
			require.Len(t, conns, 3)
			assert.Equal(t, int64(2), conns[0].MessageCount)
			require.NoError(t, r.Close())
		})
	}
}

func TestScanWithoutFileList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bag")
	writeBag(t, dir, sample[:2], WithSplit(1))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile),
		[]byte("rosbag2_bagfile_information:\n  version: 5\n  storage_identifier: sqlite3\n"), 0644))

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, r.Info().Files, 2)
	assert.Equal(t, []record{
		{"/b/command", 30, "b30"},
		{"/a/command", 10, "a10"},
	}, readAll(t, r, r.Connections()))
}

func TestClosed(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bag")
	writeBag(t, dir, sample)
	r, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	_, err = r.Messages(r.Connections())
	assert.Error(t, err)
}
