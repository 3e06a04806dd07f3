package bag

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

// Metadata version written by Writer, as recorded by ROS2 Humble.
const writeVersion = 5

// Storage schema of a rosbag2 sqlite3 database.
func schema() []string {
	return []string{
		`CREATE TABLE schema(schema_version INTEGER PRIMARY KEY, ros_distro TEXT NOT NULL);`,
		`INSERT INTO schema(schema_version, ros_distro) VALUES (3, 'humble');`,
		`CREATE TABLE topics(id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT NOT NULL, serialization_format TEXT NOT NULL, offered_qos_profiles TEXT NOT NULL);`,
		`CREATE TABLE messages(id INTEGER PRIMARY KEY, topic_id INTEGER NOT NULL, timestamp INTEGER NOT NULL, data BLOB NOT NULL);`,
		`CREATE INDEX timestamp_idx ON messages (timestamp ASC);`,
	}
}

type writerTopic struct {
	id    int64
	meta  topicMetadata
	count int64
}

// WriterOption configures Create.
type WriterOption func(*Writer)

// WithCompression compresses the bag with zstd, per storage file or per
// message.
func WithCompression(mode CompressionMode) WriterOption {
	return func(w *Writer) { w.mode = mode }
}

// WithSplit starts a new storage file after every n messages.
func WithSplit(n int) WriterOption {
	return func(w *Writer) { w.split = n }
}

// Writer records a new bag. It is used to synthesize bags; it does not aim
// to match every detail of the ROS2 recorder.
type Writer struct {
	dir   string
	mode  CompressionMode
	split int

	db    *sql.DB
	tx    *sql.Tx
	path  string
	file  fileInformation
	files []fileInformation
	paths []string

	topics  []*writerTopic
	byTopic map[string]*writerTopic
	enc     *zstd.Encoder

	start, end int64
	count      int64
}

// Create makes the bag directory dir, which must not exist yet.
func Create(dir string, opts ...WriterOption) (*Writer, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("bag %s already exists", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	w := &Writer{dir: dir, byTopic: make(map[string]*writerTopic)}
	for _, o := range opts {
		o(w)
	}
	if w.mode == CompressMessage {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		w.enc = enc
	}
	if err := w.openFile(); err != nil {
		w.abort()
		return nil, err
	}
	return w, nil
}

func (w *Writer) openFile() error {
	name := fmt.Sprintf("%s_%d%s", filepath.Base(w.dir), len(w.paths), storageExt)
	w.path = filepath.Join(w.dir, name)
	db, err := sql.Open("sqlite3", w.path)
	if err != nil {
		return err
	}
	w.db = db
	for _, stmt := range schema() {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%v: %s", err, stmt)
		}
	}
	for _, t := range w.topics {
		if err := w.insertTopic(t); err != nil {
			return err
		}
	}
	if w.tx, err = db.Begin(); err != nil {
		return err
	}
	w.file = fileInformation{Path: name}
	return nil
}

func (w *Writer) closeFile() error {
	var err error
	if w.tx != nil {
		err = multierr.Append(err, w.tx.Commit())
		w.tx = nil
	}
	if w.db != nil {
		err = multierr.Append(err, w.db.Close())
		w.db = nil
	}
	w.files = append(w.files, w.file)
	w.paths = append(w.paths, w.path)
	return err
}

func (w *Writer) insertTopic(t *writerTopic) error {
	_, err := w.db.Exec(
		"INSERT INTO topics(id, name, type, serialization_format, offered_qos_profiles) VALUES(?, ?, ?, ?, ?)",
		t.id, t.meta.Name, t.meta.Type, t.meta.SerializationFormat, string(t.meta.OfferedQoSProfiles))
	return err
}

// AddConnection declares topic with message type msgtype.
func (w *Writer) AddConnection(topic, msgtype string) error {
	if _, ok := w.byTopic[topic]; ok {
		return fmt.Errorf("topic %s already added", topic)
	}
	t := &writerTopic{
		id:   int64(len(w.topics) + 1),
		meta: topicMetadata{Name: topic, Type: msgtype, SerializationFormat: "cdr"},
	}
	// The writer transaction holds the only connection of a fresh database,
	// so topics go through it.
	if _, err := w.tx.Exec(
		"INSERT INTO topics(id, name, type, serialization_format, offered_qos_profiles) VALUES(?, ?, ?, ?, ?)",
		t.id, t.meta.Name, t.meta.Type, t.meta.SerializationFormat, string(t.meta.OfferedQoSProfiles)); err != nil {
		return err
	}
	w.topics = append(w.topics, t)
	w.byTopic[topic] = t
	return nil
}

// Write records one CDR payload on topic at ts nanoseconds since the epoch.
func (w *Writer) Write(topic string, ts int64, data []byte) error {
	t, ok := w.byTopic[topic]
	if !ok {
		return fmt.Errorf("topic %s was not added", topic)
	}
	if w.split > 0 && w.file.MessageCount >= int64(w.split) {
		if err := w.closeFile(); err != nil {
			return err
		}
		if err := w.openFile(); err != nil {
			return err
		}
	}
	if w.enc != nil {
		data = w.enc.EncodeAll(data, nil)
	}
	if _, err := w.tx.Exec("INSERT INTO messages(topic_id, timestamp, data) VALUES(?, ?, ?)", t.id, ts, data); err != nil {
		return err
	}

	if w.count == 0 || ts < w.start {
		w.start = ts
	}
	if ts > w.end {
		w.end = ts
	}
	if w.file.MessageCount == 0 || ts < w.file.StartingTime.NanosecondsSinceEpoch {
		w.file.StartingTime.NanosecondsSinceEpoch = ts
	}
	if end := w.file.StartingTime.NanosecondsSinceEpoch + w.file.Duration.Nanoseconds; ts > end {
		w.file.Duration.Nanoseconds = ts - w.file.StartingTime.NanosecondsSinceEpoch
	}
	w.file.MessageCount++
	t.count++
	w.count++
	return nil
}

func (w *Writer) abort() {
	if w.tx != nil {
		w.tx.Rollback()
	}
	if w.db != nil {
		w.db.Close()
	}
	if w.enc != nil {
		w.enc.Close()
	}
}

// Close finishes the storage files and writes metadata.yaml.
func (w *Writer) Close() error {
	err := w.closeFile()
	if w.enc != nil {
		err = multierr.Append(err, w.enc.Close())
		w.enc = nil
	}
	if err != nil {
		return err
	}

	info := &bagInformation{
		Version:           writeVersion,
		StorageIdentifier: StorageSQLite3,
		Duration:          nanoseconds{w.end - w.start},
		StartingTime:      nanosecondsSinceEpoch{w.start},
		MessageCount:      w.count,
		CompressionMode:   w.mode,
		Files:             w.files,
	}
	if w.mode != CompressNone {
		info.CompressionFormat = CompressionZstd
	}
	for _, t := range w.topics {
		info.TopicsWithMessageCount = append(info.TopicsWithMessageCount,
			topicWithCount{TopicMetadata: t.meta, MessageCount: t.count})
	}
	for i, p := range w.paths {
		if w.mode == CompressFile {
			if p, err = compressFile(p); err != nil {
				return err
			}
			info.Files[i].Path = filepath.Base(p)
		}
		info.RelativeFilePaths = append(info.RelativeFilePaths, filepath.Base(p))
	}
	return writeMetadata(w.dir, info)
}
