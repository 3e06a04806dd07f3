// Package bag reads and writes rosbag2 directories stored as SQLite3
// databases, optionally zstd compressed.
package bag

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"

	_ "github.com/mattn/go-sqlite3"
)

type storageDB struct {
	path string
	db   *sql.DB
	// connectionKey -> topics.id in this database
	topicIDs map[string]int64
}

// Reader gives sequential read access to one bag.
type Reader struct {
	path   string
	info   *bagInformation
	files  []StorageFile
	dbs    []*storageDB
	conns  []Connection
	tmpDir string
	dec    *zstd.Decoder
}

// Open opens the bag directory at path. Any failure is an *OpenError.
func Open(path string) (*Reader, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if !fi.IsDir() {
		return nil, &OpenError{Path: path, Err: errors.New("not a bag directory")}
	}
	info, err := readMetadata(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	files, err := storageFiles(path, info)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	r := &Reader{path: path, info: info, files: files}
	if err := r.open(); err != nil {
		r.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	return r, nil
}

func (r *Reader) open() error {
	if r.info.CompressionMode == CompressMessage {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return err
		}
		r.dec = dec
	}

	counts := make(map[string]int64)
	for _, t := range r.info.TopicsWithMessageCount {
		counts[connectionKey(t.TopicMetadata.Name, t.TopicMetadata.Type)] = t.MessageCount
	}

	merged := make(map[string]*Connection)
	for _, f := range r.files {
		p := f.Path
		if r.info.CompressionMode == CompressFile {
			if r.tmpDir == "" {
				dir, err := os.MkdirTemp("", "rosbag2-*")
				if err != nil {
					return err
				}
				r.tmpDir = dir
			}
			var err error
			if p, err = decompressFile(p, r.tmpDir); err != nil {
				return err
			}
		}

		s, err := openStorage(p)
		if err != nil {
			return err
		}
		r.dbs = append(r.dbs, s)

		topics, err := s.topics()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		for _, c := range topics {
			key := connectionKey(c.Topic, c.MsgType)
			if _, ok := merged[key]; !ok {
				c := c
				c.MessageCount = counts[key]
				merged[key] = &c
			}
		}
	}

	for _, c := range merged {
		r.conns = append(r.conns, *c)
	}
	sort.Slice(r.conns, func(i, j int) bool {
		if r.conns[i].Topic != r.conns[j].Topic {
			return r.conns[i].Topic < r.conns[j].Topic
		}
		return r.conns[i].MsgType < r.conns[j].MsgType
	})
	for i := range r.conns {
		r.conns[i].ID = i
	}
	return nil
}

func openStorage(path string) (*storageDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &storageDB{path: path, db: db, topicIDs: make(map[string]int64)}, nil
}

func (s *storageDB) topics() ([]Connection, error) {
	rows, err := s.db.Query(
		"SELECT id, name, type, serialization_format, offered_qos_profiles FROM topics ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var id int64
		var c Connection
		if err := rows.Scan(&id, &c.Topic, &c.MsgType, &c.SerializationFormat, &c.OfferedQoSProfiles); err != nil {
			return nil, err
		}
		s.topicIDs[connectionKey(c.Topic, c.MsgType)] = id
		out = append(out, c)
	}
	return out, rows.Err()
}

// Path is the bag directory.
func (r *Reader) Path() string { return r.path }

// Connections returns every channel of the bag sorted by topic.
func (r *Reader) Connections() []Connection {
	out := make([]Connection, len(r.conns))
	copy(out, r.conns)
	return out
}

// Filter returns the connections selected by pred, sorted by topic.
func (r *Reader) Filter(pred Predicate) []Connection {
	var out []Connection
	for _, c := range r.conns {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// Info summarizes a bag.
type Info struct {
	Path              string
	Version           int
	StorageIdentifier string
	CompressionFormat string
	CompressionMode   CompressionMode
	Start             time.Time
	Duration          time.Duration
	MessageCount      int64
	Files             []StorageFile
	Connections       []Connection
}

func (r *Reader) Info() Info {
	files := make([]StorageFile, len(r.files))
	copy(files, r.files)
	return Info{
		Path:              r.path,
		Version:           r.info.Version,
		StorageIdentifier: r.info.StorageIdentifier,
		CompressionFormat: r.info.CompressionFormat,
		CompressionMode:   r.info.CompressionMode,
		Start:             time.Unix(0, r.info.StartingTime.NanosecondsSinceEpoch),
		Duration:          time.Duration(r.info.Duration.Nanoseconds),
		MessageCount:      r.info.MessageCount,
		Files:             files,
		Connections:       r.Connections(),
	}
}

// Close releases every database, decoder and temporary file of the bag.
func (r *Reader) Close() error {
	var err error
	for _, s := range r.dbs {
		err = multierr.Append(err, s.db.Close())
	}
	r.dbs = nil
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
	if r.tmpDir != "" {
		err = multierr.Append(err, os.RemoveAll(r.tmpDir))
		r.tmpDir = ""
	}
	return err
}
