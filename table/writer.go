// Package table writes and reads the CSV tables produced by the extraction
// commands.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/FuminoriSugawara/rosbag2-util/fsutil"
)

// ErrRowWidth is returned by Write for a row whose length differs from the
// header.
var ErrRowWidth = errors.New("row width differs from header")

// Writer emits a header line followed by fixed-width rows.
type Writer struct {
	csv    *csv.Writer
	header []string
	rows   int
}

// NewWriter writes header to w at once.
func NewWriter(w io.Writer, header []string) (*Writer, error) {
	if len(header) == 0 {
		return nil, errors.New("empty header")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	return &Writer{csv: cw, header: append([]string(nil), header...)}, nil
}

// Write appends one row.
func (w *Writer) Write(row []string) error {
	if len(row) != len(w.header) {
		return fmt.Errorf("%w: got %d fields, want %d", ErrRowWidth, len(row), len(w.header))
	}
	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Rows is the number of data rows written.
func (w *Writer) Rows() int { return w.rows }

func (w *Writer) Header() []string { return w.header }

func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// File is a Writer onto a file that replaces path only when committed.
type File struct {
	*Writer
	f *fsutil.AtomicFile
}

// Create starts the table at path. Nothing appears at path until Commit;
// Close without Commit leaves any previous file untouched.
func Create(fs afero.Fs, path string, header []string) (*File, error) {
	f, err := fsutil.CreateAtomic(fs, path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, header)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{Writer: w, f: f}, nil
}

// Path is the destination of the table.
func (t *File) Path() string { return t.f.Path() }

func (t *File) Commit() error {
	if err := t.Flush(); err != nil {
		t.f.Close()
		return fmt.Errorf("write %s: %w", t.f.Path(), err)
	}
	return t.f.Commit()
}

func (t *File) Close() error {
	return t.f.Close()
}
