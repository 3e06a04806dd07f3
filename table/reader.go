package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

// TimeLayout is how timestamps are written. Parsing also accepts a missing
// or longer fraction and RFC 3339.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Table is a CSV table held in memory.
type Table struct {
	Path    string
	Header  []string
	Records [][]string
	index   map[string]int
}

// Load reads the table at path.
func Load(fsys afero.Fs, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingInputFileError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, &EmptyInputError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	t := &Table{Path: path, Header: header, Records: records, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, ok := t.index[h]; !ok {
			t.index[h] = i
		}
	}
	return t, nil
}

// Has reports whether the table has column col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.Records) }

// Column returns the cells of col.
func (t *Table) Column(col string) ([]string, error) {
	i, ok := t.index[col]
	if !ok {
		return nil, &MissingColumnError{Path: t.Path, Column: col}
	}
	out := make([]string, len(t.Records))
	for j, rec := range t.Records {
		out[j] = rec[i]
	}
	return out, nil
}

// Floats parses col as numbers. Empty cells become NaN.
func (t *Table) Floats(col string) ([]float64, error) {
	cells, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		if out[i], err = strconv.ParseFloat(c, 64); err != nil {
			return nil, fmt.Errorf("%s: %s row %d: %w", t.Path, col, i+1, err)
		}
	}
	return out, nil
}

// Times parses col as timestamps in loc.
func (t *Table) Times(col string, loc *time.Location) ([]time.Time, error) {
	cells, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(cells))
	for i, c := range cells {
		if out[i], err = ParseTime(c, loc); err != nil {
			return nil, fmt.Errorf("%s: %s row %d: %w", t.Path, col, i+1, err)
		}
	}
	return out, nil
}

// ParseTime reads a timestamp cell.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, loc)
	if err == nil {
		return ts, nil
	}
	if ts, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
		return ts, nil
	}
	return time.Time{}, err
}
