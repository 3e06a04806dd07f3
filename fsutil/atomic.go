// Package fsutil writes output files so that readers see either the previous
// content or the complete new content, never a partial file.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileMode is the permission of published files. Temporary files start
// private.
const FileMode os.FileMode = 0o644

// WriteFileAtomic writes data to path through a temporary sibling file and a
// rename. Parent directories are created as needed.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	f, err := CreateAtomic(fs, path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	return f.Commit()
}

// AtomicFile buffers writes in a temporary file next to its destination.
// Commit publishes it; Close without Commit discards it.
type AtomicFile struct {
	fs   afero.Fs
	tmp  afero.File
	path string
	done bool
}

// CreateAtomic starts an atomic write of path.
func CreateAtomic(fs afero.Fs, path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicFile{fs: fs, tmp: tmp, path: path}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.tmp.Write(p)
}

// Name is the temporary file being written.
func (a *AtomicFile) Name() string {
	return a.tmp.Name()
}

// Path is the destination.
func (a *AtomicFile) Path() string {
	return a.path
}

// Commit syncs the temporary file, makes it world readable and renames it
// over the destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("%s already closed", a.path)
	}
	a.done = true
	tmpPath := a.tmp.Name()
	if err := a.tmp.Sync(); err != nil {
		a.tmp.Close()
		a.fs.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := a.tmp.Close(); err != nil {
		a.fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := a.fs.Chmod(tmpPath, FileMode); err != nil {
		a.fs.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := a.fs.Rename(tmpPath, a.path); err != nil {
		a.fs.Remove(tmpPath)
		return fmt.Errorf("rename temp file to %s: %w", a.path, err)
	}
	return nil
}

// Close discards the temporary file unless Commit succeeded or failed
// already. It is safe to defer alongside Commit.
func (a *AtomicFile) Close() error {
	if a.done {
		return nil
	}
	a.done = true
	tmpPath := a.tmp.Name()
	a.tmp.Close()
	return a.fs.Remove(tmpPath)
}
