package bag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	storageExt = ".db3"
	zstdExt    = ".zstd"
)

// StorageFile is one storage database of a bag.
type StorageFile struct {
	Path string
	Size int64
}

// storageFiles lists the storage files of the bag at dir in read order.
// Listed paths are resolved by base name since older recorders wrote them
// relative to the parent of the bag directory. Without a list, the directory
// is scanned and lexicographic file name order is taken as temporal order.
func storageFiles(dir string, info *bagInformation) ([]StorageFile, error) {
	var names []string
	if len(info.RelativeFilePaths) > 0 {
		for _, p := range info.RelativeFilePaths {
			names = append(names, filepath.Base(p))
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		suffix := storageExt
		if info.CompressionMode == CompressFile {
			suffix += zstdExt
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no storage files in %s", dir)
	}

	files := make([]StorageFile, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			return nil, fmt.Errorf("storage file %s is a directory", p)
		}
		files = append(files, StorageFile{Path: p, Size: fi.Size()})
	}
	return files, nil
}

// decompressFile writes the zstd-compressed storage file src into tmpDir and
// returns the path of the plain database.
func decompressFile(src, tmpDir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return "", err
	}
	defer dec.Close()

	dst := filepath.Join(tmpDir, strings.TrimSuffix(filepath.Base(src), zstdExt))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		return "", fmt.Errorf("decompress %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

// compressFile replaces the storage file src by src+".zstd".
func compressFile(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := src + zstdExt
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	enc, err := zstd.NewWriter(out, zstd.WithEncoderConcurrency(1))
	if err != nil {
		out.Close()
		return "", err
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	in.Close()
	return dst, os.Remove(src)
}
