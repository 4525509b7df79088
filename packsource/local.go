package packsource

import (
	"bytes"
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/lexgo/internal/fsys"
	"github.com/hupe1980/lexgo/internal/mmap"
)

// Local implements Source using the local file system.
type Local struct {
	root string
	fs   fsys.FileSystem
}

// NewLocal creates a new Local source rooted at the given directory.
func NewLocal(root string) *Local {
	return &Local{root: root, fs: fsys.Default}
}

// Open opens a pack file for reading.
func (s *Local) Open(_ context.Context, name string) (Blob, error) {
	p := filepath.Join(s.root, filepath.FromSlash(name))

	// Existence goes through the fsys seam so tests can inject open
	// failures; a missing file surfaces as ErrNotFound via os.ErrNotExist.
	if _, err := s.fs.Stat(p); err != nil {
		return nil, err
	}

	// Pack files are mmap'd: lookups touch small slices of large chunk
	// files, and the page cache is shared across concurrent readers.
	m, err := mmap.Open(p)
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// List returns all pack files under root starting with prefix, as
// slash-separated paths.
func (s *Local) List(_ context.Context, prefix string) ([]string, error) {
	var names []string

	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := s.fs.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		for _, e := range entries {
			child := path.Join(rel, e.Name())
			if e.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			if strings.HasPrefix(child, prefix) {
				names = append(names, child)
			}
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	end := off + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return io.NopCloser(bytes.NewReader(data[off:end])), nil
}

func (b *localBlob) Size() int64 {
	return int64(len(b.m.Bytes()))
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Bytes() ([]byte, error) {
	return b.m.Bytes(), nil
}
