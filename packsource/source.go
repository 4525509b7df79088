package packsource

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a pack file does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Source is an abstraction for accessing the immutable files of a dataset.
// Implementations must be safe for concurrent use.
type Source interface {
	// Open opens a pack file for reading. Names are slash-separated paths
	// relative to the dataset root.
	Open(ctx context.Context, name string) (Blob, error)

	// List returns the names of all pack files starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a pack file.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off.
	// It returns io.EOF when fewer bytes were available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over the byte range [off, off+length).
	// The reader is only valid until the blob is closed.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64

	Close() error
}

// Mappable is an optional interface for Blobs backed by memory-mapped data.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// Downloader is an optional interface for Sources with a bulk fetch path
// that outperforms ranged reads (e.g. parallel part downloads).
type Downloader interface {
	// Download fetches the full contents of the named pack file.
	Download(ctx context.Context, name string) ([]byte, error)
}

// ReadAll opens the named pack file and returns its full contents.
// The returned slice is owned by the caller.
func ReadAll(ctx context.Context, src Source, name string) ([]byte, error) {
	if d, ok := src.(Downloader); ok {
		return d.Download(ctx, name)
	}

	b, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		if data, err := m.Bytes(); err == nil {
			out := make([]byte, len(data))
			copy(out, data)
			return out, nil
		}
	}

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
