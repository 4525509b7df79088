// Package packsource provides storage abstraction for immutable dataset packs.
//
// Source is the interface for reading pack files (manifests, indexes, chunks).
// Implementations must be safe for concurrent use. Datasets are built offline
// and never mutated, so the surface is strictly read-only.
//
// # Built-in Implementations
//
//   - Local: Local filesystem with mmap-backed reads
//   - Memory: In-memory source for tests and fixtures
//   - Caching: Block-level LRU cache around a slower source
//   - s3.Source: Amazon S3 with range reads
//   - minio.Source: S3-compatible object stores via the MinIO client
//
// # Custom Implementations
//
// Implement the Source interface to support custom backends:
//
//	type Source interface {
//	    Open(ctx, name) (Blob, error)       // Open for reading
//	    List(ctx, prefix) ([]string, error) // Enumerate pack files
//	}
//
// For remote backends, implement ReadRange for efficient partial reads:
//
//	type Blob interface {
//	    ReadAt(ctx, p, off) (int, error)
//	    ReadRange(ctx, off, length) (io.ReadCloser, error)
//	    Size() int64
//	    Close() error
//	}
package packsource
