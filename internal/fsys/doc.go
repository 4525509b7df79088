// Package fsys provides a read-side filesystem abstraction for testability.
//
// The package defines two interfaces:
//
//   - [File]: An open file with sequential and positional read access
//   - [FileSystem]: Read-oriented filesystem operations (open, stat, readdir)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using the standard os package
//   - [FaultyFS]: Test utility that injects read errors by path pattern
//
// Production code should use fsys.Default (which is [LocalFS]).
//
// # Design Notes
//
// This package intentionally does NOT include context.Context parameters.
// Local filesystem reads are fast and non-interruptible at the syscall level.
// For slow backends (e.g. S3), use [packsource.Blob] which has context support.
package fsys
