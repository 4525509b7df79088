// Package record reads the JSON documents and JSONL streams of a dataset.
//
// Logical names are encoding-free: for every name the reader probes the plain
// variant first, then the gzip sibling (`name` + ".gz"), so packs can mix
// compressed and uncompressed files without consumers knowing which is which.
//
// # Documents vs Streams
//
//   - Get decodes a whole document (manifests, indexes, word chunks)
//   - Lines streams a JSONL file record by record (names chunks), keeping
//     peak memory bounded by the largest single record
//
// Failures split into *StorageError (file missing in both encodings, IO
// failure) and *DecodeError (gunzip or JSON failure). Decode errors are
// permanent: datasets are immutable, so retrying cannot help.
package record
