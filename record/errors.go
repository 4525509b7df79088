package record

import "fmt"

// StorageError reports that a pack file could not be located or read in any
// encoding. It carries the logical name, not the physical variant that failed.
type StorageError struct {
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DecodeError reports that a pack file was located but its contents could not
// be decoded (gunzip or JSON failure). Decode errors are never retried: the
// dataset is immutable, so the same bytes fail the same way.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
