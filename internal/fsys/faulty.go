package fsys

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// FaultyFS is a FileSystem wrapper that can inject read errors.
// It is intended for tests that exercise storage failure paths.
type FaultyFS struct {
	FS FileSystem

	mu       sync.Mutex
	patterns []string
	err      error
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:  fs,
		err: errors.New("injected fault error"),
	}
}

// FailOn makes Open fail for any path containing pattern.
func (f *FaultyFS) FailOn(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
}

// SetErr overrides the injected error.
func (f *FaultyFS) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FaultyFS) shouldFail(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patterns {
		if strings.Contains(name, p) {
			return f.err
		}
	}
	return nil
}

func (f *FaultyFS) Open(name string) (File, error) {
	if err := f.shouldFail(name); err != nil {
		return nil, err
	}
	return f.FS.Open(name)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	if err := f.shouldFail(name); err != nil {
		return nil, err
	}
	return f.FS.Stat(name)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	if err := f.shouldFail(name); err != nil {
		return nil, err
	}
	return f.FS.ReadDir(name)
}
