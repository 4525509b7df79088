package lexgo

import "io"

// Close releases resources held by this Engine.
//
// This is primarily useful for sources that hold open handles (remote
// clients, caches); the local mmap source maps and unmaps per read and
// needs no teardown.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	var firstErr error
	if c, ok := e.src.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
