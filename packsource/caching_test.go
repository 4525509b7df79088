package packsource

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBlob struct {
	data      []byte
	reads     int
	readBytes int
}

func (m *mockBlob) Close() error { return nil }
func (m *mockBlob) Size() int64  { return int64(len(m.data)) }

func (m *mockBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	m.reads++
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	m.readBytes += n
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *mockBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	end := min(off+length, int64(len(m.data)))
	return io.NopCloser(bytes.NewReader(m.data[off:end])), nil
}

type mockSource struct {
	blobs map[string]*mockBlob
	opens int
}

func (m *mockSource) Open(_ context.Context, name string) (Blob, error) {
	m.opens++
	if b, ok := m.blobs[name]; ok {
		return b, nil
	}
	return nil, ErrNotFound
}

func (m *mockSource) List(_ context.Context, _ string) ([]string, error) { return nil, nil }

func TestCaching_ReadAt(t *testing.T) {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 251)
	}

	inner := &mockSource{
		blobs: map[string]*mockBlob{
			"test": {data: data},
		},
	}

	c := NewLRUCache(1024*1024, nil)
	src := NewCaching(inner, c, 256)

	ctx := context.Background()
	blob, err := src.Open(ctx, "test")
	require.NoError(t, err)
	defer blob.Close()

	// Read inside block 0.
	buf := make([]byte, 100)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[:100], buf)

	mBlob := inner.blobs["test"]
	assert.Equal(t, 1, mBlob.reads)
	assert.Equal(t, 256, mBlob.readBytes)

	// Same range again hits the cache.
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, mBlob.reads)

	// A read spanning block 0 (cached) and block 1 (missing) only fetches
	// block 1.
	buf2 := make([]byte, 100)
	n, err = blob.ReadAt(ctx, buf2, 200)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[200:300], buf2)
	assert.Equal(t, 2, mBlob.reads)
	assert.Equal(t, 256+256, mBlob.readBytes)

	// Block 1 again is a hit.
	_, err = blob.ReadAt(ctx, buf2, 260)
	require.NoError(t, err)
	assert.Equal(t, 2, mBlob.reads)
}

func TestCaching_CoalescesMissingRuns(t *testing.T) {
	data := make([]byte, 10*1024)
	inner := &mockSource{
		blobs: map[string]*mockBlob{
			"test": {data: data},
		},
	}

	src := NewCaching(inner, NewLRUCache(1024*1024, nil), 1024)

	ctx := context.Background()
	blob, err := src.Open(ctx, "test")
	require.NoError(t, err)
	defer blob.Close()

	// 10 contiguous missing blocks coalesce into a single backend read.
	buf := make([]byte, 10*1024)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, 10*1024, n)
	assert.Equal(t, 1, inner.blobs["test"].reads)
}

func TestCaching_ShortFile(t *testing.T) {
	inner := &mockSource{
		blobs: map[string]*mockBlob{
			"small": {data: []byte("hello")},
		},
	}
	src := NewCaching(inner, NewLRUCache(1024, nil), 256)

	ctx := context.Background()
	blob, err := src.Open(ctx, "small")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestCaching_ReadRange(t *testing.T) {
	data := []byte("0123456789abcdef")
	inner := &mockSource{
		blobs: map[string]*mockBlob{
			"test": {data: data},
		},
	}
	src := NewCaching(inner, NewLRUCache(1024, nil), 4)

	ctx := context.Background()
	blob, err := src.Open(ctx, "test")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 2, 8)
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	r.Close()
	assert.Equal(t, "23456789", string(content))
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache(64, nil)
	ctx := context.Background()

	c.Set(ctx, CacheKey{Path: "a", Block: 0}, make([]byte, 24))
	c.Set(ctx, CacheKey{Path: "a", Block: 1}, make([]byte, 24))
	require.Equal(t, int64(48), c.Size())

	// Touch block 0 so block 1 is the LRU victim.
	_, ok := c.Get(ctx, CacheKey{Path: "a", Block: 0})
	require.True(t, ok)

	c.Set(ctx, CacheKey{Path: "a", Block: 2}, make([]byte, 24))

	_, ok = c.Get(ctx, CacheKey{Path: "a", Block: 1})
	assert.False(t, ok)
	_, ok = c.Get(ctx, CacheKey{Path: "a", Block: 0})
	assert.True(t, ok)
	_, ok = c.Get(ctx, CacheKey{Path: "a", Block: 2})
	assert.True(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(3), hits)
	assert.Equal(t, int64(1), misses)

	// Oversized entries are never admitted.
	c.Set(ctx, CacheKey{Path: "big", Block: 0}, make([]byte, 128))
	_, ok = c.Get(ctx, CacheKey{Path: "big", Block: 0})
	assert.False(t, ok)
}

func TestPackBlock_Roundtrip(t *testing.T) {
	// Compressible data takes the LZ4 path.
	compressible := bytes.Repeat([]byte(`{"id":1,"surface":"水"}`), 64)
	packed := packBlock(compressible)
	require.Less(t, len(packed), len(compressible))

	out, err := unpackBlock(packed)
	require.NoError(t, err)
	require.Equal(t, compressible, out)

	// Incompressible data is stored raw.
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i*37 + 11)
	}
	packed = packBlock(raw)
	require.Equal(t, len(raw)+blockHeaderSize, len(packed))

	out, err = unpackBlock(packed)
	require.NoError(t, err)
	require.Equal(t, raw, out)

	// Truncated frames fail loudly.
	_, err = unpackBlock(packed[:4])
	require.Error(t, err)
}
