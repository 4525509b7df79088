package packsource

import (
	"context"
	"encoding/binary"
	"errors"
	"io"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
)

// Caching wraps a Source and adds block-level caching. It is meant for slow
// backends (object stores); wrapping a Local source buys nothing over the
// page cache.
//
// Blocks are LZ4-compressed before they enter the cache, so the configured
// cache capacity stretches further on the highly redundant JSON packs.
type Caching struct {
	inner     Source
	cache     BlockCache
	blockSize int64
}

// NewCaching creates a new Caching source.
// blockSize defaults to 64KB if <= 0.
func NewCaching(inner Source, cache BlockCache, blockSize int64) *Caching {
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}
	return &Caching{
		inner:     inner,
		cache:     cache,
		blockSize: blockSize,
	}
}

// Open opens a pack file for reading through the cache.
func (s *Caching) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// List delegates to the inner source.
func (s *Caching) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// cachingBlob wraps a Blob and serves reads from the block cache.
type cachingBlob struct {
	inner     Blob
	cache     BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	// Fetch missing blocks first so contiguous misses coalesce into single
	// backend requests.
	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	totalRead := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize

		// Intersection of [blkStart, blkStart+blockSize) with [off, off+len(p))
		intersectStart := max(blkStart, off)
		intersectEnd := min(blkStart+b.blockSize, off+int64(len(p)))
		if intersectEnd <= intersectStart {
			continue
		}

		blockData, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return totalRead, err
		}

		srcOffset := intersectStart - blkStart
		dstOffset := intersectStart - off
		copySize := int(intersectEnd - intersectStart)

		// The last block of a file is usually short.
		if srcOffset >= int64(len(blockData)) {
			break
		}
		if srcOffset+int64(copySize) > int64(len(blockData)) {
			copySize = len(blockData) - int(srcOffset)
		}

		totalRead += copy(p[dstOffset:dstOffset+int64(copySize)], blockData[srcOffset:])
	}

	if totalRead < len(p) {
		return totalRead, io.EOF
	}
	return totalRead, nil
}

// fillCache ensures that the blocks in the given range are loaded into the
// cache, fetching contiguous runs of missing blocks in single backend
// requests.
func (b *cachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	type run struct {
		start, count int64
	}
	var missing []run

	runStart := int64(-1)
	runCount := int64(0)
	for blk := startBlock; blk <= endBlock; blk++ {
		key := CacheKey{Path: b.name, Block: uint64(blk)}
		if _, ok := b.cache.Get(ctx, key); !ok {
			if runStart == -1 {
				runStart = blk
				runCount = 1
			} else {
				runCount++
			}
			continue
		}
		if runStart != -1 {
			missing = append(missing, run{runStart, runCount})
			runStart = -1
			runCount = 0
		}
	}
	if runStart != -1 {
		missing = append(missing, run{runStart, runCount})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			byteSize := r.count * b.blockSize

			fileSize := b.Size()
			if byteStart >= fileSize {
				return nil
			}
			if byteStart+byteSize > fileSize {
				byteSize = fileSize - byteStart
			}

			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(ctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if n == 0 {
				return nil
			}
			validData := buf[:n]

			for i := int64(0); i < r.count; i++ {
				offsetInRun := i * b.blockSize
				if offsetInRun >= int64(len(validData)) {
					break
				}
				endInRun := min(offsetInRun+b.blockSize, int64(len(validData)))

				key := CacheKey{Path: b.name, Block: uint64(r.start + i)}
				b.cache.Set(ctx, key, packBlock(validData[offsetInRun:endInRun]))
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchBlock returns the uncompressed bytes of one block, from the cache if
// present, otherwise from the backend.
func (b *cachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	key := CacheKey{Path: b.name, Block: uint64(blk)}

	if data, ok := b.cache.Get(ctx, key); ok {
		out, err := unpackBlock(data)
		if err == nil {
			return out, nil
		}
		// A block that fails to unpack is treated as a miss.
	}

	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	validData := buf[:n]

	if n > 0 {
		b.cache.Set(ctx, key, packBlock(validData))
	}
	return validData, nil
}

// ReadRange serves ranged reads through the block cache via ReadAt.
func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: off + length}), nil
}

// contextSectionReader wraps cachingBlob to implement io.Reader with context.
type contextSectionReader struct {
	blob  *cachingBlob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (n int, err error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && r.off < r.limit {
		return n, io.ErrUnexpectedEOF
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// Cached blocks are framed as
// [UncompressedSize uint32][CompressedSize uint32][Data...];
// CompressedSize == 0 means the data is stored raw.
const blockHeaderSize = 8

func packBlock(data []byte) []byte {
	bound := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, blockHeaderSize+bound)

	n, err := lz4.CompressBlock(data, compressed[blockHeaderSize:], nil)
	// n == 0 means incompressible; store raw. Compression that saves less
	// than 10% is not worth the decode on every hit either.
	if err != nil || n == 0 || float64(n) > float64(len(data))*0.9 {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], data)
		return out
	}

	binary.LittleEndian.PutUint32(compressed[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(compressed[4:], uint32(n))
	return compressed[:blockHeaderSize+n]
}

func unpackBlock(data []byte) ([]byte, error) {
	if len(data) < blockHeaderSize {
		return nil, errors.New("cached block too small for header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[0:])
	compressedSize := binary.LittleEndian.Uint32(data[4:])

	if compressedSize == 0 {
		if uint32(len(data)) < blockHeaderSize+uncompressedSize {
			return nil, errors.New("cached block truncated")
		}
		return data[blockHeaderSize : blockHeaderSize+uncompressedSize], nil
	}

	if uint32(len(data)) < blockHeaderSize+compressedSize {
		return nil, errors.New("cached block truncated")
	}

	out := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[blockHeaderSize:blockHeaderSize+compressedSize], out)
	if err != nil {
		return nil, err
	}
	if uint32(n) != uncompressedSize {
		return nil, errors.New("cached block size mismatch")
	}
	return out, nil
}
