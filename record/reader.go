package record

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/packsource"
	"github.com/hupe1980/lexgo/resource"
	"github.com/klauspost/compress/gzip"
)

// Encoding identifies the physical encoding of a pack file.
type Encoding string

const (
	EncodingJSON      Encoding = "json"
	EncodingGzipJSON  Encoding = "json.gz"
	EncodingGzipJSONL Encoding = "jsonl.gz"
	EncodingJSONL     Encoding = "jsonl"
)

// EncodingOf derives the encoding from a physical file name.
func EncodingOf(name string) Encoding {
	switch {
	case strings.HasSuffix(name, ".jsonl.gz"):
		return EncodingGzipJSONL
	case strings.HasSuffix(name, ".jsonl"):
		return EncodingJSONL
	case strings.HasSuffix(name, ".gz"):
		return EncodingGzipJSON
	default:
		return EncodingJSON
	}
}

// Reader reads JSON documents and JSONL streams from a pack source,
// transparently resolving the plain/gzip encoding of each logical name.
type Reader struct {
	src packsource.Source
	cdc codec.Codec
	rc  *resource.Controller
}

// NewReader creates a Reader over src. A nil codec selects codec.Default;
// a nil controller disables IO limiting.
func NewReader(src packsource.Source, cdc codec.Codec, rc *resource.Controller) *Reader {
	if cdc == nil {
		cdc = codec.Default
	}
	return &Reader{src: src, cdc: cdc, rc: rc}
}

// Source returns the underlying pack source.
func (r *Reader) Source() packsource.Source { return r.src }

// Codec returns the document codec in use.
func (r *Reader) Codec() codec.Codec { return r.cdc }

// candidates returns the physical names tried for a logical name, in
// preference order: the name as given first, then its encoding sibling.
func candidates(name string) [2]string {
	if strings.HasSuffix(name, ".gz") {
		return [2]string{name, strings.TrimSuffix(name, ".gz")}
	}
	return [2]string{name, name + ".gz"}
}

// Resolve probes both encodings of a logical name and returns the physical
// name that exists. A name that exists in neither encoding yields a
// *StorageError wrapping packsource.ErrNotFound.
func (r *Reader) Resolve(ctx context.Context, name string) (string, error) {
	for _, cand := range candidates(name) {
		b, err := r.src.Open(ctx, cand)
		if errors.Is(err, packsource.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", &StorageError{Name: name, Err: err}
		}
		_ = b.Close()
		return cand, nil
	}
	return "", &StorageError{Name: name, Err: packsource.ErrNotFound}
}

// Exists reports whether a logical name exists in either encoding.
func (r *Reader) Exists(ctx context.Context, name string) (bool, error) {
	_, err := r.Resolve(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, packsource.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Get reads the logical name in whichever encoding exists and decodes the
// whole document into v.
func (r *Reader) Get(ctx context.Context, name string, v any) error {
	for _, cand := range candidates(name) {
		data, err := packsource.ReadAll(ctx, r.src, cand)
		if errors.Is(err, packsource.ErrNotFound) {
			continue
		}
		if err != nil {
			return &StorageError{Name: name, Err: err}
		}

		if strings.HasSuffix(cand, ".gz") {
			data, err = gunzip(ctx, data, r.rc)
			if err != nil {
				return &DecodeError{Name: cand, Err: err}
			}
		}

		if err := r.cdc.Unmarshal(data, v); err != nil {
			return &DecodeError{Name: cand, Err: err}
		}
		return nil
	}
	return &StorageError{Name: name, Err: packsource.ErrNotFound}
}

// Lines streams a JSONL pack file record by record. The iteration is lazy
// and single-pass; calling Lines again starts over. Blank lines are skipped.
// Each yielded slice is only valid until the next iteration step.
//
// Errors surface as the second value exactly once, terminating the sequence:
// *StorageError when the file cannot be opened or read, *DecodeError when
// the gzip stream is corrupt.
func (r *Reader) Lines(ctx context.Context, name string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		resolved, err := r.Resolve(ctx, name)
		if err != nil {
			yield(nil, err)
			return
		}

		blob, err := r.src.Open(ctx, resolved)
		if err != nil {
			yield(nil, &StorageError{Name: name, Err: err})
			return
		}
		defer blob.Close()

		rc, err := blob.ReadRange(ctx, 0, blob.Size())
		if err != nil {
			yield(nil, &StorageError{Name: name, Err: err})
			return
		}
		defer rc.Close()

		var reader io.Reader = rc
		if r.rc != nil {
			reader = resource.NewRateLimitedReader(ctx, reader, r.rc)
		}

		if strings.HasSuffix(resolved, ".gz") {
			gz, err := gzip.NewReader(reader)
			if err != nil {
				yield(nil, &DecodeError{Name: resolved, Err: err})
				return
			}
			defer gz.Close()
			reader = gz
		}

		// Records can be long; ReadBytes grows per line, so peak memory is
		// bounded by the largest single record.
		br := bufio.NewReader(reader)
		for {
			line, err := br.ReadBytes('\n')
			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 {
				if !yield(trimmed, nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(nil, &DecodeError{Name: resolved, Err: err})
				}
				return
			}
		}
	}
}

func gunzip(ctx context.Context, data []byte, rc *resource.Controller) ([]byte, error) {
	var reader io.Reader = bytes.NewReader(data)
	if rc != nil {
		reader = resource.NewRateLimitedReader(ctx, reader, rc)
	}

	gz, err := gzip.NewReader(reader)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
