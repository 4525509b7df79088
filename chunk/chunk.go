package chunk

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/lexgo/manifest"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/packsource"
	"github.com/hupe1980/lexgo/record"
)

// Descriptor is one chunk file and the inclusive id range it covers.
// LangEnFile is set for chunk families that pair a core file with a
// line-aligned translation file.
type Descriptor struct {
	StartID    int64
	EndID      int64
	File       string
	LangEnFile string
	Rows       int
}

// Table resolves ids to chunk descriptors for one domain. Ranges are
// sorted and non-overlapping; both are established at construction so
// Resolve stays a plain binary search.
type Table struct {
	domain model.Domain
	descs  []Descriptor
}

// NewTable builds a table from word-style chunk descriptors.
func NewTable(domain model.Domain, infos []manifest.ChunkInfo) (*Table, error) {
	descs := make([]Descriptor, 0, len(infos))
	for _, c := range infos {
		descs = append(descs, Descriptor{
			StartID: c.StartID,
			EndID:   c.EndID,
			File:    c.File,
			Rows:    c.Rows,
		})
	}
	return newTable(domain, descs)
}

// NewNamesTable builds a table from name-style chunk descriptors, which
// carry a translation file alongside the core file.
func NewNamesTable(domain model.Domain, infos []manifest.NameChunkInfo) (*Table, error) {
	descs := make([]Descriptor, 0, len(infos))
	for _, c := range infos {
		descs = append(descs, Descriptor{
			StartID:    c.StartID,
			EndID:      c.EndID,
			File:       c.CoreFile,
			LangEnFile: c.LangEnFile,
			Rows:       c.Rows,
		})
	}
	return newTable(domain, descs)
}

func newTable(domain model.Domain, descs []Descriptor) (*Table, error) {
	sort.Slice(descs, func(i, j int) bool { return descs[i].StartID < descs[j].StartID })
	for i, d := range descs {
		if d.StartID > d.EndID {
			return nil, &manifest.ConfigError{
				Path:   d.File,
				Reason: fmt.Sprintf("invalid chunk range [%d, %d]", d.StartID, d.EndID),
			}
		}
		if i > 0 && descs[i-1].EndID >= d.StartID {
			return nil, &manifest.ConfigError{
				Path: d.File,
				Reason: fmt.Sprintf("chunk ranges overlap: [%d, %d] and [%d, %d]",
					descs[i-1].StartID, descs[i-1].EndID, d.StartID, d.EndID),
			}
		}
	}
	return &Table{domain: domain, descs: descs}, nil
}

// Domain returns the domain the table resolves for.
func (t *Table) Domain() model.Domain { return t.domain }

// Descriptors returns the chunk descriptors in range order.
func (t *Table) Descriptors() []Descriptor { return t.descs }

// Len returns the number of chunks.
func (t *Table) Len() int { return len(t.descs) }

// Resolve returns the descriptor whose range contains id. An id outside
// every range means the meta descriptor is stale or corrupt relative to
// the index that produced the id; it is reported, never swallowed.
func (t *Table) Resolve(id int64) (Descriptor, error) {
	i := sort.Search(len(t.descs), func(i int) bool { return t.descs[i].EndID >= id })
	if i < len(t.descs) && t.descs[i].StartID <= id {
		return t.descs[i], nil
	}
	return Descriptor{}, &LookupError{Domain: t.domain, ID: id}
}

type idProbe struct {
	ID int64 `json:"id"`
}

// FindJSONL streams the descriptor's core file until it reaches id, then
// decodes that line into v and stops without reading the rest.
func FindJSONL(ctx context.Context, r *record.Reader, desc Descriptor, id int64, v any) error {
	return FindLine(ctx, r, desc.File, id, v)
}

// FindLine streams any line-oriented file until it reaches the record
// with the given id. Each line is probed for its id field first; only the
// matching line is decoded in full.
func FindLine(ctx context.Context, r *record.Reader, name string, id int64, v any) error {
	cdc := r.Codec()
	for line, err := range r.Lines(ctx, name) {
		if err != nil {
			return err
		}
		var probe idProbe
		if err := cdc.Unmarshal(line, &probe); err != nil {
			return &record.DecodeError{Name: name, Err: err}
		}
		if probe.ID != id {
			continue
		}
		if err := cdc.Unmarshal(line, v); err != nil {
			return &record.DecodeError{Name: name, Err: err}
		}
		return nil
	}
	return fmt.Errorf("%s: id %d: %w", name, id, packsource.ErrNotFound)
}

// FindEntry decodes a whole-document chunk and selects the entry with the
// given id. idOf extracts the id from an entry.
func FindEntry[T any](ctx context.Context, r *record.Reader, name string, id int64, idOf func(T) int64) (T, error) {
	var doc struct {
		Entries []T `json:"entries"`
	}
	var zero T
	if err := r.Get(ctx, name, &doc); err != nil {
		return zero, err
	}
	for _, e := range doc.Entries {
		if idOf(e) == id {
			return e, nil
		}
	}
	return zero, fmt.Errorf("%s: id %d: %w", name, id, packsource.ErrNotFound)
}
