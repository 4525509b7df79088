package searchindex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/lexgo/manifest"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/normalize"
	"github.com/hupe1980/lexgo/record"
)

// DefaultMaxKeys bounds how many index keys a prefix scan may visit.
const DefaultMaxKeys = 250

// Candidate is one index hit. ID order within a key follows the stored
// order of the index document; the index never re-ranks.
type Candidate struct {
	Key   string
	ID    int64
	Exact bool
}

// Index answers prefix lookups for one domain and mode pair. Base shards
// are loaded on first use and memoized for the life of the index; lookups
// are safe for concurrent use.
type Index struct {
	man    *manifest.SearchModule
	reader *record.Reader
	bases  []string

	mu     sync.Mutex
	loaded map[string]*baseState
}

type baseState struct {
	once sync.Once
	data *baseData
	err  error
}

type baseData struct {
	keys []string
	ids  map[string][]int64
}

type keysDoc struct {
	Keys []string `json:"keys"`
}

type indexDoc struct {
	Map map[string][]int64 `json:"map"`
}

// New resolves the base list for the given domain and mode. The mode must
// be concrete (surface or reading); a pair the dataset does not declare is
// a configuration error, surfaced here rather than on the query path.
func New(man *manifest.SearchModule, r *record.Reader, domain model.Domain, mode model.Mode) (*Index, error) {
	bases, ok := man.Bases(string(domain), string(mode))
	if !ok || len(bases) == 0 {
		return nil, &manifest.ConfigError{
			Path:   manifest.RootFileName,
			Reason: fmt.Sprintf("no search index declared for domain %q mode %q", domain, mode),
		}
	}
	return &Index{
		man:    man,
		reader: r,
		bases:  bases,
		loaded: make(map[string]*baseState),
	}, nil
}

// Lookup scans the bucket matching the key's script for keys with the
// given prefix. limit caps the number of candidates (0 means unbounded),
// maxKeys caps how many index keys the scan may visit (0 means
// DefaultMaxKeys). An empty result is a normal outcome.
func (idx *Index) Lookup(ctx context.Context, key string, limit, maxKeys int) ([]Candidate, error) {
	if key == "" {
		return nil, nil
	}
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	bd, err := idx.load(ctx, idx.baseFor(key))
	if err != nil {
		return nil, err
	}

	var out []Candidate
	scanned := 0
	for i := sort.SearchStrings(bd.keys, key); i < len(bd.keys) && scanned < maxKeys; i++ {
		k := bd.keys[i]
		if !strings.HasPrefix(k, key) {
			break
		}
		scanned++
		exact := k == key
		var prev []int64
		for _, id := range bd.ids[k] {
			if containsID(prev, id) {
				continue
			}
			prev = append(prev, id)
			out = append(out, Candidate{Key: k, ID: id, Exact: exact})
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// baseFor picks the base whose bucket suffix matches the key's script,
// falling back to the last base of the list.
func (idx *Index) baseFor(key string) string {
	suffix := "_" + normalize.ScriptOf(key).String()
	for _, b := range idx.bases {
		if strings.HasSuffix(b, suffix) {
			return b
		}
	}
	return idx.bases[len(idx.bases)-1]
}

// load returns the memoized shard for base, reading it on first use.
// A failed load is not memoized, so a transient source error does not
// poison the base for the life of the index.
func (idx *Index) load(ctx context.Context, base string) (*baseData, error) {
	idx.mu.Lock()
	st, ok := idx.loaded[base]
	if !ok {
		st = &baseState{}
		idx.loaded[base] = st
	}
	idx.mu.Unlock()

	st.once.Do(func() {
		st.data, st.err = idx.fetch(ctx, base)
	})
	if st.err != nil {
		err := st.err
		idx.mu.Lock()
		if idx.loaded[base] == st {
			delete(idx.loaded, base)
		}
		idx.mu.Unlock()
		return nil, err
	}
	return st.data, nil
}

func (idx *Index) fetch(ctx context.Context, base string) (*baseData, error) {
	var kd keysDoc
	if err := idx.reader.Get(ctx, idx.man.KeysPath(base), &kd); err != nil {
		return nil, err
	}
	var id indexDoc
	if err := idx.reader.Get(ctx, idx.man.IndexPath(base), &id); err != nil {
		return nil, err
	}
	// The build emits keys pre-sorted; sorting here keeps the binary
	// search invariant local.
	sort.Strings(kd.Keys)
	return &baseData{keys: kd.Keys, ids: id.Map}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}
