package validate

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/lexgo/chunk"
	"github.com/hupe1980/lexgo/manifest"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/record"
)

// Standard relation names, stable across releases so reports can be
// filtered and diffed.
const (
	RelCategoriesWords = "categories/words"
	RelSearchWords     = "search/words"
	RelSearchNames     = "search/names"
	RelNamesChunks     = "names/chunks"
	RelWordsChunks     = "words/chunks"
	RelKanjiOrder      = "kanji/order"
)

// CheckFunc inspects one relation and returns its findings.
type CheckFunc func(ctx context.Context, s *Sampler) []Violation

// Relation pairs a stable name with its check.
type Relation struct {
	Name  string
	Check CheckFunc
}

// Relations returns the standard relation set bound to a dataset. Checks
// are independent and safe to run concurrently.
func Relations(man *manifest.Manifest, r *record.Reader) []Relation {
	c := &checker{man: man, reader: r}
	return []Relation{
		{Name: RelCategoriesWords, Check: c.categoriesWords},
		{Name: RelSearchWords, Check: c.searchWords},
		{Name: RelSearchNames, Check: c.searchNames},
		{Name: RelNamesChunks, Check: c.namesChunks},
		{Name: RelWordsChunks, Check: c.wordsChunks},
		{Name: RelKanjiOrder, Check: c.kanjiOrder},
	}
}

// Fast-mode sample sizes.
const (
	sampleKeys   = 1000
	sampleIDs    = 1000
	sampleOrders = 500
	sampleChunks = 2
	sampleLines  = 50
)

// Sampler draws the reproducible subsets a fast run inspects. Streams are
// keyed by name, so what a relation samples depends only on the seed,
// never on scheduling. In full mode every draw returns the population
// unchanged.
type Sampler struct {
	mode Mode
	seed int64
	cap  int
}

func newSampler(mode Mode, seed int64, maxViolations int) *Sampler {
	return &Sampler{mode: mode, seed: seed, cap: maxViolations}
}

// Cap returns the per-relation emission budget. Checks stop collecting
// once they reach it; the runner applies the global cut.
func (s *Sampler) Cap() int { return s.cap }

// Lines returns how many leading lines of a sampled chunk to compare,
// 0 meaning all of them.
func (s *Sampler) Lines() int {
	if s.mode == ModeFull {
		return 0
	}
	return sampleLines
}

func (s *Sampler) rng(stream string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(stream))
	return rand.New(rand.NewPCG(uint64(s.seed), h.Sum64()))
}

// take draws size elements from pop without replacement, preserving
// population order.
func take[T any](s *Sampler, stream string, pop []T, size int) []T {
	if s.mode == ModeFull || len(pop) <= size {
		return pop
	}
	idx := s.rng(stream).Perm(len(pop))[:size]
	sort.Ints(idx)
	out := make([]T, 0, size)
	for _, i := range idx {
		out = append(out, pop[i])
	}
	return out
}

type checker struct {
	man    *manifest.Manifest
	reader *record.Reader

	wordsOnce sync.Once
	wordSet   *roaring64.Bitmap
	wordsErr  error
}

// ioViolation converts an unreadable input into a finding, unless the
// read failed because the run was canceled.
func ioViolation(ctx context.Context, relation, source, target string, err error) []Violation {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return []Violation{{Relation: relation, Source: source, Target: target, Reason: ReasonMissingTarget}}
}

func (c *checker) wordIDsPath() string {
	p, _ := c.man.Words.File(manifest.FileWordIDs)
	return p
}

// wordIDs loads the canonical word-id set once per run. Held as a roaring
// bitmap so full mode stays within memory on large packs.
func (c *checker) wordIDs(ctx context.Context) (*roaring64.Bitmap, error) {
	c.wordsOnce.Do(func() {
		p, ok := c.man.Words.File(manifest.FileWordIDs)
		if !ok {
			c.wordsErr = fmt.Errorf("word ids not declared")
			return
		}
		var doc struct {
			IDs []int64 `json:"ids"`
		}
		if err := c.reader.Get(ctx, p, &doc); err != nil {
			c.wordsErr = err
			return
		}
		set := roaring64.New()
		for _, id := range doc.IDs {
			if id >= 0 {
				set.Add(uint64(id))
			}
		}
		c.wordSet = set
	})
	return c.wordSet, c.wordsErr
}

// indexIDs returns the sorted distinct ids of one index base.
func (c *checker) indexIDs(ctx context.Context, base string) ([]int64, error) {
	var doc struct {
		Map map[string][]int64 `json:"map"`
	}
	if err := c.reader.Get(ctx, c.man.Search.IndexPath(base), &doc); err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{})
	for _, ids := range doc.Map {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// domainBases returns mode→bases for a domain with deterministic mode
// order.
func (c *checker) domainBases(domain string) [][]string {
	modes := c.man.Search.Domains[domain]
	names := make([]string, 0, len(modes))
	for mode := range modes {
		names = append(names, mode)
	}
	sort.Strings(names)
	out := make([][]string, 0, len(names))
	for _, mode := range names {
		out = append(out, modes[mode])
	}
	return out
}

// categoriesWords: every word_to_category key must be an integer naming a
// canonical word id.
func (c *checker) categoriesWords(ctx context.Context, s *Sampler) []Violation {
	const rel = RelCategoriesWords
	p, ok := c.man.Categories.File(manifest.FileWordToCategory)
	if !ok {
		return nil
	}
	var doc struct {
		Mapping map[string]string `json:"mapping"`
	}
	if err := c.reader.Get(ctx, p, &doc); err != nil {
		return ioViolation(ctx, rel, "word_to_category", p, err)
	}

	keys := make([]string, 0, len(doc.Mapping))
	for k := range doc.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	words, err := c.wordIDs(ctx)
	if err != nil {
		return ioViolation(ctx, rel, "word_ids", c.wordIDsPath(), err)
	}

	var out []Violation
	for _, k := range take(s, rel, keys, sampleKeys) {
		if len(out) >= s.Cap() {
			break
		}
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil || !words.Contains(id) {
			out = append(out, Violation{
				Relation: rel,
				Source:   k,
				Target:   c.wordIDsPath(),
				Reason:   ReasonMissingTarget,
			})
		}
	}
	return out
}

// searchWords: every id the words indexes point at must be a canonical
// word id.
func (c *checker) searchWords(ctx context.Context, s *Sampler) []Violation {
	const rel = RelSearchWords
	words, err := c.wordIDs(ctx)
	if err != nil {
		return ioViolation(ctx, rel, "word_ids", c.wordIDsPath(), err)
	}

	var out []Violation
	for _, bases := range c.domainBases(string(model.DomainWords)) {
		for _, base := range bases {
			ids, rerr := c.indexIDs(ctx, base)
			if rerr != nil {
				out = append(out, ioViolation(ctx, rel, base, c.man.Search.IndexPath(base), rerr)...)
				continue
			}
			for _, id := range take(s, rel+":"+base, ids, sampleIDs) {
				if len(out) >= s.Cap() {
					return out
				}
				if id < 0 || !words.Contains(uint64(id)) {
					out = append(out, Violation{
						Relation: rel,
						Source:   strconv.FormatInt(id, 10),
						Target:   c.man.Search.IndexPath(base),
						Reason:   ReasonMissingTarget,
					})
				}
			}
		}
	}
	return out
}

// searchNames: every id the names indexes point at must fall inside a
// names chunk range.
func (c *checker) searchNames(ctx context.Context, s *Sampler) []Violation {
	const rel = RelSearchNames

	covered := func(id int64) bool {
		for _, ch := range c.man.Names.Chunks {
			if id >= ch.StartID && id <= ch.EndID {
				return true
			}
		}
		return false
	}

	var out []Violation
	for _, bases := range c.domainBases(string(model.DomainNames)) {
		for _, base := range bases {
			ids, rerr := c.indexIDs(ctx, base)
			if rerr != nil {
				out = append(out, ioViolation(ctx, rel, base, c.man.Search.IndexPath(base), rerr)...)
				continue
			}
			for _, id := range take(s, rel+":"+base, ids, sampleIDs) {
				if len(out) >= s.Cap() {
					return out
				}
				if !covered(id) {
					out = append(out, Violation{
						Relation: rel,
						Source:   strconv.FormatInt(id, 10),
						Target:   c.man.Modules[manifest.ModuleNames],
						Reason:   ReasonRangeNotCovered,
					})
				}
			}
		}
	}
	return out
}

// namesChunks: ranges must not overlap, and sampled chunks must keep the
// core and translation files line-aligned by id.
func (c *checker) namesChunks(ctx context.Context, s *Sampler) []Violation {
	const rel = RelNamesChunks
	var out []Violation

	if _, err := chunk.NewNamesTable(model.DomainNames, c.man.Names.Chunks); err != nil {
		var ce *manifest.ConfigError
		if errors.As(err, &ce) {
			out = append(out, Violation{
				Relation: rel,
				Source:   ce.Path,
				Target:   c.man.Modules[manifest.ModuleNames],
				Reason:   ReasonAmbiguous,
			})
		}
	}

	for _, ch := range take(s, rel, c.man.Names.Chunks, sampleChunks) {
		if len(out) >= s.Cap() {
			break
		}
		out = append(out, c.nameAlignment(ctx, s, ch)...)
	}
	return out
}

func (c *checker) nameAlignment(ctx context.Context, s *Sampler, ch manifest.NameChunkInfo) []Violation {
	const rel = RelNamesChunks
	if ch.LangEnFile == "" {
		return nil
	}
	coreIDs, err := c.lineIDs(ctx, ch.CoreFile, s.Lines())
	if err != nil {
		return ioViolation(ctx, rel, ch.CoreFile, ch.CoreFile, err)
	}
	langIDs, err := c.lineIDs(ctx, ch.LangEnFile, s.Lines())
	if err != nil {
		return ioViolation(ctx, rel, ch.LangEnFile, ch.LangEnFile, err)
	}

	var out []Violation
	for i := 0; i < min(len(coreIDs), len(langIDs)); i++ {
		if len(out) >= s.Cap() {
			return out
		}
		if coreIDs[i] != langIDs[i] {
			out = append(out, Violation{
				Relation: rel,
				Source:   fmt.Sprintf("%s:%d", ch.CoreFile, i+1),
				Target:   ch.LangEnFile,
				Reason:   ReasonMissingTarget,
			})
		}
	}
	if len(coreIDs) != len(langIDs) {
		out = append(out, Violation{
			Relation: rel,
			Source:   ch.CoreFile,
			Target:   ch.LangEnFile,
			Reason:   ReasonMissingTarget,
		})
	}
	return out
}

// lineIDs streams the id column of a JSONL file, stopping after limit
// lines when limit > 0.
func (c *checker) lineIDs(ctx context.Context, name string, limit int) ([]int64, error) {
	cdc := c.reader.Codec()
	var ids []int64
	for line, err := range c.reader.Lines(ctx, name) {
		if err != nil {
			return nil, err
		}
		var probe struct {
			ID int64 `json:"id"`
		}
		if uerr := cdc.Unmarshal(line, &probe); uerr != nil {
			return nil, &record.DecodeError{Name: name, Err: uerr}
		}
		ids = append(ids, probe.ID)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// wordsChunks: core ranges must not overlap, every declared language must
// cover every core range, and sampled chunk documents must keep their
// entries inside the declared range.
func (c *checker) wordsChunks(ctx context.Context, s *Sampler) []Violation {
	const rel = RelWordsChunks
	var out []Violation

	if _, err := chunk.NewTable(model.DomainWords, c.man.Words.Chunks); err != nil {
		var ce *manifest.ConfigError
		if errors.As(err, &ce) {
			out = append(out, Violation{
				Relation: rel,
				Source:   ce.Path,
				Target:   c.man.Modules[manifest.ModuleWords],
				Reason:   ReasonAmbiguous,
			})
		}
	}

	for _, lang := range c.man.Words.GlossLangs() {
		lcs := c.man.Words.Langs[lang].Chunks
		if _, err := chunk.NewTable(model.DomainWords, lcs); err != nil {
			var ce *manifest.ConfigError
			if errors.As(err, &ce) {
				out = append(out, Violation{
					Relation: rel,
					Source:   ce.Path,
					Target:   "langs." + lang,
					Reason:   ReasonAmbiguous,
				})
			}
			continue
		}
		sorted := append([]manifest.ChunkInfo(nil), lcs...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartID < sorted[j].StartID })
		for _, core := range c.man.Words.Chunks {
			if len(out) >= s.Cap() {
				return out
			}
			if !rangeCovered(core, sorted) {
				out = append(out, Violation{
					Relation: rel,
					Source:   core.File,
					Target:   "langs." + lang,
					Reason:   ReasonRangeNotCovered,
				})
			}
		}
	}

	for _, ch := range take(s, rel+":chunks", c.man.Words.Chunks, sampleChunks) {
		if len(out) >= s.Cap() {
			break
		}
		var doc struct {
			Entries []struct {
				ID int64 `json:"id"`
			} `json:"entries"`
		}
		if err := c.reader.Get(ctx, ch.File, &doc); err != nil {
			out = append(out, ioViolation(ctx, rel, ch.File, ch.File, err)...)
			continue
		}
		entries := doc.Entries
		if n := s.Lines(); n > 0 && len(entries) > n {
			entries = entries[:n]
		}
		for _, e := range entries {
			if len(out) >= s.Cap() {
				break
			}
			if e.ID < ch.StartID || e.ID > ch.EndID {
				out = append(out, Violation{
					Relation: rel,
					Source:   strconv.FormatInt(e.ID, 10),
					Target:   ch.File,
					Reason:   ReasonRangeNotCovered,
				})
			}
		}
	}
	return out
}

// rangeCovered reports whether the union of the sorted lang ranges covers
// the core range.
func rangeCovered(core manifest.ChunkInfo, langSorted []manifest.ChunkInfo) bool {
	cur := core.StartID
	for _, lc := range langSorted {
		if lc.EndID < cur {
			continue
		}
		if lc.StartID > cur {
			return false
		}
		cur = lc.EndID + 1
		if cur > core.EndID {
			return true
		}
	}
	return cur > core.EndID
}

// kanjiOrder: every learning-order position must name a kanji that exists
// in the entries document.
func (c *checker) kanjiOrder(ctx context.Context, s *Sampler) []Violation {
	const rel = RelKanjiOrder
	ordersFile, ok := c.man.Kanji.File(manifest.FileLearningOrders)
	if !ok {
		return nil
	}
	entriesFile, ok := c.man.Kanji.File(manifest.FileEntries)
	if !ok {
		return nil
	}

	var orders struct {
		Ordered []model.KanjiOrder `json:"kanji_mext_joyo_ordered"`
	}
	if err := c.reader.Get(ctx, ordersFile, &orders); err != nil {
		return ioViolation(ctx, rel, "learning_orders", ordersFile, err)
	}
	var entries struct {
		Entries map[string]model.KanjiEntry `json:"entries"`
	}
	if err := c.reader.Get(ctx, entriesFile, &entries); err != nil {
		return ioViolation(ctx, rel, "entries", entriesFile, err)
	}

	literals := make(map[string]struct{}, len(entries.Entries))
	for _, e := range entries.Entries {
		literals[e.Literal] = struct{}{}
	}

	var out []Violation
	for _, o := range take(s, rel, orders.Ordered, sampleOrders) {
		if len(out) >= s.Cap() {
			break
		}
		if _, ok := literals[o.Kanji]; !ok {
			out = append(out, Violation{
				Relation: rel,
				Source:   o.Kanji,
				Target:   entriesFile,
				Reason:   ReasonMissingTarget,
			})
		}
	}
	return out
}
