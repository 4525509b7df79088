package lexgo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/lexgo/chunk"
	"github.com/hupe1980/lexgo/manifest"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/packsource"
	"github.com/hupe1980/lexgo/record"
	"github.com/hupe1980/lexgo/resource"
	"github.com/hupe1980/lexgo/searchindex"
	"github.com/hupe1980/lexgo/validate"
)

// Engine serves lookups over one immutable dataset.
//
// All methods are safe for concurrent use. The engine never mutates the
// dataset: chunk tables and search index shards are built from the manifest
// chain at Open, auxiliary documents (rank, kanji, kana, categories) are
// loaded lazily on first use and memoized.
type Engine struct {
	src     packsource.Source
	man     *manifest.Manifest
	reader  *record.Reader
	rc      *resource.Controller
	metrics MetricsCollector
	logger  *Logger

	words     *chunk.Table
	names     *chunk.Table
	wordLangs map[string]*chunk.Table

	indexes map[indexKey]*searchindex.Index

	rankDoc    lazyDoc[map[string]model.RankInfo]
	commonDoc  lazyDoc[[]int64]
	kanjiDoc   lazyDoc[map[string]model.KanjiEntry]
	orderDoc   lazyDoc[[]model.KanjiOrder]
	kanaDoc    lazyDoc[map[string]model.KanaEntry]
	titleDoc   lazyDoc[map[string]model.Category]
	mappingDoc lazyDoc[map[string]string]
}

// indexKey identifies one search index by its domain and concrete mode.
type indexKey struct {
	domain model.Domain
	mode   model.Mode
}

// Local returns a pack source reading a dataset directory on the local
// filesystem. Reads are mmap-backed.
func Local(dir string) packsource.Source {
	return packsource.NewLocal(dir)
}

// Open loads the manifest chain from src and builds an engine over it.
//
// The root manifest, every module manifest and the declared chunk ranges
// are resolved and verified up front, so a broken dataset fails here with
// a manifest.ConfigError instead of on the first query. Index shards and
// auxiliary documents are not read until a query needs them.
//
// Example:
//
//	ctx := context.Background()
//	eng, err := lexgo.Open(ctx, lexgo.Local("./data"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
func Open(ctx context.Context, src packsource.Source, optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)

	var rc *resource.Controller
	if opts.resource != nil {
		rc = resource.NewController(*opts.resource)
	}

	if opts.cacheBytes > 0 {
		src = packsource.NewCaching(src, packsource.NewLRUCache(opts.cacheBytes, rc), opts.cacheBlockSize)
	}

	reader := record.NewReader(src, opts.codec, rc)

	man, err := manifest.Load(ctx, reader)
	if err != nil {
		return nil, err
	}

	words, err := chunk.NewTable(model.DomainWords, man.Words.Chunks)
	if err != nil {
		return nil, err
	}
	names, err := chunk.NewNamesTable(model.DomainNames, man.Names.Chunks)
	if err != nil {
		return nil, err
	}

	wordLangs := make(map[string]*chunk.Table, len(man.Words.Langs))
	for _, lang := range man.Words.GlossLangs() {
		t, err := chunk.NewTable(model.DomainWords, man.Words.Langs[lang].Chunks)
		if err != nil {
			return nil, err
		}
		wordLangs[lang] = t
	}

	indexes := make(map[indexKey]*searchindex.Index)
	for domain, modes := range man.Search.Domains {
		for mode := range modes {
			idx, err := searchindex.New(man.Search, reader, model.Domain(domain), model.Mode(mode))
			if err != nil {
				return nil, err
			}
			indexes[indexKey{domain: model.Domain(domain), mode: model.Mode(mode)}] = idx
		}
	}

	return &Engine{
		src:       src,
		man:       man,
		reader:    reader,
		rc:        rc,
		metrics:   opts.metricsCollector,
		logger:    opts.logger,
		words:     words,
		names:     names,
		wordLangs: wordLangs,
		indexes:   indexes,
	}, nil
}

// Manifest returns the loaded dataset manifest.
func (e *Engine) Manifest() *manifest.Manifest { return e.man }

// Validate runs the referential integrity suite against the dataset and
// returns the report. Violations are data findings, never errors; an
// unreadable input surfaces as a violation on the relation that needed it.
//
// Example:
//
//	report := eng.Validate(ctx, func(o *validate.Options) {
//	    o.Mode = validate.ModeFull
//	})
//	if !report.OK {
//	    for _, v := range report.Violations {
//	        fmt.Println(v.Relation, v.Source, v.Reason)
//	    }
//	}
func (e *Engine) Validate(ctx context.Context, optFns ...func(*validate.Options)) *validate.Report {
	start := time.Now()
	var opts validate.Options
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	report := validate.NewRunner(e.man, e.reader, e.rc).Run(ctx, opts)
	e.metrics.RecordValidate(report.Mode, time.Since(start), len(report.Violations))
	e.logger.LogValidate(ctx, report.Mode, len(report.Violations), report.Truncated)
	return report
}

// lazyDoc memoizes a successful document load. A failed load is not
// memoized and is retried on the next call, matching how the search index
// treats its base shards.
type lazyDoc[T any] struct {
	mu     sync.Mutex
	loaded bool
	val    T
}

func (d *lazyDoc[T]) get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.val, nil
	}
	val, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	d.val = val
	d.loaded = true
	return val, nil
}

func missingRole(module, role string) error {
	return &manifest.ConfigError{
		Path:   manifest.RootFileName,
		Reason: fmt.Sprintf("module %q declares no %q file", module, role),
	}
}

// rankTable returns the stored rank document keyed by decimal word id.
func (e *Engine) rankTable(ctx context.Context) (map[string]model.RankInfo, error) {
	return e.rankDoc.get(ctx, func(ctx context.Context) (map[string]model.RankInfo, error) {
		name, ok := e.man.Search.File(manifest.FileWordRank)
		if !ok {
			return nil, missingRole(manifest.ModuleSearch, manifest.FileWordRank)
		}
		var doc struct {
			Rank map[string]model.RankInfo `json:"rank"`
		}
		if err := e.reader.Get(ctx, name, &doc); err != nil {
			return nil, err
		}
		return doc.Rank, nil
	})
}

// commonIDs returns the stored common word id list.
func (e *Engine) commonIDs(ctx context.Context) ([]int64, error) {
	return e.commonDoc.get(ctx, func(ctx context.Context) ([]int64, error) {
		name, ok := e.man.Search.File(manifest.FileCommonWordIDs)
		if !ok {
			return nil, missingRole(manifest.ModuleSearch, manifest.FileCommonWordIDs)
		}
		var doc struct {
			IDs []int64 `json:"ids"`
		}
		if err := e.reader.Get(ctx, name, &doc); err != nil {
			return nil, err
		}
		return doc.IDs, nil
	})
}

// kanjiTable returns kanji entries keyed by U+XXXX literal id, with the
// English meanings document merged in.
func (e *Engine) kanjiTable(ctx context.Context) (map[string]model.KanjiEntry, error) {
	return e.kanjiDoc.get(ctx, func(ctx context.Context) (map[string]model.KanjiEntry, error) {
		name, ok := e.man.Kanji.File(manifest.FileEntries)
		if !ok {
			return nil, missingRole(manifest.ModuleKanji, manifest.FileEntries)
		}
		var doc struct {
			Entries map[string]model.KanjiEntry `json:"entries"`
		}
		if err := e.reader.Get(ctx, name, &doc); err != nil {
			return nil, err
		}
		if name, ok := e.man.Kanji.File(manifest.FileMeaningsEN); ok {
			var md struct {
				Meanings map[string][]string `json:"meanings_by_kanji"`
			}
			if err := e.reader.Get(ctx, name, &md); err != nil {
				return nil, err
			}
			for key, meanings := range md.Meanings {
				entry, ok := doc.Entries[key]
				if !ok {
					continue
				}
				if entry.Meanings == nil {
					entry.Meanings = make(map[string][]string, 1)
				}
				entry.Meanings["en"] = meanings
				doc.Entries[key] = entry
			}
		}
		return doc.Entries, nil
	})
}

// learningOrder returns the school curriculum order listing.
func (e *Engine) learningOrder(ctx context.Context) ([]model.KanjiOrder, error) {
	return e.orderDoc.get(ctx, func(ctx context.Context) ([]model.KanjiOrder, error) {
		name, ok := e.man.Kanji.File(manifest.FileLearningOrders)
		if !ok {
			return nil, missingRole(manifest.ModuleKanji, manifest.FileLearningOrders)
		}
		var doc struct {
			Ordered []model.KanjiOrder `json:"kanji_mext_joyo_ordered"`
		}
		if err := e.reader.Get(ctx, name, &doc); err != nil {
			return nil, err
		}
		return doc.Ordered, nil
	})
}

// kanaTable returns kana entries keyed by symbol.
func (e *Engine) kanaTable(ctx context.Context) (map[string]model.KanaEntry, error) {
	return e.kanaDoc.get(ctx, func(ctx context.Context) (map[string]model.KanaEntry, error) {
		name, ok := e.man.Kana.File(manifest.FileEntries)
		if !ok {
			return nil, missingRole(manifest.ModuleKana, manifest.FileEntries)
		}
		var doc struct {
			Entries []model.KanaEntry `json:"entries"`
		}
		if err := e.reader.Get(ctx, name, &doc); err != nil {
			return nil, err
		}
		table := make(map[string]model.KanaEntry, len(doc.Entries))
		for _, entry := range doc.Entries {
			table[entry.Symbol] = entry
		}
		return table, nil
	})
}

// categoryTitles returns per-category titles from the language document.
func (e *Engine) categoryTitles(ctx context.Context) (map[string]model.Category, error) {
	return e.titleDoc.get(ctx, func(ctx context.Context) (map[string]model.Category, error) {
		name, ok := e.man.Categories.File(manifest.FileLangEN)
		if !ok {
			return nil, missingRole(manifest.ModuleCategories, manifest.FileLangEN)
		}
		var doc struct {
			Categories map[string]model.Category `json:"categories"`
		}
		if err := e.reader.Get(ctx, name, &doc); err != nil {
			return nil, err
		}
		return doc.Categories, nil
	})
}

// categoryMapping returns the word-to-category mapping keyed by decimal
// word id.
func (e *Engine) categoryMapping(ctx context.Context) (map[string]string, error) {
	return e.mappingDoc.get(ctx, func(ctx context.Context) (map[string]string, error) {
		name, ok := e.man.Categories.File(manifest.FileWordToCategory)
		if !ok {
			return nil, missingRole(manifest.ModuleCategories, manifest.FileWordToCategory)
		}
		var doc struct {
			Mapping map[string]string `json:"mapping"`
		}
		if err := e.reader.Get(ctx, name, &doc); err != nil {
			return nil, err
		}
		return doc.Mapping, nil
	})
}
