package manifest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/hupe1980/lexgo/packsource"
	"github.com/hupe1980/lexgo/record"
)

const (
	// RootFileName is the fixed entry point of every dataset.
	RootFileName = "manifest.json"
	// CurrentVersion is the dataset contract version this engine reads.
	CurrentVersion = 1
)

// Module names as they appear in the root manifest.
const (
	ModuleSearch     = "search"
	ModuleWords      = "words"
	ModuleNames      = "names"
	ModuleKanji      = "kanji"
	ModuleKana       = "kana"
	ModuleCategories = "categories"
)

// File roles within module manifests.
const (
	FileWordRank       = "word_rank"
	FileCommonWordIDs  = "common_word_ids"
	FileWordIDs        = "word_ids"
	FileEntries        = "entries"
	FileMeaningsEN     = "meanings_en"
	FileLearningOrders = "learning_orders"
	FileWordToCategory = "word_to_category"
	FileLangEN         = "lang_en"
)

// requiredModules is the set every dataset must declare; the engine serves
// all of them.
var requiredModules = []string{
	ModuleSearch, ModuleWords, ModuleNames, ModuleKanji, ModuleKana, ModuleCategories,
}

// Manifest is the fully resolved view of a dataset: every module manifest
// loaded, every referenced path rewritten to be dataset-relative and verified
// to exist.
type Manifest struct {
	Version int               `json:"version"`
	Modules map[string]string `json:"modules"`

	Search     *SearchModule     `json:"-"`
	Words      *WordsModule      `json:"-"`
	Names      *NamesModule      `json:"-"`
	Kanji      *KanjiModule      `json:"-"`
	Kana       *KanaModule       `json:"-"`
	Categories *CategoriesModule `json:"-"`

	// Files maps every referenced dataset-relative path to its resolved
	// physical encoding.
	Files map[string]FileInfo `json:"-"`
}

// FileInfo records how a referenced pack file is physically stored.
type FileInfo struct {
	// Path is the declared dataset-relative path (encoding-free).
	Path string
	// Encoding is the encoding of the physical variant that exists.
	Encoding record.Encoding
	// Rows is the declared record count, when the manifest carries one.
	Rows int
}

// SearchModule declares the prefix-search indexes.
type SearchModule struct {
	// Domains maps domain → mode → index base names. The last base of each
	// list is the fallback bucket.
	Domains map[string]map[string][]string `json:"domains"`
	Files   map[string]string              `json:"files"`

	dir string
}

// Bases returns the index base names for a domain/mode pair.
func (m *SearchModule) Bases(domain, mode string) ([]string, bool) {
	modes, ok := m.Domains[domain]
	if !ok {
		return nil, false
	}
	bases, ok := modes[mode]
	if !ok || len(bases) == 0 {
		return nil, false
	}
	return bases, true
}

// IndexPath returns the dataset-relative path of a base's key→ids document.
func (m *SearchModule) IndexPath(base string) string {
	return path.Join(m.dir, base+".json")
}

// KeysPath returns the dataset-relative path of a base's sorted-keys document.
func (m *SearchModule) KeysPath(base string) string {
	return path.Join(m.dir, base+"_keys.json")
}

// File resolves a file role to its dataset-relative path.
func (m *SearchModule) File(role string) (string, bool) {
	return resolveFile(m.dir, m.Files, role)
}

// ChunkInfo describes one id-ranged chunk file. Ranges are inclusive.
type ChunkInfo struct {
	StartID int64  `json:"start_id"`
	EndID   int64  `json:"end_id"`
	File    string `json:"file"`
	Rows    int    `json:"rows,omitempty"`
}

// LangChunks groups the chunk list of one gloss language.
type LangChunks struct {
	Chunks []ChunkInfo `json:"chunks"`
}

// WordsModule declares the word chunk layout.
type WordsModule struct {
	Chunks []ChunkInfo           `json:"chunks"`
	Langs  map[string]LangChunks `json:"langs"`
	Files  map[string]string     `json:"files"`

	dir string
}

// File resolves a file role to its dataset-relative path.
func (m *WordsModule) File(role string) (string, bool) {
	return resolveFile(m.dir, m.Files, role)
}

// GlossLangs returns the declared gloss language codes in sorted order.
func (m *WordsModule) GlossLangs() []string {
	langs := make([]string, 0, len(m.Langs))
	for lang := range m.Langs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// NameChunkInfo describes one names chunk: a core JSONL file and its
// line-aligned translation sibling. Ranges are inclusive.
type NameChunkInfo struct {
	StartID    int64  `json:"start_id"`
	EndID      int64  `json:"end_id"`
	CoreFile   string `json:"core_file"`
	LangEnFile string `json:"lang_en_file"`
	Rows       int    `json:"rows,omitempty"`
}

// NamesModule declares the proper-names chunk layout.
type NamesModule struct {
	Chunks []NameChunkInfo `json:"chunks"`

	dir string
}

// KanjiModule declares the kanji documents.
type KanjiModule struct {
	Files map[string]string `json:"files"`

	dir string
}

// File resolves a file role to its dataset-relative path.
func (m *KanjiModule) File(role string) (string, bool) {
	return resolveFile(m.dir, m.Files, role)
}

// KanaModule declares the kana documents.
type KanaModule struct {
	Files map[string]string `json:"files"`

	dir string
}

// File resolves a file role to its dataset-relative path.
func (m *KanaModule) File(role string) (string, bool) {
	return resolveFile(m.dir, m.Files, role)
}

// CategoriesModule declares the common-words category documents.
type CategoriesModule struct {
	Categories []string          `json:"categories"`
	Files      map[string]string `json:"files"`

	dir string
}

// File resolves a file role to its dataset-relative path.
func (m *CategoriesModule) File(role string) (string, bool) {
	return resolveFile(m.dir, m.Files, role)
}

func resolveFile(dir string, files map[string]string, role string) (string, bool) {
	rel, ok := files[role]
	if !ok || rel == "" {
		return "", false
	}
	return path.Join(dir, rel), true
}

// Load reads the root manifest, then every module manifest it declares,
// verifying that each referenced file exists in the source in at least one
// encoding. Any gap in the chain fails with *ConfigError; a dataset that
// loads cleanly can serve every engine operation.
func Load(ctx context.Context, r *record.Reader) (*Manifest, error) {
	var m Manifest
	if err := r.Get(ctx, RootFileName, &m); err != nil {
		return nil, wrapLoadError(RootFileName, err)
	}

	if m.Version != CurrentVersion {
		return nil, &ConfigError{
			Path:   RootFileName,
			Reason: fmt.Sprintf("unsupported manifest version: %d (expected %d)", m.Version, CurrentVersion),
		}
	}

	for _, name := range requiredModules {
		if _, ok := m.Modules[name]; !ok {
			return nil, &ConfigError{
				Path:   RootFileName,
				Reason: fmt.Sprintf("module %q not declared", name),
			}
		}
	}

	if err := m.loadModules(ctx, r); err != nil {
		return nil, err
	}
	if err := m.verify(ctx, r); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) loadModules(ctx context.Context, r *record.Reader) error {
	load := func(name string, v any) (string, error) {
		p := m.Modules[name]
		if err := r.Get(ctx, p, v); err != nil {
			return "", wrapLoadError(p, err)
		}
		return path.Dir(p), nil
	}

	m.Search = &SearchModule{}
	dir, err := load(ModuleSearch, m.Search)
	if err != nil {
		return err
	}
	m.Search.dir = dir

	m.Words = &WordsModule{}
	if dir, err = load(ModuleWords, m.Words); err != nil {
		return err
	}
	m.Words.dir = dir
	rebaseChunks(dir, m.Words.Chunks)
	for lang, lc := range m.Words.Langs {
		rebaseChunks(dir, lc.Chunks)
		m.Words.Langs[lang] = lc
	}

	m.Names = &NamesModule{}
	if dir, err = load(ModuleNames, m.Names); err != nil {
		return err
	}
	m.Names.dir = dir
	for i := range m.Names.Chunks {
		c := &m.Names.Chunks[i]
		c.CoreFile = path.Join(dir, c.CoreFile)
		if c.LangEnFile != "" {
			c.LangEnFile = path.Join(dir, c.LangEnFile)
		}
	}

	m.Kanji = &KanjiModule{}
	if dir, err = load(ModuleKanji, m.Kanji); err != nil {
		return err
	}
	m.Kanji.dir = dir

	m.Kana = &KanaModule{}
	if dir, err = load(ModuleKana, m.Kana); err != nil {
		return err
	}
	m.Kana.dir = dir

	m.Categories = &CategoriesModule{}
	if dir, err = load(ModuleCategories, m.Categories); err != nil {
		return err
	}
	m.Categories.dir = dir

	return nil
}

// rebaseChunks rewrites chunk file references to dataset-relative paths.
func rebaseChunks(dir string, chunks []ChunkInfo) {
	for i := range chunks {
		chunks[i].File = path.Join(dir, chunks[i].File)
	}
}

// verify probes every referenced file and assembles the Files table.
func (m *Manifest) verify(ctx context.Context, r *record.Reader) error {
	m.Files = make(map[string]FileInfo)

	probe := func(declared string, rows int) error {
		if _, seen := m.Files[declared]; seen {
			return nil
		}
		resolved, err := r.Resolve(ctx, declared)
		if err != nil {
			if errors.Is(err, packsource.ErrNotFound) {
				return &ConfigError{Path: declared, Reason: "referenced file does not exist"}
			}
			return &ConfigError{Path: declared, Reason: "referenced file not readable", Err: err}
		}
		m.Files[declared] = FileInfo{
			Path:     declared,
			Encoding: record.EncodingOf(resolved),
			Rows:     rows,
		}
		return nil
	}

	for domain, modes := range m.Search.Domains {
		for mode, bases := range modes {
			if len(bases) == 0 {
				return &ConfigError{
					Path:   m.Modules[ModuleSearch],
					Reason: fmt.Sprintf("domain %q mode %q declares no index bases", domain, mode),
				}
			}
			for _, base := range bases {
				if err := probe(m.Search.IndexPath(base), 0); err != nil {
					return err
				}
				if err := probe(m.Search.KeysPath(base), 0); err != nil {
					return err
				}
			}
		}
	}
	for _, role := range []string{FileWordRank, FileCommonWordIDs} {
		if p, ok := m.Search.File(role); ok {
			if err := probe(p, 0); err != nil {
				return err
			}
		}
	}

	for _, c := range m.Words.Chunks {
		if err := probe(c.File, c.Rows); err != nil {
			return err
		}
	}
	for _, lc := range m.Words.Langs {
		for _, c := range lc.Chunks {
			if err := probe(c.File, c.Rows); err != nil {
				return err
			}
		}
	}
	if p, ok := m.Words.File(FileWordIDs); ok {
		if err := probe(p, 0); err != nil {
			return err
		}
	}

	for _, c := range m.Names.Chunks {
		if err := probe(c.CoreFile, c.Rows); err != nil {
			return err
		}
		if c.LangEnFile != "" {
			if err := probe(c.LangEnFile, c.Rows); err != nil {
				return err
			}
		}
	}

	for _, role := range []string{FileEntries, FileMeaningsEN, FileLearningOrders} {
		if p, ok := m.Kanji.File(role); ok {
			if err := probe(p, 0); err != nil {
				return err
			}
		}
	}

	if p, ok := m.Kana.File(FileEntries); ok {
		if err := probe(p, 0); err != nil {
			return err
		}
	}

	for _, role := range []string{FileWordToCategory, FileLangEN} {
		if p, ok := m.Categories.File(role); ok {
			if err := probe(p, 0); err != nil {
				return err
			}
		}
	}

	return nil
}

func wrapLoadError(p string, err error) error {
	var de *record.DecodeError
	if errors.As(err, &de) {
		return &ConfigError{Path: p, Reason: "malformed manifest", Err: err}
	}
	if errors.Is(err, packsource.ErrNotFound) {
		return &ConfigError{Path: p, Reason: "manifest missing", Err: err}
	}
	return &ConfigError{Path: p, Reason: "manifest not readable", Err: err}
}
