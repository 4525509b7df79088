package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexgo/packsource"
	"github.com/hupe1980/lexgo/record"
	"github.com/hupe1980/lexgo/testutil"
)

func newReader(src packsource.Source) *record.Reader {
	return record.NewReader(src, nil, nil)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()

	m, err := Load(ctx, newReader(src))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, m.Version)
	require.NotNil(t, m.Search)
	require.NotNil(t, m.Words)
	require.NotNil(t, m.Names)
	require.NotNil(t, m.Kanji)
	require.NotNil(t, m.Kana)
	require.NotNil(t, m.Categories)

	bases, ok := m.Search.Bases("words", "surface")
	require.True(t, ok)
	assert.Equal(t, []string{"words_surface_kanji", "words_surface_other"}, bases)

	bases, ok = m.Search.Bases("names", "reading")
	require.True(t, ok)
	assert.Equal(t, []string{"names_reading_hiragana", "names_reading_other"}, bases)

	_, ok = m.Search.Bases("words", "romaji")
	assert.False(t, ok)
}

func TestLoad_RebasesChunkPaths(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()

	m, err := Load(ctx, newReader(src))
	require.NoError(t, err)

	require.Len(t, m.Words.Chunks, 2)
	assert.Equal(t, "words/chunks/words_00100_00150.json", m.Words.Chunks[0].File)
	assert.Equal(t, "words/chunks/words_00205_00210.json.gz", m.Words.Chunks[1].File)
	assert.Equal(t, int64(100), m.Words.Chunks[0].StartID)
	assert.Equal(t, int64(150), m.Words.Chunks[0].EndID)
	assert.Equal(t, 3, m.Words.Chunks[0].Rows)

	require.Len(t, m.Names.Chunks, 1)
	assert.Equal(t, "names/chunks/names_05000_05001.jsonl.gz", m.Names.Chunks[0].CoreFile)
	assert.Equal(t, "names/chunks/names_05000_05001_en.jsonl.gz", m.Names.Chunks[0].LangEnFile)

	assert.Equal(t, []string{"en"}, m.Words.GlossLangs())

	p, ok := m.Words.File(FileWordIDs)
	require.True(t, ok)
	assert.Equal(t, "words/word_ids.json", p)
}

func TestLoad_FileTable(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()

	m, err := Load(ctx, newReader(src))
	require.NoError(t, err)

	// Declared plain, stored gzipped: the table records the encoding that
	// actually resolved.
	fi, ok := m.Files["kanji/kanji.json"]
	require.True(t, ok)
	assert.Equal(t, record.EncodingGzipJSON, fi.Encoding)

	fi, ok = m.Files["words/chunks/words_00100_00150.json"]
	require.True(t, ok)
	assert.Equal(t, record.EncodingJSON, fi.Encoding)
	assert.Equal(t, 3, fi.Rows)

	fi, ok = m.Files["names/chunks/names_05000_05001.jsonl.gz"]
	require.True(t, ok)
	assert.Equal(t, record.EncodingGzipJSONL, fi.Encoding)

	_, ok = m.Files["search/word_rank.json"]
	assert.True(t, ok)
}

func TestLoad_MissingRoot(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, newReader(packsource.NewMemory()))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, RootFileName, ce.Path)
	assert.Equal(t, "manifest missing", ce.Reason)
	assert.ErrorIs(t, err, packsource.ErrNotFound)
}

func TestLoad_GzippedRoot(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()

	// Re-encode the root manifest: declared name stays manifest.json.
	var root map[string]any
	require.NoError(t, newReader(src).Get(ctx, RootFileName, &root))
	src.Delete(RootFileName)
	testutil.PutJSONGz(src, RootFileName+".gz", root)

	_, err := Load(ctx, newReader(src))
	require.NoError(t, err)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()
	testutil.PutJSON(src, RootFileName, map[string]any{
		"version": 99,
		"modules": map[string]string{},
	})

	_, err := Load(ctx, newReader(src))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Reason, "unsupported manifest version: 99")
}

func TestLoad_UndeclaredModule(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()
	testutil.PutJSON(src, RootFileName, map[string]any{
		"version": CurrentVersion,
		"modules": map[string]string{
			ModuleSearch: "search/manifest.json",
			ModuleWords:  "words/manifest.json",
			ModuleNames:  "names/meta.json",
			ModuleKanji:  "kanji/manifest.json",
			ModuleKana:   "kana/manifest.json",
			// categories missing
		},
	})

	_, err := Load(ctx, newReader(src))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Reason, `module "categories" not declared`)
}

func TestLoad_MalformedModuleManifest(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()
	src.Put("kana/manifest.json", []byte("{not json"))

	_, err := Load(ctx, newReader(src))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "kana/manifest.json", ce.Path)
	assert.Equal(t, "malformed manifest", ce.Reason)
}

func TestLoad_DanglingReference(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()
	src.Delete("words/word_ids.json")

	_, err := Load(ctx, newReader(src))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "words/word_ids.json", ce.Path)
	assert.Equal(t, "referenced file does not exist", ce.Reason)
}

func TestLoad_EmptyBaseList(t *testing.T) {
	ctx := context.Background()
	src := testutil.StandardDataset().Build()
	testutil.PutJSON(src, "search/manifest.json", map[string]any{
		"domains": map[string]any{
			"words": map[string][]string{"surface": {}},
		},
		"files": map[string]string{},
	})

	_, err := Load(ctx, newReader(src))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Reason, "declares no index bases")
}
