package lexgo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexgo/manifest"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/packsource"
	"github.com/hupe1980/lexgo/resource"
	"github.com/hupe1980/lexgo/testutil"
	"github.com/hupe1980/lexgo/validate"
)

func newTestEngine(t *testing.T, src *packsource.Memory, optFns ...Option) *Engine {
	t.Helper()
	eng, err := Open(context.Background(), src, optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestOpen(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)

	assert.NotNil(t, eng.Manifest())
	assert.Equal(t, []string{"en"}, eng.Manifest().Words.GlossLangs())
	assert.Equal(t, 2, eng.words.Len())
	assert.Equal(t, 1, eng.names.Len())
	// words and names, surface and reading each.
	assert.Len(t, eng.indexes, 4)
}

func TestOpen_MissingModuleManifest(t *testing.T) {
	src := testutil.StandardDataset().Build()
	src.Delete("words/manifest.json")

	_, err := Open(context.Background(), src)
	require.Error(t, err)

	var ce *manifest.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "words/manifest.json", ce.Path)
}

func TestOpen_OverlappingChunks(t *testing.T) {
	src := testutil.StandardDataset().Build()
	testutil.PutJSON(src, "words/manifest.json", map[string]any{
		"chunks": []map[string]any{
			{"start_id": 100, "end_id": 150, "file": "chunks/words_00100_00150.json", "rows": 3},
			{"start_id": 150, "end_id": 210, "file": "chunks/words_00205_00210.json.gz", "rows": 2},
		},
		"langs": map[string]any{},
		"files": map[string]string{"word_ids": "word_ids.json"},
	})

	_, err := Open(context.Background(), src)
	require.Error(t, err)

	var ce *manifest.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestWord(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)
	ctx := context.Background()

	t.Run("PlainChunk", func(t *testing.T) {
		word, err := eng.Word(ctx, int64(testutil.WordWater))
		require.NoError(t, err)
		assert.Equal(t, "水", word.Primary.Surface)
		assert.Equal(t, "みず", word.Primary.Reading)
		require.Len(t, word.Senses, 1)
		assert.Equal(t, []string{"water"}, word.Senses[0].Gloss["en"])
	})

	t.Run("GzipChunk", func(t *testing.T) {
		word, err := eng.Word(ctx, int64(testutil.WordTaxi))
		require.NoError(t, err)
		assert.Equal(t, "タクシー", word.Primary.Surface)
	})

	t.Run("UncoveredID", func(t *testing.T) {
		_, err := eng.Word(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CoveredButAbsentID", func(t *testing.T) {
		// 101 falls inside the first chunk range but has no record.
		_, err := eng.Word(ctx, 101)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestWord_GlossMerge(t *testing.T) {
	d := testutil.NewDataset()
	d.Words = []model.WordEntry{
		{
			ID:      7,
			Primary: model.WrittenForm{Surface: "犬", Reading: "いぬ"},
			Senses:  []model.Sense{{ID: 1, POS: []string{"n"}}, {ID: 2, POS: []string{"n"}}},
		},
	}
	d.WordLangs["en"] = []model.WordLangEntry{
		{ID: 7, Senses: []model.LangSense{{ID: 1, Gloss: []string{"dog"}, ShortGloss: "dog"}}},
	}
	d.WordLangs["de"] = []model.WordLangEntry{
		{ID: 7, Senses: []model.LangSense{{ID: 1, Gloss: []string{"Hund"}}}},
	}
	eng := newTestEngine(t, d.Build())

	word, err := eng.Word(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, word.Senses, 2)
	assert.Equal(t, []string{"dog"}, word.Senses[0].Gloss["en"])
	assert.Equal(t, []string{"Hund"}, word.Senses[0].Gloss["de"])
	// The language packs carry nothing for sense 2.
	assert.Empty(t, word.Senses[1].Gloss)
}

func TestName(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)
	ctx := context.Background()

	t.Run("WithTranslations", func(t *testing.T) {
		name, err := eng.Name(ctx, int64(testutil.NameTokyo))
		require.NoError(t, err)
		assert.Equal(t, "東京", name.Primary.Surface)
		assert.Equal(t, []string{"place"}, name.Types)
		assert.Equal(t, []string{"Tokyo"}, name.Translations["en"])
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := eng.Name(ctx, 4999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestKanji(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		entry, err := eng.Kanji(ctx, '水')
		require.NoError(t, err)
		assert.Equal(t, "水", entry.Literal)
		assert.Equal(t, 4, entry.Strokes)
		assert.Equal(t, []string{"スイ"}, entry.Readings.On)
		assert.Equal(t, []string{"water"}, entry.Meanings["en"])
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := eng.Kanji(ctx, '日')
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestKanjiByOrder(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)
	ctx := context.Background()

	head, err := eng.KanjiByOrder(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, head, 2)
	assert.Equal(t, "水", head[0].Kanji)
	assert.Equal(t, "書", head[1].Kanji)
	assert.Equal(t, 24, head[0].OrderOverall)

	rest, err := eng.KanjiByOrder(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "書", rest[0].Kanji)
	assert.Equal(t, "走", rest[1].Kanji)

	past, err := eng.KanjiByOrder(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, past)

	clamped, err := eng.KanjiByOrder(ctx, -3, 1)
	require.NoError(t, err)
	require.Len(t, clamped, 1)
	assert.Equal(t, "水", clamped[0].Kanji)
}

func TestKana(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)
	ctx := context.Background()

	entry, err := eng.Kana(ctx, "あ")
	require.NoError(t, err)
	assert.Equal(t, "hiragana", entry.Script)
	assert.Equal(t, "a", entry.Romaji)
	assert.Equal(t, 1, entry.Order)

	_, err = eng.Kana(ctx, "ん")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategories(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)

	cats, err := eng.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, model.Category{ID: "nature", Title: "Nature", Description: "Words about the natural world."}, cats[0])
	assert.Equal(t, "transport", cats[1].ID)
	assert.Equal(t, "Transport", cats[1].Title)
}

func TestCategory(t *testing.T) {
	src := testutil.StandardDataset().Build()
	eng := newTestEngine(t, src)
	ctx := context.Background()

	t.Run("OrderedByScore", func(t *testing.T) {
		group, err := eng.Category(ctx, "nature", 0)
		require.NoError(t, err)
		assert.Equal(t, "nature", group.CategoryID)
		assert.Equal(t, 2, group.Count)
		assert.Equal(t, []model.WordID{testutil.WordWater, testutil.WordWednesday}, group.WordIDs)
	})

	t.Run("Limited", func(t *testing.T) {
		group, err := eng.Category(ctx, "nature", 1)
		require.NoError(t, err)
		assert.Equal(t, 2, group.Count)
		assert.Equal(t, []model.WordID{testutil.WordWater}, group.WordIDs)
	})

	t.Run("NoCommonMembers", func(t *testing.T) {
		// The only transport word is not flagged common.
		group, err := eng.Category(ctx, "transport", 0)
		require.NoError(t, err)
		assert.Equal(t, 0, group.Count)
		assert.Empty(t, group.WordIDs)
	})

	t.Run("Undeclared", func(t *testing.T) {
		_, err := eng.Category(ctx, "weather", 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEngineValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("Clean", func(t *testing.T) {
		eng := newTestEngine(t, testutil.StandardDataset().Build())
		report := eng.Validate(ctx)
		assert.True(t, report.OK)
		assert.Equal(t, validate.ModeFast, report.Mode)
	})

	t.Run("Corrupt", func(t *testing.T) {
		src := testutil.StandardDataset().Build()
		eng := newTestEngine(t, src)
		// Drop one id from the canonical set after Open; the relations
		// read live and must notice.
		testutil.PutJSON(src, "words/word_ids.json", map[string]any{
			"ids": []int64{100, 120, 150, 210},
		})

		report := eng.Validate(ctx, func(o *validate.Options) {
			o.Mode = validate.ModeFull
		})
		assert.False(t, report.OK)
		assert.Equal(t, validate.ModeFull, report.Mode)
		assert.NotEmpty(t, report.Violations)
	})
}

func TestEngineOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("Metrics", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		eng := newTestEngine(t, testutil.StandardDataset().Build(), WithMetricsCollector(metrics))

		_, err := eng.Search("水").Execute(ctx)
		require.NoError(t, err)
		_, err = eng.Search("水").Domain("verbs").Execute(ctx)
		require.Error(t, err)
		_, err = eng.Word(ctx, int64(testutil.WordWater))
		require.NoError(t, err)
		_, err = eng.Word(ctx, 999)
		require.Error(t, err)
		_ = eng.Validate(ctx)

		stats := metrics.GetStats()
		assert.Equal(t, int64(2), stats.SearchCount)
		assert.Equal(t, int64(1), stats.SearchErrors)
		assert.Equal(t, int64(2), stats.LookupCount)
		assert.Equal(t, int64(1), stats.LookupErrors)
		assert.Equal(t, int64(1), stats.ValidateCount)
	})

	t.Run("ResourceConfig", func(t *testing.T) {
		eng := newTestEngine(t, testutil.StandardDataset().Build(), WithResourceConfig(resource.Config{
			MaxWorkers: 2,
		}))
		report := eng.Validate(ctx)
		assert.True(t, report.OK)
	})

	t.Run("BlockCache", func(t *testing.T) {
		eng := newTestEngine(t, testutil.StandardDataset().Build(), WithBlockCache(1<<20, 0))
		results, err := eng.Search("水").Execute(ctx)
		require.NoError(t, err)
		assert.Len(t, results, 2)

		word, err := eng.Word(ctx, int64(testutil.WordTaxi))
		require.NoError(t, err)
		assert.Equal(t, "タクシー", word.Primary.Surface)
	})

	t.Run("NilCollaborators", func(t *testing.T) {
		// nil falls back to the noop implementations instead of panicking
		// on the first recorded operation.
		eng := newTestEngine(t, testutil.StandardDataset().Build(),
			WithMetricsCollector(nil), WithLogger(nil))

		results, err := eng.Search("水").Execute(ctx)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("Codec", func(t *testing.T) {
		eng := newTestEngine(t, testutil.StandardDataset().Build(), WithCodec(nil))
		_, err := eng.Word(ctx, int64(testutil.WordWater))
		assert.NoError(t, err)
	})
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	wrapped := translateError(packsource.ErrNotFound)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.ErrorIs(t, wrapped, packsource.ErrNotFound)

	other := errors.New("disk on fire")
	assert.Equal(t, other, translateError(other))
}

func TestCloseNilSafe(t *testing.T) {
	var eng *Engine
	assert.NoError(t, eng.Close())

	live := newTestEngine(t, testutil.StandardDataset().Build())
	assert.NoError(t, live.Close())
}
