package lexgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/testutil"
)

func TestSearch_AutoModeReading(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())

	// Katakana-only query: auto resolves to reading and folds to hiragana,
	// so タクシー and たくしー reach the same index key.
	results, err := eng.Search("タクシー").Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, int64(testutil.WordTaxi), r.ID)
	assert.Equal(t, "たくしー", r.Key)
	assert.True(t, r.Exact)
	assert.Equal(t, model.DomainWords, r.Domain)
	assert.Equal(t, model.ModeReading, r.Mode)
	assert.Equal(t, 10, r.Score)
	assert.False(t, r.Common)
}

func TestSearch_AutoModeSurface(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())

	// A kanji query resolves to surface; the prefix scan picks up 水 and
	// 水曜日, exact match first.
	results, err := eng.Search("水").Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(testutil.WordWater), results[0].ID)
	assert.True(t, results[0].Exact)
	assert.Equal(t, model.ModeSurface, results[0].Mode)
	assert.Equal(t, 24, results[0].Score)

	assert.Equal(t, int64(testutil.WordWednesday), results[1].ID)
	assert.Equal(t, "水曜日", results[1].Key)
	assert.False(t, results[1].Exact)
}

func TestSearch_ExplicitMode(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())

	results, err := eng.Search("みず").Mode(model.ModeReading).Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(testutil.WordWater), results[0].ID)

	// The same key against the surface index matches nothing; readings are
	// not surfaces.
	results, err = eng.Search("みず").Mode(model.ModeSurface).Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_NamesDomain(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	results, err := eng.Search("たなか").Domain(model.DomainNames).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(testutil.NameTanaka), results[0].ID)
	// Names carry no rank data.
	assert.Zero(t, results[0].Score)
	assert.False(t, results[0].Common)

	results, err = eng.Search("東京").Domain(model.DomainNames).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(testutil.NameTokyo), results[0].ID)
	assert.Equal(t, model.ModeSurface, results[0].Mode)
}

func TestSearch_Ordering(t *testing.T) {
	d := testutil.NewDataset()
	d.Words = []model.WordEntry{
		{ID: 1, Primary: model.WrittenForm{Surface: "あお", Reading: "あお"}},
		{ID: 2, Primary: model.WrittenForm{Surface: "あおい", Reading: "あおい"}},
		{ID: 3, Primary: model.WrittenForm{Surface: "あおぞら", Reading: "あおぞら"}},
	}
	d.Ranks = map[model.WordID]model.RankInfo{
		1: {Score: 5, Common: false},
		2: {Score: 3, Common: true},
		3: {Score: 3, Common: true},
	}
	d.CommonIDs = []model.WordID{2, 3}
	eng := newTestEngine(t, d.Build())
	ctx := context.Background()

	ids := func(results []SearchResult) []int64 {
		out := make([]int64, 0, len(results))
		for _, r := range results {
			out = append(out, r.ID)
		}
		return out
	}

	// Default order: stored score descending, then shorter key.
	results, err := eng.Search("あ").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(results))

	// CommonFirst pulls the common words ahead of the higher-scored
	// uncommon one.
	results, err = eng.Search("あ").CommonFirst().Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, ids(results))
}

func TestSearch_Limit(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	results, err := eng.Search("水").Limit(1).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(testutil.WordWater), results[0].ID)

	_, err = eng.Search("水").Limit(0).Execute(ctx)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = eng.Search("水").Limit(-5).Execute(ctx)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestSearch_MaxKeys(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())

	// Only the first key of the scan is visited, so the prefix hit on
	// 水曜日 stays invisible.
	results, err := eng.Search("水").MaxKeys(1).Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(testutil.WordWater), results[0].ID)
}

func TestSearch_UnknownDomainAndMode(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	_, err := eng.Search("水").Domain("verbs").Execute(ctx)
	assert.ErrorIs(t, err, ErrUnknownDomain)

	_, err = eng.Search("水").Mode("fuzzy").Execute(ctx)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSearch_KanjiDomainLiteral(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	// Kanji queries bypass the prefix index: a direct literal lookup, one
	// record at most.
	results, err := eng.Search("水").Domain(model.DomainKanji).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64('水'), results[0].ID)
	assert.Equal(t, "水", results[0].Key)
	assert.True(t, results[0].Exact)
	assert.Equal(t, model.DomainKanji, results[0].Domain)
	assert.Equal(t, model.ModeSurface, results[0].Mode)

	// An absent literal is an empty result, not an error.
	results, err = eng.Search("日").Domain(model.DomainKanji).Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Multi-character queries match nothing; kanji are never prefix-scanned.
	results, err = eng.Search("水曜").Domain(model.DomainKanji).Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_KanaDomainLiteral(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	results, err := eng.Search("あ").Domain(model.DomainKana).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "あ", results[0].Key)
	assert.Equal(t, int64('あ'), results[0].ID)

	// The katakana symbol reaches its own record: the reading fold never
	// applies to kana lookups.
	results, err = eng.Search("ア").Domain(model.DomainKana).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ア", results[0].Key)

	results, err = eng.Search("ん").Domain(model.DomainKana).Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_DedupesAcrossForms(t *testing.T) {
	d := testutil.StandardDataset()
	d.Words = append(d.Words, model.WordEntry{
		ID:      300,
		Primary: model.WrittenForm{Surface: "走り", Reading: "はしり"},
		Forms:   []model.WrittenForm{{Surface: "走り出", Reading: "はしりだ"}},
		Senses:  []model.Sense{{ID: 1, Gloss: map[string][]string{"en": {"running"}}}},
	})
	eng := newTestEngine(t, d.Build())

	// Both readings of id 300 share the queried prefix; the entry surfaces
	// once, under its best-ranked key.
	results, err := eng.Search("はしり").Mode(model.ModeReading).Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(300), results[0].ID)
	assert.Equal(t, "はしり", results[0].Key)
	assert.True(t, results[0].Exact)
}

func TestSearch_EmptyQuery(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())

	results, err := eng.Search("").Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_First(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	first, err := eng.Search("水").First(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(testutil.WordWater), first.ID)
	assert.True(t, first.Exact)

	_, err = eng.Search("ぞぞぞ").First(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_CountAndExists(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	count, err := eng.Search("水").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ok, err := eng.Search("水").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.Search("ぞぞぞ").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearch_Stream(t *testing.T) {
	eng := newTestEngine(t, testutil.StandardDataset().Build())
	ctx := context.Background()

	t.Run("Full", func(t *testing.T) {
		var got []int64
		for result, err := range eng.Search("水").Stream(ctx) {
			require.NoError(t, err)
			got = append(got, result.ID)
		}
		assert.Equal(t, []int64{int64(testutil.WordWater), int64(testutil.WordWednesday)}, got)
	})

	t.Run("EarlyTermination", func(t *testing.T) {
		var got []int64
		for result, err := range eng.Search("水").Stream(ctx) {
			require.NoError(t, err)
			got = append(got, result.ID)
			break
		}
		assert.Equal(t, []int64{int64(testutil.WordWater)}, got)
	})

	t.Run("Error", func(t *testing.T) {
		var errs []error
		for _, err := range eng.Search("水").Limit(0).Stream(ctx) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrInvalidLimit)
	})
}

func TestSearch_FullwidthLatinQuery(t *testing.T) {
	d := testutil.NewDataset()
	d.Words = []model.WordEntry{
		{ID: 11, Primary: model.WrittenForm{Surface: "ＮＨＫ", Reading: "えぬえいちけい"}},
	}
	eng := newTestEngine(t, d.Build())

	// Halfwidth ASCII normalizes to the fullwidth key form.
	results, err := eng.Search("NHK").Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(11), results[0].ID)
	assert.Equal(t, model.ModeSurface, results[0].Mode)
}
