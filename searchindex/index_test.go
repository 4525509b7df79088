package searchindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexgo/manifest"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/packsource"
	"github.com/hupe1980/lexgo/record"
	"github.com/hupe1980/lexgo/testutil"
)

func buildIndex(t *testing.T, domain model.Domain, mode model.Mode) (*Index, *packsource.Memory) {
	t.Helper()

	src := testutil.StandardDataset().Build()
	r := record.NewReader(src, nil, nil)
	man, err := manifest.Load(context.Background(), r)
	require.NoError(t, err)

	idx, err := New(man.Search, r, domain, mode)
	require.NoError(t, err)

	return idx, src
}

func TestNew_UndeclaredPair(t *testing.T) {
	src := testutil.StandardDataset().Build()
	r := record.NewReader(src, nil, nil)
	man, err := manifest.Load(context.Background(), r)
	require.NoError(t, err)

	var ce *manifest.ConfigError

	_, err = New(man.Search, r, model.Domain("verbs"), model.ModeSurface)
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Reason, `domain "verbs"`)

	// Auto is resolved before the index is consulted; no dataset declares it.
	_, err = New(man.Search, r, model.DomainWords, model.ModeAuto)
	require.ErrorAs(t, err, &ce)
}

func TestLookup_ExactAndPrefix(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainWords, model.ModeSurface)

	got, err := idx.Lookup(context.Background(), "水", 0, 0)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, Candidate{Key: "水", ID: int64(testutil.WordWater), Exact: true}, got[0])
	assert.Equal(t, Candidate{Key: "水曜日", ID: int64(testutil.WordWednesday), Exact: false}, got[1])
}

func TestLookup_ReadingPrefix(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainWords, model.ModeReading)

	got, err := idx.Lookup(context.Background(), "じ", 0, 0)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "じしょ", got[0].Key)
	assert.Equal(t, int64(testutil.WordDictionary), got[0].ID)
	assert.False(t, got[0].Exact)
}

func TestLookup_FallbackBucket(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainWords, model.ModeSurface)

	// Katakana has no surface bucket of its own; the scan must land in the
	// fallback base.
	got, err := idx.Lookup(context.Background(), "タクシー", 0, 0)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, Candidate{Key: "タクシー", ID: int64(testutil.WordTaxi), Exact: true}, got[0])
}

func TestLookup_Limit(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainWords, model.ModeSurface)

	got, err := idx.Lookup(context.Background(), "水", 1, 0)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.True(t, got[0].Exact)
}

func TestLookup_MaxKeysBound(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainWords, model.ModeSurface)

	got, err := idx.Lookup(context.Background(), "水", 0, 1)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "水", got[0].Key)
}

func TestLookup_NoMatch(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainWords, model.ModeReading)

	got, err := idx.Lookup(context.Background(), "ぞ", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLookup_EmptyKey(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainWords, model.ModeSurface)

	got, err := idx.Lookup(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLookup_Names(t *testing.T) {
	idx, _ := buildIndex(t, model.DomainNames, model.ModeReading)

	got, err := idx.Lookup(context.Background(), "たなか", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(testutil.NameTanaka), got[0].ID)

	got, err = idx.Lookup(context.Background(), "と", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(testutil.NameTokyo), got[0].ID)
}

func TestLookup_FailedLoadIsRetried(t *testing.T) {
	idx, src := buildIndex(t, model.DomainWords, model.ModeSurface)
	ctx := context.Background()

	src.Delete("search/words_surface_kanji_keys.json")

	_, err := idx.Lookup(ctx, "水", 0, 0)
	var se *record.StorageError
	require.ErrorAs(t, err, &se)

	testutil.PutJSON(src, "search/words_surface_kanji_keys.json", map[string]any{
		"keys": []string{"水", "水曜日", "走る", "辞書"},
	})

	got, err := idx.Lookup(ctx, "水", 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLookup_MemoizesBase(t *testing.T) {
	idx, src := buildIndex(t, model.DomainWords, model.ModeSurface)
	ctx := context.Background()

	_, err := idx.Lookup(ctx, "水", 0, 0)
	require.NoError(t, err)

	// A memoized shard survives the loss of its backing documents.
	src.Delete("search/words_surface_kanji.json")
	src.Delete("search/words_surface_kanji_keys.json")

	got, err := idx.Lookup(ctx, "辞書", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(testutil.WordDictionary), got[0].ID)
}

func BenchmarkIndex_Lookup(b *testing.B) {
	rng := testutil.NewRNG(42)
	d := testutil.NewDataset()
	d.Words = testutil.GenerateWords(rng, 1, 2000)
	src := d.Build()

	r := record.NewReader(src, nil, nil)
	man, err := manifest.Load(context.Background(), r)
	if err != nil {
		b.Fatal(err)
	}
	idx, err := New(man.Search, r, model.DomainWords, model.ModeReading)
	if err != nil {
		b.Fatal(err)
	}

	keys := make([]string, 0, len(d.Words))
	for _, w := range d.Words {
		keys = append(keys, w.Primary.Reading)
	}

	ctx := context.Background()
	rng.Reset()
	for b.Loop() {
		if _, err := idx.Lookup(ctx, keys[rng.Intn(len(keys))], 0, 0); err != nil {
			b.Fatal(err)
		}
	}
}
