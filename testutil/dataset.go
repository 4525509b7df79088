package testutil

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/normalize"
	"github.com/hupe1980/lexgo/packsource"
)

// Well-known ids in the standard dataset.
const (
	WordWater      model.WordID = 100
	WordWednesday  model.WordID = 120
	WordDictionary model.WordID = 150
	WordTaxi       model.WordID = 205
	WordRun        model.WordID = 210

	NameTanaka model.NameID = 5000
	NameTokyo  model.NameID = 5001
)

// Index bases emitted by the builder, one pair per domain and mode. The
// last base of each list is the fallback bucket.
var (
	wordSurfaceBases = []string{"words_surface_kanji", "words_surface_other"}
	wordReadingBases = []string{"words_reading_hiragana", "words_reading_other"}
	nameSurfaceBases = []string{"names_surface_kanji", "names_surface_other"}
	nameReadingBases = []string{"names_reading_hiragana", "names_reading_other"}
)

// Dataset is a structured fixture. Populate the fields (or start from
// StandardDataset) and call Build to materialize the manifest chain and
// every document into an in-memory source. Build derives the search index
// from the entries, so fixtures stay internally consistent; tests that
// need an inconsistent dataset overwrite individual documents afterwards.
type Dataset struct {
	Words         []model.WordEntry
	WordLangs     map[string][]model.WordLangEntry
	WordChunkSize int

	Names         []model.NameEntry
	NameLangs     []model.NameLangEntry
	NameChunkSize int

	Kanji         []model.KanjiEntry
	KanjiMeanings map[string][]string
	KanjiOrders   []model.KanjiOrder

	Kana []model.KanaEntry

	Categories   []model.Category
	WordCategory map[model.WordID]string

	Ranks     map[model.WordID]model.RankInfo
	CommonIDs []model.WordID
}

// NewDataset returns an empty dataset with default chunk sizes.
func NewDataset() *Dataset {
	return &Dataset{
		WordLangs:     map[string][]model.WordLangEntry{},
		KanjiMeanings: map[string][]string{},
		WordCategory:  map[model.WordID]string{},
		Ranks:         map[model.WordID]model.RankInfo{},
		WordChunkSize: 100,
		NameChunkSize: 100,
	}
}

// StandardDataset returns the canonical fixture: five words in two chunks
// (one plain, one gzip), two names, three kanji, kana rows, two categories
// and rank data. Word ids 100..210, name ids 5000..5001.
func StandardDataset() *Dataset {
	d := NewDataset()
	d.WordChunkSize = 3

	d.Words = []model.WordEntry{
		{
			ID:        WordWater,
			Primary:   model.WrittenForm{Surface: "水", Reading: "みず"},
			Priority:  &model.Priority{Score: 24, Common: true},
			Education: &model.Education{OrderOverall: 24, Grade: "1"},
			Senses:    []model.Sense{{ID: 1, POS: []string{"n"}, Gloss: map[string][]string{"en": {"water"}}}},
			Kanji:     []string{"水"},
		},
		{
			ID:       WordWednesday,
			Primary:  model.WrittenForm{Surface: "水曜日", Reading: "すいようび"},
			Priority: &model.Priority{Score: 20, Common: true},
			Senses:   []model.Sense{{ID: 1, POS: []string{"n"}, Gloss: map[string][]string{"en": {"Wednesday"}}}},
			Kanji:    []string{"水", "曜", "日"},
		},
		{
			ID:       WordDictionary,
			Primary:  model.WrittenForm{Surface: "辞書", Reading: "じしょ"},
			Priority: &model.Priority{Score: 15, Common: true},
			Senses:   []model.Sense{{ID: 1, POS: []string{"n"}, Gloss: map[string][]string{"en": {"dictionary", "lexicon"}}}},
			Kanji:    []string{"辞", "書"},
		},
		{
			ID:       WordTaxi,
			Primary:  model.WrittenForm{Surface: "タクシー", Reading: "タクシー"},
			Priority: &model.Priority{Score: 10, Common: false},
			Senses:   []model.Sense{{ID: 1, POS: []string{"n"}, Gloss: map[string][]string{"en": {"taxi"}}}},
		},
		{
			ID:       WordRun,
			Primary:  model.WrittenForm{Surface: "走る", Reading: "はしる"},
			Priority: &model.Priority{Score: 18, Common: true},
			Senses:   []model.Sense{{ID: 1, POS: []string{"v5r"}, Gloss: map[string][]string{"en": {"to run"}}}},
			Kanji:    []string{"走"},
		},
	}
	d.WordLangs["en"] = []model.WordLangEntry{
		{ID: WordWater, Senses: []model.LangSense{{ID: 1, Gloss: []string{"water"}, ShortGloss: "water"}}},
		{ID: WordWednesday, Senses: []model.LangSense{{ID: 1, Gloss: []string{"Wednesday"}, ShortGloss: "Wednesday"}}},
		{ID: WordDictionary, Senses: []model.LangSense{{ID: 1, Gloss: []string{"dictionary", "lexicon"}, ShortGloss: "dictionary"}}},
		{ID: WordTaxi, Senses: []model.LangSense{{ID: 1, Gloss: []string{"taxi"}, ShortGloss: "taxi"}}},
		{ID: WordRun, Senses: []model.LangSense{{ID: 1, Gloss: []string{"to run"}, ShortGloss: "run"}}},
	}

	d.Names = []model.NameEntry{
		{ID: NameTanaka, Primary: model.WrittenForm{Surface: "田中", Reading: "たなか"}, Types: []string{"surname"}},
		{ID: NameTokyo, Primary: model.WrittenForm{Surface: "東京", Reading: "とうきょう"}, Types: []string{"place"}},
	}
	d.NameLangs = []model.NameLangEntry{
		{ID: NameTanaka, Translations: []string{"Tanaka"}},
		{ID: NameTokyo, Translations: []string{"Tokyo"}},
	}

	d.Kanji = []model.KanjiEntry{
		{
			Literal:   "水",
			Strokes:   4,
			Radical:   "水",
			Readings:  model.KanjiReadings{On: []string{"スイ"}, Kun: []string{"みず"}},
			Education: &model.Education{OrderOverall: 24, Grade: "1"},
		},
		{
			Literal:    "書",
			Strokes:    10,
			Radical:    "曰",
			Readings:   model.KanjiReadings{On: []string{"ショ"}, Kun: []string{"か.く"}},
			Education:  &model.Education{OrderOverall: 142, Grade: "2"},
			Components: []string{"聿", "曰"},
		},
		{
			Literal:   "走",
			Strokes:   7,
			Radical:   "走",
			Readings:  model.KanjiReadings{On: []string{"ソウ"}, Kun: []string{"はし.る"}},
			Education: &model.Education{OrderOverall: 149, Grade: "2"},
		},
	}
	d.KanjiMeanings = map[string][]string{
		"U+6C34": {"water"},
		"U+66F8": {"write", "book"},
		"U+8D70": {"run"},
	}
	d.KanjiOrders = []model.KanjiOrder{
		{Kanji: "水", Education: model.Education{OrderOverall: 24, Grade: "1"}},
		{Kanji: "書", Education: model.Education{OrderOverall: 142, Grade: "2"}},
		{Kanji: "走", Education: model.Education{OrderOverall: 149, Grade: "2"}},
	}

	d.Kana = []model.KanaEntry{
		{Symbol: "あ", Script: "hiragana", Romaji: "a", Order: 1},
		{Symbol: "い", Script: "hiragana", Romaji: "i", Order: 2},
		{Symbol: "う", Script: "hiragana", Romaji: "u", Order: 3},
		{Symbol: "ア", Script: "katakana", Romaji: "a", Order: 1},
		{Symbol: "イ", Script: "katakana", Romaji: "i", Order: 2},
		{Symbol: "ウ", Script: "katakana", Romaji: "u", Order: 3},
	}

	d.Categories = []model.Category{
		{ID: "nature", Title: "Nature", Description: "Words about the natural world."},
		{ID: "transport", Title: "Transport", Description: "Getting from A to B."},
	}
	d.WordCategory = map[model.WordID]string{
		WordWater:     "nature",
		WordWednesday: "nature",
		WordTaxi:      "transport",
	}

	d.Ranks = map[model.WordID]model.RankInfo{
		WordWater:      {Score: 24, Common: true},
		WordWednesday:  {Score: 20, Common: true},
		WordDictionary: {Score: 15, Common: true},
		WordTaxi:       {Score: 10, Common: false},
		WordRun:        {Score: 18, Common: true},
	}
	d.CommonIDs = []model.WordID{WordWater, WordWednesday, WordDictionary, WordRun}

	return d
}

// GenerateWords produces n kana-only entries with sequential ids starting
// at start. Surfaces double as readings so both index modes resolve them.
func GenerateWords(rng *RNG, start model.WordID, n int) []model.WordEntry {
	syllables := []string{
		"あ", "い", "う", "え", "お", "か", "き", "く", "け", "こ",
		"さ", "し", "す", "せ", "そ", "た", "な", "に", "ぬ", "ね",
		"は", "ひ", "ふ", "ま", "み", "む", "や", "ゆ", "よ", "わ",
	}
	words := make([]model.WordEntry, 0, n)
	for i := range n {
		var sb strings.Builder
		for range 2 + rng.Intn(3) {
			sb.WriteString(syllables[rng.Intn(len(syllables))])
		}
		w := sb.String()
		words = append(words, model.WordEntry{
			ID:      start + model.WordID(i),
			Primary: model.WrittenForm{Surface: w, Reading: w},
			Senses:  []model.Sense{{ID: 1, Gloss: map[string][]string{"en": {fmt.Sprintf("generated gloss %d", i)}}}},
		})
	}
	return words
}

// Build materializes the dataset into an in-memory source.
func (d *Dataset) Build() *packsource.Memory {
	src := packsource.NewMemory()

	PutJSON(src, "manifest.json", map[string]any{
		"version": 1,
		"modules": map[string]string{
			"search":     "search/manifest.json",
			"words":      "words/manifest.json",
			"names":      "names/meta.json",
			"kanji":      "kanji/manifest.json",
			"kana":       "kana/manifest.json",
			"categories": "categories/manifest.json",
		},
	})

	d.buildSearch(src)
	d.buildWords(src)
	d.buildNames(src)
	d.buildKanji(src)
	d.buildKana(src)
	d.buildCategories(src)

	return src
}

type idRange struct {
	start, end model.WordID
}

func (d *Dataset) buildWords(src *packsource.Memory) {
	words := append([]model.WordEntry(nil), d.Words...)
	sort.Slice(words, func(i, j int) bool { return words[i].ID < words[j].ID })

	size := d.WordChunkSize
	if size <= 0 {
		size = 100
	}

	var ranges []idRange
	chunkDescs := []map[string]any{}
	for i := 0; i < len(words); i += size {
		part := words[i:min(i+size, len(words))]
		start, end := part[0].ID, part[len(part)-1].ID
		file := fmt.Sprintf("chunks/words_%05d_%05d.json", start, end)
		doc := map[string]any{"entries": part}
		// Alternate encodings so both document forms stay covered.
		if (i/size)%2 == 1 {
			file += ".gz"
			PutJSONGz(src, "words/"+file, doc)
		} else {
			PutJSON(src, "words/"+file, doc)
		}
		ranges = append(ranges, idRange{start, end})
		chunkDescs = append(chunkDescs, map[string]any{
			"start_id": start, "end_id": end, "file": file, "rows": len(part),
		})
	}

	langsDoc := map[string]any{}
	langs := make([]string, 0, len(d.WordLangs))
	for lang := range d.WordLangs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		entries := append([]model.WordLangEntry(nil), d.WordLangs[lang]...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		descs := []map[string]any{}
		for _, rg := range ranges {
			part := []model.WordLangEntry{}
			for _, e := range entries {
				if e.ID >= rg.start && e.ID <= rg.end {
					part = append(part, e)
				}
			}
			file := fmt.Sprintf("lang/%s_%05d_%05d.json", lang, rg.start, rg.end)
			PutJSON(src, "words/"+file, map[string]any{"entries": part})
			descs = append(descs, map[string]any{
				"start_id": rg.start, "end_id": rg.end, "file": file, "rows": len(part),
			})
		}
		langsDoc[lang] = map[string]any{"chunks": descs}
	}

	ids := make([]model.WordID, 0, len(words))
	for _, w := range words {
		ids = append(ids, w.ID)
	}
	PutJSON(src, "words/word_ids.json", map[string]any{"ids": ids})

	PutJSON(src, "words/manifest.json", map[string]any{
		"chunks": chunkDescs,
		"langs":  langsDoc,
		"files":  map[string]string{"word_ids": "word_ids.json"},
	})
}

func (d *Dataset) buildNames(src *packsource.Memory) {
	names := append([]model.NameEntry(nil), d.Names...)
	sort.Slice(names, func(i, j int) bool { return names[i].ID < names[j].ID })

	langByID := make(map[model.NameID]model.NameLangEntry, len(d.NameLangs))
	for _, e := range d.NameLangs {
		langByID[e.ID] = e
	}

	size := d.NameChunkSize
	if size <= 0 {
		size = 100
	}

	descs := []map[string]any{}
	for i := 0; i < len(names); i += size {
		part := names[i:min(i+size, len(names))]
		start, end := part[0].ID, part[len(part)-1].ID
		coreFile := fmt.Sprintf("chunks/names_%05d_%05d.jsonl.gz", start, end)
		langFile := fmt.Sprintf("chunks/names_%05d_%05d_en.jsonl.gz", start, end)

		coreRecs := make([]any, 0, len(part))
		langRecs := make([]any, 0, len(part))
		for _, e := range part {
			coreRecs = append(coreRecs, e)
			le, ok := langByID[e.ID]
			if !ok {
				// Keep the files line-aligned even without translations.
				le = model.NameLangEntry{ID: e.ID}
			}
			langRecs = append(langRecs, le)
		}
		PutJSONL(src, "names/"+coreFile, coreRecs...)
		PutJSONL(src, "names/"+langFile, langRecs...)

		descs = append(descs, map[string]any{
			"start_id": start, "end_id": end,
			"core_file": coreFile, "lang_en_file": langFile, "rows": len(part),
		})
	}
	PutJSON(src, "names/meta.json", map[string]any{"chunks": descs})
}

func (d *Dataset) buildKanji(src *packsource.Memory) {
	entries := make(map[string]model.KanjiEntry, len(d.Kanji))
	for _, e := range d.Kanji {
		for _, r := range e.Literal {
			entries[model.KanjiID(r)] = e
			break
		}
	}
	// Declared plain, stored gzipped: downstream reads go through the
	// encoding fallback.
	PutJSONGz(src, "kanji/kanji.json.gz", map[string]any{"entries": entries})
	PutJSON(src, "kanji/en_meanings.json", map[string]any{"meanings_by_kanji": d.KanjiMeanings})
	PutJSON(src, "kanji/learning_orders.json", map[string]any{"kanji_mext_joyo_ordered": d.KanjiOrders})
	PutJSON(src, "kanji/manifest.json", map[string]any{
		"files": map[string]string{
			"entries":         "kanji.json",
			"meanings_en":     "en_meanings.json",
			"learning_orders": "learning_orders.json",
		},
	})
}

func (d *Dataset) buildKana(src *packsource.Memory) {
	PutJSON(src, "kana/kana.json", map[string]any{"entries": d.Kana})
	PutJSON(src, "kana/manifest.json", map[string]any{
		"files": map[string]string{"entries": "kana.json"},
	})
}

func (d *Dataset) buildCategories(src *packsource.Memory) {
	ids := make([]string, 0, len(d.Categories))
	catDocs := map[string]any{}
	for _, c := range d.Categories {
		ids = append(ids, c.ID)
		catDocs[c.ID] = map[string]string{"title": c.Title, "description": c.Description}
	}
	mapping := make(map[string]string, len(d.WordCategory))
	for id, cat := range d.WordCategory {
		mapping[strconv.FormatInt(int64(id), 10)] = cat
	}
	PutJSON(src, "categories/word_to_category.json", map[string]any{"mapping": mapping})
	PutJSON(src, "categories/lang/en.json", map[string]any{"categories": catDocs})
	PutJSON(src, "categories/manifest.json", map[string]any{
		"categories": ids,
		"files": map[string]string{
			"word_to_category": "word_to_category.json",
			"lang_en":          "lang/en.json",
		},
	})
}

func (d *Dataset) buildSearch(src *packsource.Memory) {
	index := map[string]map[string][]int64{}
	for _, bases := range [][]string{wordSurfaceBases, wordReadingBases, nameSurfaceBases, nameReadingBases} {
		for _, b := range bases {
			index[b] = map[string][]int64{}
		}
	}

	add := func(bases []string, key string, id int64) {
		if key == "" {
			return
		}
		m := index[bucketBase(bases, normalize.ScriptOf(key))]
		for _, have := range m[key] {
			if have == id {
				return
			}
		}
		m[key] = append(m[key], id)
	}
	addForm := func(surfaceBases, readingBases []string, f model.WrittenForm, id int64) {
		add(surfaceBases, normalize.Key(f.Surface), id)
		add(readingBases, normalize.FoldKana(normalize.Key(f.Reading)), id)
	}

	words := append([]model.WordEntry(nil), d.Words...)
	sort.Slice(words, func(i, j int) bool { return words[i].ID < words[j].ID })
	for _, w := range words {
		addForm(wordSurfaceBases, wordReadingBases, w.Primary, int64(w.ID))
		for _, f := range w.Forms {
			addForm(wordSurfaceBases, wordReadingBases, f, int64(w.ID))
		}
	}

	names := append([]model.NameEntry(nil), d.Names...)
	sort.Slice(names, func(i, j int) bool { return names[i].ID < names[j].ID })
	for _, n := range names {
		addForm(nameSurfaceBases, nameReadingBases, n.Primary, int64(n.ID))
		for _, f := range n.Forms {
			addForm(nameSurfaceBases, nameReadingBases, f, int64(n.ID))
		}
	}

	for base, m := range index {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		PutJSON(src, "search/"+base+".json", map[string]any{"map": m})
		PutJSON(src, "search/"+base+"_keys.json", map[string]any{"keys": keys})
	}

	rank := make(map[string]model.RankInfo, len(d.Ranks))
	for id, ri := range d.Ranks {
		rank[strconv.FormatInt(int64(id), 10)] = ri
	}
	PutJSON(src, "search/word_rank.json", map[string]any{"rank": rank})

	commons := append([]model.WordID(nil), d.CommonIDs...)
	sort.Slice(commons, func(i, j int) bool { return commons[i] < commons[j] })
	PutJSON(src, "search/common_word_ids.json", map[string]any{"ids": commons})

	PutJSON(src, "search/manifest.json", map[string]any{
		"domains": map[string]any{
			"words": map[string][]string{"surface": wordSurfaceBases, "reading": wordReadingBases},
			"names": map[string][]string{"surface": nameSurfaceBases, "reading": nameReadingBases},
		},
		"files": map[string]string{
			"word_rank":       "word_rank.json",
			"common_word_ids": "common_word_ids.json",
		},
	})
}

// bucketBase picks the base whose suffix matches the script, defaulting to
// the last base of the list.
func bucketBase(bases []string, s normalize.Script) string {
	suffix := "_" + s.String()
	for _, b := range bases {
		if strings.HasSuffix(b, suffix) {
			return b
		}
	}
	return bases[len(bases)-1]
}

// PutJSON writes v as a plain JSON document.
func PutJSON(src *packsource.Memory, name string, v any) {
	src.Put(name, codec.MustMarshal(codec.Default, v))
}

// PutJSONGz writes v as a gzipped JSON document. name should carry the
// .gz suffix.
func PutJSONGz(src *packsource.Memory, name string, v any) {
	src.Put(name, gzipBytes(codec.MustMarshal(codec.Default, v)))
}

// PutJSONL writes one JSON document per line, gzipped when name ends in
// .gz.
func PutJSONL(src *packsource.Memory, name string, records ...any) {
	var buf bytes.Buffer
	for _, rec := range records {
		buf.Write(codec.MustMarshal(codec.Default, rec))
		buf.WriteByte('\n')
	}
	data := buf.Bytes()
	if strings.HasSuffix(name, ".gz") {
		data = gzipBytes(data)
	}
	src.Put(name, data)
}

func gzipBytes(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}
