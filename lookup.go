package lexgo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/hupe1980/lexgo/chunk"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/packsource"
)

// Word returns the word card for id: the core entry with every
// manifest-declared gloss language merged in by sense id.
func (e *Engine) Word(ctx context.Context, id int64) (*model.WordEntry, error) {
	start := time.Now()
	entry, err := e.word(ctx, id)
	err = translateError(err)
	e.metrics.RecordLookup(model.DomainWords, time.Since(start), err)
	e.logger.LogLookup(ctx, model.DomainWords, strconv.FormatInt(id, 10), err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) word(ctx context.Context, id int64) (*model.WordEntry, error) {
	desc, err := e.words.Resolve(id)
	if err != nil {
		return nil, err
	}
	entry, err := chunk.FindEntry(ctx, e.reader, desc.File, id, func(w model.WordEntry) int64 { return int64(w.ID) })
	if err != nil {
		return nil, err
	}
	for _, lang := range e.man.Words.GlossLangs() {
		if err := e.mergeGloss(ctx, &entry, lang, id); err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

// mergeGloss fills entry's per-sense glosses from one language pack. A word
// the language pack does not carry is tolerated; the validator reports such
// gaps, the lookup path serves the card without that language.
func (e *Engine) mergeGloss(ctx context.Context, entry *model.WordEntry, lang string, id int64) error {
	table, ok := e.wordLangs[lang]
	if !ok {
		return nil
	}
	desc, err := table.Resolve(id)
	if err != nil {
		var le *chunk.LookupError
		if errors.As(err, &le) {
			return nil
		}
		return err
	}
	langEntry, err := chunk.FindEntry(ctx, e.reader, desc.File, id, func(w model.WordLangEntry) int64 { return int64(w.ID) })
	if err != nil {
		if errors.Is(err, packsource.ErrNotFound) {
			return nil
		}
		return err
	}
	for _, ls := range langEntry.Senses {
		for i := range entry.Senses {
			if entry.Senses[i].ID != ls.ID {
				continue
			}
			if entry.Senses[i].Gloss == nil {
				entry.Senses[i].Gloss = make(map[string][]string)
			}
			entry.Senses[i].Gloss[lang] = ls.Gloss
			break
		}
	}
	return nil
}

// Name returns the proper-name card for id with translations attached.
// The chunk is streamed line by line and the scan stops at the matching
// record.
func (e *Engine) Name(ctx context.Context, id int64) (*model.NameEntry, error) {
	start := time.Now()
	entry, err := e.name(ctx, id)
	err = translateError(err)
	e.metrics.RecordLookup(model.DomainNames, time.Since(start), err)
	e.logger.LogLookup(ctx, model.DomainNames, strconv.FormatInt(id, 10), err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) name(ctx context.Context, id int64) (*model.NameEntry, error) {
	desc, err := e.names.Resolve(id)
	if err != nil {
		return nil, err
	}
	var entry model.NameEntry
	if err := chunk.FindJSONL(ctx, e.reader, desc, id, &entry); err != nil {
		return nil, err
	}
	if desc.LangEnFile != "" {
		var tr model.NameLangEntry
		switch err := chunk.FindLine(ctx, e.reader, desc.LangEnFile, id, &tr); {
		case err == nil:
			if entry.Translations == nil {
				entry.Translations = make(map[string][]string, 1)
			}
			entry.Translations["en"] = tr.Translations
		case errors.Is(err, packsource.ErrNotFound):
			// No translation row; the card is served untranslated.
		default:
			return nil, err
		}
	}
	return &entry, nil
}

// Kanji returns the kanji card for the literal. The lookup is a direct
// U+XXXX key resolution against the entries document: exactly one record
// or ErrNotFound, never a prefix scan.
func (e *Engine) Kanji(ctx context.Context, literal rune) (*model.KanjiEntry, error) {
	start := time.Now()
	entry, err := e.kanji(ctx, literal)
	err = translateError(err)
	e.metrics.RecordLookup(model.DomainKanji, time.Since(start), err)
	e.logger.LogLookup(ctx, model.DomainKanji, model.KanjiID(literal), err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) kanji(ctx context.Context, literal rune) (*model.KanjiEntry, error) {
	table, err := e.kanjiTable(ctx)
	if err != nil {
		return nil, err
	}
	key := model.KanjiID(literal)
	entry, ok := table[key]
	if !ok {
		return nil, fmt.Errorf("kanji %s: %w", key, packsource.ErrNotFound)
	}
	return &entry, nil
}

// KanjiByOrder lists kanji in school learning order, starting at the given
// position. limit <= 0 returns the rest of the listing. The returned slice
// is shared with the memoized document; callers must not modify it.
func (e *Engine) KanjiByOrder(ctx context.Context, start, limit int) ([]model.KanjiOrder, error) {
	orders, err := e.learningOrder(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	if start < 0 {
		start = 0
	}
	if start >= len(orders) {
		return nil, nil
	}
	out := orders[start:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Kana returns the kana card for the symbol.
func (e *Engine) Kana(ctx context.Context, symbol string) (*model.KanaEntry, error) {
	start := time.Now()
	entry, err := e.kana(ctx, symbol)
	err = translateError(err)
	e.metrics.RecordLookup(model.DomainKana, time.Since(start), err)
	e.logger.LogLookup(ctx, model.DomainKana, symbol, err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) kana(ctx context.Context, symbol string) (*model.KanaEntry, error) {
	table, err := e.kanaTable(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := table[symbol]
	if !ok {
		return nil, fmt.Errorf("kana %q: %w", symbol, packsource.ErrNotFound)
	}
	return &entry, nil
}

// Categories lists the declared categories in manifest order, with titles
// from the per-language category document.
func (e *Engine) Categories(ctx context.Context) ([]model.Category, error) {
	titles, err := e.categoryTitles(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]model.Category, 0, len(e.man.Categories.Categories))
	for _, id := range e.man.Categories.Categories {
		c := titles[id]
		c.ID = id
		out = append(out, c)
	}
	return out, nil
}

// Category returns the common words grouped under the category, ordered by
// stored score descending then id. Count reports the full group size;
// WordIDs is cut to limit (limit <= 0 returns all).
func (e *Engine) Category(ctx context.Context, id string, limit int) (*model.CategoryWords, error) {
	start := time.Now()
	group, err := e.category(ctx, id, limit)
	err = translateError(err)
	e.metrics.RecordLookup(model.DomainWords, time.Since(start), err)
	e.logger.LogLookup(ctx, model.DomainWords, id, err)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (e *Engine) category(ctx context.Context, id string, limit int) (*model.CategoryWords, error) {
	if !slices.Contains(e.man.Categories.Categories, id) {
		return nil, fmt.Errorf("category %q: %w", id, packsource.ErrNotFound)
	}
	mapping, err := e.categoryMapping(ctx)
	if err != nil {
		return nil, err
	}
	common, err := e.commonIDs(ctx)
	if err != nil {
		return nil, err
	}
	rank, err := e.rankTable(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]model.WordID, 0, len(common))
	for _, wid := range common {
		if mapping[strconv.FormatInt(wid, 10)] != id {
			continue
		}
		ids = append(ids, model.WordID(wid))
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a := rank[strconv.FormatInt(int64(ids[i]), 10)].Score
		z := rank[strconv.FormatInt(int64(ids[j]), 10)].Score
		if a != z {
			return a > z
		}
		return ids[i] < ids[j]
	})

	group := &model.CategoryWords{CategoryID: id, Count: len(ids), WordIDs: ids}
	if limit > 0 && len(group.WordIDs) > limit {
		group.WordIDs = group.WordIDs[:limit]
	}
	return group, nil
}
