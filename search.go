// Package lexgo provides read-only lookup over immutable Japanese lexical
// datasets.
//
// This file implements the fluent search API for querying an Engine.
package lexgo

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/normalize"
)

// Search creates a new fluent search builder for the given query.
//
// Example:
//
//	results, err := eng.Search("タクシー").
//	    Domain(model.DomainWords).
//	    Limit(10).
//	    Execute(ctx)
//
//	// Or with streaming:
//	for result, err := range eng.Search("みず").Stream(ctx) {
//	    if err != nil { break }
//	    process(result)
//	}
func (e *Engine) Search(query string) *SearchBuilder {
	return &SearchBuilder{
		engine:  e,
		query:   query,
		domain:  model.DomainWords,
		mode:    model.ModeAuto,
		limit:   20, // Default limit
		maxKeys: 0,  // Use index default
	}
}

// SearchBuilder is a fluent builder for constructing search queries.
type SearchBuilder struct {
	engine      *Engine
	query       string
	domain      model.Domain
	mode        model.Mode
	limit       int
	maxKeys     int
	commonFirst bool
}

// SearchResult is one search hit. Score and Common carry stored rank data
// and are only filled for the words domain.
type SearchResult struct {
	// ID is the matched record id.
	ID int64

	// Key is the index key the id was found under.
	Key string

	// Exact reports whether Key equals the normalized query.
	Exact bool

	// Domain is the domain the query ran against.
	Domain model.Domain

	// Mode is the concrete mode the query resolved to.
	Mode model.Mode

	// Score is the stored frequency rank score (words only).
	Score int

	// Common reports the stored common-word flag (words only).
	Common bool
}

// Domain sets the domain to search. Default: words.
func (sb *SearchBuilder) Domain(d model.Domain) *SearchBuilder {
	sb.domain = d
	return sb
}

// Mode sets the index mode. Default: auto, which picks reading for
// kana-only queries and surface otherwise.
func (sb *SearchBuilder) Mode(m model.Mode) *SearchBuilder {
	sb.mode = m
	return sb
}

// Limit caps the number of results. Default: 20.
func (sb *SearchBuilder) Limit(limit int) *SearchBuilder {
	sb.limit = limit
	return sb
}

// MaxKeys caps how many index keys a prefix scan may visit.
// Default: searchindex.DefaultMaxKeys.
func (sb *SearchBuilder) MaxKeys(maxKeys int) *SearchBuilder {
	sb.maxKeys = maxKeys
	return sb
}

// CommonFirst prefers common words in the result order, using the stored
// common flag from the rank document.
func (sb *SearchBuilder) CommonFirst() *SearchBuilder {
	sb.commonFirst = true
	return sb
}

// Execute runs the search and returns the ordered results.
//
// Results are ordered exact match first, then (with CommonFirst) the
// stored common flag, then stored score descending, shorter matched key,
// ascending id. Rank data comes from the dataset's own rank document; the
// engine never recomputes scores.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]SearchResult, error) {
	start := time.Now()
	results, mode, err := sb.run(ctx)
	err = translateError(err)
	sb.engine.metrics.RecordSearch(sb.domain, time.Since(start), err)
	sb.engine.logger.LogSearch(ctx, sb.domain, mode, sb.query, len(results), err)
	if err != nil {
		return nil, err
	}
	if len(results) > sb.limit {
		results = results[:sb.limit]
	}
	return results, nil
}

// Stream returns an iterator over search results. The result set is
// ordered like Execute; the iterator supports early termination by
// breaking from the loop.
//
// Example:
//
//	for result, err := range eng.Search("みず").Limit(100).Stream(ctx) {
//	    if err != nil { break }
//	    if !result.Common { break } // Early termination
//	    process(result)
//	}
func (sb *SearchBuilder) Stream(ctx context.Context) iter.Seq2[SearchResult, error] {
	return func(yield func(SearchResult, error) bool) {
		start := time.Now()
		results, mode, err := sb.run(ctx)
		err = translateError(err)
		if err != nil {
			sb.engine.metrics.RecordSearch(sb.domain, time.Since(start), err)
			sb.engine.logger.LogSearch(ctx, sb.domain, mode, sb.query, 0, err)
			yield(SearchResult{}, err)
			return
		}
		if len(results) > sb.limit {
			results = results[:sb.limit]
		}

		var count int
		for _, result := range results {
			count++
			if !yield(result, nil) {
				// Early termination
				break
			}
		}
		sb.engine.metrics.RecordSearch(sb.domain, time.Since(start), nil)
		sb.engine.logger.LogSearch(ctx, sb.domain, mode, sb.query, count, nil)
	}
}

// First returns only the best-ranked result, or ErrNotFound if the query
// matched nothing.
func (sb *SearchBuilder) First(ctx context.Context) (SearchResult, error) {
	sb.limit = 1
	results, err := sb.Execute(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	if len(results) == 0 {
		return SearchResult{}, ErrNotFound
	}
	return results[0], nil
}

// Count executes the search and returns the number of results.
func (sb *SearchBuilder) Count(ctx context.Context) (int, error) {
	results, err := sb.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// Exists checks if at least one result matches the search.
func (sb *SearchBuilder) Exists(ctx context.Context) (bool, error) {
	sb.limit = 1
	results, err := sb.Execute(ctx)
	if err != nil {
		return false, err
	}
	return len(results) > 0, nil
}

// run validates the query, resolves it against the matching index and
// returns the full ordered candidate set, before the limit cut.
func (sb *SearchBuilder) run(ctx context.Context) ([]SearchResult, model.Mode, error) {
	if sb.limit <= 0 {
		return nil, sb.mode, fmt.Errorf("%w: %d", ErrInvalidLimit, sb.limit)
	}
	if !sb.domain.Valid() {
		return nil, sb.mode, fmt.Errorf("%w: %q", ErrUnknownDomain, sb.domain)
	}
	if !sb.mode.Valid() {
		return nil, sb.mode, fmt.Errorf("%w: %q", ErrUnknownMode, sb.mode)
	}

	key, mode := normalize.Resolve(sb.query, sb.mode)
	if key == "" {
		return nil, mode, nil
	}

	// Kanji and kana are not prefix-searchable; their queries resolve to a
	// direct literal lookup against the entries table. The key stays
	// unfolded so a katakana symbol still reaches its own record.
	if sb.domain == model.DomainKanji || sb.domain == model.DomainKana {
		results, err := sb.literal(ctx, normalize.Key(sb.query))
		for i := range results {
			results[i].Mode = mode
		}
		return results, mode, err
	}

	idx, ok := sb.engine.indexes[indexKey{domain: sb.domain, mode: mode}]
	if !ok {
		return nil, mode, fmt.Errorf("%w: no %s index for %q", ErrUnknownDomain, mode, sb.domain)
	}

	// The scan is unbounded within maxKeys; ordering needs the full
	// candidate set before the limit is applied.
	cands, err := idx.Lookup(ctx, key, 0, sb.maxKeys)
	if err != nil {
		return nil, mode, err
	}

	var rank map[string]model.RankInfo
	if sb.domain == model.DomainWords && len(cands) > 0 {
		rank, err = sb.engine.rankTable(ctx)
		if err != nil {
			return nil, mode, err
		}
	}

	results := make([]SearchResult, 0, len(cands))
	for _, c := range cands {
		r := SearchResult{
			ID:     c.ID,
			Key:    c.Key,
			Exact:  c.Exact,
			Domain: sb.domain,
			Mode:   mode,
		}
		if ri, ok := rank[strconv.FormatInt(c.ID, 10)]; ok {
			r.Score = ri.Score
			r.Common = ri.Common
		}
		results = append(results, r)
	}
	sb.order(results)
	return dedupeByID(results), mode, nil
}

// literal resolves a kanji or kana domain query: one record or none, never
// multiple. A query that is not a single stored symbol is an empty result,
// not an error.
func (sb *SearchBuilder) literal(ctx context.Context, key string) ([]SearchResult, error) {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError || size != len(key) {
		return nil, nil
	}

	switch sb.domain {
	case model.DomainKanji:
		table, err := sb.engine.kanjiTable(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := table[model.KanjiID(r)]; !ok {
			return nil, nil
		}
	default:
		table, err := sb.engine.kanaTable(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := table[key]; !ok {
			return nil, nil
		}
	}

	return []SearchResult{{ID: int64(r), Key: key, Exact: true, Domain: sb.domain}}, nil
}

// dedupeByID keeps the first occurrence of each id. results must already
// be in final rank order, so an entry matched under several of its forms
// surfaces once, under its best-ranked key.
func dedupeByID(results []SearchResult) []SearchResult {
	seen := make(map[int64]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (sb *SearchBuilder) order(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, z := results[i], results[j]
		if a.Exact != z.Exact {
			return a.Exact
		}
		if sb.commonFirst && a.Common != z.Common {
			return a.Common
		}
		if a.Score != z.Score {
			return a.Score > z.Score
		}
		if len(a.Key) != len(z.Key) {
			return len(a.Key) < len(z.Key)
		}
		return a.ID < z.ID
	})
}
