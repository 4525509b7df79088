// Package lexgo provides a read-only lookup and integrity engine for
// multi-pack Japanese lexical datasets.
//
// A dataset is an immutable directory tree of JSON pack files built
// offline: a root manifest wiring six modules (search, words, names,
// kanji, kana, categories), script-bucketed prefix indexes, range-chunked
// entry packs and auxiliary rank documents. Lexgo never writes; it
// resolves the manifest chain, answers prefix searches and id lookups,
// and cross-checks the packs against each other.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	eng, _ := lexgo.Open(ctx, lexgo.Local("./data"))
//	defer eng.Close()
//
//	results, _ := eng.Search("タクシー").Limit(10).Execute(ctx)
//	word, _ := eng.Word(ctx, results[0].ID)
//
// Cloud mode:
//
//	src, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("datasets/jp/"))
//	eng, _ := lexgo.Open(ctx, src, lexgo.WithBlockCache(256<<20, 0))
//
// # Queries
//
// Search is fluent and domain-scoped. Auto mode resolves kana-only queries
// against the reading index and everything else against the surface index;
// katakana folds to hiragana on the reading side, so タクシー and たくしー
// reach the same keys:
//
//	results, err := eng.Search("みず").
//	    Domain(model.DomainWords).
//	    Mode(model.ModeAuto).
//	    CommonFirst().
//	    Execute(ctx)
//
// Single records resolve by id or literal:
//
//	word, err := eng.Word(ctx, 1215240)
//	name, err := eng.Name(ctx, 5220737)
//	kanji, err := eng.Kanji(ctx, '水')
//	kana, err := eng.Kana(ctx, "あ")
//
// # Integrity
//
// Validate cross-checks the web of references between packs (category
// mappings, index postings, chunk ranges, line alignment, learning order)
// and reports findings instead of failing:
//
//	report := eng.Validate(ctx)
//	if !report.OK {
//	    for _, v := range report.Violations {
//	        fmt.Printf("%s: %s -> %s: %s\n", v.Relation, v.Source, v.Target, v.Reason)
//	    }
//	}
//
// Fast mode samples deterministically from a seed; full mode checks every
// reference. See the validate package for the relation set.
package lexgo
