// Package normalize canonicalizes queries into index keys.
//
// All functions are pure and idempotent. The pipeline mirrors the dataset
// build exactly: a query normalized here matches a key the build emitted,
// or it matches nothing.
//
// # Pipeline
//
//	Key:     NFKC → case fold → fullwidth fold (pure-latin input only)
//	Resolve: Key, then kana folding when the mode resolves to reading
//
// Surface keys stay as written so 水曜日 finds the entry spelled that way.
// Reading keys are folded to hiragana so タクシー and たくしー meet at the
// same key.
//
// # Mode resolution
//
// Auto mode is a classification of the normalized query, not a search
// heuristic: kana without kanji means the user typed a reading, anything
// containing kanji (or plain latin) is a surface lookup.
package normalize
