// Package model defines core types used throughout Lexgo.
//
// # Identity Types
//
//   - WordID: Stable identifier of a word entry (int64)
//   - NameID: Stable identifier of a proper-name entry (int64)
//   - KanjiID: Code-point identifier of a kanji literal ("U+4E00")
//
// # Selector Types
//
//   - Domain: Which pack a query targets (words, names, kanji, kana)
//   - Mode: Which index a key is resolved against (surface, reading, auto)
//
// # Data Types
//
// Entry structs mirror the pack documents one-to-one: WordEntry, NameEntry,
// KanjiEntry and KanaEntry decode directly from chunk records. Per-language
// payloads (Sense.Gloss, NameEntry.Translations, KanjiEntry.Meanings) are
// stored in sibling language files and merged in when a card is assembled.
package model
