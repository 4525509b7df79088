package normalize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/hupe1980/lexgo/model"
)

// Script identifies the writing-system bucket of a normalized key. Index
// bases are suffixed with the bucket name so lookups only load the shard
// that can contain the key.
type Script string

const (
	ScriptHiragana Script = "hiragana"
	ScriptKatakana Script = "katakana"
	ScriptKanji    Script = "kanji"
	ScriptLatin    Script = "latin"
	ScriptOther    Script = "other"
)

// String returns the bucket suffix as it appears in index base names.
func (s Script) String() string { return string(s) }

// Key canonicalizes a raw query string: Unicode NFKC, full case folding,
// then fullwidth folding when the result is pure latin. The index stores
// latin keys in fullwidth form, so "MIZU" and "ｍｉｚｕ" resolve to the
// same key.
//
// Key is idempotent: Key(Key(q)) == Key(q).
func Key(q string) string {
	s := norm.NFKC.String(q)
	s = cases.Fold().String(s)
	if isPureLatin(s) {
		s = toFullwidth(s)
	}
	return s
}

// FoldKana maps katakana to hiragana one-to-one over U+30A1..U+30F6.
// The long vowel mark U+30FC and the rare W-row voiced forms are outside
// the range and pass through unchanged, matching how readings are keyed.
func FoldKana(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 0x30A1 && r <= 0x30F6 {
			r -= 0x60
		}
		out = append(out, r)
	}
	return string(out)
}

// Resolve produces the index key for a query and the mode it resolved to.
// Auto mode picks reading when the normalized query contains kana and no
// kanji, surface otherwise. Reading keys are additionally kana-folded;
// surface keys are left as written.
func Resolve(q string, mode model.Mode) (string, model.Mode) {
	key := Key(q)
	resolved := mode
	if mode == model.ModeAuto {
		resolved = autoMode(key)
	}
	if resolved == model.ModeReading {
		key = FoldKana(key)
	}
	return key, resolved
}

// autoMode classifies an already-normalized key.
func autoMode(key string) model.Mode {
	var hasKana, hasKanji bool
	for _, r := range key {
		switch {
		case isKanji(r):
			hasKanji = true
		case isHiragana(r) || isKatakana(r):
			hasKana = true
		}
	}
	if hasKana && !hasKanji {
		return model.ModeReading
	}
	return model.ModeSurface
}

// ScriptOf buckets a normalized key by writing system. Kanji wins over
// kana, kana over latin; a string that fits no bucket (or mixes latin with
// punctuation the index never stores) falls into ScriptOther, which maps
// to the fallback base.
func ScriptOf(s string) Script {
	if s == "" {
		return ScriptOther
	}
	var hasKanji, hasHira, hasKata bool
	allLatin := true
	for _, r := range s {
		switch {
		case isKanji(r):
			hasKanji = true
		case isHiragana(r):
			hasHira = true
		case isKatakana(r):
			hasKata = true
		}
		if !isLatin(r) {
			allLatin = false
		}
	}
	switch {
	case hasKanji:
		return ScriptKanji
	case hasHira:
		return ScriptHiragana
	case hasKata:
		return ScriptKatakana
	case allLatin:
		return ScriptLatin
	default:
		return ScriptOther
	}
}

// Code point ranges follow the dataset build, not the full Unicode blocks:
// keys only ever contain what the build emitted.

func isKanji(r rune) bool {
	return (r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0xF900 && r <= 0xFAFF)
}

// isHiragana covers the hiragana letters and iteration marks. U+30FC is
// deliberately excluded: the long vowel mark is script-neutral and must not
// pull a katakana key into the hiragana bucket.
func isHiragana(r rune) bool {
	return (r >= 0x3041 && r <= 0x3096) || r == 0x309D || r == 0x309E
}

func isKatakana(r rune) bool {
	return (r >= 0x30A1 && r <= 0x30FA) ||
		r == 0x30FD || r == 0x30FE ||
		(r >= 0x31F0 && r <= 0x31FF)
}

// isLatin accepts ASCII alphanumerics and separators plus their fullwidth
// variants, in both pre- and post-fold form.
func isLatin(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r == ' ' || r == '\'' || r == '-' || r == '.':
		return true
	case r == 0x3000:
		return true
	case r >= 0xFF01 && r <= 0xFF5E:
		return true
	}
	return false
}

// isPureLatin reports whether every rune sits in printable ASCII. Applied
// after NFKC, so fullwidth forms have already been decomposed.
func isPureLatin(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r > 0x7E {
			return false
		}
	}
	return true
}

// toFullwidth maps printable ASCII onto the fullwidth block: space to the
// ideographic space, the rest shifted by 0xFEE0.
func toFullwidth(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			r = 0x3000
		case r >= 0x21 && r <= 0x7E:
			r += 0xFEE0
		}
		out = append(out, r)
	}
	return string(out)
}
