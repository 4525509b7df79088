package model

import "fmt"

// Domain selects which pack a query is resolved against.
type Domain string

const (
	DomainWords Domain = "words"
	DomainNames Domain = "names"
	DomainKanji Domain = "kanji"
	DomainKana  Domain = "kana"
)

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainWords, DomainNames, DomainKanji, DomainKana:
		return true
	}
	return false
}

// Mode selects which search index a key is resolved against.
// ModeAuto defers the decision to the normalization pipeline.
type Mode string

const (
	ModeSurface Mode = "surface"
	ModeReading Mode = "reading"
	ModeAuto    Mode = "auto"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSurface, ModeReading, ModeAuto:
		return true
	}
	return false
}

// WordID is the stable identifier of a word entry.
type WordID int64

// NameID is the stable identifier of a proper-name entry.
type NameID int64

// KanjiID renders the canonical identifier of a kanji literal ("U+4E00").
// Kanji entries are keyed by code point, not by prefix-searchable strings.
func KanjiID(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}

// WrittenForm is one spelling/reading pair of an entry.
type WrittenForm struct {
	Surface string `json:"surface,omitempty"`
	Reading string `json:"reading,omitempty"`
}

// Priority carries the stored frequency rank of a word.
// Scores come from the dataset build; the engine never recomputes them.
type Priority struct {
	Score  int  `json:"score"`
	Common bool `json:"common"`
}

// Education carries school-curriculum placement of an entry.
type Education struct {
	OrderOverall int    `json:"order_overall,omitempty"`
	Grade        string `json:"grade,omitempty"`
	Section      string `json:"section,omitempty"`
}

// Sense is one meaning of a word entry. Gloss is keyed by language code and
// is filled from the per-language chunks when a card is assembled; core pack
// documents store senses without glosses.
type Sense struct {
	ID    int                 `json:"id"`
	POS   []string            `json:"pos,omitempty"`
	Xref  []string            `json:"xref,omitempty"`
	Ant   []string            `json:"ant,omitempty"`
	Gloss map[string][]string `json:"gloss,omitempty"`
}

// LangSense is the per-language projection of a sense, as stored in
// language chunk documents.
type LangSense struct {
	ID         int      `json:"id"`
	Gloss      []string `json:"gloss,omitempty"`
	ShortGloss string   `json:"short_gloss,omitempty"`
}

// WordEntry is a word record from a core word chunk.
type WordEntry struct {
	ID        WordID        `json:"id"`
	Primary   WrittenForm   `json:"primary"`
	Forms     []WrittenForm `json:"forms,omitempty"`
	Priority  *Priority     `json:"priority,omitempty"`
	Education *Education    `json:"education,omitempty"`
	Senses    []Sense       `json:"senses,omitempty"`
	Kanji     []string      `json:"kanji,omitempty"`
}

// WordLangEntry is a word record from a per-language gloss chunk.
type WordLangEntry struct {
	ID     WordID      `json:"id"`
	Senses []LangSense `json:"senses,omitempty"`
}

// NameEntry is a proper-name record from a names chunk. Translations is
// keyed by language code and filled from the chunk's language sibling file.
type NameEntry struct {
	ID           NameID              `json:"id"`
	Primary      WrittenForm         `json:"primary"`
	Forms        []WrittenForm       `json:"forms,omitempty"`
	Types        []string            `json:"types,omitempty"`
	Translations map[string][]string `json:"translations,omitempty"`
}

// NameLangEntry is a proper-name record from a per-language translation chunk.
type NameLangEntry struct {
	ID           NameID   `json:"id"`
	Translations []string `json:"translations,omitempty"`
}

// KanjiReadings groups the readings of a kanji entry.
type KanjiReadings struct {
	On  []string `json:"on,omitempty"`
	Kun []string `json:"kun,omitempty"`
}

// KanjiEntry is a kanji record. Meanings is keyed by language code and is
// filled from the meanings document when a card is assembled.
type KanjiEntry struct {
	Literal    string              `json:"literal"`
	Strokes    int                 `json:"strokes,omitempty"`
	Radical    string              `json:"radical,omitempty"`
	Readings   KanjiReadings       `json:"readings,omitempty"`
	Education  *Education          `json:"education,omitempty"`
	Components []string            `json:"components,omitempty"`
	Meanings   map[string][]string `json:"meanings,omitempty"`
}

// KanjiOrder is one position in the curriculum learning order. The
// education fields are inlined so the document row stays flat.
type KanjiOrder struct {
	Kanji string `json:"kanji"`
	Education
}

// KanaEntry is a kana record, keyed by its symbol.
type KanaEntry struct {
	Symbol string `json:"symbol"`
	Script string `json:"script,omitempty"`
	Romaji string `json:"romaji,omitempty"`
	Order  int    `json:"order,omitempty"`
}

// Category describes one category of the common-words grouping.
type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// CategoryWords lists the common word ids grouped under one category.
type CategoryWords struct {
	CategoryID string   `json:"category_id"`
	Count      int      `json:"count"`
	WordIDs    []WordID `json:"word_ids"`
}

// RankInfo is the stored rank of a word in the rank document.
type RankInfo struct {
	Score  int  `json:"score"`
	Common bool `json:"common"`
}
