// Command lexgo queries and verifies immutable lexical datasets.
//
// The dataset root directory comes from --data or the LEXGO_DATA
// environment variable. Exit codes: 0 on success, 1 when validate finds
// violations or a lookup misses, 2 on configuration or storage failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-json"

	"github.com/hupe1980/lexgo"
	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/validate"
)

const version = "1.0.0"

// CLI defines the command-line interface for lexgo.
var CLI struct {
	// Global flags
	Data    string `name:"data" short:"d" env:"LEXGO_DATA" default:"./data" help:"Dataset root directory" type:"path"`
	Verbose bool   `name:"verbose" short:"v" help:"Enable debug logging"`

	Search     SearchCmd     `cmd:"" help:"Prefix search over a domain index"`
	Word       WordCmd       `cmd:"" help:"Look up a word entry by id"`
	Name       NameCmd       `cmd:"" help:"Look up a proper-name entry by id"`
	Kanji      KanjiCmd      `cmd:"" help:"Look up a kanji entry by literal"`
	Kana       KanaCmd       `cmd:"" help:"Look up a kana entry by symbol"`
	Categories CategoriesCmd `cmd:"" help:"List word categories"`
	Category   CategoryCmd   `cmd:"" help:"List common words in a category"`
	Validate   ValidateCmd   `cmd:"" help:"Check cross-file referential integrity"`
	Manifest   ManifestCmd   `cmd:"" help:"Print the resolved dataset manifest"`
	Version    VersionCmd    `cmd:"" help:"Print version information"`
}

// openEngine opens the dataset named by the global flags.
func openEngine(ctx context.Context) (*lexgo.Engine, error) {
	opts := []lexgo.Option{}
	if CLI.Verbose {
		opts = append(opts, lexgo.WithLogLevel(slog.LevelDebug))
	}
	return lexgo.Open(ctx, lexgo.Local(CLI.Data), opts...)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// SearchCmd runs a prefix search.
type SearchCmd struct {
	Query       string `arg:"" help:"Query string (raw, pre-normalization)"`
	Domain      string `name:"domain" default:"words" enum:"words,names,kanji,kana" help:"Domain to search"`
	Mode        string `name:"mode" default:"auto" enum:"surface,reading,auto" help:"Index mode"`
	Limit       int    `name:"limit" short:"n" default:"20" help:"Maximum number of results"`
	MaxKeys     int    `name:"max-keys" default:"0" help:"Cap on index keys visited per scan (0 = built-in default)"`
	CommonFirst bool   `name:"common-first" help:"Prefer common words in the result order"`
}

func (c *SearchCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	sb := eng.Search(c.Query).
		Domain(model.Domain(c.Domain)).
		Mode(model.Mode(c.Mode)).
		Limit(c.Limit).
		MaxKeys(c.MaxKeys)
	if c.CommonFirst {
		sb = sb.CommonFirst()
	}
	results, err := sb.Execute(ctx)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Query   string               `json:"query"`
		Results []lexgo.SearchResult `json:"results"`
	}{Query: c.Query, Results: results})
}

// WordCmd looks up one word card.
type WordCmd struct {
	ID int64 `arg:"" help:"Word id"`
}

func (c *WordCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	entry, err := eng.Word(ctx, c.ID)
	if err != nil {
		return err
	}
	return printJSON(entry)
}

// NameCmd looks up one proper-name card.
type NameCmd struct {
	ID int64 `arg:"" help:"Name id"`
}

func (c *NameCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	entry, err := eng.Name(ctx, c.ID)
	if err != nil {
		return err
	}
	return printJSON(entry)
}

// KanjiCmd looks up one kanji card by literal, or lists kanji in school
// learning order.
type KanjiCmd struct {
	Literal string `arg:"" optional:"" help:"Single kanji literal"`
	List    bool   `name:"list" help:"List kanji in school learning order instead"`
	Start   int    `name:"start" default:"0" help:"Listing start position"`
	Limit   int    `name:"limit" short:"n" default:"50" help:"Maximum listing length (0 = all)"`
}

func (c *KanjiCmd) Run() error {
	ctx := context.Background()

	if c.List {
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		orders, err := eng.KanjiByOrder(ctx, c.Start, c.Limit)
		if err != nil {
			return err
		}
		return printJSON(orders)
	}

	r, size := utf8.DecodeRuneInString(c.Literal)
	if r == utf8.RuneError || size != len(c.Literal) {
		return fmt.Errorf("expected a single kanji literal, got %q", c.Literal)
	}

	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	entry, err := eng.Kanji(ctx, r)
	if err != nil {
		return err
	}
	return printJSON(entry)
}

// KanaCmd looks up one kana card by symbol.
type KanaCmd struct {
	Symbol string `arg:"" help:"Kana symbol"`
}

func (c *KanaCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	entry, err := eng.Kana(ctx, c.Symbol)
	if err != nil {
		return err
	}
	return printJSON(entry)
}

// CategoriesCmd lists the declared categories.
type CategoriesCmd struct{}

func (c *CategoriesCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	cats, err := eng.Categories(ctx)
	if err != nil {
		return err
	}
	return printJSON(cats)
}

// CategoryCmd lists the common words grouped under one category.
type CategoryCmd struct {
	ID    string `arg:"" help:"Category id"`
	Limit int    `name:"limit" short:"n" default:"50" help:"Maximum number of word ids (0 = all)"`
}

func (c *CategoryCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	group, err := eng.Category(ctx, c.ID, c.Limit)
	if err != nil {
		return err
	}
	return printJSON(group)
}

// ValidateCmd runs the referential integrity suite.
type ValidateCmd struct {
	Mode          string `name:"mode" default:"fast" enum:"fast,full" help:"fast samples each relation, full walks every edge"`
	Seed          int64  `name:"seed" default:"0" help:"Sampling seed for fast mode (0 = built-in default)"`
	MaxViolations int    `name:"max-violations" default:"0" help:"Stop collecting after this many findings (0 = built-in default)"`
}

func (c *ValidateCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	report := eng.Validate(ctx, func(o *validate.Options) {
		o.Mode = validate.Mode(c.Mode)
		o.Seed = c.Seed
		o.MaxViolations = c.MaxViolations
	})
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.OK {
		// Violations are findings, not crashes; exit 1 keeps the two
		// outcomes distinguishable for callers.
		os.Exit(1)
	}
	return nil
}

// ManifestCmd prints the resolved manifest chain.
type ManifestCmd struct{}

func (c *ManifestCmd) Run() error {
	ctx := context.Background()
	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	return printJSON(eng.Manifest())
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("lexgo version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lexgo"),
		kong.Description("Read-only lookup and integrity checking over lexical dataset packs."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		if errors.Is(err, lexgo.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "lexgo: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "lexgo: %v\n", err)
		os.Exit(2)
	}
}
