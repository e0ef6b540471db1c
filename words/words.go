package words

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// Difficulty is one of the three tiers partitioning both word content
// and description verbosity.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Word is a single catalog entry. Descriptions come in three tiers; which
// one is shown depends on the word's position in the match, not on the
// word's own difficulty.
type Word struct {
	Word         string            `json:"word"`
	Category     string            `json:"category"`
	Difficulty   Difficulty        `json:"difficulty,omitempty"`
	Descriptions map[string]string `json:"descriptions"`
	Hint         string            `json:"hint"`
	Synonyms     []string          `json:"synonyms"`
}

// Description returns the description for the given tier, falling back to
// the easy one if the requested tier is missing.
func (w Word) Description(tier Difficulty) string {
	if d, ok := w.Descriptions[string(tier)]; ok && d != "" {
		return d
	}
	return w.Descriptions[string(Easy)]
}

// Category pairs a stable id with a display name.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog is the full word content, grouped by difficulty tier.
type Catalog struct {
	Categories []Category `json:"categories"`
	Easy       []Word     `json:"-"`
	Medium     []Word     `json:"-"`
	Hard       []Word     `json:"-"`
}

// All returns every word in the catalog with its Difficulty field set.
func (c Catalog) All() []Word {
	out := make([]Word, 0, len(c.Easy)+len(c.Medium)+len(c.Hard))
	for _, w := range c.Easy {
		w.Difficulty = Easy
		out = append(out, w)
	}
	for _, w := range c.Medium {
		w.Difficulty = Medium
		out = append(out, w)
	}
	for _, w := range c.Hard {
		w.Difficulty = Hard
		out = append(out, w)
	}
	return out
}

// Lookup finds a word by its text, searching all tiers.
func (c Catalog) Lookup(text string) (Word, bool) {
	for _, w := range c.All() {
		if w.Word == text {
			return w, true
		}
	}
	return Word{}, false
}

// CategoryName resolves a category id to its display name, returning the
// id itself when unknown.
func (c Catalog) CategoryName(id string) string {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return id
}

// Provider supplies the word catalog. Implementations may hit disk or a
// remote service; wrap them in a Cache to bound the load.
type Provider interface {
	Words(ctx context.Context) (Catalog, error)
}

// document is the on-disk JSON layout, shared with the original content
// authoring pipeline.
type document struct {
	Metadata struct {
		TotalWords          int `json:"totalWords"`
		Categories          int `json:"categories"`
		DifficultiesPerWord int `json:"difficultiesPerWord"`
	} `json:"metadata"`
	Categories []Category `json:"categories"`
	Words      struct {
		Easy   []Word `json:"easy"`
		Medium []Word `json:"medium"`
		Hard   []Word `json:"hard"`
	} `json:"words"`
}

//go:embed data/words.json
var embeddedWords []byte

// FileProvider loads the catalog from a JSON file, or from the embedded
// default dataset when no path is configured.
type FileProvider struct {
	Path string
}

func (p FileProvider) Words(_ context.Context) (Catalog, error) {
	data := embeddedWords
	if p.Path != "" {
		var err error
		data, err = os.ReadFile(p.Path)
		if err != nil {
			return Catalog{}, fmt.Errorf("words: read %s: %w", p.Path, err)
		}
	}
	return parse(data)
}

func parse(data []byte) (Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Catalog{}, fmt.Errorf("words: parse catalog: %w", err)
	}
	return Catalog{
		Categories: doc.Categories,
		Easy:       doc.Words.Easy,
		Medium:     doc.Words.Medium,
		Hard:       doc.Words.Hard,
	}, nil
}
