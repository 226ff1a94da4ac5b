// Package corpus holds the immutable keyword reference graph: every known
// keyword, its related keywords, example texts and base frequency, plus the
// explicit connection list used when drawing edges.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultFrequency is used when a keyword has no frequency of its own.
const DefaultFrequency = 0.5

// DefaultStrength is the strength of a connection that does not declare one.
const DefaultStrength = 0.5

// ErrInvalidCorpus is returned when a corpus document fails validation.
var ErrInvalidCorpus = errors.New("invalid corpus")

var validate = validator.New()

// Keyword is a single corpus entry.
type Keyword struct {
	Related   []string `json:"related" validate:"dive,required"`
	Examples  []string `json:"examples"`
	Frequency *float64 `json:"frequency,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Freq returns the keyword frequency, or DefaultFrequency if unset.
func (k Keyword) Freq() float64 {
	if k.Frequency == nil {
		return DefaultFrequency
	}
	return *k.Frequency
}

// Connection is an explicit edge from the corpus document.
type Connection struct {
	Source   string   `json:"source" validate:"required"`
	Target   string   `json:"target" validate:"required"`
	Strength *float64 `json:"strength,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Weight returns the connection strength, or DefaultStrength if unset.
func (c Connection) Weight() float64 {
	if c.Strength == nil {
		return DefaultStrength
	}
	return *c.Strength
}

// Document is the on-the-wire corpus format.
type Document struct {
	KeywordDatabase map[string]Keyword `json:"keywordDatabase" validate:"required,dive"`
	Connections     []Connection       `json:"connections" validate:"dive"`
}

// Corpus is the loaded, read-only keyword graph. Ids are normalized
// (trimmed, lowercased). Construct with New, Parse or Fallback.
type Corpus struct {
	keywords    map[string]Keyword
	ids         []string
	connections []Connection
}

// Normalize trims and lowercases a keyword into its id form.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// New builds a corpus from a decoded document. Keyword ids and relation
// targets are normalized; entries whose id normalizes to "" are dropped.
func New(doc Document) (*Corpus, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCorpus, formatValidationError(err))
	}

	c := &Corpus{
		keywords: make(map[string]Keyword, len(doc.KeywordDatabase)),
	}
	// Raw keys that normalize to the same id are merged in sorted raw-key
	// order: the first frequency wins and related/examples are unioned.
	rawIDs := make([]string, 0, len(doc.KeywordDatabase))
	for rawID := range doc.KeywordDatabase {
		rawIDs = append(rawIDs, rawID)
	}
	sort.Strings(rawIDs)
	for _, rawID := range rawIDs {
		id := Normalize(rawID)
		if id == "" {
			continue
		}
		kw := doc.KeywordDatabase[rawID]
		related := make([]string, 0, len(kw.Related))
		for _, r := range kw.Related {
			if n := Normalize(r); n != "" {
				related = append(related, n)
			}
		}
		merged, seen := c.keywords[id]
		if !seen {
			c.keywords[id] = Keyword{
				Related:   related,
				Examples:  append([]string(nil), kw.Examples...),
				Frequency: kw.Frequency,
			}
			continue
		}
		if merged.Frequency == nil {
			merged.Frequency = kw.Frequency
		}
		for _, r := range related {
			if !slices.Contains(merged.Related, r) {
				merged.Related = append(merged.Related, r)
			}
		}
		for _, ex := range kw.Examples {
			if !slices.Contains(merged.Examples, ex) {
				merged.Examples = append(merged.Examples, ex)
			}
		}
		c.keywords[id] = merged
	}

	c.ids = make([]string, 0, len(c.keywords))
	for id := range c.keywords {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)

	c.connections = make([]Connection, 0, len(doc.Connections))
	for _, conn := range doc.Connections {
		c.connections = append(c.connections, Connection{
			Source:   Normalize(conn.Source),
			Target:   Normalize(conn.Target),
			Strength: conn.Strength,
		})
	}
	return c, nil
}

// Parse decodes and validates a JSON corpus document.
func Parse(data []byte) (*Corpus, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCorpus, err)
	}
	return New(doc)
}

// Fallback returns the minimal built-in corpus used when loading fails.
func Fallback() *Corpus {
	f1, f2 := 0.95, 0.87
	c, _ := New(Document{
		KeywordDatabase: map[string]Keyword{
			"climate change": {
				Related:   []string{"global warming", "carbon emissions", "greenhouse gases"},
				Examples:  []string{"Scientists warn about climate change effects"},
				Frequency: &f1,
			},
			"global warming": {
				Related:   []string{"climate change", "temperature rise", "ice caps melting"},
				Examples:  []string{"Global warming causes heat waves"},
				Frequency: &f2,
			},
		},
	})
	return c
}

// Lookup returns the keyword for id and whether it exists.
func (c *Corpus) Lookup(id string) (Keyword, bool) {
	kw, ok := c.keywords[id]
	return kw, ok
}

// Has reports whether id is part of the corpus.
func (c *Corpus) Has(id string) bool {
	_, ok := c.keywords[id]
	return ok
}

// IDs returns all keyword ids in lexical order. The slice is a copy.
func (c *Corpus) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Len returns the number of keywords.
func (c *Corpus) Len() int { return len(c.ids) }

// Connections returns the explicit connection list. The slice is a copy.
func (c *Corpus) Connections() []Connection {
	return append([]Connection(nil), c.connections...)
}

// Document converts the corpus back to its wire form.
func (c *Corpus) Document() Document {
	doc := Document{
		KeywordDatabase: make(map[string]Keyword, len(c.keywords)),
		Connections:     c.Connections(),
	}
	for id, kw := range c.keywords {
		doc.KeywordDatabase[id] = kw
	}
	return doc
}

// formatValidationError flattens validator errors into one readable line.
func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be between 0 and 1", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
