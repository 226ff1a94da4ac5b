// Package store defines the CorpusStore interface for persisting keyword
// corpora, with SQLite and in-memory implementations.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/nvandessel/snowball/internal/corpus"
)

// Stats summarizes a stored corpus.
type Stats struct {
	Keywords    int       `json:"keywords"`
	Related     int       `json:"related"`
	Examples    int       `json:"examples"`
	Connections int       `json:"connections"`
	Source      string    `json:"source,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	ImportedAt  time.Time `json:"imported_at,omitempty"`
}

// ImportResult describes the outcome of an Import.
type ImportResult struct {
	Keywords    int
	Connections int
	// Unchanged is set when the stored corpus already had the same content
	// and nothing was written.
	Unchanged bool
}

// CorpusStore persists a single keyword corpus.
type CorpusStore interface {
	// Import replaces the stored corpus with c. source names where it came from.
	Import(ctx context.Context, c *corpus.Corpus, source string) (ImportResult, error)

	// Corpus loads the stored corpus.
	Corpus(ctx context.Context) (*corpus.Corpus, error)

	// Stats reports counts and import metadata.
	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// ContentHash returns a stable hash of a corpus document. encoding/json
// sorts map keys, so equal corpora hash equally.
func ContentHash(doc corpus.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// countDocument fills the count fields of Stats from a document.
func countDocument(doc corpus.Document) Stats {
	st := Stats{Keywords: len(doc.KeywordDatabase), Connections: len(doc.Connections)}
	for _, kw := range doc.KeywordDatabase {
		st.Related += len(kw.Related)
		st.Examples += len(kw.Examples)
	}
	return st
}
