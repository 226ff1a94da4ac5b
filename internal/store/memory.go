package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nvandessel/snowball/internal/corpus"
)

// InMemoryCorpusStore implements CorpusStore without persistence. It backs
// `snowball corpus show` for JSON sources and is used in tests.
type InMemoryCorpusStore struct {
	mu     sync.RWMutex
	doc    *corpus.Document
	source string
	hash   string
	at     time.Time
	now    func() time.Time
}

// NewInMemoryCorpusStore creates an empty in-memory store.
func NewInMemoryCorpusStore() *InMemoryCorpusStore {
	return &InMemoryCorpusStore{now: time.Now}
}

// Import replaces the stored corpus.
func (s *InMemoryCorpusStore) Import(ctx context.Context, c *corpus.Corpus, source string) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := c.Document()
	hash, err := ContentHash(doc)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to hash corpus: %w", err)
	}
	res := ImportResult{Keywords: len(doc.KeywordDatabase), Connections: len(doc.Connections)}
	if s.doc != nil && s.hash == hash {
		res.Unchanged = true
		return res, nil
	}

	s.doc = &doc
	s.source = source
	s.hash = hash
	s.at = s.now().UTC().Truncate(time.Second)
	return res, nil
}

// Corpus returns the stored corpus, or ErrEmpty.
func (s *InMemoryCorpusStore) Corpus(ctx context.Context) (*corpus.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil || len(s.doc.KeywordDatabase) == 0 {
		return nil, ErrEmpty
	}
	return corpus.New(*s.doc)
}

// Stats reports counts and import metadata.
func (s *InMemoryCorpusStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return Stats{}, nil
	}
	st := countDocument(*s.doc)
	st.Source = s.source
	st.ContentHash = s.hash
	st.ImportedAt = s.at
	return st, nil
}

// Close is a no-op.
func (s *InMemoryCorpusStore) Close() error { return nil }
