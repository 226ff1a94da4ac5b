package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/snowball/internal/corpus"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrEmpty is returned when a corpus database holds no keywords.
var ErrEmpty = errors.New("corpus database is empty")

// SQLiteCorpusStore implements CorpusStore using SQLite for persistence.
type SQLiteCorpusStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteCorpusStore opens or creates the corpus database at dbPath.
func NewSQLiteCorpusStore(dbPath string) (*SQLiteCorpusStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCorpusStore{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteCorpusStore) Path() string { return s.dbPath }

// Import replaces the stored corpus. An import whose content hash matches
// the stored one is skipped.
func (s *SQLiteCorpusStore) Import(ctx context.Context, c *corpus.Corpus, source string) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := c.Document()
	hash, err := ContentHash(doc)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to hash corpus: %w", err)
	}
	res := ImportResult{Keywords: len(doc.KeywordDatabase), Connections: len(doc.Connections)}

	if stored, _ := s.metaLocked(ctx, "content_hash"); stored == hash {
		res.Unchanged = true
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM keyword_examples`,
		`DELETE FROM keyword_related`,
		`DELETE FROM keywords`,
		`DELETE FROM connections`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return ImportResult{}, fmt.Errorf("failed to clear corpus: %w", err)
		}
	}

	for _, id := range c.IDs() {
		kw := doc.KeywordDatabase[id]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO keywords (id, frequency) VALUES (?, ?)`,
			id, nullFloat(kw.Frequency)); err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert keyword %s: %w", id, err)
		}
		for i, r := range kw.Related {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO keyword_related (keyword_id, position, related_id) VALUES (?, ?, ?)`,
				id, i, r); err != nil {
				return ImportResult{}, fmt.Errorf("failed to insert related keyword for %s: %w", id, err)
			}
		}
		for i, ex := range kw.Examples {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO keyword_examples (keyword_id, position, text) VALUES (?, ?, ?)`,
				id, i, ex); err != nil {
				return ImportResult{}, fmt.Errorf("failed to insert example for %s: %w", id, err)
			}
		}
	}

	for i, conn := range doc.Connections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO connections (position, source, target, strength) VALUES (?, ?, ?, ?)`,
			i, conn.Source, conn.Target, nullFloat(conn.Strength)); err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert connection %d: %w", i, err)
		}
	}

	meta := map[string]string{
		"source":       source,
		"content_hash": hash,
		"imported_at":  s.now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, k, v); err != nil {
			return ImportResult{}, fmt.Errorf("failed to record %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return res, nil
}

// Corpus loads the stored corpus. It returns ErrEmpty when nothing has
// been imported.
func (s *SQLiteCorpusStore) Corpus(ctx context.Context) (*corpus.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.documentLocked(ctx)
	if err != nil {
		return nil, err
	}
	if len(doc.KeywordDatabase) == 0 {
		return nil, ErrEmpty
	}
	return corpus.New(doc)
}

func (s *SQLiteCorpusStore) documentLocked(ctx context.Context) (corpus.Document, error) {
	doc := corpus.Document{KeywordDatabase: make(map[string]corpus.Keyword)}

	rows, err := s.db.QueryContext(ctx, `SELECT id, frequency FROM keywords ORDER BY id`)
	if err != nil {
		return doc, fmt.Errorf("failed to query keywords: %w", err)
	}
	for rows.Next() {
		var id string
		var freq sql.NullFloat64
		if err := rows.Scan(&id, &freq); err != nil {
			rows.Close()
			return doc, fmt.Errorf("failed to scan keyword: %w", err)
		}
		kw := corpus.Keyword{Related: []string{}, Examples: []string{}}
		if freq.Valid {
			f := freq.Float64
			kw.Frequency = &f
		}
		doc.KeywordDatabase[id] = kw
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return doc, err
	}

	if err := s.appendLists(ctx, doc,
		`SELECT keyword_id, related_id FROM keyword_related ORDER BY keyword_id, position`,
		func(kw *corpus.Keyword, v string) { kw.Related = append(kw.Related, v) }); err != nil {
		return doc, fmt.Errorf("failed to load related keywords: %w", err)
	}
	if err := s.appendLists(ctx, doc,
		`SELECT keyword_id, text FROM keyword_examples ORDER BY keyword_id, position`,
		func(kw *corpus.Keyword, v string) { kw.Examples = append(kw.Examples, v) }); err != nil {
		return doc, fmt.Errorf("failed to load examples: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, `SELECT source, target, strength FROM connections ORDER BY position`)
	if err != nil {
		return doc, fmt.Errorf("failed to query connections: %w", err)
	}
	defer crows.Close()
	doc.Connections = []corpus.Connection{}
	for crows.Next() {
		var conn corpus.Connection
		var strength sql.NullFloat64
		if err := crows.Scan(&conn.Source, &conn.Target, &strength); err != nil {
			return doc, fmt.Errorf("failed to scan connection: %w", err)
		}
		if strength.Valid {
			f := strength.Float64
			conn.Strength = &f
		}
		doc.Connections = append(doc.Connections, conn)
	}
	return doc, crows.Err()
}

func (s *SQLiteCorpusStore) appendLists(ctx context.Context, doc corpus.Document, query string, add func(*corpus.Keyword, string)) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, v string
		if err := rows.Scan(&id, &v); err != nil {
			return err
		}
		kw, ok := doc.KeywordDatabase[id]
		if !ok {
			continue
		}
		add(&kw, v)
		doc.KeywordDatabase[id] = kw
	}
	return rows.Err()
}

// Stats reports counts and import metadata.
func (s *SQLiteCorpusStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM keywords`, &st.Keywords},
		{`SELECT COUNT(*) FROM keyword_related`, &st.Related},
		{`SELECT COUNT(*) FROM keyword_examples`, &st.Examples},
		{`SELECT COUNT(*) FROM connections`, &st.Connections},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("failed to count: %w", err)
		}
	}

	st.Source, _ = s.metaLocked(ctx, "source")
	st.ContentHash, _ = s.metaLocked(ctx, "content_hash")
	if v, err := s.metaLocked(ctx, "imported_at"); err == nil {
		st.ImportedAt, _ = time.Parse(time.RFC3339, v)
	}
	return st, nil
}

func (s *SQLiteCorpusStore) metaLocked(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	return v, err
}

// Close closes the database.
func (s *SQLiteCorpusStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// Source loads the corpus from an existing SQLite database. It implements
// corpus.Source.
type Source struct {
	Path string
}

// LoadCorpus implements corpus.Source.
func (s Source) LoadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("corpus database: %w", err)
	}
	st, err := NewSQLiteCorpusStore(s.Path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Corpus(ctx)
}

func (s Source) String() string { return s.Path }
