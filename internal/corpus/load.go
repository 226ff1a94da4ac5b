package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Source produces a corpus. Implementations fetch over HTTP, read a file
// or query a corpus database.
type Source interface {
	LoadCorpus(ctx context.Context) (*Corpus, error)
	String() string
}

// FileSource reads a JSON corpus document from disk.
type FileSource struct {
	Path string
}

// LoadCorpus implements Source.
func (f FileSource) LoadCorpus(ctx context.Context) (*Corpus, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return Parse(data)
}

func (f FileSource) String() string { return f.Path }

// ReaderSource decodes a corpus from an already-open reader.
type ReaderSource struct {
	Name string
	R    io.Reader
}

// LoadCorpus implements Source.
func (r ReaderSource) LoadCorpus(ctx context.Context) (*Corpus, error) {
	data, err := io.ReadAll(r.R)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Parse(data)
}

func (r ReaderSource) String() string { return r.Name }

// LoadOrFallback loads the corpus from src. Any failure is logged and the
// built-in fallback corpus is returned instead; the bool reports whether the
// fallback was used.
func LoadOrFallback(ctx context.Context, src Source, logger *slog.Logger) (*Corpus, bool) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if src == nil {
		logger.Warn("no corpus source configured, using fallback corpus")
		return Fallback(), true
	}

	c, err := src.LoadCorpus(ctx)
	if err != nil {
		logger.Warn("corpus load failed, using fallback corpus", "source", src.String(), "error", err)
		return Fallback(), true
	}

	logger.Info("corpus loaded", "source", src.String(), "keywords", c.Len(), "connections", len(c.connections))
	return c, false
}
