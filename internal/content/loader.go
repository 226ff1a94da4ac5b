package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/snowball/internal/corpus"
)

// CorpusPath is the default corpus location relative to a version root.
const CorpusPath = "demos/snowball-sampling/data/sample-keywords.json"

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a remote file is read.
const maxBody = 16 << 20

// ErrNotFound is wrapped by fetch errors for missing files.
var ErrNotFound = errors.New("content not found")

// Loader fetches version-scoped files from a base that is either a local
// directory or an http(s) URL.
type Loader struct {
	base    string
	version string
	client  *http.Client
}

// NewLoader creates a loader for version under base. A nil client uses a
// client with DefaultTimeout.
func NewLoader(base, version string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Loader{base: strings.TrimRight(base, "/"), version: version, client: client}
}

// Version returns the version the loader reads from.
func (l *Loader) Version() string { return l.version }

// Remote reports whether the base is an http(s) URL.
func (l *Loader) Remote() bool {
	return strings.HasPrefix(l.base, "http://") || strings.HasPrefix(l.base, "https://")
}

// VersionURL returns the location of rel under the version root.
func (l *Loader) VersionURL(rel string) string {
	if l.Remote() {
		u, err := url.JoinPath(l.base, "versions", l.version, rel)
		if err != nil {
			return l.base + "/" + path.Join("versions", l.version, rel)
		}
		return u
	}
	return filepath.Join(l.base, "versions", l.version, filepath.FromSlash(rel))
}

// ContentURL returns the location of a file in the version's content dir.
func (l *Loader) ContentURL(file string) string {
	return l.VersionURL(path.Join("content", file))
}

// Fetch reads a file from the version's content directory.
func (l *Loader) Fetch(ctx context.Context, file string) ([]byte, error) {
	data, err := l.read(ctx, l.ContentURL(file))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s for version %s: %w", file, l.version, err)
	}
	return data, nil
}

// FetchVersionFile reads rel relative to the version root.
func (l *Loader) FetchVersionFile(ctx context.Context, rel string) ([]byte, error) {
	data, err := l.read(ctx, l.VersionURL(rel))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s for version %s: %w", rel, l.version, err)
	}
	return data, nil
}

func (l *Loader) read(ctx context.Context, loc string) ([]byte, error) {
	if !l.Remote() {
		data, err := os.ReadFile(loc)
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return data, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// CorpusSource loads the keyword corpus through a Loader.
type CorpusSource struct {
	Loader *Loader
	// Path is relative to the version root; empty means CorpusPath.
	Path string
}

// LoadCorpus implements corpus.Source.
func (s CorpusSource) LoadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	data, err := s.Loader.FetchVersionFile(ctx, s.path())
	if err != nil {
		return nil, err
	}
	return corpus.Parse(data)
}

func (s CorpusSource) String() string {
	return s.Loader.VersionURL(s.path())
}

func (s CorpusSource) path() string {
	if s.Path == "" {
		return CorpusPath
	}
	return s.Path
}

// LoadVersionConfig reads ConfigFile from base, a directory or URL.
func LoadVersionConfig(ctx context.Context, base string, client *http.Client) (VersionConfig, error) {
	l := NewLoader(base, "", client)
	loc := filepath.Join(l.base, filepath.FromSlash(ConfigFile))
	if l.Remote() {
		loc = l.base + "/" + ConfigFile
	}
	data, err := l.read(ctx, loc)
	if err != nil {
		return VersionConfig{}, fmt.Errorf("loading %s: %w", ConfigFile, err)
	}
	return ParseVersionConfig(data)
}

// URLSource loads a corpus document from an absolute http(s) URL.
type URLSource struct {
	URL    string
	Client *http.Client
}

// LoadCorpus implements corpus.Source.
func (s URLSource) LoadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	data, err := NewLoader(s.URL, "", s.Client).read(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus from %s: %w", s.URL, err)
	}
	return corpus.Parse(data)
}

func (s URLSource) String() string { return s.URL }

// IsURL reports whether loc is an http(s) URL.
func IsURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
