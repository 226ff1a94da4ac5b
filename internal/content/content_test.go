package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCorpus = `{
  "keywordDatabase": {
    "Climate Change": {"related": ["global warming"], "examples": [], "frequency": 0.95},
    "global warming": {"related": ["climate change"], "examples": [], "frequency": 0.87}
  },
  "connections": []
}`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolver_Resolve(t *testing.T) {
	r, err := NewResolver("Fall2025", []string{"Spring2025", "Fall2025"})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"Fall2025", "Fall2025"},
		{"Spring2025", "Spring2025"},
		{" Spring2025 ", "Spring2025"},
		{"", "Fall2025"},
		{"Winter1999", "Fall2025"},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if r.Default() != "Fall2025" {
		t.Errorf("Default() = %q", r.Default())
	}
}

func TestNewResolver_Invalid(t *testing.T) {
	if _, err := NewResolver("x", nil); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("empty versions: err = %v, want ErrUnknownVersion", err)
	}
	if _, err := NewResolver("x", []string{"a"}); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("default not listed: err = %v, want ErrUnknownVersion", err)
	}
}

func TestParseVersionConfig(t *testing.T) {
	cfg, err := ParseVersionConfig([]byte(`{"defaultVersion":"Fall2025","versions":[{"id":"Fall2025","name":"Fall 2025"}]}`))
	if err != nil {
		t.Fatalf("ParseVersionConfig() error = %v", err)
	}
	if got := cfg.IDs(); len(got) != 1 || got[0] != "Fall2025" {
		t.Errorf("IDs() = %v", got)
	}

	bad := []string{
		`{"versions":[{"id":"a"}]}`,
		`{"defaultVersion":"a","versions":[]}`,
		`{"defaultVersion":"a","versions":[{"name":"no id"}]}`,
		`not json`,
	}
	for _, b := range bad {
		if _, err := ParseVersionConfig([]byte(b)); err == nil {
			t.Errorf("ParseVersionConfig(%s) = nil error", b)
		}
	}
}

func TestProblems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "versions", "Fall2025", "content", "home.json"), "{}")
	if err := os.MkdirAll(filepath.Join(dir, "versions", "Spring2025", "demos"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := VersionConfig{
		DefaultVersion: "Fall2025",
		Versions:       []Version{{ID: "Fall2025"}, {ID: "Spring2025"}, {ID: "Gone"}},
	}
	errs, warnings := Problems(dir, cfg)
	if len(errs) != 2 {
		t.Errorf("errs = %v, want 2 entries", errs)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Fall2025") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestLoader_LocalDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "versions", "Fall2025", "content", "home.json"), `{"title":"x"}`)
	writeFile(t, filepath.Join(dir, "versions", "Fall2025", CorpusPath), sampleCorpus)

	l := NewLoader(dir, "Fall2025", nil)
	if l.Remote() {
		t.Fatal("directory base reported as remote")
	}

	data, err := l.Fetch(context.Background(), "home.json")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != `{"title":"x"}` {
		t.Errorf("Fetch() = %s", data)
	}

	_, err = l.Fetch(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: err = %v, want ErrNotFound", err)
	}
	if err == nil || !strings.Contains(err.Error(), "failed to load missing.json for version Fall2025") {
		t.Errorf("missing file message = %v", err)
	}

	c, err := CorpusSource{Loader: l}.LoadCorpus(context.Background())
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if !c.Has("climate change") {
		t.Error("corpus keys not normalized")
	}
}

func TestLoader_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/course/versions/Fall2025/" + CorpusPath:
			w.Write([]byte(sampleCorpus))
		case "/course/versions/config.json":
			w.Write([]byte(`{"defaultVersion":"Fall2025","versions":[{"id":"Fall2025"}]}`))
		case "/course/versions/Fall2025/content/broken.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	base := srv.URL + "/course/"
	l := NewLoader(base, "Fall2025", srv.Client())
	if !l.Remote() {
		t.Fatal("URL base not reported as remote")
	}
	if got, want := l.ContentURL("home.json"), srv.URL+"/course/versions/Fall2025/content/home.json"; got != want {
		t.Errorf("ContentURL() = %q, want %q", got, want)
	}

	src := CorpusSource{Loader: l}
	c, err := src.LoadCorpus(context.Background())
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("corpus len = %d, want 2", c.Len())
	}

	if _, err := l.Fetch(context.Background(), "nope.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404: err = %v, want ErrNotFound", err)
	}
	_, err = l.Fetch(context.Background(), "broken.json")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("500: err = %v, want non-NotFound error", err)
	}

	cfg, err := LoadVersionConfig(context.Background(), base, srv.Client())
	if err != nil {
		t.Fatalf("LoadVersionConfig() error = %v", err)
	}
	if cfg.DefaultVersion != "Fall2025" {
		t.Errorf("DefaultVersion = %q", cfg.DefaultVersion)
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCorpus))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(srv.URL, "Fall2025", srv.Client())
	if _, err := l.Fetch(ctx, "home.json"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestURLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/corpus.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleCorpus))
	}))
	defer srv.Close()

	src := URLSource{URL: srv.URL + "/corpus.json", Client: srv.Client()}
	c, err := src.LoadCorpus(context.Background())
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("corpus len = %d, want 2", c.Len())
	}
	if src.String() != srv.URL+"/corpus.json" {
		t.Errorf("String() = %q", src.String())
	}

	missing := URLSource{URL: srv.URL + "/missing.json", Client: srv.Client()}
	if _, err := missing.LoadCorpus(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"http://example.com/a.json":  true,
		"https://example.com/a.json": true,
		"./data/a.json":              false,
		"corpus.db":                  false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
