package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `{
  "keywordDatabase": {
    "Climate Change": {"related": ["Global Warming", "carbon emissions"], "examples": ["a"], "frequency": 0.9},
    "global warming": {"related": ["climate change"], "examples": []},
    "carbon emissions": {"related": [], "examples": ["b", "c"], "frequency": 0.2}
  },
  "connections": [{"source": "climate change", "target": "Global Warming", "strength": 0.8}]
}`

func TestParse_NormalizesIDs(t *testing.T) {
	c, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"carbon emissions", "climate change", "global warming"}
	got := c.IDs()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	kw, ok := c.Lookup("climate change")
	if !ok {
		t.Fatal("expected climate change to be present")
	}
	if kw.Related[0] != "global warming" {
		t.Errorf("related[0] = %q, want normalized 'global warming'", kw.Related[0])
	}

	conns := c.Connections()
	if len(conns) != 1 || conns[0].Target != "global warming" {
		t.Errorf("connections = %+v, want normalized target", conns)
	}
	if conns[0].Weight() != 0.8 {
		t.Errorf("Weight() = %v, want 0.8", conns[0].Weight())
	}
}

func TestKeyword_FreqDefault(t *testing.T) {
	c, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	kw, _ := c.Lookup("global warming")
	if kw.Freq() != DefaultFrequency {
		t.Errorf("Freq() = %v, want %v", kw.Freq(), DefaultFrequency)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"keywordDatabase":`},
		{"missing database", `{"connections": []}`},
		{"frequency out of range", `{"keywordDatabase": {"a": {"related": [], "frequency": 1.5}}}`},
		{"connection without target", `{"keywordDatabase": {"a": {"related": []}}, "connections": [{"source": "a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidCorpus) {
				t.Errorf("Parse() error = %v, want ErrInvalidCorpus", err)
			}
		})
	}
}

func TestNew_MergesCollidingIDs(t *testing.T) {
	doc := `{"keywordDatabase": {
		"Climate Change": {"related": ["Warming"], "examples": ["x"], "frequency": 0.9},
		"climate change": {"related": ["warming", "carbon"], "examples": ["y"], "frequency": 0.1},
		" CLIMATE CHANGE ": {"related": [], "examples": ["x"]}
	}}`

	for i := 0; i < 50; i++ {
		c, err := Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if ids := c.IDs(); len(ids) != 1 {
			t.Fatalf("IDs() = %v, want one merged id", ids)
		}
		kw, _ := c.Lookup("climate change")
		// " CLIMATE CHANGE " sorts first but has no frequency; "Climate Change" is next.
		if kw.Freq() != 0.9 {
			t.Fatalf("iteration %d: Freq() = %v, want 0.9", i, kw.Freq())
		}
		if strings.Join(kw.Related, ",") != "warming,carbon" {
			t.Fatalf("iteration %d: Related = %v, want [warming carbon]", i, kw.Related)
		}
		if strings.Join(kw.Examples, ",") != "x,y" {
			t.Fatalf("iteration %d: Examples = %v, want [x y]", i, kw.Examples)
		}
	}
}

func TestFallback(t *testing.T) {
	c := Fallback()
	if c.Len() != 2 {
		t.Fatalf("fallback Len() = %d, want 2", c.Len())
	}
	kw, ok := c.Lookup("climate change")
	if !ok || kw.Freq() != 0.95 {
		t.Errorf("climate change = %+v, want frequency 0.95", kw)
	}
}

type failingSource struct{}

func (failingSource) LoadCorpus(ctx context.Context) (*Corpus, error) {
	return nil, errors.New("boom")
}

func (failingSource) String() string { return "failing" }

func TestLoadOrFallback(t *testing.T) {
	ctx := context.Background()

	c, usedFallback := LoadOrFallback(ctx, failingSource{}, nil)
	if !usedFallback {
		t.Error("expected fallback on source failure")
	}
	if c.Len() != 2 {
		t.Errorf("fallback Len() = %d, want 2", c.Len())
	}

	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	c, usedFallback = LoadOrFallback(ctx, FileSource{Path: path}, nil)
	if usedFallback {
		t.Error("did not expect fallback for a valid file")
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	_, usedFallback = LoadOrFallback(ctx, FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}, nil)
	if !usedFallback {
		t.Error("expected fallback for missing file")
	}
}
