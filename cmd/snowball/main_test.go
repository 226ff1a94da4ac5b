package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/snowball/internal/content"
	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/session"
	"github.com/nvandessel/snowball/internal/store"
)

// chainCorpus is a -> b -> c with frequency 1, so a discovery factor of 1
// discovers one keyword per round.
const chainCorpus = `{
  "keywordDatabase": {
    "a": {"related": ["b"], "examples": ["about a"], "frequency": 1},
    "b": {"related": ["a", "c"], "examples": [], "frequency": 1},
    "c": {"related": ["b"], "examples": [], "frequency": 1}
  },
  "connections": [{"source": "a", "target": "b", "strength": 0.9}]
}`

// isolateHome sets HOME to a temp directory to avoid touching real ~/.snowball/
// MUST be called for any test that loads config or opens stores
func isolateHome(t *testing.T) string {
	t.Helper()
	tmpHome := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
	t.Setenv("USERPROFILE", tmpHome)
	return tmpHome
}

func writeFile(t *testing.T, path, data string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode: %v (%q)", err, out)
	}
	if v["version"] != version {
		t.Errorf("version = %q, want %q", v["version"], version)
	}

	out, err = execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "snowball version ") {
		t.Errorf("output = %q", out)
	}
}

func TestRunCmd(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	corpusPath := writeFile(t, filepath.Join(dir, "corpus.json"), chainCorpus)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run", "--json", "--corpus", corpusPath, "--seed", "A", "--factor", "1", "--rand-seed", "3", "--out", outDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var summary runSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v (%q)", err, out)
	}
	if !summary.Complete {
		t.Error("run should complete")
	}
	if summary.Discovered != 3 || summary.Known != 3 {
		t.Errorf("discovered %d of %d, want 3 of 3", summary.Discovered, summary.Known)
	}
	// Two productive rounds plus the empty closing round.
	if summary.Rounds != 3 {
		t.Errorf("rounds = %d, want 3", summary.Rounds)
	}
	if len(summary.Files) != 5 {
		t.Errorf("files = %v, want 5", summary.Files)
	}

	csvData, err := os.ReadFile(filepath.Join(outDir, session.CSVFileName))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(csvData), `"Keyword","Round","Type","Related Keywords","Example"`) {
		t.Errorf("csv header = %q", strings.SplitN(string(csvData), "\n", 2)[0])
	}

	jsonData, err := os.ReadFile(filepath.Join(outDir, session.JSONFileName))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var export session.Export
	if err := json.Unmarshal(jsonData, &export); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if strings.Join(export.SeedKeywords, ",") != "a" {
		t.Errorf("seedKeywords = %v", export.SeedKeywords)
	}

	svgData, err := os.ReadFile(filepath.Join(outDir, graphFile))
	if err != nil {
		t.Fatalf("read graph: %v", err)
	}
	if !strings.Contains(string(svgData), `data-keyword="c"`) {
		t.Error("graph should contain the discovered keyword c")
	}
}

func TestRunCmd_RoundLimit(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	corpusPath := writeFile(t, filepath.Join(dir, "corpus.json"), chainCorpus)

	out, err := execute(t, "run", "--json", "--corpus", corpusPath, "--seed", "a", "--factor", "1", "--rounds", "1", "--out", filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Complete || summary.Rounds != 1 || summary.Discovered != 2 {
		t.Errorf("summary = %+v, want 1 round, 2 discovered, not complete", summary)
	}

	if _, err := execute(t, "run", "--rounds", "-1", "--out", filepath.Join(dir, "out2")); err == nil {
		t.Error("expected error for negative rounds")
	}
}

func TestRunCmd_FallbackCorpus(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	out, err := execute(t, "run", "--json", "--corpus", filepath.Join(dir, "missing.json"), "--out", filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	// The fallback corpus holds exactly the two default seeds.
	if summary.Known != 2 || summary.Discovered != 2 || !summary.Complete {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunCmd_CourseContent(t *testing.T) {
	isolateHome(t)
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "versions", "config.json"),
		`{"defaultVersion": "Fall2025", "versions": [{"id": "Fall2025"}, {"id": "Spring2026"}]}`)
	writeFile(t, filepath.Join(base, "versions", "Spring2026", content.CorpusPath), chainCorpus)

	out, err := execute(t, "run", "--json", "--content-base", base, "--course-version", "Spring2026",
		"--seed", "a", "--factor", "1", "--out", filepath.Join(base, "out"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Known != 3 {
		t.Errorf("known = %d, want 3 from the Spring2026 corpus", summary.Known)
	}
}

func TestCorpusImportAndShow(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	corpusPath := writeFile(t, filepath.Join(dir, "corpus.json"), chainCorpus)
	dbPath := filepath.Join(dir, "climate.db")

	out, err := execute(t, "corpus", "import", corpusPath, "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var res map[string]interface{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	if res["keywords"] != float64(3) || res["unchanged"] != false {
		t.Errorf("import = %v", res)
	}

	out, err = execute(t, "corpus", "import", corpusPath, "--db", dbPath)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if !strings.Contains(out, "already up to date") {
		t.Errorf("re-import output = %q", out)
	}

	out, err = execute(t, "corpus", "show", dbPath, "--keywords", "--json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var shown struct {
		Stats    store.Stats  `json:"stats"`
		Keywords []keywordRow `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	if shown.Stats.Keywords != 3 || shown.Stats.Connections != 1 || shown.Stats.Source != corpusPath {
		t.Errorf("stats = %+v", shown.Stats)
	}
	if len(shown.Keywords) != 3 || shown.Keywords[0].ID != "a" || shown.Keywords[1].Related != 2 {
		t.Errorf("keywords = %+v", shown.Keywords)
	}

	// The database works as a corpus for sessions.
	out, err = execute(t, "run", "--json", "--corpus", dbPath, "--seed", "a", "--factor", "1", "--out", filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("run from db: %v", err)
	}
	if !strings.Contains(out, `"known":3`) {
		t.Errorf("run output = %q", out)
	}

	if _, err := execute(t, "corpus", "import", corpusPath, "--db", filepath.Join(dir, "corpus.txt")); err == nil {
		t.Error("expected error for non-database path")
	}
	if _, err := execute(t, "corpus", "show", filepath.Join(dir, "nope.db")); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestCorpusShow_JSONFile(t *testing.T) {
	isolateHome(t)
	corpusPath := writeFile(t, filepath.Join(t.TempDir(), "corpus.json"), chainCorpus)

	out, err := execute(t, "corpus", "show", corpusPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Keywords:      3", "Connections:   1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSimulateCmd(t *testing.T) {
	isolateHome(t)
	corpusPath := writeFile(t, filepath.Join(t.TempDir(), "corpus.json"), chainCorpus)

	out, err := execute(t, "simulate", "--json", "--corpus", corpusPath, "--seed", "a", "--runs", "6", "--factor", "1", "--rand-seed", "5")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	var res struct {
		Runs       []json.RawMessage `json:"runs"`
		ClosedRuns int               `json:"closed_runs"`
		Rounds     struct {
			Mean float64 `json:"mean"`
		} `json:"rounds"`
		Scenario struct {
			BaseSeed uint64 `json:"base_seed"`
		} `json:"scenario"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Runs) != 6 || res.ClosedRuns != 6 {
		t.Errorf("runs=%d closed=%d, want 6/6", len(res.Runs), res.ClosedRuns)
	}
	if res.Rounds.Mean != 2 {
		t.Errorf("mean productive rounds = %v, want 2", res.Rounds.Mean)
	}
	if res.Scenario.BaseSeed != 5 {
		t.Errorf("base seed = %d, want 5", res.Scenario.BaseSeed)
	}

	out, err = execute(t, "simulate", "--json", "--corpus", corpusPath, "--seed", "a", "--runs", "2", "--factor", "0", "--rand-seed", "5")
	if err != nil {
		t.Fatalf("simulate --factor 0: %v", err)
	}
	var zero struct {
		Discovered struct {
			Max float64 `json:"max"`
		} `json:"discovered"`
		Scenario struct {
			DiscoveryFactor float64 `json:"discovery_factor"`
		} `json:"scenario"`
	}
	if err := json.Unmarshal([]byte(out), &zero); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if zero.Scenario.DiscoveryFactor != 0 || zero.Discovered.Max != 1 {
		t.Errorf("factor 0 result = %+v, want factor 0 and only the seed discovered", zero)
	}

	out, err = execute(t, "simulate", "--corpus", corpusPath, "--seed", "a", "--runs", "2", "--rand-seed", "5")
	if err != nil {
		t.Fatalf("simulate text: %v", err)
	}
	if !strings.Contains(out, "Simulated 2 runs") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigCmds(t *testing.T) {
	home := isolateHome(t)

	out, err := execute(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(home, ".snowball", "config.yaml") {
		t.Errorf("path = %q", out)
	}

	cfgPath := writeFile(t, filepath.Join(t.TempDir(), "snowball.yaml"), "simulation:\n  seeds: [\"solar power\"]\n")
	t.Setenv("SNOWBALL_DISCOVERY_FACTOR", "0.25")

	out, err = execute(t, "config", "show", "--json", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var cfg struct {
		Simulation struct {
			Seeds           []string `json:"seeds"`
			DiscoveryFactor float64  `json:"discovery_factor"`
		} `json:"simulation"`
	}
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(cfg.Simulation.Seeds, ",") != "solar power" || cfg.Simulation.DiscoveryFactor != 0.25 {
		t.Errorf("config = %+v", cfg.Simulation)
	}

	out, err = execute(t, "config", "show", "--log-level", "debug")
	if err != nil {
		t.Fatalf("config show yaml: %v", err)
	}
	if !strings.Contains(out, "level: debug") {
		t.Errorf("yaml output missing flag override:\n%s", out)
	}

	if _, err := execute(t, "config", "show", "--log-level", "loud"); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}

func TestContentCmds(t *testing.T) {
	isolateHome(t)
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "versions", "config.json"),
		`{"defaultVersion": "Fall2025", "versions": [{"id": "Fall2025"}, {"id": "Spring2026"}]}`)
	writeFile(t, filepath.Join(base, "versions", "Fall2025", "content", "home.json"), "{}")
	writeFile(t, filepath.Join(base, "versions", "Fall2025", "demos", "index.html"), "")

	out, err := execute(t, "content", "versions", "--content-base", base, "--course-version", "Spring2026")
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if !strings.Contains(out, "  Fall2025 (default)") || !strings.Contains(out, "* Spring2026") {
		t.Errorf("versions output:\n%s", out)
	}

	out, err = execute(t, "content", "check", "--content-base", base)
	if err == nil {
		t.Fatal("expected check to fail for Spring2026 without content")
	}
	if !strings.Contains(out, "directory not found for version: Spring2026") {
		t.Errorf("check output:\n%s", out)
	}

	writeFile(t, filepath.Join(base, "versions", "Spring2026", "content", "home.json"), "{}")
	out, err = execute(t, "content", "check", "--content-base", base)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "warning: demos directory not found for version: Spring2026") {
		t.Errorf("check output:\n%s", out)
	}
}

func TestExplicitSource(t *testing.T) {
	tests := []struct {
		loc  string
		want interface{}
	}{
		{"https://example.com/corpus.json", content.URLSource{}},
		{"corpus.db", store.Source{}},
		{"data/corpus.sqlite3", store.Source{}},
		{"data/corpus.json", corpus.FileSource{}},
	}
	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			got := explicitSource(tt.loc)
			switch tt.want.(type) {
			case content.URLSource:
				if _, ok := got.(content.URLSource); !ok {
					t.Errorf("got %T, want URLSource", got)
				}
			case store.Source:
				if _, ok := got.(store.Source); !ok {
					t.Errorf("got %T, want store.Source", got)
				}
			case corpus.FileSource:
				if _, ok := got.(corpus.FileSource); !ok {
					t.Errorf("got %T, want FileSource", got)
				}
			}
		})
	}
}
