package mcp

import (
	"github.com/nvandessel/snowball/internal/discovery"
	"github.com/nvandessel/snowball/internal/progress"
	"github.com/nvandessel/snowball/internal/render"
	"github.com/nvandessel/snowball/internal/session"
	"github.com/nvandessel/snowball/internal/simulation"
)

// StateInput defines the input for the snowball_state tool.
type StateInput struct {
	Candidates bool `json:"candidates,omitempty" jsonschema:"Include the keywords reachable in the next round with their discovery probabilities"`
}

// StateOutput describes the current session.
type StateOutput struct {
	Session    session.Snapshot      `json:"session" jsonschema:"Session phase, counters and control availability"`
	Samples    []progress.Sample     `json:"samples" jsonschema:"Progress samples, one per round"`
	Candidates []discovery.Candidate `json:"candidates,omitempty" jsonschema:"Undiscovered keywords reachable next round"`
}

// KeywordInput names one keyword.
type KeywordInput struct {
	Keyword string `json:"keyword" jsonschema:"Keyword text; it is trimmed and lowercased"`
}

// SeedOutput is returned by the seed tools.
type SeedOutput struct {
	Keyword string   `json:"keyword" jsonschema:"Normalized keyword id"`
	Changed bool     `json:"changed" jsonschema:"Whether the seed set changed"`
	Seeds   []string `json:"seeds" jsonschema:"Seed keywords after the call"`
	Message string   `json:"message" jsonschema:"Human-readable result message"`
}

// DetailOutput describes a keyword.
type DetailOutput struct {
	Detail render.DetailView `json:"detail" jsonschema:"Keyword detail as shown in the demo's detail panel"`
}

// EmptyInput is used by tools without parameters.
type EmptyInput struct{}

// RoundOutput is returned by the tools that play rounds.
type RoundOutput struct {
	Round      int              `json:"round" jsonschema:"Round that was played"`
	Discovered []string         `json:"discovered" jsonschema:"Keywords discovered in that round"`
	Draws      []discovery.Draw `json:"draws" jsonschema:"Random draw made for each candidate"`
	Session    session.Snapshot `json:"session" jsonschema:"Session state after the round"`
}

// RunInput defines the input for the snowball_run tool.
type RunInput struct {
	MaxRounds int `json:"max_rounds,omitempty" jsonschema:"Stop after this many rounds (0 runs until no new keywords are found)"`
}

// RunOutput is returned by snowball_run.
type RunOutput struct {
	Played  int              `json:"played" jsonschema:"Rounds played by this call"`
	Session session.Snapshot `json:"session" jsonschema:"Session state after the run"`
}

// ExportInput defines the input for the snowball_export tool.
type ExportInput struct {
	Format string `json:"format,omitempty" jsonschema:"Export format: json (default) or csv"`
}

// ExportOutput carries an export document.
type ExportOutput struct {
	Format   string `json:"format"`
	FileName string `json:"file_name" jsonschema:"File name the demo would download"`
	Content  string `json:"content"`
}

// GraphInput defines the input for the snowball_graph tool.
type GraphInput struct {
	Format string `json:"format,omitempty" jsonschema:"Graph format: svg (default), dot or json"`
	Chart  string `json:"chart,omitempty" jsonschema:"Render a progress chart instead of the graph: total or new (svg only)"`
}

// GraphOutput carries a rendered graph or chart.
type GraphOutput struct {
	Format    string      `json:"format"`
	Graph     interface{} `json:"graph" jsonschema:"SVG or DOT text, or the scene as a JSON object"`
	NodeCount int         `json:"node_count"`
	EdgeCount int         `json:"edge_count"`
}

// SimulateInput defines the input for the snowball_simulate tool.
type SimulateInput struct {
	Seeds     []string `json:"seeds,omitempty" jsonschema:"Seed keywords (default: the session's seeds)"`
	Runs      int      `json:"runs,omitempty" jsonschema:"Number of independent runs (default 100, at most 1000)"`
	MaxRounds int      `json:"max_rounds,omitempty" jsonschema:"Round limit per run (0 runs to closure)"`
	Seed      uint64   `json:"seed,omitempty" jsonschema:"Base random seed for reproducible batches"`
}

// SimulateOutput summarizes a batch without the per-run detail.
type SimulateOutput struct {
	Runs       int                `json:"runs"`
	ClosedRuns int                `json:"closed_runs"`
	Rounds     simulation.Summary `json:"rounds" jsonschema:"Productive rounds until closure"`
	Discovered simulation.Summary `json:"discovered" jsonschema:"Discovered keywords per run"`
	Coverage   simulation.Summary `json:"coverage" jsonschema:"Share of known keywords discovered per run"`
	Seed       uint64             `json:"seed" jsonschema:"Base seed used, for reproducing the batch"`
}
