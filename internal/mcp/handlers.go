package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/ratelimit"
	"github.com/nvandessel/snowball/internal/render"
	"github.com/nvandessel/snowball/internal/session"
	"github.com/nvandessel/snowball/internal/simulation"
)

// MaxSimulationRuns caps snowball_simulate batches.
const MaxSimulationRuns = 1000

// registerTools registers all snowball MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_state",
		Description: "Get the current snowball-sampling session: phase, round, discovered counts, growth rate and seeds",
	}, s.handleState)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_detail",
		Description: "Show a keyword's discovery round, connections and example sentence",
	}, s.handleDetail)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_add_seed",
		Description: "Add a seed keyword; unknown keywords become isolated seeds",
	}, s.handleAddSeed)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_remove_seed",
		Description: "Remove a seed keyword (only before sampling starts)",
	}, s.handleRemoveSeed)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_start",
		Description: "Start sampling from the current seeds and play the first round",
	}, s.handleStart)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_round",
		Description: "Play the next discovery round",
	}, s.handleRound)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_run",
		Description: "Play rounds until no new keywords are found or a round limit is reached",
	}, s.handleRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_reset",
		Description: "Reset the session to its seeds, discarding all discoveries",
	}, s.handleReset)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_export",
		Description: "Export the discovered keywords as JSON or CSV",
	}, s.handleExport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_graph",
		Description: "Render the keyword network as SVG, DOT (Graphviz) or JSON, or a progress chart as SVG",
	}, s.handleGraph)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "snowball_simulate",
		Description: "Run a batch of independent sampling runs and summarize rounds to closure and coverage",
	}, s.handleSimulate)
}

// registerResources registers MCP resources for reading session state.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "snowball://session/summary",
		Name:        "snowball-session-summary",
		Description: "Markdown summary of the current sampling session.",
		MIMEType:    "text/markdown",
	}, s.handleSummaryResource)

	s.server.AddResource(&sdk.Resource{
		URI:         "snowball://graph.svg",
		Name:        "snowball-graph",
		Description: "The keyword network as currently drawn.",
		MIMEType:    "image/svg+xml",
	}, s.handleGraphResource)

	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: "snowball://keywords/{id}",
		Name:        "snowball-keyword",
		Description: "Detail for one keyword of the session.",
		MIMEType:    "text/markdown",
	}, s.handleKeywordResource)
}

func (s *Server) handleState(ctx context.Context, req *sdk.CallToolRequest, args StateInput) (_ *sdk.CallToolResult, _ StateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_state", start, retErr, sanitizeToolParams(map[string]interface{}{"candidates": args.Candidates}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_state"); err != nil {
		return nil, StateOutput{}, err
	}

	out := StateOutput{
		Session: s.session.Snapshot(),
		Samples: s.session.Samples(),
	}
	if args.Candidates {
		out.Candidates = s.session.Candidates()
	}
	return nil, out, nil
}

func (s *Server) handleDetail(ctx context.Context, req *sdk.CallToolRequest, args KeywordInput) (_ *sdk.CallToolResult, _ DetailOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_detail", start, retErr, sanitizeToolParams(map[string]interface{}{"keyword": args.Keyword}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_detail"); err != nil {
		return nil, DetailOutput{}, err
	}

	d, err := s.session.Detail(args.Keyword)
	if err != nil {
		return nil, DetailOutput{}, err
	}
	return nil, DetailOutput{Detail: d}, nil
}

func (s *Server) handleAddSeed(ctx context.Context, req *sdk.CallToolRequest, args KeywordInput) (_ *sdk.CallToolResult, _ SeedOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_add_seed", start, retErr, sanitizeToolParams(map[string]interface{}{"keyword": args.Keyword}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_add_seed"); err != nil {
		return nil, SeedOutput{}, err
	}
	if strings.TrimSpace(args.Keyword) == "" {
		return nil, SeedOutput{}, fmt.Errorf("'keyword' parameter is required")
	}

	id, added := s.session.AddSeed(args.Keyword)
	msg := fmt.Sprintf("Added seed %q", id)
	if !added {
		msg = fmt.Sprintf("%q is already a seed", id)
	}
	return nil, SeedOutput{
		Keyword: id,
		Changed: added,
		Seeds:   s.session.Snapshot().Seeds,
		Message: msg,
	}, nil
}

func (s *Server) handleRemoveSeed(ctx context.Context, req *sdk.CallToolRequest, args KeywordInput) (_ *sdk.CallToolResult, _ SeedOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_remove_seed", start, retErr, sanitizeToolParams(map[string]interface{}{"keyword": args.Keyword}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_remove_seed"); err != nil {
		return nil, SeedOutput{}, err
	}

	if err := s.session.RemoveSeed(args.Keyword); err != nil {
		return nil, SeedOutput{}, err
	}
	id := corpus.Normalize(args.Keyword)
	return nil, SeedOutput{
		Keyword: id,
		Changed: true,
		Seeds:   s.session.Snapshot().Seeds,
		Message: fmt.Sprintf("Removed seed %q", id),
	}, nil
}

func (s *Server) handleStart(ctx context.Context, req *sdk.CallToolRequest, args EmptyInput) (_ *sdk.CallToolResult, _ RoundOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_start", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_start"); err != nil {
		return nil, RoundOutput{}, err
	}

	res, err := s.session.Start()
	if err != nil {
		return nil, RoundOutput{}, err
	}
	return nil, RoundOutput{
		Round:      res.Round,
		Discovered: res.Discovered,
		Draws:      res.Draws,
		Session:    s.session.Snapshot(),
	}, nil
}

func (s *Server) handleRound(ctx context.Context, req *sdk.CallToolRequest, args EmptyInput) (_ *sdk.CallToolResult, _ RoundOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_round", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_round"); err != nil {
		return nil, RoundOutput{}, err
	}

	res, err := s.session.AdvanceRound()
	if err != nil {
		return nil, RoundOutput{}, err
	}
	return nil, RoundOutput{
		Round:      res.Round,
		Discovered: res.Discovered,
		Draws:      res.Draws,
		Session:    s.session.Snapshot(),
	}, nil
}

func (s *Server) handleRun(ctx context.Context, req *sdk.CallToolRequest, args RunInput) (_ *sdk.CallToolResult, _ RunOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_run", start, retErr, sanitizeToolParams(map[string]interface{}{"max_rounds": args.MaxRounds}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_run"); err != nil {
		return nil, RunOutput{}, err
	}
	if args.MaxRounds < 0 {
		return nil, RunOutput{}, fmt.Errorf("max_rounds must be non-negative, got %d", args.MaxRounds)
	}

	played, err := s.session.RunToCompletion(ctx, args.MaxRounds)
	if err != nil {
		return nil, RunOutput{}, err
	}
	return nil, RunOutput{Played: played, Session: s.session.Snapshot()}, nil
}

func (s *Server) handleReset(ctx context.Context, req *sdk.CallToolRequest, args EmptyInput) (_ *sdk.CallToolResult, _ StateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_reset", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_reset"); err != nil {
		return nil, StateOutput{}, err
	}

	s.session.Reset()
	return nil, StateOutput{
		Session: s.session.Snapshot(),
		Samples: s.session.Samples(),
	}, nil
}

func (s *Server) handleExport(ctx context.Context, req *sdk.CallToolRequest, args ExportInput) (_ *sdk.CallToolResult, _ ExportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_export", start, retErr, sanitizeToolParams(map[string]interface{}{"format": args.Format}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_export"); err != nil {
		return nil, ExportOutput{}, err
	}

	var sb strings.Builder
	switch format := strings.ToLower(args.Format); format {
	case "", "json":
		if err := s.session.ExportJSON(&sb); err != nil {
			return nil, ExportOutput{}, err
		}
		return nil, ExportOutput{Format: "json", FileName: session.JSONFileName, Content: sb.String()}, nil
	case "csv":
		if err := s.session.ExportCSV(&sb); err != nil {
			return nil, ExportOutput{}, err
		}
		return nil, ExportOutput{Format: "csv", FileName: session.CSVFileName, Content: sb.String()}, nil
	default:
		return nil, ExportOutput{}, fmt.Errorf("unsupported export format: %s (valid: json, csv)", args.Format)
	}
}

func (s *Server) handleGraph(ctx context.Context, req *sdk.CallToolRequest, args GraphInput) (_ *sdk.CallToolResult, _ GraphOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_graph", start, retErr, sanitizeToolParams(map[string]interface{}{
			"format": args.Format,
			"chart":  args.Chart,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_graph"); err != nil {
		return nil, GraphOutput{}, err
	}

	format := render.Format(strings.ToLower(args.Format))
	if format == "" {
		format = render.FormatSVG
	}

	if args.Chart != "" {
		if format != render.FormatSVG {
			return nil, GraphOutput{}, fmt.Errorf("charts are only rendered as svg")
		}
		samples := len(s.session.Samples())
		switch args.Chart {
		case "total":
			return nil, GraphOutput{Format: "svg", Graph: s.session.TotalChartSVG(), NodeCount: samples}, nil
		case "new":
			return nil, GraphOutput{Format: "svg", Graph: s.session.NewChartSVG(), NodeCount: samples}, nil
		default:
			return nil, GraphOutput{}, fmt.Errorf("unknown chart: %s (valid: total, new)", args.Chart)
		}
	}

	scene := s.session.Scene()
	out := GraphOutput{Format: string(format), NodeCount: len(scene.Nodes), EdgeCount: len(scene.Edges)}
	switch format {
	case render.FormatSVG:
		out.Graph = s.session.GraphSVG()
	case render.FormatDOT:
		out.Graph = render.DOT(scene)
	case render.FormatJSON:
		out.Graph = render.JSON(scene)
	default:
		return nil, GraphOutput{}, fmt.Errorf("unsupported format: %s (valid: svg, dot, json)", args.Format)
	}
	return nil, out, nil
}

func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("snowball_simulate", start, retErr, sanitizeToolParams(map[string]interface{}{
			"seeds":      args.Seeds,
			"runs":       args.Runs,
			"max_rounds": args.MaxRounds,
			"seed":       args.Seed,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "snowball_simulate"); err != nil {
		return nil, SimulateOutput{}, err
	}
	if args.Runs > MaxSimulationRuns {
		return nil, SimulateOutput{}, fmt.Errorf("runs must be at most %d, got %d", MaxSimulationRuns, args.Runs)
	}

	seeds := args.Seeds
	if len(seeds) == 0 {
		seeds = s.session.Snapshot().Seeds
	}

	res, err := s.runner.Run(ctx, simulation.Scenario{
		Name:      "mcp",
		Seeds:     seeds,
		Runs:      args.Runs,
		MaxRounds: args.MaxRounds,
		BaseSeed:  args.Seed,
	})
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	return nil, SimulateOutput{
		Runs:       len(res.Runs),
		ClosedRuns: res.ClosedRuns,
		Rounds:     res.Rounds,
		Discovered: res.Discovered,
		Coverage:   res.Coverage,
		Seed:       res.Scenario.BaseSeed,
	}, nil
}

// handleSummaryResource formats the session as markdown.
func (s *Server) handleSummaryResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	snap := s.session.Snapshot()

	var sb strings.Builder
	sb.WriteString("# Snowball sampling session\n\n")
	sb.WriteString(fmt.Sprintf("**Run:** %s\n", snap.RunID))
	sb.WriteString(fmt.Sprintf("**Phase:** %s\n", snap.Phase))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", snap.Status))
	sb.WriteString(fmt.Sprintf("**Discovered:** %d of %d known keywords\n", snap.Total, snap.Known))
	sb.WriteString(fmt.Sprintf("**Growth rate:** %s\n\n", snap.GrowthLabel()))

	sb.WriteString("## Seeds\n\n")
	if len(snap.Seeds) == 0 {
		sb.WriteString("*No seeds. Add one with snowball_add_seed.*\n")
	}
	for _, seed := range snap.Seeds {
		sb.WriteString(fmt.Sprintf("- %s\n", seed))
	}

	if samples := s.session.Samples(); len(samples) > 0 {
		sb.WriteString("\n## Progress\n\n| Round | Total | New |\n|---|---|---|\n")
		for _, p := range samples {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d |\n", p.Round, p.Total, p.New))
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "snowball://session/summary",
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

func (s *Server) handleGraphResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "snowball://graph.svg",
				MIMEType: "image/svg+xml",
				Text:     s.session.GraphSVG(),
			},
		},
	}, nil
}

// handleKeywordResource returns the detail of one keyword.
// URI format: snowball://keywords/{id}
func (s *Server) handleKeywordResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	prefix := "snowball://keywords/"
	if !strings.HasPrefix(uri, prefix) {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	id := strings.TrimPrefix(uri, prefix)
	if id == "" {
		return nil, fmt.Errorf("keyword is required")
	}

	rec, ok := s.session.Record(id)
	if !ok {
		return nil, sdk.ResourceNotFoundError(uri)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Keyword: %s\n\n", id))
	sb.WriteString(fmt.Sprintf("**Round:** %s\n", render.RoundLabel(rec.Round)))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", rec.Type))
	sb.WriteString(fmt.Sprintf("**Frequency:** %.2f\n\n", rec.Frequency))
	if len(rec.Related) > 0 {
		sb.WriteString("## Related\n\n")
		for _, r := range rec.Related {
			sb.WriteString(fmt.Sprintf("- %s\n", r))
		}
	}
	if len(rec.Examples) > 0 {
		sb.WriteString("\n## Examples\n\n")
		for _, ex := range rec.Examples {
			sb.WriteString(fmt.Sprintf("> %s\n", ex))
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}
