package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/session"
)

// Output file names written by `snowball run`.
const (
	graphFile      = "graph.svg"
	totalChartFile = "progress-total.svg"
	newChartFile   = "progress-new.svg"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sampling session headlessly and write its results",
		Long: `Run a snowball-sampling session without the page.

The session starts from the configured seeds (or --seed), plays rounds until
no new keyword is found or --rounds is reached, and writes the graph, both
progress charts and the JSON and CSV exports into --out.

Examples:
  snowball run
  snowball run --seed "solar power" --seed "wind energy" --rand-seed 42
  snowball run --rounds 3 --out results/`,
		RunE: runSession,
	}

	cmd.Flags().StringSlice("seed", nil, "Seed keyword (repeatable; default from config)")
	cmd.Flags().Int("rounds", 0, "Stop after this many rounds (0 runs to closure)")
	cmd.Flags().String("out", "snowball-results", "Output directory")
	cmd.Flags().Uint64("rand-seed", 0, "Random seed for reproducible runs (0 uses config or the clock)")
	cmd.Flags().Float64("factor", 0, "Discovery factor in [0,1] (default from config)")

	return cmd
}

type runSummary struct {
	RunID      string   `json:"run_id"`
	Rounds     int      `json:"rounds"`
	Played     int      `json:"played"`
	Discovered int      `json:"discovered"`
	Known      int      `json:"known"`
	Complete   bool     `json:"complete"`
	Files      []string `json:"files"`
}

func runSession(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	seeds, _ := cmd.Flags().GetStringSlice("seed")
	rounds, _ := cmd.Flags().GetInt("rounds")
	outDir, _ := cmd.Flags().GetString("out")
	randSeed, _ := cmd.Flags().GetUint64("rand-seed")
	factor, _ := cmd.Flags().GetFloat64("factor")

	if rounds < 0 {
		return fmt.Errorf("--rounds must be non-negative, got %d", rounds)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(seeds) > 0 {
		cfg.Simulation.Seeds = seeds
	}
	if randSeed != 0 {
		cfg.Simulation.RandSeed = randSeed
	}
	if cmd.Flags().Changed("factor") {
		cfg.Simulation.DiscoveryFactor = factor
	}
	if rounds == 0 {
		rounds = cfg.Simulation.MaxRounds
	}

	logger := newLogger(cmd, cfg)
	trace := logging.NewTraceLogger(cfg.Logging.TraceDir, cfg.Logging.Level)
	defer trace.Close()

	c := loadCorpus(cmd, cfg, logger)
	ctl, err := session.New(sessionOptions(cfg, c, logger, trace))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer ctl.Close()

	played, err := ctl.RunToCompletion(cmd.Context(), rounds)
	if err != nil {
		return err
	}

	files, err := writeResults(ctl, outDir)
	if err != nil {
		return err
	}

	snap := ctl.Snapshot()
	summary := runSummary{
		RunID:      snap.RunID,
		Rounds:     snap.Round,
		Played:     played,
		Discovered: snap.Total,
		Known:      snap.Known,
		Complete:   snap.Phase == session.PhaseComplete,
		Files:      files,
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", snap.Status)
	fmt.Fprintf(out, "  Rounds:     %d\n", summary.Rounds)
	fmt.Fprintf(out, "  Discovered: %d of %d keywords\n", summary.Discovered, summary.Known)
	fmt.Fprintf(out, "  Growth:     %s (last round)\n", snap.GrowthLabel())
	fmt.Fprintf(out, "Results written to %s\n", outDir)
	return nil
}

// writeResults writes the graph, charts and exports into dir and returns
// the written paths.
func writeResults(ctl *session.Controller, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var jsonBuf, csvBuf bytes.Buffer
	if err := ctl.ExportJSON(&jsonBuf); err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	if err := ctl.ExportCSV(&csvBuf); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}

	outputs := []struct {
		name string
		data []byte
	}{
		{graphFile, []byte(ctl.GraphSVG())},
		{totalChartFile, []byte(ctl.TotalChartSVG())},
		{newChartFile, []byte(ctl.NewChartSVG())},
		{session.JSONFileName, jsonBuf.Bytes()},
		{session.CSVFileName, csvBuf.Bytes()},
	}

	files := make([]string, 0, len(outputs))
	for _, o := range outputs {
		path := filepath.Join(dir, o.name)
		if err := os.WriteFile(path, o.data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", o.name, err)
		}
		files = append(files, path)
	}
	return files, nil
}
