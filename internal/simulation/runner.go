package simulation

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/discovery"
	"github.com/nvandessel/snowball/internal/logging"
)

// Runner executes scenarios against one corpus.
type Runner struct {
	corpus *corpus.Corpus
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a runner over c. A nil logger discards output.
func NewRunner(c *corpus.Corpus, logger *slog.Logger) *Runner {
	return &Runner{corpus: c, logger: logging.OrDiscard(logger), now: time.Now}
}

// Run executes every run of the scenario and summarizes them. Runs are
// independent and execute concurrently; results are ordered by index.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Result, error) {
	sc, err := sc.withDefaults()
	if err != nil {
		return Result{}, err
	}
	if sc.BaseSeed == 0 {
		sc.BaseSeed = uint64(r.now().UnixNano())
	}

	start := r.now()
	runs := make([]RunResult, sc.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.Parallelism)
	for i := range runs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.runOne(gctx, sc, i)
			if err != nil {
				return err
			}
			runs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result := summarize(sc, runs)
	r.logger.Info("simulation complete",
		"scenario", sc.Name,
		"runs", sc.Runs,
		"closed", result.ClosedRuns,
		"rounds_mean", result.Rounds.Mean,
		"coverage_mean", result.Coverage.Mean,
		"elapsed", r.now().Sub(start))
	return result, nil
}

func (r *Runner) runOne(ctx context.Context, sc Scenario, index int) (RunResult, error) {
	seed := RunSeed(sc.BaseSeed, index)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	state := discovery.NewState(r.corpus)
	for _, s := range sc.Seeds {
		state.AddSeed(r.corpus, s)
	}
	if len(state.Seeds()) == 0 {
		return RunResult{}, ErrNoSeeds
	}

	engine := discovery.NewEngine(discovery.Config{DiscoveryFactor: *sc.DiscoveryFactor}, rng)
	total, _ := state.Counts()
	res := RunResult{Index: index, Seed: seed, Totals: []int{total}}

	for sc.MaxRounds == 0 || res.Rounds < sc.MaxRounds {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		state.NextRound()
		res.Rounds++
		found := engine.AdvanceRound(state, r.corpus)
		if len(found) == 0 {
			res.Closed = true
			break
		}
		res.Productive++
		total, _ = state.Counts()
		res.Totals = append(res.Totals, total)
	}

	res.Discovered, _ = state.Counts()
	res.Known = state.Len()
	if res.Known > 0 {
		res.Coverage = float64(res.Discovered) / float64(res.Known)
	}

	r.logger.Log(ctx, logging.LevelTrace, "simulation run",
		"scenario", sc.Name,
		"index", index,
		"rounds", res.Rounds,
		"discovered", res.Discovered,
		"closed", res.Closed)
	return res, nil
}

func summarize(sc Scenario, runs []RunResult) Result {
	rounds := make([]float64, len(runs))
	discovered := make([]float64, len(runs))
	coverage := make([]float64, len(runs))
	closed := 0
	for i, run := range runs {
		rounds[i] = float64(run.Productive)
		discovered[i] = float64(run.Discovered)
		coverage[i] = run.Coverage
		if run.Closed {
			closed++
		}
	}
	return Result{
		Scenario:   sc,
		Runs:       runs,
		Rounds:     Summarize(rounds),
		Discovered: Summarize(discovered),
		Coverage:   Summarize(coverage),
		ClosedRuns: closed,
	}
}

// RunSeed derives the random seed of run index from base (splitmix64).
func RunSeed(base uint64, index int) uint64 {
	z := base + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
