package simulation

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/nvandessel/snowball/internal/discovery"
)

// DefaultRuns is the batch size when a scenario leaves Runs at 0.
const DefaultRuns = 100

// ErrNoSeeds is returned for a scenario without any usable seed.
var ErrNoSeeds = errors.New("scenario has no seeds")

// Scenario defines a batch of independent runs.
type Scenario struct {
	Name  string   `json:"name,omitempty"`
	Seeds []string `json:"seeds"`
	Runs  int      `json:"runs"`

	// DiscoveryFactor overrides the engine default when set.
	DiscoveryFactor *float64 `json:"discovery_factor"`

	// MaxRounds bounds every run. 0 runs to closure.
	MaxRounds int `json:"max_rounds,omitempty"`

	// BaseSeed derives the per-run random streams. 0 picks one from the clock.
	BaseSeed uint64 `json:"base_seed"`

	// Parallelism caps concurrent runs. 0 uses GOMAXPROCS.
	Parallelism int `json:"-"`
}

func (s Scenario) withDefaults() (Scenario, error) {
	if len(s.Seeds) == 0 {
		return s, ErrNoSeeds
	}
	if s.Runs == 0 {
		s.Runs = DefaultRuns
	}
	if s.Runs < 0 {
		return s, fmt.Errorf("runs must be positive, got %d", s.Runs)
	}
	if s.MaxRounds < 0 {
		return s, fmt.Errorf("max rounds must be non-negative, got %d", s.MaxRounds)
	}
	factor := discovery.DefaultConfig().DiscoveryFactor
	if s.DiscoveryFactor != nil {
		factor = *s.DiscoveryFactor
	}
	if factor < 0 || factor > 1 {
		return s, fmt.Errorf("discovery factor %v out of range [0,1]", factor)
	}
	s.DiscoveryFactor = &factor
	if s.Parallelism <= 0 {
		s.Parallelism = runtime.GOMAXPROCS(0)
	}
	return s, nil
}

// RunResult is the outcome of one run.
type RunResult struct {
	Index int    `json:"index"`
	Seed  uint64 `json:"seed"`

	// Rounds counts the rounds played, including the final empty round of
	// a closed run.
	Rounds int `json:"rounds"`

	// Productive counts the rounds that discovered at least one keyword.
	Productive int `json:"productive"`

	Discovered int     `json:"discovered"`
	Known      int     `json:"known"`
	Coverage   float64 `json:"coverage"`
	Closed     bool    `json:"closed"`

	// Totals is the discovered count after each round, round 0 first.
	Totals []int `json:"totals"`
}

// Summary holds min/mean/max of one metric over a batch.
type Summary struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// Result is the outcome of a batch.
type Result struct {
	Scenario   Scenario    `json:"scenario"`
	Runs       []RunResult `json:"runs"`
	Rounds     Summary     `json:"rounds"`
	Discovered Summary     `json:"discovered"`
	Coverage   Summary     `json:"coverage"`
	ClosedRuns int         `json:"closed_runs"`
}

// Summarize computes min/mean/max of values. An empty slice yields zeros.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		sum += v
	}
	s.Mean = sum / float64(len(values))
	return s
}
