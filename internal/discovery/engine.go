package discovery

import (
	"sort"

	"github.com/nvandessel/snowball/internal/corpus"
)

// Rand is the random source used for discovery draws. *math/rand/v2.Rand
// satisfies it; tests inject fixed sources.
type Rand interface {
	Float64() float64
}

// Config holds tunable parameters for the discovery engine.
type Config struct {
	// DiscoveryFactor scales a neighbor's frequency into a discovery
	// probability. Default: 0.7.
	DiscoveryFactor float64
}

// DefaultConfig returns the default discovery configuration.
func DefaultConfig() Config {
	return Config{DiscoveryFactor: 0.7}
}

// Candidate is an undiscovered keyword reachable from the discovered set.
type Candidate struct {
	ID          string  `json:"id"`
	Via         string  `json:"via"`         // discovered neighbor that determines the probability
	Probability float64 `json:"probability"` // Via frequency * DiscoveryFactor
}

// Draw records the random draw made for one candidate.
type Draw struct {
	Candidate
	Value      float64 `json:"value"`
	Discovered bool    `json:"discovered"`
}

// RoundResult is the outcome of one discovery round.
type RoundResult struct {
	Round      int      `json:"round"`
	Draws      []Draw   `json:"draws"`
	Discovered []string `json:"discovered"`
}

// Engine expands a discovery state by one round at a time. It holds no
// session state of its own; everything mutable lives in the State passed in.
type Engine struct {
	config Config
	rng    Rand
}

// NewEngine creates a discovery engine drawing from rng.
func NewEngine(config Config, rng Rand) *Engine {
	return &Engine{config: config, rng: rng}
}

// Candidates returns the undiscovered keywords reachable in one hop from the
// discovered set, sorted by id. A candidate reachable from several
// discovered keywords appears once; its probability comes from the
// highest-frequency neighbor (ties go to the lexically smallest id).
// Relations pointing at keywords unknown to the state are ignored.
func (e *Engine) Candidates(s *State, c *corpus.Corpus) []Candidate {
	sources := s.DiscoveredIDs()
	sort.Strings(sources)

	best := make(map[string]Candidate)
	bestFreq := make(map[string]float64)
	for _, k := range sources {
		kw, ok := c.Lookup(k)
		if !ok {
			continue
		}
		freq := kw.Freq()
		for _, n := range kw.Related {
			if !s.Known(n) || s.IsDiscovered(n) {
				continue
			}
			if prev, seen := bestFreq[n]; seen && prev >= freq {
				continue
			}
			bestFreq[n] = freq
			best[n] = Candidate{ID: n, Via: k, Probability: freq * e.config.DiscoveryFactor}
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, cand := range best {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Advance runs one discovery round against the state's current round
// counter; the caller increments the counter first. Each candidate gets
// exactly one draw and is discovered when the draw is below its probability.
func (e *Engine) Advance(s *State, c *corpus.Corpus) RoundResult {
	candidates := e.Candidates(s, c)
	result := RoundResult{
		Round:      s.Round(),
		Draws:      make([]Draw, 0, len(candidates)),
		Discovered: []string{},
	}

	for _, cand := range candidates {
		v := e.rng.Float64()
		d := Draw{Candidate: cand, Value: v, Discovered: v < cand.Probability}
		result.Draws = append(result.Draws, d)
		if d.Discovered {
			result.Discovered = append(result.Discovered, cand.ID)
		}
	}

	for _, id := range result.Discovered {
		s.markDiscovered(id)
	}
	return result
}

// AdvanceRound runs one round and returns the newly discovered ids. An
// empty result means sampling is complete.
func (e *Engine) AdvanceRound(s *State, c *corpus.Corpus) []string {
	return e.Advance(s, c).Discovered
}
