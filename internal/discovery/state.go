// Package discovery models a snowball-sampling run: the per-keyword
// discovery records, the seed set, the round counter and the stochastic
// engine that expands the discovered set one round at a time.
package discovery

import (
	"fmt"

	"github.com/nvandessel/snowball/internal/corpus"
)

// Status is a keyword's discovery status.
type Status string

const (
	StatusUndiscovered Status = "undiscovered"
	StatusSeed         Status = "seed"
	StatusDiscovered   Status = "discovered"
)

// RoundUndiscovered is the round value of a keyword nobody has found yet.
const RoundUndiscovered = -1

// Record is the discovery record of one known keyword. Records are created
// when the state is built (or when a new seed is synthesized) and are never
// removed, only re-tagged.
type Record struct {
	Round      int      `json:"round"`
	Type       Status   `json:"type"`
	Related    []string `json:"related"`
	Examples   []string `json:"examples"`
	Frequency  float64  `json:"frequency"`
	Discovered bool     `json:"discovered"`
}

// State is the mutable discovery state of one session. It is not safe for
// concurrent use; the session controller serializes access.
type State struct {
	records map[string]*Record
	order   []string
	seeds   []string
	round   int
}

// NewState creates a state with one undiscovered record per corpus keyword.
func NewState(c *corpus.Corpus) *State {
	s := &State{records: make(map[string]*Record, c.Len())}
	for _, id := range c.IDs() {
		kw, _ := c.Lookup(id)
		s.records[id] = &Record{
			Round:     RoundUndiscovered,
			Type:      StatusUndiscovered,
			Related:   append([]string{}, kw.Related...),
			Examples:  append([]string{}, kw.Examples...),
			Frequency: kw.Freq(),
		}
		s.order = append(s.order, id)
	}
	return s
}

// Round returns the current round counter.
func (s *State) Round() int { return s.round }

// NextRound increments the round counter and returns the new value.
func (s *State) NextRound() int {
	s.round++
	return s.round
}

// IDs returns every known keyword id in creation order.
func (s *State) IDs() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of known keywords.
func (s *State) Len() int { return len(s.order) }

// Known reports whether id has a discovery record.
func (s *State) Known(id string) bool {
	_, ok := s.records[id]
	return ok
}

// Record returns a copy of the record for id.
func (s *State) Record(id string) (Record, bool) {
	r, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	cp := *r
	cp.Related = append([]string{}, r.Related...)
	cp.Examples = append([]string{}, r.Examples...)
	return cp, true
}

// Seeds returns the seed ids in the order they were added.
func (s *State) Seeds() []string {
	return append([]string(nil), s.seeds...)
}

// IsSeed reports whether id is in the seed set.
func (s *State) IsSeed(id string) bool {
	for _, seed := range s.seeds {
		if seed == id {
			return true
		}
	}
	return false
}

// IsDiscovered reports whether id is a seed or has been discovered.
func (s *State) IsDiscovered(id string) bool {
	r, ok := s.records[id]
	return ok && r.Discovered
}

// DiscoveredIDs returns all seed and discovered ids in creation order.
func (s *State) DiscoveredIDs() []string {
	var ids []string
	for _, id := range s.order {
		if s.records[id].Discovered {
			ids = append(ids, id)
		}
	}
	return ids
}

// Counts returns the number of discovered keywords (seeds included) and the
// number of records whose round equals the current round.
func (s *State) Counts() (total, newThisRound int) {
	for _, id := range s.order {
		r := s.records[id]
		if r.Discovered {
			total++
		}
		if r.Round == s.round {
			newThisRound++
		}
	}
	return total, newThisRound
}

// AddSeed normalizes text and makes it a seed. Unknown keywords get a
// synthesized record with the default frequency. It returns the normalized
// id and false when text is blank or already a seed.
func (s *State) AddSeed(c *corpus.Corpus, text string) (string, bool) {
	id := corpus.Normalize(text)
	if id == "" || s.IsSeed(id) {
		return id, false
	}

	r, ok := s.records[id]
	if !ok {
		r = &Record{Related: []string{}, Examples: []string{}, Frequency: corpus.DefaultFrequency}
		if kw, found := c.Lookup(id); found {
			r.Related = append(r.Related, kw.Related...)
			r.Examples = append(r.Examples, kw.Examples...)
			r.Frequency = kw.Freq()
		}
		if len(r.Examples) == 0 {
			r.Examples = []string{ExamplePlaceholder(id)}
		}
		s.records[id] = r
		s.order = append(s.order, id)
	}

	r.Round = 0
	r.Type = StatusSeed
	r.Discovered = true
	s.seeds = append(s.seeds, id)
	return id, true
}

// RemoveSeed demotes a seed back to undiscovered. It is only allowed before
// sampling starts (round 0) and returns false otherwise or when id is not a
// seed.
func (s *State) RemoveSeed(id string) bool {
	if s.round != 0 || !s.IsSeed(id) {
		return false
	}

	kept := s.seeds[:0]
	for _, seed := range s.seeds {
		if seed != id {
			kept = append(kept, seed)
		}
	}
	s.seeds = kept

	if r, ok := s.records[id]; ok {
		r.Round = RoundUndiscovered
		r.Type = StatusUndiscovered
		r.Discovered = false
	}
	return true
}

// Reset returns the state to its seed-only configuration at round 0.
func (s *State) Reset() {
	s.round = 0
	for id, r := range s.records {
		if s.IsSeed(id) {
			r.Round = 0
			r.Type = StatusSeed
			r.Discovered = true
			continue
		}
		r.Round = RoundUndiscovered
		r.Type = StatusUndiscovered
		r.Discovered = false
	}
}

// markDiscovered tags an undiscovered keyword as found in the current round.
func (s *State) markDiscovered(id string) bool {
	r, ok := s.records[id]
	if !ok || r.Discovered {
		return false
	}
	r.Round = s.round
	r.Type = StatusDiscovered
	r.Discovered = true
	return true
}

// Validate checks the status/round invariant on every record.
func (s *State) Validate() error {
	for _, id := range s.order {
		r := s.records[id]
		switch r.Type {
		case StatusUndiscovered:
			if r.Round != RoundUndiscovered || r.Discovered {
				return fmt.Errorf("keyword %q: undiscovered with round %d", id, r.Round)
			}
		case StatusSeed:
			if r.Round != 0 || !r.Discovered {
				return fmt.Errorf("keyword %q: seed with round %d", id, r.Round)
			}
		case StatusDiscovered:
			if r.Round < 1 || !r.Discovered {
				return fmt.Errorf("keyword %q: discovered with round %d", id, r.Round)
			}
		default:
			return fmt.Errorf("keyword %q: unknown status %q", id, r.Type)
		}
		if r.Round == RoundUndiscovered && r.Type != StatusUndiscovered {
			return fmt.Errorf("keyword %q: round -1 with status %s", id, r.Type)
		}
	}
	return nil
}

// ExamplePlaceholder is the example text shown for keywords without one.
func ExamplePlaceholder(id string) string {
	return `Example usage of "` + id + `"`
}
