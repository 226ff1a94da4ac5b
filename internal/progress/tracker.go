// Package progress records per-round discovery totals and charts them.
package progress

import (
	"github.com/nvandessel/snowball/internal/discovery"
)

// Sample is the progress of one round.
type Sample struct {
	Round int `json:"round"`
	Total int `json:"total"`
	New   int `json:"newThisRound"`
}

// Tracker keeps one sample per round.
type Tracker struct {
	samples []Sample
}

// NewTracker creates a tracker with the initial round-0 sample.
func NewTracker(seedCount int) *Tracker {
	t := &Tracker{}
	t.Reset(seedCount)
	return t
}

// Reset drops every sample and records round 0 with seedCount keywords.
func (t *Tracker) Reset(seedCount int) {
	t.samples = []Sample{{Round: 0, Total: seedCount, New: seedCount}}
}

// Record samples the state's current round, replacing an existing sample
// for the same round.
func (t *Tracker) Record(s *discovery.State) Sample {
	total, fresh := s.Counts()
	sample := Sample{Round: s.Round(), Total: total, New: fresh}
	for i := range t.samples {
		if t.samples[i].Round == sample.Round {
			t.samples[i] = sample
			return sample
		}
	}
	t.samples = append(t.samples, sample)
	return sample
}

// Samples returns a copy of the recorded samples in insertion order.
func (t *Tracker) Samples() []Sample {
	return append([]Sample(nil), t.samples...)
}

// Latest returns the most recently added sample.
func (t *Tracker) Latest() (Sample, bool) {
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	return t.samples[len(t.samples)-1], true
}
