package session

import (
	"fmt"
	"math"
	"time"

	"github.com/nvandessel/snowball/internal/render"
)

// StatusComplete is the status line of a finished run.
const StatusComplete = "Sampling complete - no new keywords found"

// Snapshot is the UI-facing view of a session.
type Snapshot struct {
	RunID           string             `json:"run_id"`
	Phase           Phase              `json:"phase"`
	Round           int                `json:"round"`
	Known           int                `json:"known"`
	Total           int                `json:"total"`
	New             int                `json:"new"`
	GrowthRate      float64            `json:"growth_rate"`
	Status          string             `json:"status"`
	Step            int                `json:"step"`
	CanStart        bool               `json:"can_start"`
	CanAdvance      bool               `json:"can_advance"`
	CanAutoplay     bool               `json:"can_autoplay"`
	CanRemoveSeeds  bool               `json:"can_remove_seeds"`
	Autoplay        bool               `json:"autoplay"`
	AutoplaySeconds float64            `json:"autoplay_seconds"`
	Seeds           []string           `json:"seeds"`
	Detail          *render.DetailView `json:"detail,omitempty"`
}

// GrowthLabel formats the growth rate the way the demo page shows it.
func (s Snapshot) GrowthLabel() string {
	if s.GrowthRate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", s.GrowthRate)
}

// Snapshot returns the current view of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	total, fresh := c.state.Counts()
	round := c.state.Round()

	s := Snapshot{
		RunID:           c.runID,
		Phase:           c.phase,
		Round:           round,
		Known:           c.state.Len(),
		Total:           total,
		New:             fresh,
		GrowthRate:      GrowthRate(round, total, fresh),
		Status:          fmt.Sprintf("Round %d - Found %d new keywords", round, fresh),
		Step:            c.step,
		CanStart:        c.phase == PhaseIdle,
		CanAdvance:      c.phase == PhaseSampling,
		CanAutoplay:     c.phase == PhaseSampling,
		CanRemoveSeeds:  c.phase == PhaseIdle && round == 0,
		Autoplay:        c.autoplay,
		AutoplaySeconds: c.delay.Seconds(),
		Seeds:           c.state.Seeds(),
	}
	if s.Seeds == nil {
		s.Seeds = []string{}
	}
	if c.phase == PhaseComplete {
		s.Status = StatusComplete
	}
	if c.detail != nil {
		d := *c.detail
		s.Detail = &d
	}
	return s
}

// GrowthRate is the percentage increase of the discovered set in the
// current round, rounded to one decimal. It is 0 before the first round
// and when nothing was known before the round.
func GrowthRate(round, total, fresh int) float64 {
	prev := total - fresh
	if round <= 0 || prev <= 0 {
		return 0
	}
	return math.Round(float64(fresh)/float64(prev)*1000) / 10
}

// AutoplayDelay returns the current autoplay delay.
func (c *Controller) AutoplayDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delay
}
