// Package sessiontest provides a manual autoplay scheduler for tests that
// drive a session.Controller.
package sessiontest

import "time"

// ManualScheduler holds scheduled calls until Fire is called, so autoplay
// can be stepped deterministically. It satisfies session.Scheduler.
type ManualScheduler struct {
	pending []*call
}

type call struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *call) stop() bool {
	if c.stopped || c.fired {
		return false
	}
	c.stopped = true
	return true
}

// AfterFunc records f without running it.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	c := &call{delay: d, f: f}
	m.pending = append(m.pending, c)
	return c.stop
}

// Pending returns the number of scheduled calls that were neither stopped
// nor fired.
func (m *ManualScheduler) Pending() int {
	n := 0
	for _, c := range m.pending {
		if !c.stopped && !c.fired {
			n++
		}
	}
	return n
}

// LastDelay returns the delay of the most recently scheduled call.
func (m *ManualScheduler) LastDelay() time.Duration {
	if len(m.pending) == 0 {
		return 0
	}
	return m.pending[len(m.pending)-1].delay
}

// Fire runs the oldest live call and reports whether there was one.
// Stopped calls are skipped.
func (m *ManualScheduler) Fire() bool {
	for len(m.pending) > 0 {
		c := m.pending[0]
		m.pending = m.pending[1:]
		if c.stopped || c.fired {
			continue
		}
		c.fired = true
		c.f()
		return true
	}
	return false
}

// FireStale runs the oldest recorded call even if it was stopped, as if
// its callback was already in flight when it was cancelled.
func (m *ManualScheduler) FireStale() bool {
	if len(m.pending) == 0 {
		return false
	}
	c := m.pending[0]
	m.pending = m.pending[1:]
	c.fired = true
	c.f()
	return true
}
