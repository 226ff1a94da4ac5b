package session

import "time"

// Scheduler runs f once after d. The returned stop function cancels the
// call and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// wallScheduler schedules on the runtime timer.
type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
