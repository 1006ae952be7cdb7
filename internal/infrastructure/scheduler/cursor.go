package scheduler

import "time"

// SyncCursor remembers when a periodic task last ran. A zero cursor has
// never run and is therefore immediately due.
type SyncCursor struct {
	lastRun time.Time
}

// LastRun returns the time of the last run, zero if the task never ran
func (c *SyncCursor) LastRun() time.Time {
	return c.lastRun
}

// Due returns true when at least interval has elapsed since the last run
func (c *SyncCursor) Due(now time.Time, interval time.Duration) bool {
	if c.lastRun.IsZero() {
		return true
	}
	return now.Sub(c.lastRun) >= interval
}

// Stamp records a run at the given time. Stamping happens after every
// run, successful or not, so a failing task keeps its cadence instead
// of hammering the backend.
func (c *SyncCursor) Stamp(now time.Time) {
	c.lastRun = now
}
