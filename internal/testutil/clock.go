package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a thread-safe logical clock for tests. Every Now()
// call advances time by a fixed step, so records created in sequence
// get strictly increasing, reproducible timestamps.
type SteppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppingClock creates a clock starting at the given instant,
// advancing one second per Now() call.
func NewSteppingClock(start time.Time) *SteppingClock {
	return &SteppingClock{now: start.UTC(), step: time.Second}
}

// Now returns the current instant and advances the clock by one step.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Set repositions the clock. The next Now() returns t.
func (c *SteppingClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
