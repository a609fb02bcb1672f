package core

import "time"

// Clock provides the current time for auction state derivation.
// This interface enables dependency injection for deterministic testing.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time
}

// systemClock wraps time.Now for production use
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// defaultClock provides the wall clock for production
var defaultClock Clock = systemClock{}

// FakeClock is a manually controlled clock, useful in tests that walk
// an auction through its lifecycle without sleeping.
type FakeClock struct {
	now time.Time
}

// NewFakeClock returns a clock frozen at now until Set or Advance is called.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Set moves the clock to t. Moving backwards is allowed; state
// derivation tolerates a non-monotonic clock.
func (c *FakeClock) Set(t time.Time) {
	c.now = t
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
