package clock

import "time"

// FakeClock is a manually advanced Clock. Tests pin it at a known
// instant and move it across trial, grace, and confirmation windows.
type FakeClock struct {
	current time.Time
}

// NewFakeClock pins the clock at t, normalized to UTC like the system
// clock.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward by d. Negative d moves it back.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
