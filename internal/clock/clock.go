// Package clock abstracts time so services and tests agree on "now".
package clock

import "time"

// Clock supplies the current instant, always in UTC.
type Clock interface {
	Now() time.Time
}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewFixed returns a clock pinned to an instant, for tests. It only moves
// when Advance is called.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

type Fixed struct {
	now time.Time
}

func (f *Fixed) Now() time.Time {
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}
