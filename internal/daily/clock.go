package daily

import "time"

// Clock delivers the current time; injected so selection can be pinned in tests
// without any process-wide override.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant.
type FixedClock time.Time

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
