// Package clock provides the injectable time source used by the session
// state machine, the correction engine, and the auto-closure sweep, so
// tests and the daily sweep can pin "now" instead of reading the wall
// clock.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Real reads the wall clock in UTC.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant
}

// At is shorthand for a Fixed clock pinned to t.
func At(t time.Time) Fixed {
	return Fixed{Instant: t}
}
