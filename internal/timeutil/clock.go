package timeutil

import "time"

// Clock supplies "now" to anything that reasons about due dates.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in IST.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Today returns the IST midnight of the clock's current day.
func Today(c Clock) time.Time {
	return StartOfDay(c.Now())
}
