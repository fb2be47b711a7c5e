package domain

import "time"

// DateOnly truncates a timestamp to a UTC calendar date. Leave intervals and
// schedule assignments are keyed by whole days, so every date entering the
// core passes through here first.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC calendar date.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
