package finance

import "time"

// Clock supplies the reference instant for calendar windows.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns the same instant.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// Window is a time range. End is exclusive unless Closed is set.
type Window struct {
	Start  time.Time
	End    time.Time
	Closed bool
}

// Contains reports whether t falls inside the window. A nil timestamp is never
// inside any window.
func (w Window) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	if t.Before(w.Start) {
		return false
	}
	if w.Closed {
		return !t.After(w.End)
	}
	return t.Before(w.End)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CurrentMonth spans the first instant of now's month up to and including now.
func CurrentMonth(now time.Time) Window {
	return Window{Start: startOfMonth(now), End: now, Closed: true}
}

// CurrentYear spans the first instant of now's year up to and including now.
func CurrentYear(now time.Time) Window {
	return Window{Start: startOfYear(now), End: now, Closed: true}
}

// PriorMonth is the comparison window for month-over-month growth. It runs from
// the first of the month two months back to the first of last month, so the
// month immediately before the current one is not part of either window.
func PriorMonth(now time.Time) Window {
	first := startOfMonth(now)
	return Window{Start: first.AddDate(0, -2, 0), End: first.AddDate(0, -1, 0)}
}
