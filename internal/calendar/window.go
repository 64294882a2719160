package calendar

import (
	"errors"
	"time"
)

// View selects the visible range and grid shape.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

var ErrUnknownView = errors.New("unknown view")

func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewDay, ViewWeek, ViewMonth:
		return View(s), nil
	}
	return "", ErrUnknownView
}

// TimeWindow is the inclusive visible range of a view. End is the last
// represented instant (23:59:59.999 of the closing day), not an exclusive
// bound.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DayStart is midnight of t's calendar day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd is 23:59:59.999 of t's calendar day.
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// WeekStart is midnight of the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, -int(t.Weekday()))
}

// MonthStart is midnight of the first of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Resolve maps a reference date and a view onto the concrete window queried
// from the store. Any two references inside the same logical window resolve
// to the same result.
func Resolve(view View, ref time.Time) (TimeWindow, error) {
	switch view {
	case ViewDay:
		return TimeWindow{Start: DayStart(ref), End: DayEnd(ref)}, nil
	case ViewWeek:
		start := WeekStart(ref)
		return TimeWindow{Start: start, End: DayEnd(start.AddDate(0, 0, 6))}, nil
	case ViewMonth:
		start := MonthStart(ref)
		return TimeWindow{Start: start, End: DayEnd(start.AddDate(0, 1, -1))}, nil
	}
	return TimeWindow{}, ErrUnknownView
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
