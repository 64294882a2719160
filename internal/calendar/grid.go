package calendar

import "time"

const (
	// SlotMinutes is the grid resolution of the day and week views.
	SlotMinutes = 30
	SlotsPerDay = 24 * 60 / SlotMinutes

	// MonthGridCells is fixed at 6 rows of 7 regardless of month shape.
	MonthGridCells = 42

	DaysPerWeek = 7
)

// EndOfDayLabel is the synthetic trailing label slot. Display only; it does
// not map to a bookable interval.
const EndOfDayLabel = "11:59 PM"

// Slot is one half-hour interval of the day/week grid.
type Slot struct {
	Index  int `json:"index"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// DaySlots returns the 48 half-hour slots covering 00:00 through 23:30.
func DaySlots() []Slot {
	slots := make([]Slot, 0, SlotsPerDay)
	for i := 0; i < SlotsPerDay; i++ {
		slots = append(slots, Slot{Index: i, Hour: i / 2, Minute: (i % 2) * 30})
	}
	return slots
}

// Start anchors the slot to a concrete day.
func (s Slot) Start(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
}

// Label is the 12-hour clock label shown in the time column.
func (s Slot) Label() string {
	return time.Date(2000, 1, 1, s.Hour, s.Minute, 0, 0, time.UTC).Format("3:04 PM")
}

// WeekDays returns the seven header dates of ref's week, Sunday first.
func WeekDays(ref time.Time) []time.Time {
	start := WeekStart(ref)
	days := make([]time.Time, 0, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

// MonthCell is one cell of the 6x7 month grid. Muted cells belong to an
// adjacent month but are still rendered for context.
type MonthCell struct {
	Date  time.Time
	Muted bool
}

// MonthGrid returns exactly 42 cells beginning at the Sunday on or before
// the first of ref's month.
func MonthGrid(ref time.Time) []MonthCell {
	first := MonthStart(ref)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	cells := make([]MonthCell, 0, MonthGridCells)
	for i := 0; i < MonthGridCells; i++ {
		d := start.AddDate(0, 0, i)
		cells = append(cells, MonthCell{Date: d, Muted: d.Month() != ref.Month()})
	}
	return cells
}

// RangeLabel is the header/sidebar caption for a view, en-GB ordering.
func RangeLabel(view View, ref time.Time) string {
	switch view {
	case ViewDay:
		return ref.Format("Monday, 02 January 2006")
	case ViewWeek:
		start := WeekStart(ref)
		end := start.AddDate(0, 0, 6)
		return start.Format("02 Jan 2006") + " - " + end.Format("02 Jan 2006")
	case ViewMonth:
		return ref.Format("January 2006")
	}
	return ""
}
