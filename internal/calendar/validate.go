package calendar

import (
	"fmt"
	"time"

	"calgrid/internal/models"
)

// Draft is an appointment payload before the store has seen it.
type Draft struct {
	Title           string
	Description     string
	Start           time.Time
	End             time.Time
	ParticipantIDs  []string
	RecurrenceType  string
	RecurrenceCount int
	RecurrenceDays  []string
}

// ValidationError is a user-correctable rejection. The store is never called
// for a draft that fails the gate.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CheckDraft gates create and update alike: both require a strictly future
// start, which also blocks moving an existing appointment into the past.
func CheckDraft(d Draft, now time.Time) error {
	if d.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if len(d.Title) > models.MaxTitleLength {
		return &ValidationError{Field: "title", Reason: "too long"}
	}
	if len(d.Description) > models.MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: "too long"}
	}
	if !d.Start.After(now) {
		return &ValidationError{Field: "start", Reason: "must be in the future"}
	}
	if !d.End.After(d.Start) {
		return &ValidationError{Field: "end", Reason: "must be after start"}
	}

	switch d.RecurrenceType {
	case "", models.RecurrenceNone:
	case models.RecurrenceDaily, models.RecurrenceWeekly:
		if d.RecurrenceCount < 1 {
			return &ValidationError{Field: "recurrenceCount", Reason: "must be positive"}
		}
		if d.RecurrenceType == models.RecurrenceWeekly && len(d.RecurrenceDays) == 0 {
			return &ValidationError{Field: "recurrenceDays", Reason: "select at least one day"}
		}
	default:
		return &ValidationError{Field: "recurrenceType", Reason: "must be none, daily or weekly"}
	}

	return nil
}

// Normalize collapses the recurrence fields of a valid draft: none drops
// count and days, daily drops days, and participant ids are deduplicated
// preserving first occurrence order.
func Normalize(d Draft) Draft {
	switch d.RecurrenceType {
	case models.RecurrenceDaily:
		d.RecurrenceDays = nil
	case models.RecurrenceWeekly:
	default:
		d.RecurrenceType = models.RecurrenceNone
		d.RecurrenceCount = 0
		d.RecurrenceDays = nil
	}

	if len(d.ParticipantIDs) > 0 {
		seen := make(map[string]bool, len(d.ParticipantIDs))
		ids := make([]string, 0, len(d.ParticipantIDs))
		for _, id := range d.ParticipantIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		d.ParticipantIDs = ids
	}

	return d
}

// DefaultDraft proposes the initial slot for a new appointment on the
// selected day: 09:00, or the next half-hour boundary if 09:00 has already
// passed today, 30 minutes long.
func DefaultDraft(selected, now time.Time) Draft {
	start := time.Date(selected.Year(), selected.Month(), selected.Day(), 9, 0, 0, 0, selected.Location())
	if SameDay(selected, now) && start.Before(now) {
		step := SlotMinutes * time.Minute
		start = now.Truncate(step)
		if start.Before(now) {
			start = start.Add(step)
		}
	}
	return Draft{Start: start, End: start.Add(SlotMinutes * time.Minute)}
}
