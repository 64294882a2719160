package recur

import (
	"testing"
	"time"

	"calgrid/internal/calendar"
	"calgrid/internal/models"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func window(t *testing.T, view calendar.View, ref time.Time) calendar.TimeWindow {
	t.Helper()
	win, err := calendar.Resolve(view, ref)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	return win
}

func TestExpandDailyWithinWeek(t *testing.T) {
	a := models.Appointment{
		ID:    "daily",
		Title: "Standup",
		Start: date(2024, time.January, 15, 9, 0),
		End:   date(2024, time.January, 15, 9, 30),
		RecurrenceType:  models.RecurrenceDaily,
		RecurrenceCount: 3,
	}
	win := window(t, calendar.ViewWeek, date(2024, time.January, 17, 0, 0))

	occs := Expand([]models.Appointment{a}, win)
	if len(occs) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(occs))
	}
	for i, occ := range occs {
		wantStart := date(2024, time.January, 15+i, 9, 0)
		if !occ.Start.Equal(wantStart) {
			t.Fatalf("occurrence %d: expected start %v, got %v", i, wantStart, occ.Start)
		}
		if occ.End.Sub(occ.Start) != 30*time.Minute {
			t.Fatalf("occurrence %d: duration drifted to %v", i, occ.End.Sub(occ.Start))
		}
		if occ.ID != "daily" || occ.Title != "Standup" {
			t.Fatalf("occurrence %d lost fields: %+v", i, occ)
		}
	}
}

func TestExpandWeeklyByDays(t *testing.T) {
	// Wednesday start, repeating Mon and Wed, four occurrences.
	a := models.Appointment{
		ID:    "weekly",
		Start: date(2024, time.January, 17, 10, 0),
		End:   date(2024, time.January, 17, 11, 0),
		RecurrenceType:  models.RecurrenceWeekly,
		RecurrenceCount: 4,
		RecurrenceDays:  []string{"Mon", "Wed"},
	}
	win := window(t, calendar.ViewMonth, date(2024, time.January, 1, 0, 0))

	occs := Expand([]models.Appointment{a}, win)
	wantDays := []int{17, 22, 24, 29}
	if len(occs) != len(wantDays) {
		t.Fatalf("expected %d occurrences, got %d", len(wantDays), len(occs))
	}
	for i, day := range wantDays {
		if occs[i].Start.Day() != day || occs[i].Start.Hour() != 10 {
			t.Fatalf("occurrence %d: expected Jan %d 10:00, got %v", i, day, occs[i].Start)
		}
	}
}

func TestExpandPassesThroughNonRecurring(t *testing.T) {
	a := models.Appointment{
		ID:    "single",
		Start: date(2024, time.January, 15, 9, 0),
		End:   date(2024, time.January, 15, 10, 0),
		RecurrenceType: models.RecurrenceNone,
	}
	win := window(t, calendar.ViewDay, date(2024, time.January, 15, 0, 0))

	occs := Expand([]models.Appointment{a}, win)
	if len(occs) != 1 || occs[0].ID != "single" {
		t.Fatalf("expected pass-through, got %+v", occs)
	}
}

func TestExpandKeepsBaseWhenNothingInWindow(t *testing.T) {
	a := models.Appointment{
		ID:    "elsewhere",
		Start: date(2024, time.March, 4, 9, 0),
		End:   date(2024, time.March, 4, 10, 0),
		RecurrenceType:  models.RecurrenceDaily,
		RecurrenceCount: 2,
	}
	win := window(t, calendar.ViewDay, date(2024, time.January, 15, 0, 0))

	occs := Expand([]models.Appointment{a}, win)
	if len(occs) != 1 || !occs[0].Start.Equal(a.Start) {
		t.Fatalf("expected base kept, got %+v", occs)
	}
}
