// Package recur materializes declarative recurrence metadata into concrete
// occurrences inside a view window. Stored appointments stay declarative;
// expansion is an opt-in rendering step.
package recur

import (
	"github.com/teambition/rrule-go"

	"calgrid/internal/calendar"
	"calgrid/internal/models"
)

// maxOccurrencesPerAppointment caps expansion inside a single window. A month
// window holds at most 42 days, so the cap only trips on degenerate counts.
const maxOccurrencesPerAppointment = 100

var weekdayByCode = map[string]rrule.Weekday{
	"Sun": rrule.SU,
	"Mon": rrule.MO,
	"Tue": rrule.TU,
	"Wed": rrule.WE,
	"Thu": rrule.TH,
	"Fri": rrule.FR,
	"Sat": rrule.SA,
}

// Expand replaces each recurring appointment with its occurrences that fall
// inside the window, duration preserved, original store order kept.
// Non-recurring appointments pass through untouched. An appointment whose
// rule cannot be built, or whose occurrences all miss the window, is kept
// as-is rather than dropped.
func Expand(appts []models.Appointment, win calendar.TimeWindow) []models.Appointment {
	out := make([]models.Appointment, 0, len(appts))
	for _, a := range appts {
		if !a.Recurring() {
			out = append(out, a)
			continue
		}
		occs := occurrences(a, win)
		if len(occs) == 0 {
			out = append(out, a)
			continue
		}
		out = append(out, occs...)
	}
	return out
}

func occurrences(a models.Appointment, win calendar.TimeWindow) []models.Appointment {
	opt := rrule.ROption{Dtstart: a.Start, Count: a.RecurrenceCount}
	switch a.RecurrenceType {
	case models.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case models.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
		for _, code := range a.RecurrenceDays {
			wd, ok := weekdayByCode[code]
			if !ok {
				return nil
			}
			opt.Byweekday = append(opt.Byweekday, wd)
		}
	default:
		return nil
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil
	}

	starts := rule.Between(win.Start, win.End, true)
	if len(starts) > maxOccurrencesPerAppointment {
		starts = starts[:maxOccurrencesPerAppointment]
	}

	duration := a.End.Sub(a.Start)
	occs := make([]models.Appointment, 0, len(starts))
	for _, start := range starts {
		occ := a
		occ.Start = start
		occ.End = start.Add(duration)
		occs = append(occs, occ)
	}
	return occs
}
