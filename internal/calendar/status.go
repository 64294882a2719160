package calendar

import (
	"sort"
	"time"

	"calgrid/internal/models"
)

// Status is an appointment's temporal classification relative to now.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusOngoing   Status = "ongoing"
	StatusUpcoming  Status = "upcoming"
)

// Classify treats the end instant as still ongoing: an appointment reads as
// completed only strictly after its end. This is deliberately looser than the
// half-open day-overlap test in project.go.
func Classify(a models.Appointment, now time.Time) Status {
	if !now.Before(a.Start) && !now.After(a.End) {
		return StatusOngoing
	}
	if a.End.Before(now) {
		return StatusCompleted
	}
	return StatusUpcoming
}

func statusRank(s Status) int {
	switch s {
	case StatusCompleted:
		return 0
	case StatusOngoing:
		return 1
	default:
		return 2
	}
}

// OrderByStatus returns a copy sorted by status rank (completed, ongoing,
// upcoming) then start time. The sort is stable, so equal keys keep their
// store order.
func OrderByStatus(appts []models.Appointment, now time.Time) []models.Appointment {
	out := append([]models.Appointment(nil), appts...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := statusRank(Classify(out[i], now)), statusRank(Classify(out[j], now))
		if ri != rj {
			return ri < rj
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
