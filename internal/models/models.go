package models

import (
	"errors"
	"time"
)

const (
	RecurrenceNone   = "none"
	RecurrenceDaily  = "daily"
	RecurrenceWeekly = "weekly"

	MaxTitleLength       = 50
	MaxDescriptionLength = 250
)

// LocalDateTime is the store's naive local datetime layout (no offset).
const LocalDateTime = "2006-01-02T15:04:05"

// localDateTimeShort covers records written without a seconds component.
const localDateTimeShort = "2006-01-02T15:04"

// WeekdayCodes in store order, Sunday first.
var WeekdayCodes = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var (
	ErrMissingStart = errors.New("missing start")
	ErrMissingEnd   = errors.New("missing end")
	ErrBadStart     = errors.New("unparsable start")
	ErrBadEnd       = errors.New("unparsable end")
)

// Appointment is the strict in-memory shape. Instants are naive local times
// carried in the configured location; End is after Start for any record that
// passed Decode or the scheduling gate.
type Appointment struct {
	ID              string
	Title           string
	Description     string
	Start           time.Time
	End             time.Time
	OrganizerID     string
	OrganizerName   string
	ParticipantIDs  []string
	RecurrenceType  string
	RecurrenceCount int
	RecurrenceDays  []string
}

func (a Appointment) Recurring() bool {
	return a.RecurrenceType == RecurrenceDaily || a.RecurrenceType == RecurrenceWeekly
}

type User struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
}

// AppointmentRecord is the store's wire shape. Fields may be absent or
// malformed; Decode is the single place that turns a record into a strict
// Appointment or rejects it.
type AppointmentRecord struct {
	ID              string   `json:"id,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	CreatedByUserID string   `json:"createdByUserId,omitempty"`
	OrganizerName   string   `json:"organizerName,omitempty"`
	ParticipantIDs  []string `json:"participantIds"`
	RecurrenceType  *string  `json:"recurrenceType"`
	RecurrenceCount *int     `json:"recurrenceCount,omitempty"`
	RecurrenceDays  []string `json:"recurrenceDays,omitempty"`
}

// Skip records why a store record was excluded from rendering.
type Skip struct {
	ID     string
	Reason string
}

// ParseLocal parses a naive local datetime in the given location. Records
// written by the edit form carry minute precision; the query boundary format
// carries seconds. Both are accepted.
func ParseLocal(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(LocalDateTime, value, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localDateTimeShort, value, loc)
}

func FormatLocal(t time.Time) string {
	return t.Format(LocalDateTime)
}

// Decode converts a raw record into a strict Appointment. A nil or "none"
// recurrence collapses to RecurrenceNone with no count or days.
func (r AppointmentRecord) Decode(loc *time.Location) (Appointment, error) {
	if r.Start == "" {
		return Appointment{}, ErrMissingStart
	}
	if r.End == "" {
		return Appointment{}, ErrMissingEnd
	}
	start, err := ParseLocal(r.Start, loc)
	if err != nil {
		return Appointment{}, ErrBadStart
	}
	end, err := ParseLocal(r.End, loc)
	if err != nil {
		return Appointment{}, ErrBadEnd
	}

	a := Appointment{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Start:          start,
		End:            end,
		OrganizerID:    r.CreatedByUserID,
		OrganizerName:  r.OrganizerName,
		ParticipantIDs: append([]string(nil), r.ParticipantIDs...),
		RecurrenceType: RecurrenceNone,
	}

	if r.RecurrenceType != nil && *r.RecurrenceType != "" && *r.RecurrenceType != RecurrenceNone {
		a.RecurrenceType = *r.RecurrenceType
		if r.RecurrenceCount != nil {
			a.RecurrenceCount = *r.RecurrenceCount
		}
		if a.RecurrenceType == RecurrenceWeekly {
			a.RecurrenceDays = append([]string(nil), r.RecurrenceDays...)
		}
	}

	return a, nil
}

// DecodeAll applies Decode to every record, splitting the result into usable
// appointments and skipped ones. Malformed records never surface as errors
// here; the caller decides whether to log them.
func DecodeAll(records []AppointmentRecord, loc *time.Location) ([]Appointment, []Skip) {
	appts := make([]Appointment, 0, len(records))
	var skipped []Skip
	for _, rec := range records {
		a, err := rec.Decode(loc)
		if err != nil {
			skipped = append(skipped, Skip{ID: rec.ID, Reason: err.Error()})
			continue
		}
		appts = append(appts, a)
	}
	return appts, skipped
}

// Record converts an Appointment back into the wire shape. Recurrence fields
// are omitted entirely for non-recurring appointments.
func (a Appointment) Record() AppointmentRecord {
	rec := AppointmentRecord{
		ID:              a.ID,
		Title:           a.Title,
		Description:     a.Description,
		Start:           FormatLocal(a.Start),
		End:             FormatLocal(a.End),
		CreatedByUserID: a.OrganizerID,
		OrganizerName:   a.OrganizerName,
		ParticipantIDs:  append([]string(nil), a.ParticipantIDs...),
	}
	if rec.ParticipantIDs == nil {
		rec.ParticipantIDs = []string{}
	}
	if a.Recurring() {
		rt := a.RecurrenceType
		rc := a.RecurrenceCount
		rec.RecurrenceType = &rt
		rec.RecurrenceCount = &rc
		if a.RecurrenceType == RecurrenceWeekly {
			rec.RecurrenceDays = append([]string(nil), a.RecurrenceDays...)
		}
	}
	return rec
}
