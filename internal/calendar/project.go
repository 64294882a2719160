package calendar

import (
	"time"

	"calgrid/internal/models"
)

// Slot heights are rendering parameters, not correctness invariants. They
// only have to stay consistent within a view.
const (
	SlotHeightDay  = 48
	SlotHeightWeek = 28
)

// MonthCellMaxAppointments caps how many appointments a month cell lists
// before collapsing the rest into a "+N more" count.
const MonthCellMaxAppointments = 3

// Block is an appointment positioned on a day column. RenderStart and
// RenderEnd are clamped to the day, so a span crossing midnight produces one
// block per day it touches.
type Block struct {
	Appointment models.Appointment
	RenderStart time.Time
	RenderEnd   time.Time
	Top         float64
	Height      float64
}

// OverlapsDay is the half-open visibility test: an appointment ending exactly
// at midnight belongs to the previous day only, one starting at 23:59:59.999
// to the next.
func OverlapsDay(a models.Appointment, day time.Time) bool {
	return a.End.After(DayStart(day)) && a.Start.Before(DayEnd(day))
}

// ForDay filters the appointments visible on the given day, preserving store
// order.
func ForDay(appts []models.Appointment, day time.Time) []models.Appointment {
	out := make([]models.Appointment, 0, len(appts))
	for _, a := range appts {
		if OverlapsDay(a, day) {
			out = append(out, a)
		}
	}
	return out
}

// ProjectDay clamps each visible appointment to the day and computes its
// pixel geometry for the given slot height.
func ProjectDay(appts []models.Appointment, day time.Time, slotHeight int) []Block {
	dayStart := DayStart(day)
	dayEnd := DayEnd(day)

	blocks := make([]Block, 0, len(appts))
	for _, a := range appts {
		if !OverlapsDay(a, day) {
			continue
		}
		renderStart := a.Start
		if renderStart.Before(dayStart) {
			renderStart = dayStart
		}
		renderEnd := a.End
		if renderEnd.After(dayEnd) {
			renderEnd = dayEnd
		}

		startMinutes := float64(renderStart.Hour()*60 + renderStart.Minute())
		spanMinutes := renderEnd.Sub(renderStart).Minutes()

		blocks = append(blocks, Block{
			Appointment: a,
			RenderStart: renderStart,
			RenderEnd:   renderEnd,
			Top:         startMinutes / SlotMinutes * float64(slotHeight),
			Height:      spanMinutes / SlotMinutes * float64(slotHeight),
		})
	}
	return blocks
}

// CellSummary is a month cell's appointment digest: the first few in store
// order plus the count of the hidden rest.
type CellSummary struct {
	Shown []models.Appointment
	More  int
}

func SummarizeCell(appts []models.Appointment, day time.Time) CellSummary {
	visible := ForDay(appts, day)
	summary := CellSummary{Shown: visible}
	if len(visible) > MonthCellMaxAppointments {
		summary.Shown = visible[:MonthCellMaxAppointments]
		summary.More = len(visible) - MonthCellMaxAppointments
	}
	return summary
}
