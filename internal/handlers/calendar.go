package handlers

import (
	"context"
	"net/http"
	"time"

	"calgrid/internal/calendar"
	"calgrid/internal/httpx"
	"calgrid/internal/middleware"
	"calgrid/internal/models"
	"calgrid/internal/transport"
)

type windowPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type slotPayload struct {
	Index  int    `json:"index"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Label  string `json:"label"`
	Past   bool   `json:"past"`
}

type blockPayload struct {
	Appointment models.AppointmentRecord `json:"appointment"`
	RenderStart string                   `json:"renderStart"`
	RenderEnd   string                   `json:"renderEnd"`
	Top         float64                  `json:"top"`
	Height      float64                  `json:"height"`
	Status      calendar.Status          `json:"status"`
}

type sidebarEntry struct {
	Appointment models.AppointmentRecord `json:"appointment"`
	Status      calendar.Status          `json:"status"`
	TimeLabel   string                   `json:"timeLabel"`
}

// timeLabel renders the sidebar's 12-hour range, e.g.
// "15 Jan, 9:00 AM - 10:30 AM".
func timeLabel(a models.Appointment) string {
	return a.Start.Format("02 Jan, 3:04 PM") + " - " + a.End.Format("3:04 PM")
}

type dayViewPayload struct {
	View          string         `json:"view"`
	Date          string         `json:"date"`
	Label         string         `json:"label"`
	Window        windowPayload  `json:"window"`
	Slots         []slotPayload  `json:"slots"`
	EndOfDayLabel string         `json:"endOfDayLabel"`
	Blocks        []blockPayload `json:"blocks"`
	Sidebar       []sidebarEntry `json:"sidebar"`
}

type weekDayPayload struct {
	Date   string         `json:"date"`
	Label  string         `json:"label"`
	Today  bool           `json:"today"`
	Past   bool           `json:"past"`
	Blocks []blockPayload `json:"blocks"`
}

type weekViewPayload struct {
	View          string           `json:"view"`
	Label         string           `json:"label"`
	Window        windowPayload    `json:"window"`
	Slots         []slotPayload    `json:"slots"`
	EndOfDayLabel string           `json:"endOfDayLabel"`
	Days          []weekDayPayload `json:"days"`
	Sidebar       []sidebarEntry   `json:"sidebar"`
}

type monthCellPayload struct {
	Date         string         `json:"date"`
	Muted        bool           `json:"muted"`
	Today        bool           `json:"today"`
	Appointments []sidebarEntry `json:"appointments"`
	More         int            `json:"more"`
}

type monthViewPayload struct {
	View    string             `json:"view"`
	Label   string             `json:"label"`
	Window  windowPayload      `json:"window"`
	Cells   []monthCellPayload `json:"cells"`
	Sidebar []sidebarEntry     `json:"sidebar"`
}

func windowOf(win calendar.TimeWindow) windowPayload {
	return windowPayload{Start: models.FormatLocal(win.Start), End: models.FormatLocal(win.End)}
}

func blocksOf(blocks []calendar.Block, now time.Time) []blockPayload {
	out := make([]blockPayload, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, blockPayload{
			Appointment: b.Appointment.Record(),
			RenderStart: models.FormatLocal(b.RenderStart),
			RenderEnd:   models.FormatLocal(b.RenderEnd),
			Top:         b.Top,
			Height:      b.Height,
			Status:      calendar.Classify(b.Appointment, now),
		})
	}
	return out
}

func sidebarOf(appts []models.Appointment, now time.Time) []sidebarEntry {
	ordered := calendar.OrderByStatus(appts, now)
	out := make([]sidebarEntry, 0, len(ordered))
	for _, a := range ordered {
		out = append(out, sidebarEntry{
			Appointment: a.Record(),
			Status:      calendar.Classify(a, now),
			TimeLabel:   timeLabel(a),
		})
	}
	return out
}

func slotsOf(day, now time.Time) []slotPayload {
	slots := calendar.DaySlots()
	out := make([]slotPayload, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotPayload{
			Index:  s.Index,
			Hour:   s.Hour,
			Minute: s.Minute,
			Label:  s.Label(),
			Past:   s.Start(day).Before(now),
		})
	}
	return out
}

// GetDayView renders one day: the 48-slot grid, positioned blocks at the day
// slot height and the status-ordered sidebar.
func (s *Server) GetDayView(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	log := s.logWithRequest(r)
	now := s.nowLocal()

	date, err := httpx.ParseDateParam(r.URL.Query(), "date", s.Cfg.Timezone, now)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	win, _ := calendar.Resolve(calendar.ViewDay, date)

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	appts := s.windowAppointments(ctx, log, p, calendar.ViewDay, win, httpx.BoolParam(r.URL.Query(), "expand"))

	transport.WriteJSON(w, http.StatusOK, dayViewPayload{
		View:          string(calendar.ViewDay),
		Date:          date.Format("2006-01-02"),
		Label:         calendar.RangeLabel(calendar.ViewDay, date),
		Window:        windowOf(win),
		Slots:         slotsOf(date, now),
		EndOfDayLabel: calendar.EndOfDayLabel,
		Blocks:        blocksOf(calendar.ProjectDay(appts, date, calendar.SlotHeightDay), now),
		Sidebar:       sidebarOf(appts, now),
	})
}

// GetWeekView renders the Sunday-first week: seven day columns at the compact
// slot height plus the sidebar over the whole window.
func (s *Server) GetWeekView(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	log := s.logWithRequest(r)
	now := s.nowLocal()

	date, err := httpx.ParseDateParam(r.URL.Query(), "date", s.Cfg.Timezone, now)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	win, _ := calendar.Resolve(calendar.ViewWeek, date)

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	appts := s.windowAppointments(ctx, log, p, calendar.ViewWeek, win, httpx.BoolParam(r.URL.Query(), "expand"))

	days := make([]weekDayPayload, 0, calendar.DaysPerWeek)
	for _, day := range calendar.WeekDays(date) {
		days = append(days, weekDayPayload{
			Date:   day.Format("2006-01-02"),
			Label:  day.Format("Mon 02"),
			Today:  calendar.SameDay(day, now),
			Past:   calendar.DayEnd(day).Before(now),
			Blocks: blocksOf(calendar.ProjectDay(appts, day, calendar.SlotHeightWeek), now),
		})
	}

	transport.WriteJSON(w, http.StatusOK, weekViewPayload{
		View:          string(calendar.ViewWeek),
		Label:         calendar.RangeLabel(calendar.ViewWeek, date),
		Window:        windowOf(win),
		Slots:         slotsOf(win.Start, now),
		EndOfDayLabel: calendar.EndOfDayLabel,
		Days:          days,
		Sidebar:       sidebarOf(appts, now),
	})
}

// GetMonthView renders the fixed 42-cell grid with per-cell digests and the
// sidebar over the whole month.
func (s *Server) GetMonthView(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	log := s.logWithRequest(r)
	now := s.nowLocal()

	date, err := httpx.ParseDateParam(r.URL.Query(), "date", s.Cfg.Timezone, now)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	win, _ := calendar.Resolve(calendar.ViewMonth, date)

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	appts := s.windowAppointments(ctx, log, p, calendar.ViewMonth, win, httpx.BoolParam(r.URL.Query(), "expand"))

	cells := make([]monthCellPayload, 0, calendar.MonthGridCells)
	for _, cell := range calendar.MonthGrid(date) {
		summary := calendar.SummarizeCell(appts, cell.Date)
		entries := make([]sidebarEntry, 0, len(summary.Shown))
		for _, a := range summary.Shown {
			entries = append(entries, sidebarEntry{
				Appointment: a.Record(),
				Status:      calendar.Classify(a, now),
				TimeLabel:   timeLabel(a),
			})
		}
		cells = append(cells, monthCellPayload{
			Date:         cell.Date.Format("2006-01-02"),
			Muted:        cell.Muted,
			Today:        calendar.SameDay(cell.Date, now),
			Appointments: entries,
			More:         summary.More,
		})
	}

	transport.WriteJSON(w, http.StatusOK, monthViewPayload{
		View:    string(calendar.ViewMonth),
		Label:   calendar.RangeLabel(calendar.ViewMonth, date),
		Window:  windowOf(win),
		Cells:   cells,
		Sidebar: sidebarOf(appts, now),
	})
}
