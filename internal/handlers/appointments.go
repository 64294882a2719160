package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"calgrid/internal/calendar"
	"calgrid/internal/httpx"
	"calgrid/internal/middleware"
	"calgrid/internal/models"
	"calgrid/internal/store"
	"calgrid/internal/transport"
)

// AppointmentRequest is the mutation payload. Struct tags reject shape
// problems; the scheduling rules (future start, end after start, weekly needs
// days) live in calendar.CheckDraft.
type AppointmentRequest struct {
	Title           string   `json:"title" validate:"required,max=50"`
	Description     string   `json:"description" validate:"max=250"`
	Start           string   `json:"start" validate:"required,localdt"`
	End             string   `json:"end" validate:"required,localdt"`
	ParticipantIDs  []string `json:"participantIds"`
	RecurrenceType  string   `json:"recurrenceType" validate:"omitempty,oneof=none daily weekly"`
	RecurrenceCount int      `json:"recurrenceCount" validate:"omitempty,gte=1"`
	RecurrenceDays  []string `json:"recurrenceDays" validate:"omitempty,dive,oneof=Sun Mon Tue Wed Thu Fri Sat"`
	// FromView names the view the client mutated from, so the response can
	// carry the refreshed window for it.
	FromView string `json:"fromView" validate:"omitempty,oneof=day week month"`
}

type mutationResponse struct {
	Appointment  models.AppointmentRecord `json:"appointment"`
	Appointments []sidebarEntry           `json:"appointments"`
	SwitchToDay  bool                     `json:"switchToDay,omitempty"`
}

func (s *Server) draftFromRequest(req AppointmentRequest) (calendar.Draft, error) {
	start, err := models.ParseLocal(req.Start, s.Cfg.Timezone)
	if err != nil {
		return calendar.Draft{}, &calendar.ValidationError{Field: "start", Reason: "unparsable datetime"}
	}
	end, err := models.ParseLocal(req.End, s.Cfg.Timezone)
	if err != nil {
		return calendar.Draft{}, &calendar.ValidationError{Field: "end", Reason: "unparsable datetime"}
	}
	return calendar.Draft{
		Title:           req.Title,
		Description:     req.Description,
		Start:           start,
		End:             end,
		ParticipantIDs:  req.ParticipantIDs,
		RecurrenceType:  req.RecurrenceType,
		RecurrenceCount: req.RecurrenceCount,
		RecurrenceDays:  req.RecurrenceDays,
	}, nil
}

// gatedDraft decodes, validates and normalizes a mutation request. The store
// is never called when this returns an error.
func (s *Server) gatedDraft(w http.ResponseWriter, r *http.Request) (AppointmentRequest, calendar.Draft, bool) {
	var req AppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return req, calendar.Draft{}, false
	}
	if err := s.Val.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(verrs))
		} else {
			transport.WriteError(w, http.StatusBadRequest, "validation error", nil)
		}
		return req, calendar.Draft{}, false
	}

	draft, err := s.draftFromRequest(req)
	if err == nil {
		err = calendar.CheckDraft(draft, s.nowLocal())
	}
	if err != nil {
		var verr *calendar.ValidationError
		if errors.As(err, &verr) {
			transport.WriteFieldError(w, verr.Field, verr.Reason)
		} else {
			transport.WriteError(w, http.StatusBadRequest, "validation error", nil)
		}
		return req, calendar.Draft{}, false
	}

	return req, calendar.Normalize(draft), true
}

func writeStoreError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	log.Error(op+": store call failed", slog.String("error", err.Error()))
	var fe *store.FetchError
	if errors.As(err, &fe) {
		transport.WriteError(w, http.StatusBadGateway, "appointment store error", nil)
		return
	}
	transport.WriteError(w, http.StatusBadGateway, "appointment store unreachable", nil)
}

// refreshedWindow re-queries the window the client mutated from, anchored at
// the mutated appointment. Best effort; a refresh failure degrades to an
// empty list rather than failing the mutation.
func (s *Server) refreshedWindow(ctx context.Context, log *slog.Logger, p middleware.Principal, fromView string, anchor models.Appointment) []sidebarEntry {
	view := calendar.ViewDay
	if v, err := calendar.ParseView(fromView); err == nil {
		view = v
	}
	win, _ := calendar.Resolve(view, anchor.Start)
	appts := s.windowAppointments(ctx, log, p, view, win, false)
	return sidebarOf(appts, s.nowLocal())
}

func (s *Server) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	log := s.logWithRequest(r)

	req, draft, ok := s.gatedDraft(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	created, err := s.Store.CreateAppointment(ctx, p.Token, p.UserID, draft)
	if err != nil {
		writeStoreError(w, log, "appointment create", err)
		return
	}
	log.Info("appointment create: stored",
		slog.String("appointment_id", created.ID),
		slog.String("user_id", p.UserID),
	)
	s.invalidateWindows(ctx, p.UserID)

	transport.WriteJSON(w, http.StatusCreated, mutationResponse{
		Appointment:  created.Record(),
		Appointments: s.refreshedWindow(ctx, log, p, req.FromView, created),
		// Month cells have no slot geometry, so a month-view create hands the
		// client off to the day of the new appointment.
		SwitchToDay: req.FromView == string(calendar.ViewMonth),
	})
}

func (s *Server) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	log := s.logWithRequest(r)

	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteFieldError(w, "id", "required")
		return
	}

	req, draft, ok := s.gatedDraft(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	updated, err := s.Store.UpdateAppointment(ctx, p.Token, id, p.UserID, draft)
	if err != nil {
		writeStoreError(w, log, "appointment update", err)
		return
	}
	log.Info("appointment update: stored",
		slog.String("appointment_id", updated.ID),
		slog.String("user_id", p.UserID),
	)
	s.invalidateWindows(ctx, p.UserID)

	transport.WriteJSON(w, http.StatusOK, mutationResponse{
		Appointment:  updated.Record(),
		Appointments: s.refreshedWindow(ctx, log, p, req.FromView, updated),
	})
}

func (s *Server) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	log := s.logWithRequest(r)

	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteFieldError(w, "id", "required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if _, err := s.Store.DeleteAppointment(ctx, p.Token, id, p.UserID); err != nil {
		writeStoreError(w, log, "appointment delete", err)
		return
	}
	log.Info("appointment delete: removed",
		slog.String("appointment_id", id),
		slog.String("user_id", p.UserID),
	)
	s.invalidateWindows(ctx, p.UserID)

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}
