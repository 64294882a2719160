// Package session holds a user's ephemeral view state: the selected view and
// reference date, the appointment set for the current window, and the user
// directory. Mutations are gated by the scheduling validator and followed by
// a full window re-query so server-computed fields never drift.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"calgrid/internal/calendar"
	"calgrid/internal/models"
)

// Store is the appointment store collaborator as the session consumes it.
// *store.Client satisfies it.
type Store interface {
	QueryAppointments(ctx context.Context, token, userID string, win calendar.TimeWindow) ([]models.Appointment, []models.Skip, error)
	CreateAppointment(ctx context.Context, token, userID string, d calendar.Draft) (models.Appointment, error)
	UpdateAppointment(ctx context.Context, token, id, userID string, d calendar.Draft) (models.Appointment, error)
	DeleteAppointment(ctx context.Context, token, id, userID string) (bool, error)
	ListUsers(ctx context.Context, token string) ([]models.User, error)
}

type Session struct {
	store Store
	log   *slog.Logger
	now   func() time.Time

	userID string
	token  string

	mu           sync.Mutex
	view         calendar.View
	refDate      time.Time
	appointments []models.Appointment
	users        []models.User
	gen          uint64
}

func New(store Store, log *slog.Logger, userID, token string, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		store:   store,
		log:     log,
		now:     now,
		userID:  userID,
		token:   token,
		view:    calendar.ViewDay,
		refDate: now(),
	}
}

func (s *Session) View() calendar.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) ReferenceDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refDate
}

// Appointments returns a copy of the current window's appointment set.
func (s *Session) Appointments() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Appointment(nil), s.appointments...)
}

func (s *Session) SetView(ctx context.Context, view calendar.View) error {
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *Session) SetDate(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	s.refDate = date
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Prev steps the reference date backwards one view unit. Week mode shifts the
// raw reference date by seven days without renormalizing to the week start;
// the query window and labels renormalize on their own. Kept as-is from the
// original navigation, which only ever moves in whole weeks.
func (s *Session) Prev(ctx context.Context) error {
	return s.step(ctx, -1)
}

// Next steps the reference date forward one view unit.
func (s *Session) Next(ctx context.Context) error {
	return s.step(ctx, 1)
}

func (s *Session) step(ctx context.Context, dir int) error {
	s.mu.Lock()
	switch s.view {
	case calendar.ViewWeek:
		s.refDate = s.refDate.AddDate(0, 0, 7*dir)
	case calendar.ViewMonth:
		s.refDate = s.refDate.AddDate(0, dir, 0)
	default:
		s.refDate = s.refDate.AddDate(0, 0, dir)
	}
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh re-queries the current window. A response that loses the race to a
// newer refresh is discarded so stale data never overwrites fresher state.
// On query failure the window degrades to an empty set.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	view := s.view
	refDate := s.refDate
	s.mu.Unlock()

	win, err := calendar.Resolve(view, refDate)
	if err != nil {
		return err
	}

	appts, skipped, err := s.store.QueryAppointments(ctx, s.token, s.userID, win)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug("session refresh: stale response discarded",
			slog.String("view", string(view)),
			slog.Time("reference_date", refDate),
		)
		return nil
	}
	if err != nil {
		s.log.Error("session refresh: query failed",
			slog.String("view", string(view)),
			slog.String("error", err.Error()),
		)
		s.appointments = nil
		return err
	}
	if len(skipped) > 0 {
		s.log.Warn("session refresh: malformed records skipped",
			slog.Int("skipped", len(skipped)),
		)
	}
	s.appointments = appts
	return nil
}

// Create gates the draft, submits it and re-queries the window.
func (s *Session) Create(ctx context.Context, d calendar.Draft) (models.Appointment, error) {
	if err := calendar.CheckDraft(d, s.now()); err != nil {
		return models.Appointment{}, err
	}
	created, err := s.store.CreateAppointment(ctx, s.token, s.userID, calendar.Normalize(d))
	if err != nil {
		s.log.Error("session create: store call failed", slog.String("error", err.Error()))
		return models.Appointment{}, err
	}
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("session create: refresh after create failed", slog.String("error", err.Error()))
	}
	return created, nil
}

// Update gates the draft, replaces the appointment and re-queries the window.
func (s *Session) Update(ctx context.Context, id string, d calendar.Draft) (models.Appointment, error) {
	if err := calendar.CheckDraft(d, s.now()); err != nil {
		return models.Appointment{}, err
	}
	updated, err := s.store.UpdateAppointment(ctx, s.token, id, s.userID, calendar.Normalize(d))
	if err != nil {
		s.log.Error("session update: store call failed", slog.String("error", err.Error()))
		return models.Appointment{}, err
	}
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("session update: refresh after update failed", slog.String("error", err.Error()))
	}
	return updated, nil
}

// Delete removes the appointment and drops it from the local set; the next
// refresh reconciles with the store.
func (s *Session) Delete(ctx context.Context, id string) error {
	if _, err := s.store.DeleteAppointment(ctx, s.token, id, s.userID); err != nil {
		s.log.Error("session delete: store call failed", slog.String("error", err.Error()))
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.appointments[:0]
	for _, a := range s.appointments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.appointments = kept
	return nil
}

// LoadUsers fetches the user directory once per session.
func (s *Session) LoadUsers(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx, s.token)
	if err != nil {
		s.log.Error("session users: query failed", slog.String("error", err.Error()))
		return err
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

// SuggestGuests runs the invite typeahead against the loaded directory.
func (s *Session) SuggestGuests(query string, selected []string) []models.User {
	s.mu.Lock()
	users := s.users
	s.mu.Unlock()
	return calendar.SuggestGuests(users, query, selected)
}

// NewDraft proposes the default slot for a new appointment on the selected
// day.
func (s *Session) NewDraft() calendar.Draft {
	s.mu.Lock()
	refDate := s.refDate
	s.mu.Unlock()
	return calendar.DefaultDraft(refDate, s.now())
}
