package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"calgrid/internal/auth"
	"calgrid/internal/cache"
	"calgrid/internal/config"
	"calgrid/internal/middleware"
	"calgrid/internal/models"
	"calgrid/internal/store"
	"calgrid/internal/validation"
)

// fixedNow pins every handler clock: Monday 15 Jan 2024, 08:00.
var fixedNow = time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)

type upstream struct {
	appointments []models.AppointmentRecord
	users        []models.User
	creates      int
}

func (u *upstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/bydate"):
			json.NewEncoder(w).Encode(u.appointments)
		case r.Method == http.MethodPost && r.URL.Path == "/appointments":
			u.creates++
			var rec models.AppointmentRecord
			json.NewDecoder(r.Body).Decode(&rec)
			rec.ID = "created-1"
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(rec)
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			json.NewEncoder(w).Encode(u.users)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestRouter(t *testing.T, up *upstream) (http.Handler, string) {
	t.Helper()

	storeSrv := httptest.NewServer(up.handler())
	t.Cleanup(storeSrv.Close)

	cfg := &config.Config{
		StoreBaseURL:    storeSrv.URL,
		JWTSecret:       "test-secret",
		JWTIssuer:       "calgrid",
		CacheTTLSeconds: 30,
		Timezone:        time.UTC,
	}
	manager := &auth.Manager{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	token, err := manager.NewUserToken("u1", "Alice", time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	srv := &Server{
		Cfg:   cfg,
		Store: store.New(cfg.StoreBaseURL, cfg.Timezone),
		Val:   validation.New(),
		Log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Cache: cache.NewNoop(),
		Now:   func() time.Time { return fixedNow },
	}

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserAuth(manager))
		r.Get("/calendar/day", srv.GetDayView)
		r.Get("/calendar/week", srv.GetWeekView)
		r.Get("/calendar/month", srv.GetMonthView)
		r.Post("/appointments", srv.CreateAppointment)
		r.Put("/appointments/{id}", srv.UpdateAppointment)
		r.Delete("/appointments/{id}", srv.DeleteAppointment)
		r.Get("/users/suggestions", srv.SuggestUsers)
	})
	return r, token
}

func doJSON(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDayViewGeometry(t *testing.T) {
	up := &upstream{
		appointments: []models.AppointmentRecord{
			{ID: "a1", Title: "standup", Start: "2024-01-15T09:00:00", End: "2024-01-15T10:30:00"},
		},
	}
	h, token := newTestRouter(t, up)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/calendar/day?date=2024-01-15", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload dayViewPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Slots) != 48 {
		t.Fatalf("slots = %d, want 48", len(payload.Slots))
	}
	if payload.EndOfDayLabel != "11:59 PM" {
		t.Fatalf("endOfDayLabel = %q", payload.EndOfDayLabel)
	}
	if payload.Label != "Monday, 15 January 2024" {
		t.Fatalf("label = %q", payload.Label)
	}
	if len(payload.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(payload.Blocks))
	}
	b := payload.Blocks[0]
	if b.Top != 18*48 {
		t.Fatalf("top = %v, want %v", b.Top, 18*48)
	}
	if b.Height != 3*48 {
		t.Fatalf("height = %v, want %v", b.Height, 3*48)
	}
	if string(b.Status) != "upcoming" {
		t.Fatalf("status = %q, want upcoming", b.Status)
	}

	// 08:00 clock: the 07:30 slot is past, 08:00 is not.
	if !payload.Slots[15].Past {
		t.Fatalf("slot 15 (07:30) should be past")
	}
	if payload.Slots[16].Past {
		t.Fatalf("slot 16 (08:00) should not be past")
	}
}

func TestWeekViewDays(t *testing.T) {
	h, token := newTestRouter(t, &upstream{})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/calendar/week?date=2024-01-17", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload weekViewPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(payload.Days))
	}
	if payload.Days[0].Date != "2024-01-14" {
		t.Fatalf("week starts %s, want Sunday 2024-01-14", payload.Days[0].Date)
	}
	if !payload.Days[1].Today {
		t.Fatalf("monday should be flagged today")
	}
	if !payload.Days[0].Past {
		t.Fatalf("sunday should be flagged past")
	}
	if payload.Days[1].Past {
		t.Fatalf("today must not be flagged past")
	}
	if payload.Label != "14 Jan 2024 - 20 Jan 2024" {
		t.Fatalf("label = %q", payload.Label)
	}
}

func TestMonthViewCellCount(t *testing.T) {
	h, token := newTestRouter(t, &upstream{})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/calendar/month?date=2024-02-10", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload monthViewPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Cells) != 42 {
		t.Fatalf("cells = %d, want 42", len(payload.Cells))
	}
	if !payload.Cells[0].Muted {
		t.Fatalf("leading January cell should be muted")
	}
}

func TestCreateRejectedBeforeStore(t *testing.T) {
	up := &upstream{}
	h, token := newTestRouter(t, up)

	// Start in the past relative to the pinned clock.
	body := `{"title":"retro","start":"2024-01-14T10:00:00","end":"2024-01-14T11:00:00"}`
	rec := doJSON(t, h, http.MethodPost, "/api/v1/appointments", token, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if up.creates != 0 {
		t.Fatalf("store was called %d times for an invalid draft", up.creates)
	}
	if !strings.Contains(rec.Body.String(), "start") {
		t.Fatalf("body does not name the failing field: %s", rec.Body.String())
	}
}

func TestCreateFromMonthSwitchesToDay(t *testing.T) {
	up := &upstream{}
	h, token := newTestRouter(t, up)

	body := `{"title":"planning","start":"2024-01-16T10:00:00","end":"2024-01-16T11:00:00","fromView":"month"}`
	rec := doJSON(t, h, http.MethodPost, "/api/v1/appointments", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if up.creates != 1 {
		t.Fatalf("store creates = %d, want 1", up.creates)
	}

	var payload mutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Appointment.ID != "created-1" {
		t.Fatalf("appointment id = %q", payload.Appointment.ID)
	}
	if !payload.SwitchToDay {
		t.Fatalf("month-view create should switch to day")
	}
}

func TestSuggestionsExcludeSelected(t *testing.T) {
	up := &upstream{
		users: []models.User{
			{ID: "u2", UserName: "alice"},
			{ID: "u3", UserName: "albert"},
			{ID: "u4", UserName: "bob"},
		},
	}
	h, token := newTestRouter(t, up)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/users/suggestions?q=al&selected=u3", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload suggestionsPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Suggestions) != 1 || payload.Suggestions[0].ID != "u2" {
		t.Fatalf("suggestions = %+v, want only u2", payload.Suggestions)
	}
}

func TestMissingTokenUnauthorized(t *testing.T) {
	h, _ := newTestRouter(t, &upstream{})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/calendar/day", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
