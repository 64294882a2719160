package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"calgrid/internal/calendar"
	"calgrid/internal/models"
)

func testWindow(t *testing.T) calendar.TimeWindow {
	t.Helper()
	win, err := calendar.Resolve(calendar.ViewDay, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	return win
}

func TestQueryAppointments(t *testing.T) {
	var gotPath, gotStart, gotEnd, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("startDate")
		gotEnd = r.URL.Query().Get("endDate")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.AppointmentRecord{
			{ID: "a1", Title: "Review", Start: "2024-01-15T10:00:00", End: "2024-01-15T11:00:00"},
			{ID: "broken", Title: "no dates"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.UTC)
	appts, skipped, err := c.QueryAppointments(context.Background(), "tok", "u1", testWindow(t))
	if err != nil {
		t.Fatalf("QueryAppointments error: %v", err)
	}

	if gotPath != "/appointments/u1/bydate" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotStart != "2024-01-15T00:00:00" || gotEnd != "2024-01-15T23:59:59" {
		t.Fatalf("unexpected window params: %s / %s", gotStart, gotEnd)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("bearer token not forwarded: %q", gotAuth)
	}
	if len(appts) != 1 || appts[0].ID != "a1" {
		t.Fatalf("unexpected appointments: %+v", appts)
	}
	if len(skipped) != 1 || skipped[0].ID != "broken" {
		t.Fatalf("expected malformed record skipped, got %+v", skipped)
	}
}

func TestQueryAppointmentsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.UTC)
	_, _, err := c.QueryAppointments(context.Background(), "", "u1", testWindow(t))
	fe, ok := err.(*FetchError)
	if !ok {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", fe.StatusCode)
	}
}

func TestCreateAppointment(t *testing.T) {
	var gotBody models.AppointmentRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/appointments" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		gotBody.ID = "assigned-1"
		json.NewEncoder(w).Encode(gotBody)
	}))
	defer srv.Close()

	c := New(srv.URL, time.UTC)
	draft := calendar.Draft{
		Title: "Planning",
		Start: time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 16, 11, 0, 0, 0, time.UTC),
		RecurrenceType:  models.RecurrenceWeekly,
		RecurrenceCount: 2,
		RecurrenceDays:  []string{"Tue"},
	}

	created, err := c.CreateAppointment(context.Background(), "tok", "u1", draft)
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if created.ID != "assigned-1" {
		t.Fatalf("store-assigned id not carried: %+v", created)
	}
	if gotBody.CreatedByUserID != "u1" {
		t.Fatalf("organizer not set on payload: %+v", gotBody)
	}
	if gotBody.RecurrenceType == nil || *gotBody.RecurrenceType != models.RecurrenceWeekly {
		t.Fatalf("recurrence lost on the wire: %+v", gotBody)
	}
}

func TestUpdateAppointmentPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/appointments/a1/u1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var rec models.AppointmentRecord
		json.NewDecoder(r.Body).Decode(&rec)
		json.NewEncoder(w).Encode(rec)
	}))
	defer srv.Close()

	c := New(srv.URL, time.UTC)
	draft := calendar.Draft{
		Title: "Moved",
		Start: time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC),
	}
	updated, err := c.UpdateAppointment(context.Background(), "tok", "a1", "u1", draft)
	if err != nil {
		t.Fatalf("UpdateAppointment error: %v", err)
	}
	if updated.ID != "a1" || updated.Title != "Moved" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestDeleteAppointment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/appointments/a1/u1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.UTC)
	ok, err := c.DeleteAppointment(context.Background(), "tok", "a1", "u1")
	if err != nil || !ok {
		t.Fatalf("DeleteAppointment: ok=%v err=%v", ok, err)
	}
}

func TestDeleteAppointmentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.UTC)
	ok, err := c.DeleteAppointment(context.Background(), "tok", "missing", "u1")
	if ok || err == nil {
		t.Fatalf("expected failure, got ok=%v err=%v", ok, err)
	}
}

func TestListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]models.User{{ID: "u1", UserName: "Alice"}})
	}))
	defer srv.Close()

	c := New(srv.URL, time.UTC)
	users, err := c.ListUsers(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListUsers error: %v", err)
	}
	if len(users) != 1 || users[0].UserName != "Alice" {
		t.Fatalf("unexpected users: %+v", users)
	}
}
