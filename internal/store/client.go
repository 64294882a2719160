// Package store is the HTTP client for the remote appointment store. The
// store owns persistence; this side only queries windows and issues
// create/update/delete commands, forwarding the caller's bearer token.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"calgrid/internal/calendar"
	"calgrid/internal/models"
)

// FetchError is any non-success response from the store. The core performs
// no retries; callers log and degrade on queries and surface the failure on
// mutations.
type FetchError struct {
	Op         string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("store %s failed: status %d", e.Op, e.StatusCode)
}

type Client struct {
	base string
	http *http.Client
	loc  *time.Location
}

func New(baseURL string, loc *time.Location) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
		loc:  loc,
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &FetchError{Op: method + " " + path, StatusCode: res.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// QueryAppointments fetches the records overlapping the window for a user.
// Window bounds travel as naive local datetimes with seconds precision.
// Malformed records come back as skips, never as an error.
func (c *Client) QueryAppointments(ctx context.Context, token, userID string, win calendar.TimeWindow) ([]models.Appointment, []models.Skip, error) {
	params := url.Values{}
	params.Set("startDate", models.FormatLocal(win.Start))
	params.Set("endDate", models.FormatLocal(win.End))
	path := "/appointments/" + url.PathEscape(userID) + "/bydate?" + params.Encode()

	var records []models.AppointmentRecord
	if err := c.do(ctx, http.MethodGet, path, token, nil, &records); err != nil {
		return nil, nil, err
	}
	appts, skipped := models.DecodeAll(records, c.loc)
	return appts, skipped, nil
}

// CreateAppointment submits a normalized draft; the store assigns the id.
func (c *Client) CreateAppointment(ctx context.Context, token, userID string, d calendar.Draft) (models.Appointment, error) {
	var rec models.AppointmentRecord
	if err := c.do(ctx, http.MethodPost, "/appointments", token, recordFromDraft(d, userID), &rec); err != nil {
		return models.Appointment{}, err
	}
	created, err := rec.Decode(c.loc)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("store returned malformed appointment: %w", err)
	}
	return created, nil
}

// UpdateAppointment replaces the full payload of an existing appointment.
func (c *Client) UpdateAppointment(ctx context.Context, token, id, userID string, d calendar.Draft) (models.Appointment, error) {
	path := "/appointments/" + url.PathEscape(id) + "/" + url.PathEscape(userID)
	body := recordFromDraft(d, userID)
	body.ID = id

	var rec models.AppointmentRecord
	if err := c.do(ctx, http.MethodPut, path, token, body, &rec); err != nil {
		return models.Appointment{}, err
	}
	updated, err := rec.Decode(c.loc)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("store returned malformed appointment: %w", err)
	}
	return updated, nil
}

func (c *Client) DeleteAppointment(ctx context.Context, token, id, userID string) (bool, error) {
	path := "/appointments/" + url.PathEscape(id) + "/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodDelete, path, token, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// ListUsers returns the directory used for guest display and selection.
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func recordFromDraft(d calendar.Draft, userID string) models.AppointmentRecord {
	rec := models.AppointmentRecord{
		Title:           d.Title,
		Description:     d.Description,
		Start:           models.FormatLocal(d.Start),
		End:             models.FormatLocal(d.End),
		CreatedByUserID: userID,
		ParticipantIDs:  d.ParticipantIDs,
	}
	if rec.ParticipantIDs == nil {
		rec.ParticipantIDs = []string{}
	}
	if d.RecurrenceType == models.RecurrenceDaily || d.RecurrenceType == models.RecurrenceWeekly {
		rt := d.RecurrenceType
		rc := d.RecurrenceCount
		rec.RecurrenceType = &rt
		rec.RecurrenceCount = &rc
		if rt == models.RecurrenceWeekly {
			rec.RecurrenceDays = d.RecurrenceDays
		}
	}
	return rec
}
