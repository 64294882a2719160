package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"calgrid/internal/cache"
	"calgrid/internal/calendar"
	"calgrid/internal/config"
	"calgrid/internal/httpx"
	"calgrid/internal/middleware"
	"calgrid/internal/models"
	"calgrid/internal/recur"
	"calgrid/internal/store"
	"calgrid/internal/validation"
)

const storeTimeout = 8 * time.Second

type Server struct {
	Cfg   *config.Config
	Store *store.Client
	Val   *validation.Validator
	Log   *slog.Logger
	Cache cache.Cache
	// Now is the injected clock; defaults to time.Now in cmd/api and is
	// pinned in tests.
	Now func() time.Time
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}

// nowLocal is the current instant in the configured calendar timezone.
func (s *Server) nowLocal() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().In(s.Cfg.Timezone)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return httpx.DecodeJSON(r.Body, v)
}

type cachedWindow struct {
	Records []models.AppointmentRecord `json:"records"`
}

func windowCacheKey(userID string, view calendar.View, win calendar.TimeWindow) string {
	return "appts:" + userID + ":" + string(view) + ":" + models.FormatLocal(win.Start)
}

// windowAppointments fetches a user's appointments for a window, cache-aside.
// Query failures degrade to an empty set; the view renders without data
// rather than failing.
func (s *Server) windowAppointments(ctx context.Context, log *slog.Logger, p middleware.Principal, view calendar.View, win calendar.TimeWindow, expand bool) []models.Appointment {
	key := windowCacheKey(p.UserID, view, win)

	if s.Cache != nil {
		if raw, ok, err := s.Cache.Get(ctx, key); err == nil && ok {
			var cached cachedWindow
			if json.Unmarshal(raw, &cached) == nil {
				appts, _ := models.DecodeAll(cached.Records, s.Cfg.Timezone)
				return s.maybeExpand(appts, win, expand)
			}
		}
	}

	appts, skipped, err := s.Store.QueryAppointments(ctx, p.Token, p.UserID, win)
	if err != nil {
		log.Error("calendar query: store call failed",
			slog.String("view", string(view)),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if len(skipped) > 0 {
		log.Warn("calendar query: malformed records skipped", slog.Int("skipped", len(skipped)))
	}

	if s.Cache != nil {
		records := make([]models.AppointmentRecord, 0, len(appts))
		for _, a := range appts {
			records = append(records, a.Record())
		}
		if payload, err := json.Marshal(cachedWindow{Records: records}); err == nil {
			ttl := time.Duration(s.Cfg.CacheTTLSeconds) * time.Second
			_ = s.Cache.Set(ctx, key, payload, ttl)
		}
	}

	return s.maybeExpand(appts, win, expand)
}

func (s *Server) maybeExpand(appts []models.Appointment, win calendar.TimeWindow, expand bool) []models.Appointment {
	if !expand {
		return appts
	}
	return recur.Expand(appts, win)
}

func (s *Server) invalidateWindows(ctx context.Context, userID string) {
	if s.Cache != nil {
		_ = s.Cache.DeletePrefix(ctx, "appts:"+userID+":")
	}
}
