package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"calgrid/internal/calendar"
	"calgrid/internal/httpx"
	"calgrid/internal/middleware"
	"calgrid/internal/models"
	"calgrid/internal/transport"
)

const userDirectoryKey = "users:directory"

// listUsers returns the shared user directory, cache-aside. The directory is
// small and changes rarely, so one key serves every caller.
func (s *Server) listUsers(ctx context.Context, log *slog.Logger, token string) ([]models.User, error) {
	if s.Cache != nil {
		if raw, ok, err := s.Cache.Get(ctx, userDirectoryKey); err == nil && ok {
			var users []models.User
			if json.Unmarshal(raw, &users) == nil {
				return users, nil
			}
		}
	}

	users, err := s.Store.ListUsers(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if payload, err := json.Marshal(users); err == nil {
			ttl := time.Duration(s.Cfg.CacheTTLSeconds) * time.Second
			if err := s.Cache.Set(ctx, userDirectoryKey, payload, ttl); err != nil {
				log.Warn("user directory: cache write failed", slog.String("error", err.Error()))
			}
		}
	}
	return users, nil
}

type suggestionsPayload struct {
	Query       string        `json:"query"`
	Suggestions []models.User `json:"suggestions"`
}

// SuggestUsers serves the guest typeahead: case-insensitive prefix match on
// display name, minus already-selected ids.
func (s *Server) SuggestUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	log := s.logWithRequest(r)

	query := r.URL.Query().Get("q")
	selected := httpx.SplitCSV(r.URL.Query().Get("selected"))

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	users, err := s.listUsers(ctx, log, p.Token)
	if err != nil {
		writeStoreError(w, log, "user suggestions", err)
		return
	}

	suggestions := calendar.SuggestGuests(users, query, selected)
	if suggestions == nil {
		suggestions = []models.User{}
	}
	transport.WriteJSON(w, http.StatusOK, suggestionsPayload{
		Query:       query,
		Suggestions: suggestions,
	})
}
