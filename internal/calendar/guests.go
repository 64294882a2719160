package calendar

import (
	"strings"

	"calgrid/internal/models"
)

// AddGuest appends id to the participant set. Adding a present id is a no-op;
// insertion order is preserved for display.
func AddGuest(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// RemoveGuest drops id from the participant set. Removing an absent id is a
// no-op.
func RemoveGuest(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// SuggestGuests returns invite candidates for the typeahead: case-insensitive
// prefix match on display name, already-selected users excluded. A blank or
// whitespace-only query yields nothing.
func SuggestGuests(users []models.User, query string, selected []string) []models.User {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	query = strings.ToLower(query)

	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	var out []models.User
	for _, u := range users {
		if u.UserName == "" || chosen[u.ID] {
			continue
		}
		if strings.HasPrefix(strings.ToLower(u.UserName), query) {
			out = append(out, u)
		}
	}
	return out
}
