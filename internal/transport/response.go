package transport

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// WriteFieldError surfaces a single-field validation failure the same way a
// struct-tag failure is surfaced, so clients handle both identically.
func WriteFieldError(w http.ResponseWriter, field, reason string) {
	WriteError(w, http.StatusBadRequest, "validation error", map[string]string{field: reason})
}
