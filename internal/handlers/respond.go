package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"familylink/internal/service"
)

// envelope is the JSON body of every API response. Empty fields are omitted.
type envelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Data     any    `json:"data,omitempty"`
	User     any    `json:"user,omitempty"`
	Profile  any    `json:"profile,omitempty"`
	Parent   any    `json:"parent,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Token    string `json:"token,omitempty"`
	Valid    *bool  `json:"valid,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// statusForError maps a service error kind to its HTTP status
func statusForError(err error) int {
	switch service.KindOf(err) {
	case service.ErrValidation:
		return http.StatusBadRequest
	case service.ErrUnauthenticated:
		return http.StatusUnauthorized
	case service.ErrForbidden:
		return http.StatusForbidden
	case service.ErrNotFound:
		return http.StatusNotFound
	case service.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the client-safe message for err. Unexpected
// errors are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		event := log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context()))
		if user := GetUserFromContext(r.Context()); user != nil {
			event = event.Int64("user_id", user.ID)
		}
		event.Msg("Request failed")
	}
	respondWithError(w, status, service.PublicMessage(err))
}

// decodeJSON reads a JSON request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody)
		return false
	}
	return true
}
