package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"distripanel/internal/core"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps service-layer errors onto the HTTP error taxonomy:
// validation errors are 400, missing resources are 404, anything else is an
// opaque 500 (the cause goes to the log, not the caller).
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, r, err.Error(), "VALIDATION", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
// On failure it writes a 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, "invalid request body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// urlID extracts the {id} route parameter as an int. On failure it writes a
// 404 response and returns false.
func urlID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, r, "invalid id", "NOT_FOUND", http.StatusNotFound)
		return 0, false
	}
	return id, true
}
