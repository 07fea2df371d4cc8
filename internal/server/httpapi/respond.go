package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskkeeper/internal/common"
)

// errorResponse is the uniform error body. Every failure, validation or
// otherwise, serializes as {"error": "..."}.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(r.Context(), "writing response", "error", err.Error())
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, errorResponse{Error: message})
}

// writeServiceError maps the sentinel errors coming out of the services to
// HTTP statuses. Anything unrecognized is a 500 with a generic body so
// internals never leak to the client.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrInvalidCredentials):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrUnauthorized):
		s.writeError(w, r, http.StatusUnauthorized, "please authenticate")
	case errors.Is(err, common.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "not found")
	default:
		s.logger.Error(r.Context(), "request failed", "error", err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
