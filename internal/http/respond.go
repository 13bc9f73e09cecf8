package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"adminsum/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`

	// Set for partial batch failures so callers can retry the remainder.
	Succeeded []string `json:"succeeded,omitempty"`
	Remaining []string `json:"remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy to HTTP statuses. Anything outside the
// known kinds is a 500 with the detail kept out of the response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		partialErr    *core.PartialFailure
		externalErr   *core.ExternalServiceError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error(), Kind: "validation"})

	case errors.As(err, &partialErr):
		slog.ErrorContext(r.Context(), "Batch partially applied", "error", err,
			"succeeded", len(partialErr.Succeeded), "remaining", len(partialErr.Remaining))
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:     partialErr.Error(),
			Kind:      "partial_failure",
			Succeeded: partialErr.Succeeded,
			Remaining: partialErr.Remaining,
		})

	case errors.Is(err, core.ErrBackendUnavailable):
		slog.ErrorContext(r.Context(), "Backend unavailable", "error", err, "url", r.URL.Path)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "backend unavailable", Kind: "backend_unavailable"})

	case errors.As(err, &externalErr):
		slog.ErrorContext(r.Context(), "External service failed", "error", err, "service", externalErr.Service)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: externalErr.Error(), Kind: "external_service"})

	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: "internal"})
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseDate parses a date query parameter in YYYY-MM-DD form, in local time
// so exported day bounds match the user's calendar.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}
