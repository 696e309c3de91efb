package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/msomdec/image-gallery/internal/domain"
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error onto its HTTP status. Internal
// faults are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := domain.KindOf(err).HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), op, "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeJSON(w, status, map[string]string{
			"error": "An unexpected error occurred. Please try again.",
			"code":  string(domain.CodeOf(err)),
		})
		return
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(domain.CodeOf(err)),
	})
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
