package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dictamed/backend/internal/apperror"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP status codes. Validation and
// classification failures are client errors; an exhausted submission is
// a bad gateway because the fault lies with the webhook endpoint.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	field := ""
	if errors.As(err, &appErr) {
		field = appErr.Field
	}

	status := http.StatusInternalServerError
	kind := "internal"
	switch {
	case errors.Is(err, apperror.ErrUnclassifiableInput):
		status, kind = http.StatusBadRequest, "unclassifiable_input"
	case errors.Is(err, apperror.ErrInvalidInput):
		status, kind = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperror.ErrPayloadTooLarge):
		status, kind = http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, apperror.ErrSubmissionFailed):
		status, kind = http.StatusBadGateway, "submission_failed"
	case errors.Is(err, apperror.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: kind, Message: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: err.Error(), Field: field})
}
