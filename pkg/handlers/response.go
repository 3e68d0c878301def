package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceErrorResponse maps domain errors to HTTP statuses and writes the
// error response. Unrecognized errors become an opaque 500.
func ServiceErrorResponse(w http.ResponseWriter, err error, logger *zap.Logger) {
	var statusCode int
	var errorCode, message string

	switch {
	case errors.Is(err, apperrors.ErrInvalidParameters):
		statusCode, errorCode, message = http.StatusBadRequest, "invalid_parameters", err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		statusCode, errorCode, message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, apperrors.ErrDuplicateSnapshot):
		statusCode, errorCode, message = http.StatusConflict, "duplicate_snapshot", err.Error()
	case errors.Is(err, apperrors.ErrUnknownAgeGroup):
		statusCode, errorCode, message = http.StatusUnprocessableEntity, "unknown_age_group", err.Error()
	case errors.Is(err, apperrors.ErrDataUnavailable):
		statusCode, errorCode, message = http.StatusServiceUnavailable, "data_unavailable", err.Error()
	default:
		statusCode, errorCode, message = http.StatusInternalServerError, "internal_error", "internal server error"
		logger.Error("Unhandled service error", zap.Error(err))
	}

	if werr := ErrorResponse(w, statusCode, errorCode, message); werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}
