package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParsePeriodID extracts and validates the school period ID from the request
// path. Returns the parsed UUID and true on success, or uuid.Nil and false
// on error (after writing an error response).
// Expects path parameter: period
func ParsePeriodID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "period", "invalid_period_id", "Invalid period ID format", logger)
}

// ParseSnapshotID extracts and validates the snapshot ID from the request
// path. Returns the parsed UUID and true on success, or uuid.Nil and false
// on error (after writing an error response).
// Expects path parameter: id
func ParseSnapshotID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_snapshot_id", "Invalid snapshot ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// ParseDateQuery extracts a required YYYY-MM-DD query parameter. Returns the
// parsed date and true on success, or the zero time and false after writing
// an error response.
func ParseDateQuery(w http.ResponseWriter, r *http.Request, param string, logger *zap.Logger) (time.Time, bool) {
	value := r.URL.Query().Get(param)
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_date",
			"Query parameter "+param+" must be YYYY-MM-DD"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return time.Time{}, false
	}
	return date, true
}

// ParseRangeQuery extracts the required from/to date range query parameters.
func ParseRangeQuery(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (time.Time, time.Time, bool) {
	from, ok := ParseDateQuery(w, r, "from", logger)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := ParseDateQuery(w, r, "to", logger)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// ParseOptionalBoolQuery extracts an optional boolean query parameter.
// Returns nil when the parameter is absent.
func ParseOptionalBoolQuery(w http.ResponseWriter, r *http.Request, param string, logger *zap.Logger) (*bool, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil, true
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+param,
			"Query parameter "+param+" must be a boolean"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return &parsed, true
}

// ParseOptionalIntQuery extracts an optional integer query parameter.
// Returns 0 when the parameter is absent.
func ParseOptionalIntQuery(w http.ResponseWriter, r *http.Request, param string, logger *zap.Logger) (int, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+param,
			"Query parameter "+param+" must be an integer"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return parsed, true
}
