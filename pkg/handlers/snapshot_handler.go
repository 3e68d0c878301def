package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/models"
	"github.com/carelane/ratio-engine/pkg/services"
)

// SnapshotHandler handles snapshot recording and query HTTP requests.
type SnapshotHandler struct {
	compliance services.ComplianceService
	logger     *zap.Logger
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(compliance services.ComplianceService, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		compliance: compliance,
		logger:     logger,
	}
}

// RegisterRoutes registers the snapshot handler's routes on the given mux.
func (h *SnapshotHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/periods/{period}/ratio/snapshots"

	mux.HandleFunc("POST "+base, h.Record)
	mux.HandleFunc("POST "+base+"/record-all", h.RecordAll)
	mux.HandleFunc("POST "+base+"/record-by-room", h.RecordByRoom)
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("GET "+base+"/latest", h.Latest)
	mux.HandleFunc("POST "+base+"/{id}/alert-sent", h.MarkAlertSent)
}

type recordSnapshotRequest struct {
	AgeGroup   string  `json:"age_group"`
	Date       string  `json:"date"`
	TimeOfDay  string  `json:"time_of_day"`
	Room       *string `json:"room,omitempty"`
	RecordedBy *string `json:"recorded_by,omitempty"`
	Automatic  bool    `json:"automatic"`
	Notes      *string `json:"notes,omitempty"`
}

type bulkRecordRequest struct {
	Date       string  `json:"date"`
	TimeOfDay  string  `json:"time_of_day"`
	RecordedBy *string `json:"recorded_by,omitempty"`
	Automatic  bool    `json:"automatic"`
}

// Record handles POST /api/periods/{period}/ratio/snapshots
func (h *SnapshotHandler) Record(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}

	var req recordSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_body", "Request body must be valid JSON")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.badRequest(w, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	recordedBy, ok := h.parseActor(w, req.RecordedBy)
	if !ok {
		return
	}

	snapshot, err := h.compliance.Record(r.Context(), models.RecordRequest{
		PeriodID:   periodID,
		AgeGroup:   req.AgeGroup,
		Date:       date,
		TimeOfDay:  req.TimeOfDay,
		Room:       req.Room,
		RecordedBy: recordedBy,
		Automatic:  req.Automatic,
		Notes:      req.Notes,
	})
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, snapshot); err != nil {
		h.logger.Error("Failed to encode snapshot response", zap.Error(err))
	}
}

// RecordAll handles POST /api/periods/{period}/ratio/snapshots/record-all
func (h *SnapshotHandler) RecordAll(w http.ResponseWriter, r *http.Request) {
	h.bulkRecord(w, r, h.compliance.RecordAll)
}

// RecordByRoom handles POST /api/periods/{period}/ratio/snapshots/record-by-room
func (h *SnapshotHandler) RecordByRoom(w http.ResponseWriter, r *http.Request) {
	h.bulkRecord(w, r, h.compliance.RecordByRoom)
}

func (h *SnapshotHandler) bulkRecord(
	w http.ResponseWriter,
	r *http.Request,
	record func(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay string, recordedBy *uuid.UUID, automatic bool) ([]models.RecordOutcome, error),
) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}

	var req bulkRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_body", "Request body must be valid JSON")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.badRequest(w, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	recordedBy, ok := h.parseActor(w, req.RecordedBy)
	if !ok {
		return
	}

	outcomes, err := record(r.Context(), periodID, date, req.TimeOfDay, recordedBy, req.Automatic)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"outcomes": outcomes,
		"count":    len(outcomes),
	}); err != nil {
		h.logger.Error("Failed to encode outcomes response", zap.Error(err))
	}
}

// List handles GET /api/periods/{period}/ratio/snapshots
// Accepts either date= or from=&to=, plus optional age_group, room,
// compliant, and alert_sent filters.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}

	filters := models.SnapshotFilters{
		AgeGroup: r.URL.Query().Get("age_group"),
	}
	if room := r.URL.Query().Get("room"); room != "" {
		filters.Room = &room
	}
	compliant, ok := ParseOptionalBoolQuery(w, r, "compliant", h.logger)
	if !ok {
		return
	}
	filters.IsCompliant = compliant
	alertSent, ok := ParseOptionalBoolQuery(w, r, "alert_sent", h.logger)
	if !ok {
		return
	}
	filters.AlertSent = alertSent

	var snapshots []*models.RatioSnapshot
	var err error
	if r.URL.Query().Get("date") != "" {
		date, ok := ParseDateQuery(w, r, "date", h.logger)
		if !ok {
			return
		}
		snapshots, err = h.compliance.ListByDate(r.Context(), periodID, date, filters)
	} else {
		from, to, ok := ParseRangeQuery(w, r, h.logger)
		if !ok {
			return
		}
		snapshots, err = h.compliance.ListByDateRange(r.Context(), periodID, from, to, filters)
	}
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"count":     len(snapshots),
	}); err != nil {
		h.logger.Error("Failed to encode snapshots response", zap.Error(err))
	}
}

// Latest handles GET /api/periods/{period}/ratio/snapshots/latest
// Returns the most recent all-rooms snapshot per age group; the dashboard
// derives its staleness indicator from each snapshot's created_at.
func (h *SnapshotHandler) Latest(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}

	snapshots, err := h.compliance.LatestPerAgeGroup(r.Context(), periodID)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"count":     len(snapshots),
	}); err != nil {
		h.logger.Error("Failed to encode latest snapshots response", zap.Error(err))
	}
}

// MarkAlertSent handles POST /api/periods/{period}/ratio/snapshots/{id}/alert-sent
func (h *SnapshotHandler) MarkAlertSent(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	snapshotID, ok := ParseSnapshotID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.compliance.MarkAlertSent(r.Context(), periodID, snapshotID); err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "alert_sent"}); err != nil {
		h.logger.Error("Failed to encode alert-sent response", zap.Error(err))
	}
}

func (h *SnapshotHandler) parseActor(w http.ResponseWriter, value *string) (*uuid.UUID, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		h.badRequest(w, "invalid_recorded_by", "recorded_by must be a UUID")
		return nil, false
	}
	return &id, true
}

func (h *SnapshotHandler) badRequest(w http.ResponseWriter, code, message string) {
	if err := ErrorResponse(w, http.StatusBadRequest, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
