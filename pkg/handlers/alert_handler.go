package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/services"
)

// AlertHandler exposes the alert gate selection queries. Delivery is owned by
// an external dispatcher, which marks snapshots sent through the snapshot
// surface after delivering.
type AlertHandler struct {
	alertGate services.AlertGateService
	logger    *zap.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(alertGate services.AlertGateService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertGate: alertGate,
		logger:    logger,
	}
}

// RegisterRoutes registers the alert handler's routes on the given mux.
func (h *AlertHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/periods/{period}/ratio/alerts"

	mux.HandleFunc("GET "+base+"/pending", h.Pending)
	mux.HandleFunc("GET "+base+"/warnings", h.Warnings)
}

// Pending handles GET /api/periods/{period}/ratio/alerts/pending?date=
func (h *AlertHandler) Pending(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	date, ok := ParseDateQuery(w, r, "date", h.logger)
	if !ok {
		return
	}

	snapshots, err := h.alertGate.SnapshotsNeedingAlert(r.Context(), periodID, date)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"count":     len(snapshots),
	}); err != nil {
		h.logger.Error("Failed to encode pending alerts response", zap.Error(err))
	}
}

// Warnings handles GET /api/periods/{period}/ratio/alerts/warnings?date=&threshold=
func (h *AlertHandler) Warnings(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	date, ok := ParseDateQuery(w, r, "date", h.logger)
	if !ok {
		return
	}
	threshold, ok := ParseOptionalIntQuery(w, r, "threshold", h.logger)
	if !ok {
		return
	}

	snapshots, err := h.alertGate.SnapshotsAtWarningLevel(r.Context(), periodID, date, threshold)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"count":     len(snapshots),
	}); err != nil {
		h.logger.Error("Failed to encode warnings response", zap.Error(err))
	}
}
