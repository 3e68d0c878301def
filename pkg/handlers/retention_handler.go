package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/services"
)

// RetentionHandler exposes the explicit snapshot retention cleanup.
type RetentionHandler struct {
	retention services.RetentionService
	logger    *zap.Logger
}

// NewRetentionHandler creates a new retention handler.
func NewRetentionHandler(retention services.RetentionService, logger *zap.Logger) *RetentionHandler {
	return &RetentionHandler{
		retention: retention,
		logger:    logger,
	}
}

// RegisterRoutes registers the retention handler's routes on the given mux.
func (h *RetentionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("DELETE /api/periods/{period}/ratio/snapshots/retention", h.Prune)
}

// Prune handles DELETE /api/periods/{period}/ratio/snapshots/retention?days=
// An absent days parameter selects the configured default horizon.
func (h *RetentionHandler) Prune(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	days, ok := ParseOptionalIntQuery(w, r, "days", h.logger)
	if !ok {
		return
	}

	deleted, err := h.retention.DeleteOlderThan(r.Context(), periodID, days)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"deleted": deleted,
	}); err != nil {
		h.logger.Error("Failed to encode retention response", zap.Error(err))
	}
}
