package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/services"
)

// ReportHandler exposes the reporting aggregations for dashboards and exports.
type ReportHandler struct {
	reports services.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// RegisterRoutes registers the report handler's routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/periods/{period}/ratio/reports"

	mux.HandleFunc("GET "+base+"/daily", h.Daily)
	mux.HandleFunc("GET "+base+"/age-groups", h.AgeGroups)
	mux.HandleFunc("GET "+base+"/trend", h.Trend)
	mux.HandleFunc("GET "+base+"/peak-hours", h.PeakHours)
	mux.HandleFunc("GET "+base+"/rooms/{room}", h.RoomHistory)
	mux.HandleFunc("GET "+base+"/export", h.Export)
}

// Daily handles GET /api/periods/{period}/ratio/reports/daily?date=
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	date, ok := ParseDateQuery(w, r, "date", h.logger)
	if !ok {
		return
	}

	summary, err := h.reports.DailySummary(r.Context(), periodID, date)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to encode daily summary response", zap.Error(err))
	}
}

// AgeGroups handles GET /api/periods/{period}/ratio/reports/age-groups?from=&to=
func (h *ReportHandler) AgeGroups(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	from, to, ok := ParseRangeQuery(w, r, h.logger)
	if !ok {
		return
	}

	summaries, err := h.reports.AgeGroupSummaries(r.Context(), periodID, from, to)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"age_groups": summaries,
		"count":      len(summaries),
	}); err != nil {
		h.logger.Error("Failed to encode age group summaries response", zap.Error(err))
	}
}

// Trend handles GET /api/periods/{period}/ratio/reports/trend?from=&to=
func (h *ReportHandler) Trend(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	from, to, ok := ParseRangeQuery(w, r, h.logger)
	if !ok {
		return
	}

	points, err := h.reports.ComplianceTrend(r.Context(), periodID, from, to)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"trend": points,
		"count": len(points),
	}); err != nil {
		h.logger.Error("Failed to encode trend response", zap.Error(err))
	}
}

// PeakHours handles GET /api/periods/{period}/ratio/reports/peak-hours?from=&to=
func (h *ReportHandler) PeakHours(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	from, to, ok := ParseRangeQuery(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.reports.PeakNonCompliance(r.Context(), periodID, from, to)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"hours": stats,
		"count": len(stats),
	}); err != nil {
		h.logger.Error("Failed to encode peak hours response", zap.Error(err))
	}
}

// RoomHistory handles GET /api/periods/{period}/ratio/reports/rooms/{room}?from=&to=
func (h *ReportHandler) RoomHistory(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	from, to, ok := ParseRangeQuery(w, r, h.logger)
	if !ok {
		return
	}
	room := r.PathValue("room")

	snapshots, err := h.reports.RoomHistory(r.Context(), periodID, room, from, to)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"room":      room,
		"snapshots": snapshots,
		"count":     len(snapshots),
	}); err != nil {
		h.logger.Error("Failed to encode room history response", zap.Error(err))
	}
}

// Export handles GET /api/periods/{period}/ratio/reports/export?from=&to=
// Streams the range report as an XLSX attachment.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	from, to, ok := ParseRangeQuery(w, r, h.logger)
	if !ok {
		return
	}

	data, err := h.reports.ExportRangeReport(r.Context(), periodID, from, to)
	if err != nil {
		ServiceErrorResponse(w, err, h.logger)
		return
	}

	filename := fmt.Sprintf("ratio-compliance-%s-to-%s.xlsx",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write export response", zap.Error(err))
	}
}
