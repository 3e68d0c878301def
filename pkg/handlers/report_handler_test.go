package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/models"
)

// mockReportService implements services.ReportService for testing.
type mockReportService struct {
	daily     *models.DailySummary
	groups    []*models.AgeGroupSummary
	trend     []*models.TrendPoint
	peaks     []*models.PeakHourStat
	snapshots []*models.RatioSnapshot
	export    []byte
	err       error

	lastRoom string
}

func (m *mockReportService) DailySummary(_ context.Context, _ uuid.UUID, _ time.Time) (*models.DailySummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.daily, nil
}

func (m *mockReportService) AgeGroupSummaries(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.AgeGroupSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.groups, nil
}

func (m *mockReportService) ComplianceTrend(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.TrendPoint, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.trend, nil
}

func (m *mockReportService) PeakNonCompliance(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.PeakHourStat, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.peaks, nil
}

func (m *mockReportService) RoomHistory(_ context.Context, _ uuid.UUID, room string, _, _ time.Time) ([]*models.RatioSnapshot, error) {
	m.lastRoom = room
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshots, nil
}

func (m *mockReportService) ExportRangeReport(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.export, nil
}

func newReportMux(svc *mockReportService) *http.ServeMux {
	mux := http.NewServeMux()
	NewReportHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestReportHandler_Daily(t *testing.T) {
	svc := &mockReportService{
		daily: &models.DailySummary{
			TotalSnapshots:     4,
			CompliantSnapshots: 3,
			ComplianceRate:     decimal.NewFromInt(75),
		},
	}
	mux := newReportMux(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/periods/"+uuid.New().String()+"/ratio/reports/daily?date=2025-03-01", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary models.DailySummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 4, summary.TotalSnapshots)
	assert.True(t, decimal.NewFromInt(75).Equal(summary.ComplianceRate))
}

func TestReportHandler_AgeGroups_RangeRequired(t *testing.T) {
	mux := newReportMux(&mockReportService{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/periods/"+uuid.New().String()+"/ratio/reports/age-groups?from=2025-03-01", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing to parameter")
}

func TestReportHandler_Trend(t *testing.T) {
	svc := &mockReportService{
		trend: []*models.TrendPoint{
			{TotalSnapshots: 2, ComplianceRate: decimal.NewFromInt(50)},
		},
	}
	mux := newReportMux(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/periods/"+uuid.New().String()+"/ratio/reports/trend?from=2025-03-01&to=2025-03-07", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		Trend []*models.TrendPoint `json:"trend"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
}

func TestReportHandler_RoomHistory(t *testing.T) {
	svc := &mockReportService{
		snapshots: []*models.RatioSnapshot{{ID: uuid.New(), AgeGroup: "Toddler"}},
	}
	mux := newReportMux(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/periods/"+uuid.New().String()+"/ratio/reports/rooms/Rainbow%20Room?from=2025-03-01&to=2025-03-07", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Rainbow Room", svc.lastRoom)
}

func TestReportHandler_Export(t *testing.T) {
	svc := &mockReportService{export: []byte("workbook-bytes")}
	mux := newReportMux(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/periods/"+uuid.New().String()+"/ratio/reports/export?from=2025-03-01&to=2025-03-07", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"),
		"ratio-compliance-2025-03-01-to-2025-03-07.xlsx")
	assert.Equal(t, "workbook-bytes", rec.Body.String())
}

func TestReportHandler_Export_RangeError(t *testing.T) {
	svc := &mockReportService{err: apperrors.ErrInvalidParameters}
	mux := newReportMux(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/periods/"+uuid.New().String()+"/ratio/reports/export?from=2025-03-07&to=2025-03-01", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
