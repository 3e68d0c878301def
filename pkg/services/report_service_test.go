package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/models"
)

// mockReportRepo implements repositories.ReportRepository for testing.
type mockReportRepo struct {
	daily     *models.DailySummary
	summaries []*models.AgeGroupSummary
	trend     []*models.TrendPoint
	peaks     []*models.PeakHourStat

	err error
}

func (m *mockReportRepo) DailySummary(_ context.Context, _ uuid.UUID, date time.Time) (*models.DailySummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.daily == nil {
		return &models.DailySummary{Date: date}, nil
	}
	return m.daily, nil
}

func (m *mockReportRepo) AgeGroupSummaries(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.AgeGroupSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summaries, nil
}

func (m *mockReportRepo) ComplianceTrend(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.TrendPoint, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.trend, nil
}

func (m *mockReportRepo) PeakNonCompliance(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.PeakHourStat, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.peaks, nil
}

func newReportService(reports *mockReportRepo, snapshots *mockSnapshotRepo) ReportService {
	return NewReportService(reports, snapshots, testPolicy(), zap.NewNop())
}

func TestDailySummary_EmptyDayIsVacuouslyCompliant(t *testing.T) {
	svc := newReportService(&mockReportRepo{}, &mockSnapshotRepo{})

	summary, err := svc.DailySummary(context.Background(), uuid.New(), testDate)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalSnapshots)
	assert.True(t, decimal.RequireFromString("100").Equal(summary.ComplianceRate),
		"an empty day is vacuously compliant, not unknown")
}

func TestDailySummary_ComputesRate(t *testing.T) {
	svc := newReportService(&mockReportRepo{
		daily: &models.DailySummary{
			Date:                  testDate,
			TotalSnapshots:        8,
			CompliantSnapshots:    6,
			NonCompliantSnapshots: 2,
		},
	}, &mockSnapshotRepo{})

	summary, err := svc.DailySummary(context.Background(), uuid.New(), testDate)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("75").Equal(summary.ComplianceRate))
}

func TestAgeGroupSummaries_AnnotatesConfiguredRatio(t *testing.T) {
	svc := newReportService(&mockReportRepo{
		summaries: []*models.AgeGroupSummary{
			{AgeGroup: "Toddler", TotalSnapshots: 4, CompliantSnapshots: 3},
			{AgeGroup: "Retired Group", TotalSnapshots: 2, CompliantSnapshots: 2},
		},
	}, &mockSnapshotRepo{})

	summaries, err := svc.AgeGroupSummaries(context.Background(), uuid.New(), testDate, testDate.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, 8, summaries[0].RequiredRatio)
	assert.True(t, decimal.RequireFromString("75").Equal(summaries[0].ComplianceRate))

	// A group no longer in the policy keeps a zero ratio rather than a guess.
	assert.Equal(t, 0, summaries[1].RequiredRatio)
}

func TestReportQueries_RejectInvertedRange(t *testing.T) {
	svc := newReportService(&mockReportRepo{}, &mockSnapshotRepo{})
	periodID := uuid.New()
	from, to := testDate, testDate.AddDate(0, 0, -1)

	_, err := svc.AgeGroupSummaries(context.Background(), periodID, from, to)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameters)

	_, err = svc.ComplianceTrend(context.Background(), periodID, from, to)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameters)

	_, err = svc.PeakNonCompliance(context.Background(), periodID, from, to)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameters)

	_, err = svc.RoomHistory(context.Background(), periodID, "Rainbow Room", from, to)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameters)
}

func TestRoomHistory_RequiresRoom(t *testing.T) {
	svc := newReportService(&mockReportRepo{}, &mockSnapshotRepo{})

	_, err := svc.RoomHistory(context.Background(), uuid.New(), "", testDate, testDate)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameters)
}

func TestRoomHistory_FiltersByRoom(t *testing.T) {
	periodID := uuid.New()
	room := "Rainbow Room"
	other := "Sunshine Room"
	snapshots := &mockSnapshotRepo{}
	require.NoError(t, snapshots.Insert(context.Background(), &models.RatioSnapshot{
		PeriodID: periodID, SnapshotDate: testDate, TimeOfDay: "10:00",
		AgeGroup: "Infant", Room: &room, IsCompliant: true,
	}))
	require.NoError(t, snapshots.Insert(context.Background(), &models.RatioSnapshot{
		PeriodID: periodID, SnapshotDate: testDate, TimeOfDay: "10:00",
		AgeGroup: "Infant", Room: &other, IsCompliant: true,
	}))

	svc := newReportService(&mockReportRepo{}, snapshots)

	history, err := svc.RoomHistory(context.Background(), periodID, room, testDate, testDate)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, room, *history[0].Room)
}

func TestExportRangeReport_ProducesWorkbook(t *testing.T) {
	svc := newReportService(&mockReportRepo{
		trend: []*models.TrendPoint{
			{
				Date:                 testDate,
				TotalSnapshots:       4,
				CompliantSnapshots:   3,
				AvgCompliancePercent: decimal.RequireFromString("81.25"),
				ComplianceRate:       decimal.RequireFromString("75"),
			},
		},
		summaries: []*models.AgeGroupSummary{
			{AgeGroup: "Toddler", TotalSnapshots: 4, CompliantSnapshots: 3},
		},
	}, &mockSnapshotRepo{})

	data, err := svc.ExportRangeReport(context.Background(), uuid.New(), testDate, testDate.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Compliance Trend", "Age Groups"}, f.GetSheetList())

	date, err := f.GetCellValue("Compliance Trend", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", date)

	group, err := f.GetCellValue("Age Groups", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Toddler", group)

	ratio, err := f.GetCellValue("Age Groups", "B2")
	require.NoError(t, err)
	assert.Equal(t, "8", ratio, "export carries the configured ratio")
}
