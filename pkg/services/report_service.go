package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/models"
	"github.com/carelane/ratio-engine/pkg/repositories"
)

// ReportService is the read-side aggregation surface for dashboards and
// exports. All methods are deterministic given the snapshot set and return
// neutral aggregates for empty ranges.
type ReportService interface {
	DailySummary(ctx context.Context, periodID uuid.UUID, date time.Time) (*models.DailySummary, error)
	AgeGroupSummaries(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.AgeGroupSummary, error)
	ComplianceTrend(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.TrendPoint, error)
	PeakNonCompliance(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.PeakHourStat, error)
	RoomHistory(ctx context.Context, periodID uuid.UUID, room string, from, to time.Time) ([]*models.RatioSnapshot, error)
	ExportRangeReport(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]byte, error)
}

type reportService struct {
	reports   repositories.ReportRepository
	snapshots repositories.SnapshotRepository
	policy    *models.RatioPolicy
	logger    *zap.Logger
}

func NewReportService(
	reports repositories.ReportRepository,
	snapshots repositories.SnapshotRepository,
	policy *models.RatioPolicy,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		reports:   reports,
		snapshots: snapshots,
		policy:    policy,
		logger:    logger.Named("report-service"),
	}
}

var _ ReportService = (*reportService)(nil)

func (s *reportService) DailySummary(ctx context.Context, periodID uuid.UUID, date time.Time) (*models.DailySummary, error) {
	summary, err := s.reports.DailySummary(ctx, periodID, date)
	if err != nil {
		return nil, err
	}
	summary.ComplianceRate = complianceRate(summary.CompliantSnapshots, summary.TotalSnapshots)
	return summary, nil
}

func (s *reportService) AgeGroupSummaries(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.AgeGroupSummary, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	summaries, err := s.reports.AgeGroupSummaries(ctx, periodID, from, to)
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		summary.ComplianceRate = complianceRate(summary.CompliantSnapshots, summary.TotalSnapshots)
		// Annotate with the currently configured ratio for context; a group
		// that has since left the policy keeps zero.
		if entry, ok := s.policy.Lookup(summary.AgeGroup); ok {
			summary.RequiredRatio = entry.MaxChildrenPerStaff
		}
	}
	return summaries, nil
}

func (s *reportService) ComplianceTrend(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.TrendPoint, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.reports.ComplianceTrend(ctx, periodID, from, to)
}

func (s *reportService) PeakNonCompliance(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.PeakHourStat, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.reports.PeakNonCompliance(ctx, periodID, from, to)
}

func (s *reportService) RoomHistory(ctx context.Context, periodID uuid.UUID, room string, from, to time.Time) ([]*models.RatioSnapshot, error) {
	if room == "" {
		return nil, fmt.Errorf("%w: room is required", apperrors.ErrInvalidParameters)
	}
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.snapshots.ListByDateRange(ctx, periodID, from, to, models.SnapshotFilters{Room: &room})
}

// ExportRangeReport renders the trend series and the age-group rollup as an
// XLSX workbook for the export consumers of the reporting surface.
func (s *reportService) ExportRangeReport(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]byte, error) {
	trend, err := s.ComplianceTrend(ctx, periodID, from, to)
	if err != nil {
		return nil, err
	}
	summaries, err := s.AgeGroupSummaries(ctx, periodID, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	const trendSheet = "Compliance Trend"
	if err := f.SetSheetName("Sheet1", trendSheet); err != nil {
		return nil, fmt.Errorf("failed to name trend sheet: %w", err)
	}

	trendHeaders := []string{"Date", "Snapshots", "Compliant", "Avg Compliance %", "Compliance Rate %"}
	for i, h := range trendHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(trendSheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write trend header: %w", err)
		}
	}
	for row, p := range trend {
		values := []any{
			p.Date.Format("2006-01-02"),
			p.TotalSnapshots,
			p.CompliantSnapshots,
			p.AvgCompliancePercent.InexactFloat64(),
			p.ComplianceRate.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(trendSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write trend row: %w", err)
			}
		}
	}

	const groupSheet = "Age Groups"
	if _, err := f.NewSheet(groupSheet); err != nil {
		return nil, fmt.Errorf("failed to create age group sheet: %w", err)
	}

	groupHeaders := []string{"Age Group", "Required Ratio", "Snapshots", "Compliant",
		"Non-Compliant", "Alerts Sent", "Min %", "Avg %", "Max %", "Compliance Rate %"}
	for i, h := range groupHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(groupSheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write age group header: %w", err)
		}
	}
	for row, g := range summaries {
		values := []any{
			g.AgeGroup,
			g.RequiredRatio,
			g.TotalSnapshots,
			g.CompliantSnapshots,
			g.NonCompliantSnapshots,
			g.AlertsSent,
			g.MinCompliancePercent.InexactFloat64(),
			g.AvgCompliancePercent.InexactFloat64(),
			g.MaxCompliancePercent.InexactFloat64(),
			g.ComplianceRate.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(groupSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write age group row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// complianceRate is compliant/total as a percentage, with an empty set
// defined as 100: an empty day holds no evidence of a breach and is
// vacuously compliant, not unknown.
func complianceRate(compliant, total int) decimal.Decimal {
	if total == 0 {
		return oneHundred
	}
	return decimal.NewFromInt(int64(compliant)).
		Mul(oneHundred).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}

func validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: date range is required", apperrors.ErrInvalidParameters)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: range end precedes range start", apperrors.ErrInvalidParameters)
	}
	return nil
}
