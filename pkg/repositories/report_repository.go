package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/ratio-engine/pkg/database"
	"github.com/carelane/ratio-engine/pkg/models"
)

// ReportRepository runs the aggregate projections behind the reporting
// surface. Every query tolerates an empty snapshot range and returns neutral
// zero-valued aggregates; reports must render even with sparse history.
type ReportRepository interface {
	DailySummary(ctx context.Context, periodID uuid.UUID, date time.Time) (*models.DailySummary, error)
	AgeGroupSummaries(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.AgeGroupSummary, error)
	ComplianceTrend(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.TrendPoint, error)
	PeakNonCompliance(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.PeakHourStat, error)
}

type reportRepository struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) ReportRepository {
	return &reportRepository{db: db}
}

var _ ReportRepository = (*reportRepository)(nil)

func (r *reportRepository) DailySummary(ctx context.Context, periodID uuid.UUID, date time.Time) (*models.DailySummary, error) {
	summary := &models.DailySummary{Date: date}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_compliant),
		       COUNT(*) FILTER (WHERE NOT is_compliant),
		       COUNT(*) FILTER (WHERE alert_sent),
		       COALESCE(MIN(compliance_percent), 0),
		       COALESCE(ROUND(AVG(compliance_percent), 2), 0),
		       COALESCE(MAX(compliance_percent), 0),
		       COALESCE(ROUND(AVG(staff_count), 2), 0),
		       COALESCE(ROUND(AVG(child_count), 2), 0),
		       COALESCE(MIN(time_of_day), ''),
		       COALESCE(MAX(time_of_day), '')
		FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date = $2`,
		periodID, date,
	).Scan(
		&summary.TotalSnapshots, &summary.CompliantSnapshots,
		&summary.NonCompliantSnapshots, &summary.AlertsSent,
		&summary.MinCompliancePercent, &summary.AvgCompliancePercent,
		&summary.MaxCompliancePercent, &summary.AvgStaffCount,
		&summary.AvgChildCount, &summary.FirstSnapshotTime,
		&summary.LastSnapshotTime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summary: %w", err)
	}
	return summary, nil
}

func (r *reportRepository) AgeGroupSummaries(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.AgeGroupSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT age_group,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE is_compliant),
		       COUNT(*) FILTER (WHERE NOT is_compliant),
		       COUNT(*) FILTER (WHERE alert_sent),
		       COALESCE(MIN(compliance_percent), 0),
		       COALESCE(ROUND(AVG(compliance_percent), 2), 0),
		       COALESCE(MAX(compliance_percent), 0),
		       COALESCE(ROUND(AVG(staff_count), 2), 0),
		       COALESCE(ROUND(AVG(child_count), 2), 0)
		FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		GROUP BY age_group
		ORDER BY age_group`,
		periodID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query age group summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.AgeGroupSummary
	for rows.Next() {
		var s models.AgeGroupSummary
		if err := rows.Scan(
			&s.AgeGroup, &s.TotalSnapshots, &s.CompliantSnapshots,
			&s.NonCompliantSnapshots, &s.AlertsSent,
			&s.MinCompliancePercent, &s.AvgCompliancePercent,
			&s.MaxCompliancePercent, &s.AvgStaffCount, &s.AvgChildCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan age group summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read age group summaries: %w", err)
	}
	return summaries, nil
}

func (r *reportRepository) ComplianceTrend(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.TrendPoint, error) {
	rows, err := r.db.Query(ctx, `
		SELECT snapshot_date,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE is_compliant),
		       COALESCE(ROUND(AVG(compliance_percent), 2), 0),
		       ROUND(COUNT(*) FILTER (WHERE is_compliant)::numeric / COUNT(*) * 100, 2)
		FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		GROUP BY snapshot_date
		ORDER BY snapshot_date`,
		periodID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance trend: %w", err)
	}
	defer rows.Close()

	var points []*models.TrendPoint
	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(
			&p.Date, &p.TotalSnapshots, &p.CompliantSnapshots,
			&p.AvgCompliancePercent, &p.ComplianceRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read compliance trend: %w", err)
	}
	return points, nil
}

func (r *reportRepository) PeakNonCompliance(ctx context.Context, periodID uuid.UUID, from, to time.Time) ([]*models.PeakHourStat, error) {
	// time_of_day is zero-padded "HH:MM", so the hour is the first two
	// characters. Ranked worst hour first.
	rows, err := r.db.Query(ctx, `
		SELECT CAST(SUBSTRING(time_of_day FROM 1 FOR 2) AS INTEGER) AS hour_of_day,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE NOT is_compliant) AS non_compliant,
		       ROUND(COUNT(*) FILTER (WHERE NOT is_compliant)::numeric / COUNT(*) * 100, 2) AS non_compliance_rate
		FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		GROUP BY hour_of_day
		ORDER BY non_compliance_rate DESC, hour_of_day`,
		periodID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query peak non-compliance: %w", err)
	}
	defer rows.Close()

	var stats []*models.PeakHourStat
	for rows.Next() {
		var s models.PeakHourStat
		if err := rows.Scan(
			&s.HourOfDay, &s.TotalSnapshots, &s.NonCompliantSnapshots,
			&s.NonComplianceRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan peak hour stat: %w", err)
		}
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read peak non-compliance: %w", err)
	}
	return stats, nil
}
