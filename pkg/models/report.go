package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary aggregates all snapshots for one date. ComplianceRate is
// defined as 100 for an empty day: no recorded evidence of a breach is
// vacuously compliant, not unknown.
type DailySummary struct {
	Date                 time.Time       `json:"date"`
	TotalSnapshots       int             `json:"total_snapshots"`
	CompliantSnapshots   int             `json:"compliant_snapshots"`
	NonCompliantSnapshots int            `json:"non_compliant_snapshots"`
	AlertsSent           int             `json:"alerts_sent"`
	MinCompliancePercent decimal.Decimal `json:"min_compliance_percent"`
	AvgCompliancePercent decimal.Decimal `json:"avg_compliance_percent"`
	MaxCompliancePercent decimal.Decimal `json:"max_compliance_percent"`
	AvgStaffCount        decimal.Decimal `json:"avg_staff_count"`
	AvgChildCount        decimal.Decimal `json:"avg_child_count"`
	FirstSnapshotTime    string          `json:"first_snapshot_time,omitempty"`
	LastSnapshotTime     string          `json:"last_snapshot_time,omitempty"`
	ComplianceRate       decimal.Decimal `json:"compliance_rate"`
}

// AgeGroupSummary is the per-age-group rollup over a date range, annotated
// with the currently configured required ratio for context.
type AgeGroupSummary struct {
	AgeGroup             string          `json:"age_group"`
	RequiredRatio        int             `json:"required_ratio"`
	TotalSnapshots       int             `json:"total_snapshots"`
	CompliantSnapshots   int             `json:"compliant_snapshots"`
	NonCompliantSnapshots int            `json:"non_compliant_snapshots"`
	AlertsSent           int             `json:"alerts_sent"`
	MinCompliancePercent decimal.Decimal `json:"min_compliance_percent"`
	AvgCompliancePercent decimal.Decimal `json:"avg_compliance_percent"`
	MaxCompliancePercent decimal.Decimal `json:"max_compliance_percent"`
	AvgStaffCount        decimal.Decimal `json:"avg_staff_count"`
	AvgChildCount        decimal.Decimal `json:"avg_child_count"`
	ComplianceRate       decimal.Decimal `json:"compliance_rate"`
}

// TrendPoint is one date of the compliance trend series. Only dates with at
// least one snapshot appear in the series.
type TrendPoint struct {
	Date                 time.Time       `json:"date"`
	TotalSnapshots       int             `json:"total_snapshots"`
	CompliantSnapshots   int             `json:"compliant_snapshots"`
	AvgCompliancePercent decimal.Decimal `json:"avg_compliance_percent"`
	ComplianceRate       decimal.Decimal `json:"compliance_rate"`
}

// PeakHourStat ranks one hour of the day by its non-compliance rate across a
// date range, surfacing recurring short-staffed windows.
type PeakHourStat struct {
	HourOfDay             int             `json:"hour_of_day"`
	TotalSnapshots        int             `json:"total_snapshots"`
	NonCompliantSnapshots int             `json:"non_compliant_snapshots"`
	NonComplianceRate     decimal.Decimal `json:"non_compliance_rate"`
}
