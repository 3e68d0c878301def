package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnboundedRatioSentinel is the numeric stored for a mathematically undefined
// ratio (children present with zero staff). It exists only at the storage
// boundary; the calculator exposes the condition as RatioUnbounded, never as
// this number.
var UnboundedRatioSentinel = decimal.RequireFromString("999.99")

// PresenceCount is an ephemeral, freshly computed headcount pair. It is never
// cached or persisted.
type PresenceCount struct {
	StaffCount int
	ChildCount int
}

// RatioEvaluation is the full compliance verdict for one age group at one
// instant. It is derived deterministically from a presence count and a policy
// entry and is never persisted directly; it is the input used to construct a
// RatioSnapshot.
type RatioEvaluation struct {
	AgeGroup           string          `json:"age_group"`
	Room               *string         `json:"room,omitempty"`
	StaffCount         int             `json:"staff_count"`
	ChildCount         int             `json:"child_count"`
	RequiredRatio      int             `json:"required_ratio"`
	ActualRatio        decimal.Decimal `json:"actual_ratio"`
	RatioUnbounded     bool            `json:"ratio_unbounded"`
	IsCompliant        bool            `json:"is_compliant"`
	CompliancePercent  decimal.Decimal `json:"compliance_percent"`
	StaffNeeded        int             `json:"staff_needed"`
	AdditionalCapacity int             `json:"additional_capacity"`
	CalculatedAt       time.Time       `json:"calculated_at"`
}

// RatioSnapshot is the durable, point-in-time compliance record. Rows are
// write-once; the only permitted mutation is the alert_sent false→true
// transition. A nil Room means the snapshot aggregates across all rooms for
// the age group.
type RatioSnapshot struct {
	ID                uuid.UUID       `json:"id"`
	PeriodID          uuid.UUID       `json:"period_id"`
	SnapshotDate      time.Time       `json:"snapshot_date"`
	TimeOfDay         string          `json:"time_of_day"` // "HH:MM", minute granularity
	AgeGroup          string          `json:"age_group"`
	Room              *string         `json:"room,omitempty"`
	StaffCount        int             `json:"staff_count"`
	ChildCount        int             `json:"child_count"`
	RequiredRatio     int             `json:"required_ratio"`
	ActualRatio       decimal.Decimal `json:"actual_ratio"`
	RatioUnbounded    bool            `json:"ratio_unbounded"`
	IsCompliant       bool            `json:"is_compliant"`
	CompliancePercent decimal.Decimal `json:"compliance_percent"`
	AlertSent         bool            `json:"alert_sent"`
	AlertSentAt       *time.Time      `json:"alert_sent_at,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	Automatic         bool            `json:"automatic"`
	RecordedBy        *uuid.UUID      `json:"recorded_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SnapshotFilters narrows snapshot list queries. Nil fields are not applied.
type SnapshotFilters struct {
	AgeGroup    string
	Room        *string
	IsCompliant *bool
	AlertSent   *bool
}

// RecordRequest carries everything needed to record one snapshot.
type RecordRequest struct {
	PeriodID   uuid.UUID
	AgeGroup   string
	Date       time.Time
	TimeOfDay  string
	Room       *string
	RecordedBy *uuid.UUID
	Automatic  bool
	Notes      *string
}

// Recording outcome statuses for bulk operations.
const (
	RecordStatusRecorded  = "recorded"
	RecordStatusDuplicate = "duplicate"
	RecordStatusFailed    = "failed"
)

// RecordOutcome is one entry of a bulk recording result. Bulk operations
// never collapse partial failure into a single pass/fail; each age group or
// room reports its own status.
type RecordOutcome struct {
	AgeGroup string         `json:"age_group"`
	Room     *string        `json:"room,omitempty"`
	Status   string         `json:"status"`
	Snapshot *RatioSnapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// RoomAssignment is a distinct (room, age group) pair from the duty schedule,
// used to drive per-room recording.
type RoomAssignment struct {
	Room     string `json:"room"`
	AgeGroup string `json:"age_group"`
}
