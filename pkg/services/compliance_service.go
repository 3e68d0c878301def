package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/models"
	"github.com/carelane/ratio-engine/pkg/repositories"
)

// ComplianceService owns the recording flow: presence counts in, calculator
// verdict, durable snapshot out. Recording is idempotent per snapshot key;
// the storage-level unique index is the sole duplicate guard, so two triggers
// racing on the same key serialize there and the loser sees
// ErrDuplicateSnapshot.
type ComplianceService interface {
	Record(ctx context.Context, req models.RecordRequest) (*models.RatioSnapshot, error)
	RecordAll(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay string, recordedBy *uuid.UUID, automatic bool) ([]models.RecordOutcome, error)
	RecordByRoom(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay string, recordedBy *uuid.UUID, automatic bool) ([]models.RecordOutcome, error)
	ListByDate(ctx context.Context, periodID uuid.UUID, date time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error)
	ListByDateRange(ctx context.Context, periodID uuid.UUID, from, to time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error)
	LatestPerAgeGroup(ctx context.Context, periodID uuid.UUID) ([]*models.RatioSnapshot, error)
	MarkAlertSent(ctx context.Context, periodID, snapshotID uuid.UUID) error
}

type complianceService struct {
	presence   repositories.PresenceRepository
	snapshots  repositories.SnapshotRepository
	calculator *RatioCalculator
	policy     *models.RatioPolicy
	logger     *zap.Logger
}

func NewComplianceService(
	presence repositories.PresenceRepository,
	snapshots repositories.SnapshotRepository,
	calculator *RatioCalculator,
	policy *models.RatioPolicy,
	logger *zap.Logger,
) ComplianceService {
	return &complianceService{
		presence:   presence,
		snapshots:  snapshots,
		calculator: calculator,
		policy:     policy,
		logger:     logger.Named("compliance-service"),
	}
}

var _ ComplianceService = (*complianceService)(nil)

func (s *complianceService) Record(ctx context.Context, req models.RecordRequest) (*models.RatioSnapshot, error) {
	timeOfDay, err := NormalizeTimeOfDay(req.TimeOfDay)
	if err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: snapshot date is required", apperrors.ErrInvalidParameters)
	}
	if req.Room != nil && *req.Room == "" {
		return nil, fmt.Errorf("%w: room must not be empty when given", apperrors.ErrInvalidParameters)
	}

	entry, ok := s.policy.Lookup(req.AgeGroup)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownAgeGroup, req.AgeGroup)
	}

	staffCount, err := s.presence.CountStaffOnDuty(ctx, req.PeriodID, req.Date, timeOfDay, req.AgeGroup, req.Room)
	if err != nil {
		return nil, err
	}

	// Children are not room-attributed in the platform schema, so a room
	// snapshot reuses the age-group-wide child count. See
	// repositories.RoomChildCountingSupported.
	childCount, err := s.presence.CountChildrenPresent(ctx, req.PeriodID, req.Date, entry.MinAgeMonths, entry.MaxAgeMonths)
	if err != nil {
		return nil, err
	}

	eval, err := s.calculator.Evaluate(req.AgeGroup, staffCount, childCount)
	if err != nil {
		return nil, err
	}

	snapshot := &models.RatioSnapshot{
		PeriodID:          req.PeriodID,
		SnapshotDate:      req.Date,
		TimeOfDay:         timeOfDay,
		AgeGroup:          req.AgeGroup,
		Room:              req.Room,
		StaffCount:        eval.StaffCount,
		ChildCount:        eval.ChildCount,
		RequiredRatio:     eval.RequiredRatio,
		ActualRatio:       eval.ActualRatio,
		RatioUnbounded:    eval.RatioUnbounded,
		IsCompliant:       eval.IsCompliant,
		CompliancePercent: eval.CompliancePercent,
		Notes:             req.Notes,
		Automatic:         req.Automatic,
		RecordedBy:        req.RecordedBy,
	}
	if eval.RatioUnbounded {
		// The sentinel exists only at the storage boundary.
		snapshot.ActualRatio = models.UnboundedRatioSentinel
	}

	if err := s.snapshots.Insert(ctx, snapshot); err != nil {
		return nil, err
	}

	s.logger.Info("Recorded ratio snapshot",
		zap.String("period_id", req.PeriodID.String()),
		zap.String("age_group", req.AgeGroup),
		zap.Stringp("room", req.Room),
		zap.String("time_of_day", timeOfDay),
		zap.Int("staff_count", staffCount),
		zap.Int("child_count", childCount),
		zap.Bool("is_compliant", snapshot.IsCompliant))

	return snapshot, nil
}

// RecordAll records one all-rooms snapshot per configured age group, in
// policy order. Failures are isolated per age group: each outcome reports
// recorded, duplicate, or failed, and one bad group never aborts the rest.
func (s *complianceService) RecordAll(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay string, recordedBy *uuid.UUID, automatic bool) ([]models.RecordOutcome, error) {
	normalized, err := NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}

	outcomes := make([]models.RecordOutcome, 0, len(s.policy.AgeGroups))
	for _, group := range s.policy.AgeGroups {
		outcome := s.recordOne(ctx, models.RecordRequest{
			PeriodID:   periodID,
			AgeGroup:   group.Name,
			Date:       date,
			TimeOfDay:  normalized,
			RecordedBy: recordedBy,
			Automatic:  automatic,
		})
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// RecordByRoom discovers the (room, age group) pairs currently on the duty
// schedule and records one snapshot per pair, with the same per-entry
// isolation as RecordAll.
func (s *complianceService) RecordByRoom(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay string, recordedBy *uuid.UUID, automatic bool) ([]models.RecordOutcome, error) {
	normalized, err := NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}

	assignments, err := s.presence.ScheduledRoomAssignments(ctx, periodID, date, normalized)
	if err != nil {
		return nil, err
	}

	outcomes := make([]models.RecordOutcome, 0, len(assignments))
	for _, a := range assignments {
		room := a.Room
		outcome := s.recordOne(ctx, models.RecordRequest{
			PeriodID:   periodID,
			AgeGroup:   a.AgeGroup,
			Date:       date,
			TimeOfDay:  normalized,
			Room:       &room,
			RecordedBy: recordedBy,
			Automatic:  automatic,
		})
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *complianceService) recordOne(ctx context.Context, req models.RecordRequest) models.RecordOutcome {
	outcome := models.RecordOutcome{AgeGroup: req.AgeGroup, Room: req.Room}

	snapshot, err := s.Record(ctx, req)
	switch {
	case err == nil:
		outcome.Status = models.RecordStatusRecorded
		outcome.Snapshot = snapshot
	case errors.Is(err, apperrors.ErrDuplicateSnapshot):
		// Benign for scheduled jobs: the snapshot for this key already exists.
		outcome.Status = models.RecordStatusDuplicate
		outcome.Error = err.Error()
	default:
		outcome.Status = models.RecordStatusFailed
		outcome.Error = err.Error()
		s.logger.Warn("Failed to record snapshot in bulk operation",
			zap.String("age_group", req.AgeGroup),
			zap.Stringp("room", req.Room),
			zap.Error(err))
	}
	return outcome
}

func (s *complianceService) ListByDate(ctx context.Context, periodID uuid.UUID, date time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error) {
	return s.snapshots.ListByDate(ctx, periodID, date, filters)
}

func (s *complianceService) ListByDateRange(ctx context.Context, periodID uuid.UUID, from, to time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end precedes range start", apperrors.ErrInvalidParameters)
	}
	return s.snapshots.ListByDateRange(ctx, periodID, from, to, filters)
}

func (s *complianceService) LatestPerAgeGroup(ctx context.Context, periodID uuid.UUID) ([]*models.RatioSnapshot, error) {
	return s.snapshots.LatestPerAgeGroup(ctx, periodID)
}

func (s *complianceService) MarkAlertSent(ctx context.Context, periodID, snapshotID uuid.UUID) error {
	if err := s.snapshots.MarkAlertSent(ctx, periodID, snapshotID); err != nil {
		return err
	}
	s.logger.Info("Marked snapshot alert sent",
		zap.String("period_id", periodID.String()),
		zap.String("snapshot_id", snapshotID.String()))
	return nil
}

// NormalizeTimeOfDay validates a snapshot time and truncates it to minute
// granularity ("HH:MM").
// Zero-padding is required so the stored keys sort lexicographically.
func NormalizeTimeOfDay(value string) (string, error) {
	if len(value) == len("15:04:05") {
		if _, err := time.Parse("15:04:05", value); err == nil {
			return value[:5], nil
		}
	}
	if len(value) == len("15:04") {
		if _, err := time.Parse("15:04", value); err == nil {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: time of day %q is not HH:MM", apperrors.ErrInvalidParameters, value)
}
