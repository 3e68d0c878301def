package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/models"
	"github.com/carelane/ratio-engine/pkg/repositories"
)

// AlertGateService selects the snapshots a notification dispatcher should act
// on. It performs no delivery; the dispatcher delivers and then calls back
// into ComplianceService.MarkAlertSent.
type AlertGateService interface {
	// SnapshotsNeedingAlert returns non-compliant snapshots for the date that
	// have not yet been flagged for notification, most recent first.
	SnapshotsNeedingAlert(ctx context.Context, periodID uuid.UUID, date time.Time) ([]*models.RatioSnapshot, error)

	// SnapshotsAtWarningLevel returns compliant snapshots whose compliance
	// percent is at or above the threshold - approaching the ceiling, a
	// proactive signal distinct from an outright breach. A zero threshold
	// selects the configured default.
	SnapshotsAtWarningLevel(ctx context.Context, periodID uuid.UUID, date time.Time, thresholdPercent int) ([]*models.RatioSnapshot, error)
}

type alertGateService struct {
	snapshots        repositories.SnapshotRepository
	defaultThreshold int
	logger           *zap.Logger
}

func NewAlertGateService(snapshots repositories.SnapshotRepository, defaultThreshold int, logger *zap.Logger) AlertGateService {
	return &alertGateService{
		snapshots:        snapshots,
		defaultThreshold: defaultThreshold,
		logger:           logger.Named("alert-gate"),
	}
}

var _ AlertGateService = (*alertGateService)(nil)

func (s *alertGateService) SnapshotsNeedingAlert(ctx context.Context, periodID uuid.UUID, date time.Time) ([]*models.RatioSnapshot, error) {
	snapshots, err := s.snapshots.ListNeedingAlert(ctx, periodID, date)
	if err != nil {
		return nil, err
	}
	if len(snapshots) > 0 {
		s.logger.Info("Snapshots pending alert",
			zap.String("period_id", periodID.String()),
			zap.Int("count", len(snapshots)))
	}
	return snapshots, nil
}

func (s *alertGateService) SnapshotsAtWarningLevel(ctx context.Context, periodID uuid.UUID, date time.Time, thresholdPercent int) ([]*models.RatioSnapshot, error) {
	if thresholdPercent == 0 {
		thresholdPercent = s.defaultThreshold
	}
	if thresholdPercent < 0 || thresholdPercent > 100 {
		return nil, fmt.Errorf("%w: warning threshold must be in (0, 100], got %d",
			apperrors.ErrInvalidParameters, thresholdPercent)
	}

	return s.snapshots.ListAtWarningLevel(ctx, periodID, date, decimal.NewFromInt(int64(thresholdPercent)))
}
