package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/repositories"
)

// RetentionService removes snapshots older than a configured horizon. It is
// an explicit, separately invoked maintenance operation; nothing in the
// engine schedules it.
type RetentionService interface {
	// DeleteOlderThan removes snapshots older than the given number of days
	// and returns how many were deleted. Zero days selects the configured
	// default.
	DeleteOlderThan(ctx context.Context, periodID uuid.UUID, days int) (int64, error)
}

type retentionService struct {
	snapshots   repositories.SnapshotRepository
	defaultDays int
	logger      *zap.Logger
}

func NewRetentionService(snapshots repositories.SnapshotRepository, defaultDays int, logger *zap.Logger) RetentionService {
	return &retentionService{
		snapshots:   snapshots,
		defaultDays: defaultDays,
		logger:      logger.Named("retention-service"),
	}
}

var _ RetentionService = (*retentionService)(nil)

func (s *retentionService) DeleteOlderThan(ctx context.Context, periodID uuid.UUID, days int) (int64, error) {
	if days == 0 {
		days = s.defaultDays
	}
	if days < 0 {
		return 0, fmt.Errorf("%w: retention days must be positive, got %d", apperrors.ErrInvalidParameters, days)
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := s.snapshots.DeleteOlderThan(ctx, periodID, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("Retention cleanup completed",
			zap.String("period_id", periodID.String()),
			zap.Int("retention_days", days),
			zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
