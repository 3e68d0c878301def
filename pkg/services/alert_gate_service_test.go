package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/models"
)

func seedAlertSnapshots(t *testing.T, repo *mockSnapshotRepo, periodID uuid.UUID) (breached, nearLimit, comfortable *models.RatioSnapshot) {
	t.Helper()

	breached = &models.RatioSnapshot{
		PeriodID: periodID, SnapshotDate: testDate, TimeOfDay: "10:00",
		AgeGroup: "Toddler", IsCompliant: false,
		CompliancePercent: decimal.RequireFromString("150"),
	}
	nearLimit = &models.RatioSnapshot{
		PeriodID: periodID, SnapshotDate: testDate, TimeOfDay: "10:00",
		AgeGroup: "Infant", IsCompliant: true,
		CompliancePercent: decimal.RequireFromString("93.75"),
	}
	comfortable = &models.RatioSnapshot{
		PeriodID: periodID, SnapshotDate: testDate, TimeOfDay: "10:00",
		AgeGroup: "Preschool", IsCompliant: true,
		CompliancePercent: decimal.RequireFromString("40"),
	}
	for _, s := range []*models.RatioSnapshot{breached, nearLimit, comfortable} {
		require.NoError(t, repo.Insert(context.Background(), s))
	}
	return breached, nearLimit, comfortable
}

func TestSnapshotsNeedingAlert_ExcludesAfterMark(t *testing.T) {
	periodID := uuid.New()
	repo := &mockSnapshotRepo{}
	breached, _, _ := seedAlertSnapshots(t, repo, periodID)

	gate := NewAlertGateService(repo, 90, zap.NewNop())

	pending, err := gate.SnapshotsNeedingAlert(context.Background(), periodID, testDate)
	require.NoError(t, err)
	require.Len(t, pending, 1, "only non-compliant, not-yet-alerted rows")
	assert.Equal(t, breached.ID, pending[0].ID)

	require.NoError(t, repo.MarkAlertSent(context.Background(), periodID, breached.ID))

	pending, err = gate.SnapshotsNeedingAlert(context.Background(), periodID, testDate)
	require.NoError(t, err)
	assert.Empty(t, pending, "marked snapshot is excluded on the next poll")
}

func TestSnapshotsAtWarningLevel_DefaultThreshold(t *testing.T) {
	periodID := uuid.New()
	repo := &mockSnapshotRepo{}
	_, nearLimit, _ := seedAlertSnapshots(t, repo, periodID)

	gate := NewAlertGateService(repo, 90, zap.NewNop())

	// Zero threshold selects the configured default of 90.
	warnings, err := gate.SnapshotsAtWarningLevel(context.Background(), periodID, testDate, 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, nearLimit.ID, warnings[0].ID)
	assert.True(t, warnings[0].IsCompliant, "warning level selects compliant rows only")
}

func TestSnapshotsAtWarningLevel_ExplicitThreshold(t *testing.T) {
	periodID := uuid.New()
	repo := &mockSnapshotRepo{}
	seedAlertSnapshots(t, repo, periodID)

	gate := NewAlertGateService(repo, 90, zap.NewNop())

	warnings, err := gate.SnapshotsAtWarningLevel(context.Background(), periodID, testDate, 30)
	require.NoError(t, err)
	assert.Len(t, warnings, 2, "lower threshold admits the comfortable row too")
}

func TestSnapshotsAtWarningLevel_RejectsBadThreshold(t *testing.T) {
	gate := NewAlertGateService(&mockSnapshotRepo{}, 90, zap.NewNop())

	_, err := gate.SnapshotsAtWarningLevel(context.Background(), uuid.New(), testDate, 101)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameters)

	_, err = gate.SnapshotsAtWarningLevel(context.Background(), uuid.New(), testDate, -5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameters)
}
