package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/database"
	"github.com/carelane/ratio-engine/pkg/models"
)

// SnapshotRepository provides data access for ratio snapshots. The unique
// index on (period, age group, room-or-null, date, time) is the sole
// duplicate guard; Insert surfaces a conflict as ErrDuplicateSnapshot.
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot *models.RatioSnapshot) error
	GetByID(ctx context.Context, periodID, snapshotID uuid.UUID) (*models.RatioSnapshot, error)
	ListByDate(ctx context.Context, periodID uuid.UUID, date time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error)
	ListByDateRange(ctx context.Context, periodID uuid.UUID, from, to time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error)
	LatestPerAgeGroup(ctx context.Context, periodID uuid.UUID) ([]*models.RatioSnapshot, error)
	ListNeedingAlert(ctx context.Context, periodID uuid.UUID, date time.Time) ([]*models.RatioSnapshot, error)
	ListAtWarningLevel(ctx context.Context, periodID uuid.UUID, date time.Time, thresholdPercent decimal.Decimal) ([]*models.RatioSnapshot, error)
	MarkAlertSent(ctx context.Context, periodID, snapshotID uuid.UUID) error
	DeleteOlderThan(ctx context.Context, periodID uuid.UUID, cutoff time.Time) (int64, error)
}

type snapshotRepository struct {
	db *database.DB
}

func NewSnapshotRepository(db *database.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

var _ SnapshotRepository = (*snapshotRepository)(nil)

const snapshotColumns = `id, period_id, snapshot_date, time_of_day, age_group, room,
	staff_count, child_count, required_ratio, actual_ratio, ratio_unbounded,
	is_compliant, compliance_percent, alert_sent, alert_sent_at, notes,
	automatic, recorded_by, created_at`

func (r *snapshotRepository) Insert(ctx context.Context, s *models.RatioSnapshot) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ratio_snapshots (
			period_id, snapshot_date, time_of_day, age_group, room,
			staff_count, child_count, required_ratio, actual_ratio,
			ratio_unbounded, is_compliant, compliance_percent, notes,
			automatic, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`,
		s.PeriodID, s.SnapshotDate, s.TimeOfDay, s.AgeGroup, s.Room,
		s.StaffCount, s.ChildCount, s.RequiredRatio, s.ActualRatio,
		s.RatioUnbounded, s.IsCompliant, s.CompliancePercent, s.Notes,
		s.Automatic, s.RecordedBy,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		// Unique constraint violation (PostgreSQL error code 23505) means a
		// concurrent or repeated recording for the same key already landed.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrDuplicateSnapshot
		}
		return fmt.Errorf("failed to insert ratio snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) GetByID(ctx context.Context, periodID, snapshotID uuid.UUID) (*models.RatioSnapshot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM ratio_snapshots
		WHERE period_id = $1 AND id = $2`,
		periodID, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	snapshots, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return snapshots[0], nil
}

func (r *snapshotRepository) ListByDate(ctx context.Context, periodID uuid.UUID, date time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error) {
	return r.list(ctx, periodID, date, date, filters)
}

func (r *snapshotRepository) ListByDateRange(ctx context.Context, periodID uuid.UUID, from, to time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error) {
	return r.list(ctx, periodID, from, to, filters)
}

func (r *snapshotRepository) list(ctx context.Context, periodID uuid.UUID, from, to time.Time, filters models.SnapshotFilters) ([]*models.RatioSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3`
	args := []any{periodID, from, to}
	argIdx := 4

	if filters.AgeGroup != "" {
		query += fmt.Sprintf(" AND age_group = $%d", argIdx)
		args = append(args, filters.AgeGroup)
		argIdx++
	}
	if filters.Room != nil {
		query += fmt.Sprintf(" AND room = $%d", argIdx)
		args = append(args, *filters.Room)
		argIdx++
	}
	if filters.IsCompliant != nil {
		query += fmt.Sprintf(" AND is_compliant = $%d", argIdx)
		args = append(args, *filters.IsCompliant)
		argIdx++
	}
	if filters.AlertSent != nil {
		query += fmt.Sprintf(" AND alert_sent = $%d", argIdx)
		args = append(args, *filters.AlertSent)
		argIdx++
	}

	query += " ORDER BY snapshot_date DESC, time_of_day DESC, age_group"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *snapshotRepository) LatestPerAgeGroup(ctx context.Context, periodID uuid.UUID) ([]*models.RatioSnapshot, error) {
	// Latest all-rooms snapshot per age group, for the dashboard's current
	// view. The host derives staleness from created_at.
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (age_group) `+snapshotColumns+`
		FROM ratio_snapshots
		WHERE period_id = $1 AND room IS NULL
		ORDER BY age_group, snapshot_date DESC, time_of_day DESC`,
		periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *snapshotRepository) ListNeedingAlert(ctx context.Context, periodID uuid.UUID, date time.Time) ([]*models.RatioSnapshot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date = $2
		  AND NOT is_compliant AND NOT alert_sent
		ORDER BY time_of_day DESC, age_group`,
		periodID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots needing alert: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *snapshotRepository) ListAtWarningLevel(ctx context.Context, periodID uuid.UUID, date time.Time, thresholdPercent decimal.Decimal) ([]*models.RatioSnapshot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date = $2
		  AND is_compliant AND compliance_percent >= $3
		ORDER BY time_of_day DESC, age_group`,
		periodID, date, thresholdPercent)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots at warning level: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *snapshotRepository) MarkAlertSent(ctx context.Context, periodID, snapshotID uuid.UUID) error {
	// COALESCE keeps the first alert timestamp on repeated calls, making the
	// operation idempotent.
	tag, err := r.db.Exec(ctx, `
		UPDATE ratio_snapshots
		SET alert_sent = true, alert_sent_at = COALESCE(alert_sent_at, now())
		WHERE period_id = $1 AND id = $2`,
		periodID, snapshotID)
	if err != nil {
		return fmt.Errorf("failed to mark alert sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *snapshotRepository) DeleteOlderThan(ctx context.Context, periodID uuid.UUID, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM ratio_snapshots
		WHERE period_id = $1 AND snapshot_date < $2`,
		periodID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSnapshots(rows pgx.Rows) ([]*models.RatioSnapshot, error) {
	var snapshots []*models.RatioSnapshot
	for rows.Next() {
		var s models.RatioSnapshot
		if err := rows.Scan(
			&s.ID, &s.PeriodID, &s.SnapshotDate, &s.TimeOfDay, &s.AgeGroup,
			&s.Room, &s.StaffCount, &s.ChildCount, &s.RequiredRatio,
			&s.ActualRatio, &s.RatioUnbounded, &s.IsCompliant,
			&s.CompliancePercent, &s.AlertSent, &s.AlertSentAt, &s.Notes,
			&s.Automatic, &s.RecordedBy, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return snapshots, nil
}
