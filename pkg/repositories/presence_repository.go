package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/database"
	"github.com/carelane/ratio-engine/pkg/models"
)

// RoomChildCountingSupported documents a known approximation: the platform
// schema does not attribute children to rooms, so room-scoped snapshots reuse
// the age-group-wide child count. The room dimension carries staff-only
// precision and callers must not present room snapshots as fully room-accurate.
const RoomChildCountingSupported = false

// PresenceRepository answers read-only headcount questions against the
// platform's attendance and staffing tables. Counts are computed fresh on
// every call; a source failure surfaces as ErrDataUnavailable so that an
// unreachable source is never conflated with a real count of zero.
type PresenceRepository interface {
	// CountStaffOnDuty counts staff with an open time record for the date who
	// are not on an open break and whose duty schedule for the age group
	// covers the requested time. A non-nil room restricts to staff scheduled
	// in that room.
	CountStaffOnDuty(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay, ageGroup string, room *string) (int, error)

	// CountChildrenPresent counts children with an open check-in for the date
	// whose age in whole months at that date falls in [minAgeMonths,
	// maxAgeMonths). A nil maxAgeMonths means the bracket is unbounded above.
	CountChildrenPresent(ctx context.Context, periodID uuid.UUID, date time.Time, minAgeMonths int, maxAgeMonths *int) (int, error)

	// ScheduledRoomAssignments returns the distinct (room, age group) pairs
	// on the duty schedule whose shift covers the requested time.
	ScheduledRoomAssignments(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay string) ([]models.RoomAssignment, error)
}

type presenceRepository struct {
	db *database.DB
}

func NewPresenceRepository(db *database.DB) PresenceRepository {
	return &presenceRepository{db: db}
}

var _ PresenceRepository = (*presenceRepository)(nil)

func (r *presenceRepository) CountStaffOnDuty(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay, ageGroup string, room *string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT tr.staff_id)
		FROM staff_time_records tr
		JOIN duty_schedules ds
		  ON ds.period_id = tr.period_id
		 AND ds.staff_id = tr.staff_id
		 AND ds.duty_date = tr.record_date
		WHERE tr.period_id = $1
		  AND tr.record_date = $2
		  AND tr.clock_out IS NULL
		  AND NOT EXISTS (
		      SELECT 1 FROM staff_breaks b
		      WHERE b.time_record_id = tr.id AND b.break_end IS NULL)
		  AND ds.age_group = $3
		  AND ds.shift_start <= $4
		  AND ds.shift_end > $4`
	args := []any{periodID, date, ageGroup, timeOfDay}

	if room != nil {
		query += ` AND ds.room = $5`
		args = append(args, *room)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: staff count for age group %s: %v", apperrors.ErrDataUnavailable, ageGroup, err)
	}
	return count, nil
}

func (r *presenceRepository) CountChildrenPresent(ctx context.Context, periodID uuid.UUID, date time.Time, minAgeMonths int, maxAgeMonths *int) (int, error) {
	// Age in whole months at the snapshot date; the bracket is half-open.
	const ageMonths = `(EXTRACT(YEAR FROM age($2::date, c.date_of_birth)) * 12
		+ EXTRACT(MONTH FROM age($2::date, c.date_of_birth)))`

	query := `
		SELECT COUNT(*)
		FROM attendance_records ar
		JOIN children c ON c.id = ar.child_id
		WHERE ar.period_id = $1
		  AND ar.attendance_date = $2
		  AND ar.check_out_time IS NULL
		  AND ` + ageMonths + ` >= $3`
	args := []any{periodID, date, minAgeMonths}

	if maxAgeMonths != nil {
		query += ` AND ` + ageMonths + ` < $4`
		args = append(args, *maxAgeMonths)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: child count for age bracket starting at %d months: %v", apperrors.ErrDataUnavailable, minAgeMonths, err)
	}
	return count, nil
}

func (r *presenceRepository) ScheduledRoomAssignments(ctx context.Context, periodID uuid.UUID, date time.Time, timeOfDay string) ([]models.RoomAssignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ds.room, ds.age_group
		FROM duty_schedules ds
		WHERE ds.period_id = $1
		  AND ds.duty_date = $2
		  AND ds.shift_start <= $3
		  AND ds.shift_end > $3
		  AND ds.room IS NOT NULL
		ORDER BY ds.room, ds.age_group`,
		periodID, date, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled room assignments: %v", apperrors.ErrDataUnavailable, err)
	}
	defer rows.Close()

	var assignments []models.RoomAssignment
	for rows.Next() {
		var a models.RoomAssignment
		if err := rows.Scan(&a.Room, &a.AgeGroup); err != nil {
			return nil, fmt.Errorf("%w: scanning room assignment: %v", apperrors.ErrDataUnavailable, err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading room assignments: %v", apperrors.ErrDataUnavailable, err)
	}
	return assignments, nil
}
