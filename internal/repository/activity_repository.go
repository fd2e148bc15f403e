package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/pkg/database"
)

// ActivityRepository persists activities and their eligible level sets.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activitySelect = `
SELECT a.id, a.name, a.description, a.venue, a.start_at, a.end_at, a.type, a.capacity,
	ARRAY(SELECT al.level_id FROM activity_levels al WHERE al.activity_id = a.id ORDER BY al.level_id) AS eligible_level_ids,
	a.created_at
FROM activities a`

// Create inserts the activity and its level set in one transaction.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insert = `INSERT INTO activities (name, description, venue, start_at, end_at, type, capacity)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
		if err := tx.QueryRowxContext(ctx, insert,
			activity.Name, activity.Description, activity.Venue, activity.StartAt, activity.EndAt, activity.Type, activity.Capacity,
		).Scan(&activity.ID, &activity.CreatedAt); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
		if len(activity.EligibleLevelIDs) == 0 {
			return nil
		}
		const insertLevels = `INSERT INTO activity_levels (activity_id, level_id) SELECT $1, UNNEST($2::bigint[]) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, insertLevels, activity.ID, pq.Array([]int64(activity.EligibleLevelIDs))); err != nil {
			return fmt.Errorf("insert activity levels: %w", err)
		}
		return nil
	})
}

// Delete removes the activity together with its bookings and level associations. It reports false
// when the activity does not exist.
func (r *ActivityRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var affected int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ids []int64
		if err := tx.SelectContext(ctx, &ids, `SELECT id FROM activities WHERE id = $1 FOR UPDATE`, id); err != nil {
			return fmt.Errorf("lock activity: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM activity_bookings WHERE activity_id = $1`, id); err != nil {
			return fmt.Errorf("delete activity bookings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM activity_levels WHERE activity_id = $1`, id); err != nil {
			return fmt.Errorf("delete activity levels: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete activity: %w", err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// FindByID loads an activity with its level set.
func (r *ActivityRepository) FindByID(ctx context.Context, id int64) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, activitySelect+` WHERE a.id = $1`, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListEndingAfter returns activities whose end lies after the given instant, ordered by start.
func (r *ActivityRepository) ListEndingAfter(ctx context.Context, instant time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, activitySelect+` WHERE a.end_at > $1 ORDER BY a.start_at, a.id`, instant); err != nil {
		return nil, fmt.Errorf("list upcoming activities: %w", err)
	}
	return activities, nil
}
