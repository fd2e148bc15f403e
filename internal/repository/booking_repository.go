package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/pkg/database"
)

// BookingTx exposes the reads and writes of one booking attempt. Every call runs inside the
// transaction that holds the (activity, participant) pair lock.
type BookingTx interface {
	// ExistingBooking returns the booking of the pair, or nil when there is none.
	ExistingBooking(ctx context.Context) (*models.ActivityBooking, error)
	// LockActivity row-locks and loads the activity. sql.ErrNoRows when it does not exist.
	LockActivity(ctx context.Context) (*models.Activity, error)
	// Standing loads the participant's birth date and current level. sql.ErrNoRows when unknown.
	Standing(ctx context.Context) (*models.ParticipantStanding, error)
	CountBookings(ctx context.Context) (int, error)
	Insert(ctx context.Context, bookedAt time.Time, bookedBy int64) (*models.ActivityBooking, error)
}

// BookingRepository persists activity bookings.
type BookingRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewBookingRepository constructs the repository. A positive lockTimeout bounds every lock wait inside
// WithPairLock.
func NewBookingRepository(db *sqlx.DB, lockTimeout time.Duration) *BookingRepository {
	return &BookingRepository{db: db, lockTimeout: lockTimeout}
}

const bookingSummarySelect = `
SELECT b.id, b.activity_id, b.participant_id, b.booked_at, b.booked_by, p.full_name AS participant_name
FROM activity_bookings b
JOIN participants p ON p.id = b.participant_id`

// ListBooked returns the bookings of an activity ordered by booking time.
func (r *BookingRepository) ListBooked(ctx context.Context, activityID int64) ([]models.BookingSummary, error) {
	var bookings []models.BookingSummary
	query := bookingSummarySelect + ` WHERE b.activity_id = $1 ORDER BY b.booked_at, b.id`
	if err := r.db.SelectContext(ctx, &bookings, query, activityID); err != nil {
		return nil, fmt.Errorf("list bookings for activity %d: %w", activityID, err)
	}
	return bookings, nil
}

// ListBookedAmong returns bookings of the given activities restricted to the given participants.
func (r *BookingRepository) ListBookedAmong(ctx context.Context, activityIDs, participantIDs []int64) ([]models.BookingSummary, error) {
	if len(activityIDs) == 0 || len(participantIDs) == 0 {
		return nil, nil
	}
	var bookings []models.BookingSummary
	query := bookingSummarySelect + ` WHERE b.activity_id = ANY($1) AND b.participant_id = ANY($2) ORDER BY b.activity_id, b.booked_at, b.id`
	if err := r.db.SelectContext(ctx, &bookings, query, pq.Array(activityIDs), pq.Array(participantIDs)); err != nil {
		return nil, fmt.Errorf("list scoped bookings: %w", err)
	}
	return bookings, nil
}

// Cancel deletes a booking. It reports false when no booking had that id.
func (r *BookingRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activity_bookings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("cancel booking %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel booking rows affected: %w", err)
	}
	return affected > 0, nil
}

// WithPairLock opens a transaction, takes an exclusive transaction-scoped advisory lock for the
// (activity, participant) pair and runs fn. The transaction commits when fn returns nil and rolls back
// otherwise, releasing the lock either way.
func (r *BookingRepository) WithPairLock(ctx context.Context, activityID, participantID int64, fn func(BookingTx) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if r.lockTimeout > 0 {
			timeout := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
			if _, err := tx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, PairLockKey(activityID, participantID)); err != nil {
			return fmt.Errorf("acquire booking pair lock: %w", err)
		}
		return fn(&bookingTx{tx: tx, activityID: activityID, participantID: participantID})
	})
}

// PairLockKey derives the advisory lock key of an (activity, participant) pair.
func PairLockKey(activityID, participantID int64) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "activity_booking:%d:%d", activityID, participantID)
	return int64(h.Sum64())
}

type bookingTx struct {
	tx            *sqlx.Tx
	activityID    int64
	participantID int64
}

func (b *bookingTx) ExistingBooking(ctx context.Context) (*models.ActivityBooking, error) {
	const query = `SELECT id, activity_id, participant_id, booked_at, booked_by FROM activity_bookings
WHERE activity_id = $1 AND participant_id = $2 FOR UPDATE`
	var booking models.ActivityBooking
	if err := b.tx.GetContext(ctx, &booking, query, b.activityID, b.participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read existing booking: %w", err)
	}
	return &booking, nil
}

func (b *bookingTx) LockActivity(ctx context.Context) (*models.Activity, error) {
	var activity models.Activity
	if err := b.tx.GetContext(ctx, &activity, activitySelect+` WHERE a.id = $1 FOR UPDATE OF a`, b.activityID); err != nil {
		return nil, fmt.Errorf("lock activity %d: %w", b.activityID, err)
	}
	return &activity, nil
}

func (b *bookingTx) Standing(ctx context.Context) (*models.ParticipantStanding, error) {
	var standing models.ParticipantStanding
	if err := b.tx.GetContext(ctx, &standing, standingSelect+` WHERE p.id = $1 FOR SHARE OF p`, b.participantID); err != nil {
		return nil, fmt.Errorf("load participant %d standing: %w", b.participantID, err)
	}
	return &standing, nil
}

func (b *bookingTx) CountBookings(ctx context.Context) (int, error) {
	var count int
	if err := b.tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM activity_bookings WHERE activity_id = $1`, b.activityID); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

func (b *bookingTx) Insert(ctx context.Context, bookedAt time.Time, bookedBy int64) (*models.ActivityBooking, error) {
	const query = `INSERT INTO activity_bookings (activity_id, participant_id, booked_at, booked_by)
VALUES ($1, $2, $3, $4) RETURNING id, activity_id, participant_id, booked_at, booked_by`
	var booking models.ActivityBooking
	if err := b.tx.QueryRowxContext(ctx, query, b.activityID, b.participantID, bookedAt, bookedBy).StructScan(&booking); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return &booking, nil
}
