package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/roster-booking-api/internal/models"
)

// AttendanceUpsert carries one attendance write. A nil Notes keeps any stored note.
type AttendanceUpsert struct {
	LessonID      int64
	ParticipantID int64
	Status        models.AttendanceStatus
	Notes         *string
	RecordedAt    time.Time
	RecordedBy    int64
}

// AttendanceRepository persists attendance records keyed by enrollment.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const upsertAttendanceQuery = `
INSERT INTO attendance_records (enrollment_id, status, notes, recorded_at, recorded_by)
SELECT e.id, $3, $4, $5, $6
FROM lesson_enrollments e
WHERE e.lesson_id = $1 AND e.participant_id = $2
ON CONFLICT (enrollment_id) DO UPDATE SET
	status = EXCLUDED.status,
	notes = CASE WHEN $7 THEN EXCLUDED.notes ELSE attendance_records.notes END,
	recorded_at = EXCLUDED.recorded_at,
	recorded_by = EXCLUDED.recorded_by
RETURNING id, enrollment_id, status, notes, recorded_at, recorded_by`

// Upsert writes the attendance record of the (lesson, participant) enrollment in one statement.
// sql.ErrNoRows is returned when no such enrollment exists.
func (r *AttendanceRepository) Upsert(ctx context.Context, in AttendanceUpsert) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.QueryRowxContext(ctx, upsertAttendanceQuery,
		in.LessonID, in.ParticipantID, in.Status, in.Notes, in.RecordedAt, in.RecordedBy, in.Notes != nil,
	).StructScan(&record)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance lesson %d participant %d: %w", in.LessonID, in.ParticipantID, err)
	}
	return &record, nil
}

// ListBySession returns the attendance sheet of a lesson, one row per enrollment.
func (r *AttendanceRepository) ListBySession(ctx context.Context, lessonID int64) ([]models.SessionAttendanceRow, error) {
	const query = `
SELECT e.id AS enrollment_id, e.participant_id, p.full_name AS participant_name,
	a.status, a.notes, a.recorded_at, a.recorded_by
FROM lesson_enrollments e
JOIN participants p ON p.id = e.participant_id
LEFT JOIN attendance_records a ON a.enrollment_id = e.id
WHERE e.lesson_id = $1
ORDER BY p.full_name, e.id`
	var rows []models.SessionAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, lessonID); err != nil {
		return nil, fmt.Errorf("list attendance for lesson %d: %w", lessonID, err)
	}
	return rows, nil
}
