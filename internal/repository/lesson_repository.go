package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/pkg/database"
)

// LessonRepository persists lessons and their enrollments.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs the repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// CreateSeries inserts every lesson and enrolls participantIDs in each, all inside one transaction.
// Generated ids and creation timestamps are written back into lessons.
func (r *LessonRepository) CreateSeries(ctx context.Context, lessons []models.Lesson, participantIDs []int64) error {
	if len(lessons) == 0 {
		return fmt.Errorf("create lesson series: no lessons")
	}
	if len(participantIDs) == 0 {
		return fmt.Errorf("create lesson series: no participants")
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertLesson = `INSERT INTO lessons (owner_id, subject_id, start_at, end_at, duration_minutes, status, recurrence_group_id)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
		for i := range lessons {
			l := &lessons[i]
			if err := tx.QueryRowxContext(ctx, insertLesson, l.OwnerID, l.SubjectID, l.StartAt, l.EndAt, l.DurationMinutes, l.Status, l.RecurrenceGroupID).
				Scan(&l.ID, &l.CreatedAt); err != nil {
				return fmt.Errorf("insert lesson starting %s: %w", l.StartAt.Format(time.RFC3339), err)
			}
			if err := insertEnrollments(ctx, tx, l.ID, participantIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertEnrollments(ctx context.Context, exec sqlx.ExecerContext, lessonID int64, participantIDs []int64) error {
	values := make([]string, len(participantIDs))
	args := make([]interface{}, 0, len(participantIDs)+1)
	args = append(args, lessonID)
	for i, id := range participantIDs {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf("INSERT INTO lesson_enrollments (lesson_id, participant_id) VALUES %s", strings.Join(values, ", "))
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert enrollments for lesson %d: %w", lessonID, err)
	}
	return nil
}

// Delete removes a lesson with its enrollments and attendance. It reports false when the lesson does
// not exist.
func (r *LessonRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var removed int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ids []int64
		if err := tx.SelectContext(ctx, &ids, `SELECT id FROM lessons WHERE id = $1 FOR UPDATE`, id); err != nil {
			return fmt.Errorf("lock lesson: %w", err)
		}
		var err error
		removed, err = purgeLessons(ctx, tx, ids)
		return err
	})
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// DeleteSeriesFrom removes every lesson of the recurrence group starting at or after cutoff. Earlier
// lessons of the group are left untouched.
func (r *LessonRepository) DeleteSeriesFrom(ctx context.Context, groupID string, cutoff time.Time) (int64, error) {
	var removed int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ids []int64
		const lockQuery = `SELECT id FROM lessons WHERE recurrence_group_id = $1 AND start_at >= $2 ORDER BY start_at FOR UPDATE`
		if err := tx.SelectContext(ctx, &ids, lockQuery, groupID, cutoff); err != nil {
			return fmt.Errorf("lock lesson series: %w", err)
		}
		var err error
		removed, err = purgeLessons(ctx, tx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// purgeLessons deletes attendance, enrollments and lessons in dependency order. Enrollment rows are
// locked first so concurrent attendance writes wait for the outcome instead of racing the delete.
func purgeLessons(ctx context.Context, tx *sqlx.Tx, lessonIDs []int64) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	ids := pq.Array(lessonIDs)
	if _, err := tx.ExecContext(ctx, `SELECT id FROM lesson_enrollments WHERE lesson_id = ANY($1) FOR UPDATE`, ids); err != nil {
		return 0, fmt.Errorf("lock enrollments: %w", err)
	}
	const deleteAttendance = `DELETE FROM attendance_records WHERE enrollment_id IN (SELECT id FROM lesson_enrollments WHERE lesson_id = ANY($1))`
	if _, err := tx.ExecContext(ctx, deleteAttendance, ids); err != nil {
		return 0, fmt.Errorf("delete attendance records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lesson_enrollments WHERE lesson_id = ANY($1)`, ids); err != nil {
		return 0, fmt.Errorf("delete enrollments: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete lessons: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("lessons rows affected: %w", err)
	}
	return affected, nil
}

// FindByID loads a lesson.
func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	const query = `SELECT id, owner_id, subject_id, start_at, end_at, duration_minutes, status, recurrence_group_id, created_at FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListByGroup returns the lessons of a recurrence group ordered by start.
func (r *LessonRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Lesson, error) {
	const query = `SELECT id, owner_id, subject_id, start_at, end_at, duration_minutes, status, recurrence_group_id, created_at
FROM lessons WHERE recurrence_group_id = $1 ORDER BY start_at`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, groupID); err != nil {
		return nil, fmt.Errorf("list lesson series: %w", err)
	}
	return lessons, nil
}
