package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/roster-booking-api/internal/dto"
)

// scheduleSelect flattens lessons with their enrollments. Every join is a left join so lessons without
// participants still produce one row. Contact fields come from the participant when the primary link is
// self-managed and from the guardian identity otherwise.
const scheduleSelect = `
SELECT l.id AS lesson_id, l.owner_id, l.subject_id, s.name AS subject_name, l.start_at, l.end_at,
	l.duration_minutes, l.status, l.recurrence_group_id,
	e.id AS enrollment_id, e.participant_id, p.full_name AS participant_name, e.guardian_note,
	a.status AS attendance_status, a.notes AS attendance_notes,
	CASE WHEN gl.self_managed THEN p.full_name ELSE g.full_name END AS guardian_name,
	CASE WHEN gl.self_managed THEN p.email ELSE g.email END AS guardian_email,
	CASE WHEN gl.self_managed THEN p.phone ELSE g.phone END AS guardian_phone,
	gl.self_managed
FROM lessons l
LEFT JOIN subjects s ON s.id = l.subject_id
LEFT JOIN lesson_enrollments e ON e.lesson_id = l.id
LEFT JOIN participants p ON p.id = e.participant_id
LEFT JOIN attendance_records a ON a.enrollment_id = e.id
LEFT JOIN guardian_links gl ON gl.participant_id = e.participant_id AND gl.is_primary
LEFT JOIN users g ON g.id = gl.guardian_id`

// ScheduleRepository reads flattened schedule rows.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListForOwner returns the rows of every lesson owned by ownerID within the window.
func (r *ScheduleRepository) ListForOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow) ([]dto.ScheduleRow, error) {
	return r.list(ctx, "l.owner_id = $1", ownerID, window)
}

// ListForParticipant returns the rows of the lessons the participant is enrolled in, restricted to that
// participant's own enrollment.
func (r *ScheduleRepository) ListForParticipant(ctx context.Context, participantID int64, window dto.ScheduleWindow) ([]dto.ScheduleRow, error) {
	return r.list(ctx, "e.participant_id = $1", participantID, window)
}

func (r *ScheduleRepository) list(ctx context.Context, scope string, scopeArg int64, window dto.ScheduleWindow) ([]dto.ScheduleRow, error) {
	conditions := []string{scope}
	args := []interface{}{scopeArg}
	if window.From != nil {
		conditions = append(conditions, fmt.Sprintf("l.start_at >= $%d", len(args)+1))
		args = append(args, *window.From)
	}
	if window.To != nil {
		conditions = append(conditions, fmt.Sprintf("l.start_at < $%d", len(args)+1))
		args = append(args, *window.To)
	}
	query := fmt.Sprintf("%s\nWHERE %s\nORDER BY l.start_at, l.id, p.full_name, e.id", scheduleSelect, strings.Join(conditions, " AND "))

	var rows []dto.ScheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule rows: %w", err)
	}
	return rows, nil
}
