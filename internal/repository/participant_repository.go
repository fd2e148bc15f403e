package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/pkg/database"
)

// standingSelect resolves each participant's current level as the latest completion, ties broken by
// completion date then record creation.
const standingSelect = `
SELECT p.id, p.full_name, p.birth_date, cl.level_id AS current_level_id, lv.name AS current_level_name
FROM participants p
LEFT JOIN LATERAL (
	SELECT lc.level_id
	FROM level_completions lc
	WHERE lc.participant_id = p.id
	ORDER BY lc.completed_on DESC, lc.created_at DESC
	LIMIT 1
) cl ON TRUE
LEFT JOIN levels lv ON lv.id = cl.level_id`

// ParticipantRepository reads the participant directory and performs participant removal.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository constructs the repository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// ListUnbookedStandings returns the standing of every participant without a booking for the activity.
func (r *ParticipantRepository) ListUnbookedStandings(ctx context.Context, activityID int64) ([]models.ParticipantStanding, error) {
	query := standingSelect + `
WHERE NOT EXISTS (SELECT 1 FROM activity_bookings b WHERE b.activity_id = $1 AND b.participant_id = p.id)
ORDER BY p.full_name, p.id`
	var standings []models.ParticipantStanding
	if err := r.db.SelectContext(ctx, &standings, query, activityID); err != nil {
		return nil, fmt.Errorf("list unbooked participants for activity %d: %w", activityID, err)
	}
	return standings, nil
}

// ListScopedStandings returns the standing of the participants related to the scope owner.
func (r *ParticipantRepository) ListScopedStandings(ctx context.Context, scope models.ParticipantScope) ([]models.ParticipantStanding, error) {
	filter, err := scopeFilter(scope.Kind)
	if err != nil {
		return nil, err
	}
	var standings []models.ParticipantStanding
	if err := r.db.SelectContext(ctx, &standings, standingSelect+"\n"+filter+"\nORDER BY p.full_name, p.id", scope.OwnerID); err != nil {
		return nil, fmt.Errorf("list %s participants of %d: %w", scope.Kind, scope.OwnerID, err)
	}
	return standings, nil
}

// InScope reports whether the participant is related to the scope owner.
func (r *ParticipantRepository) InScope(ctx context.Context, participantID int64, scope models.ParticipantScope) (bool, error) {
	filter, err := scopeFilter(scope.Kind)
	if err != nil {
		return false, err
	}
	query := "SELECT EXISTS (SELECT 1 FROM participants p " + filter + " AND p.id = $2)"
	var related bool
	if err := r.db.GetContext(ctx, &related, query, scope.OwnerID, participantID); err != nil {
		return false, fmt.Errorf("check %s scope of participant %d: %w", scope.Kind, participantID, err)
	}
	return related, nil
}

// scopeFilter binds the scope owner to $1.
func scopeFilter(kind models.ScopeKind) (string, error) {
	switch kind {
	case models.ScopeGuardian:
		return `WHERE p.id IN (SELECT gl.participant_id FROM guardian_links gl WHERE gl.guardian_id = $1)`, nil
	case models.ScopeRoster:
		return `WHERE p.id IN (SELECT tr.participant_id FROM teacher_roster tr WHERE tr.teacher_id = $1)`, nil
	case models.ScopeSelf:
		return `WHERE p.user_id = $1`, nil
	}
	return "", fmt.Errorf("unsupported participant scope %q", kind)
}

// Remove deletes a participant and every record that belongs to them in one transaction. It reports
// false when the participant does not exist. References outside this set surface as foreign key
// violations from the final delete.
func (r *ParticipantRepository) Remove(ctx context.Context, id int64) (bool, error) {
	var affected int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ids []int64
		if err := tx.SelectContext(ctx, &ids, `SELECT id FROM participants WHERE id = $1 FOR UPDATE`, id); err != nil {
			return fmt.Errorf("lock participant: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		steps := []struct {
			label string
			query string
		}{
			{"attendance records", `DELETE FROM attendance_records WHERE enrollment_id IN (SELECT id FROM lesson_enrollments WHERE participant_id = $1)`},
			{"enrollments", `DELETE FROM lesson_enrollments WHERE participant_id = $1`},
			{"activity bookings", `DELETE FROM activity_bookings WHERE participant_id = $1`},
			{"guardian links", `DELETE FROM guardian_links WHERE participant_id = $1`},
			{"roster entries", `DELETE FROM teacher_roster WHERE participant_id = $1`},
			{"level completions", `DELETE FROM level_completions WHERE participant_id = $1`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("delete participant %s: %w", step.label, err)
			}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete participant: %w", err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
