package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/pkg/database"
)

var standingColumns = []string{"id", "full_name", "birth_date", "current_level_id", "current_level_name"}

func TestParticipantRepositoryListUnbookedStandings(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewParticipantRepository(db)
	birth := time.Date(2011, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY lc.completed_on DESC, lc.created_at DESC")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(standingColumns).
			AddRow(int64(7), "Ana", birth, int64(2), "Grade 2").
			AddRow(int64(9), "Budi", birth, nil, nil))

	standings, err := repo.ListUnbookedStandings(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	require.NotNil(t, standings[0].CurrentLevelID)
	assert.Equal(t, int64(2), *standings[0].CurrentLevelID)
	assert.Nil(t, standings[1].CurrentLevelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryListScopedStandings(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM guardian_links gl WHERE gl.guardian_id = $1")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(standingColumns))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_roster tr WHERE tr.teacher_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(standingColumns))

	_, err := repo.ListScopedStandings(context.Background(), models.ParticipantScope{Kind: models.ScopeGuardian, OwnerID: 12})
	require.NoError(t, err)
	_, err = repo.ListScopedStandings(context.Background(), models.ParticipantScope{Kind: models.ScopeRoster, OwnerID: 3})
	require.NoError(t, err)

	_, err = repo.ListScopedStandings(context.Background(), models.ParticipantScope{Kind: "other", OwnerID: 3})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryInScope(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM participants p WHERE p.user_id = $1 AND p.id = $2)")).
		WithArgs(int64(5), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE gl.guardian_id = $1) AND p.id = $2)")).
		WithArgs(int64(77), int64(41)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	related, err := repo.InScope(context.Background(), 5, models.ParticipantScope{Kind: models.ScopeSelf, OwnerID: 5})
	require.NoError(t, err)
	assert.False(t, related)

	related, err = repo.InScope(context.Background(), 41, models.ParticipantScope{Kind: models.ScopeGuardian, OwnerID: 77})
	require.NoError(t, err)
	assert.True(t, related)

	_, err = repo.InScope(context.Background(), 41, models.ParticipantScope{Kind: "other", OwnerID: 77})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryRemoveCascades(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewParticipantRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM participants WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	for _, table := range []string{"attendance_records", "lesson_enrollments", "activity_bookings", "guardian_links", "teacher_roster", "level_completions"} {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM " + table)).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM participants WHERE id = $1")).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Remove(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryRemoveForeignKeyViolation(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewParticipantRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM participants").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	for i := 0; i < 6; i++ {
		mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM participants")).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	removed, err := repo.Remove(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, removed)
	assert.Equal(t, database.KindIntegrity, database.Classify(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
