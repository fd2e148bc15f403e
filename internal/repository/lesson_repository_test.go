package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-booking-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func seriesFixture(start time.Time, n int, group *string) []models.Lesson {
	lessons := make([]models.Lesson, n)
	for i := range lessons {
		s := start.Add(time.Duration(i) * 7 * 24 * time.Hour)
		lessons[i] = models.Lesson{OwnerID: 3, SubjectID: 5, StartAt: s, EndAt: s.Add(45 * time.Minute), DurationMinutes: 45, Status: models.LessonStatusScheduled, RecurrenceGroupID: group}
	}
	return lessons
}

func TestLessonRepositoryCreateSeries(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLessonRepository(db)
	group := "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	start := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	lessons := seriesFixture(start, 2, &group)

	mock.ExpectBegin()
	for i, l := range lessons {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lessons (owner_id, subject_id, start_at, end_at, duration_minutes, status, recurrence_group_id)")).
			WithArgs(int64(3), int64(5), l.StartAt, l.EndAt, 45, models.LessonStatusScheduled, &group).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(100+i), time.Now()))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_enrollments (lesson_id, participant_id) VALUES ($1, $2), ($1, $3)")).
			WithArgs(int64(100+i), int64(7), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 2))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.CreateSeries(context.Background(), lessons, []int64{7, 9}))
	assert.Equal(t, int64(100), lessons[0].ID)
	assert.Equal(t, int64(101), lessons[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateSeriesRollsBack(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLessonRepository(db)
	lessons := seriesFixture(time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC), 2, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO lessons").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(100), time.Now()))
	mock.ExpectExec("INSERT INTO lesson_enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO lessons").
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err := repo.CreateSeries(context.Background(), lessons, []int64{7})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryDeleteNotFound(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM lessons WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryDeleteRemovesDependents(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM lessons WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta("SELECT id FROM lesson_enrollments WHERE lesson_id = ANY($1) FOR UPDATE")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lesson_enrollments WHERE lesson_id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryDeleteSeriesFromRollsBackOnFailure(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLessonRepository(db)
	cutoff := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM lessons WHERE recurrence_group_id = $1 AND start_at >= $2 ORDER BY start_at FOR UPDATE")).
		WithArgs("grp", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(4)))
	mock.ExpectExec("SELECT id FROM lesson_enrollments").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM attendance_records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM lesson_enrollments").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	count, err := repo.DeleteSeriesFrom(context.Background(), "grp", cutoff)
	require.Error(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryDeleteSeriesFromCounts(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLessonRepository(db)
	cutoff := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM lessons WHERE recurrence_group_id").
		WithArgs("grp", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(4)))
	mock.ExpectExec("SELECT id FROM lesson_enrollments").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM lesson_enrollments").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM lessons WHERE id").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	count, err := repo.DeleteSeriesFrom(context.Background(), "grp", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
