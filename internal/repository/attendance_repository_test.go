package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-booking-api/internal/models"
)

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAttendanceRepository(db)
	now := time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC)
	note := "arrived with a cold"

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (enrollment_id) DO UPDATE SET")).
		WithArgs(int64(10), int64(7), models.AttendanceStatusLate, &note, now, int64(3), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "status", "notes", "recorded_at", "recorded_by"}).
			AddRow(int64(1), int64(55), "Late", note, now, int64(3)))

	record, err := repo.Upsert(context.Background(), AttendanceUpsert{
		LessonID: 10, ParticipantID: 7, Status: models.AttendanceStatusLate, Notes: &note, RecordedAt: now, RecordedBy: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(55), record.EnrollmentID)
	assert.Equal(t, models.AttendanceStatusLate, record.Status)
	require.NotNil(t, record.Notes)
	assert.Equal(t, note, *record.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertWithoutEnrollment(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAttendanceRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(int64(10), int64(8), models.AttendanceStatusPresent, nil, now, int64(3), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "status", "notes", "recorded_at", "recorded_by"}))

	_, err := repo.Upsert(context.Background(), AttendanceUpsert{
		LessonID: 10, ParticipantID: 8, Status: models.AttendanceStatusPresent, RecordedAt: now, RecordedBy: 3,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListBySession(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAttendanceRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN attendance_records a ON a.enrollment_id = e.id")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "participant_id", "participant_name", "status", "notes", "recorded_at", "recorded_by"}).
			AddRow(int64(55), int64(7), "Ana", "Present", nil, now, int64(3)).
			AddRow(int64(56), int64(9), "Budi", nil, nil, nil, nil))

	rows, err := repo.ListBySession(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Status)
	assert.Equal(t, models.AttendanceStatusPresent, *rows[0].Status)
	assert.Nil(t, rows[1].Status)
	assert.Nil(t, rows[1].RecordedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
