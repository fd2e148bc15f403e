package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/internal/repository"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

type enrollmentKey struct{ lessonID, participantID int64 }

// attendanceStoreStub mimics the upsert-by-enrollment statement.
type attendanceStoreStub struct {
	enrollments map[enrollmentKey]int64
	records     map[int64]*models.AttendanceRecord
	nextID      int64
	upsertErr   error
}

func newAttendanceStoreStub() *attendanceStoreStub {
	return &attendanceStoreStub{
		enrollments: map[enrollmentKey]int64{{10, 7}: 55, {10, 9}: 56},
		records:     map[int64]*models.AttendanceRecord{},
	}
}

func (s *attendanceStoreStub) Upsert(ctx context.Context, in repository.AttendanceUpsert) (*models.AttendanceRecord, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	enrollmentID, ok := s.enrollments[enrollmentKey{in.LessonID, in.ParticipantID}]
	if !ok {
		return nil, fmt.Errorf("upsert attendance: %w", sql.ErrNoRows)
	}
	record, exists := s.records[enrollmentID]
	if !exists {
		s.nextID++
		record = &models.AttendanceRecord{ID: s.nextID, EnrollmentID: enrollmentID, Notes: in.Notes}
		s.records[enrollmentID] = record
	} else if in.Notes != nil {
		record.Notes = in.Notes
	}
	record.Status = in.Status
	record.RecordedAt = in.RecordedAt
	record.RecordedBy = in.RecordedBy
	copied := *record
	return &copied, nil
}

func (s *attendanceStoreStub) ListBySession(ctx context.Context, lessonID int64) ([]models.SessionAttendanceRow, error) {
	var rows []models.SessionAttendanceRow
	for key, enrollmentID := range s.enrollments {
		if key.lessonID != lessonID {
			continue
		}
		row := models.SessionAttendanceRow{EnrollmentID: enrollmentID, ParticipantID: key.participantID}
		if record, ok := s.records[enrollmentID]; ok {
			status := record.Status
			row.Status = &status
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type lessonFinderStub struct{ lessons map[int64]models.Lesson }

func (s lessonFinderStub) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	if l, ok := s.lessons[id]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func newAttendanceFixture() (*AttendanceService, *attendanceStoreStub) {
	store := newAttendanceStoreStub()
	finder := lessonFinderStub{lessons: map[int64]models.Lesson{10: {ID: 10}, 11: {ID: 11}}}
	svc := NewAttendanceService(store, finder, nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC) }
	return svc, store
}

func strRef(v string) *string { return &v }

func TestMarkAttendanceTwiceKeepsOneRecord(t *testing.T) {
	svc, store := newAttendanceFixture()
	ctx := context.Background()

	first, err := svc.Mark(ctx, dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 7, ActorID: 3, Status: models.AttendanceStatusPresent, Notes: strRef("on time")})
	require.NoError(t, err)
	second, err := svc.Mark(ctx, dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 7, ActorID: 4, Status: models.AttendanceStatusLate})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, store.records, 1)
	record := store.records[55]
	assert.Equal(t, models.AttendanceStatusLate, record.Status)
	assert.Equal(t, int64(4), record.RecordedBy)
	require.NotNil(t, record.Notes)
	assert.Equal(t, "on time", *record.Notes)
}

func TestMarkAttendanceUpdatesNoteOnly(t *testing.T) {
	svc, store := newAttendanceFixture()
	ctx := context.Background()

	_, err := svc.Mark(ctx, dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 9, ActorID: 3, Status: models.AttendanceStatusAbsent})
	require.NoError(t, err)
	_, err = svc.Mark(ctx, dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 9, ActorID: 3, Status: models.AttendanceStatusAbsent, Notes: strRef("sick note received")})
	require.NoError(t, err)

	record := store.records[56]
	assert.Equal(t, models.AttendanceStatusAbsent, record.Status)
	assert.Equal(t, "sick note received", *record.Notes)
}

func TestMarkAttendanceNotEnrolled(t *testing.T) {
	svc, store := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 8, ActorID: 3, Status: models.AttendanceStatusPresent})
	assert.ErrorIs(t, err, appErrors.ErrNotEnrolled)

	store.upsertErr = &pq.Error{Code: "23503"}
	_, err = svc.Mark(context.Background(), dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 7, ActorID: 3, Status: models.AttendanceStatusPresent})
	assert.ErrorIs(t, err, appErrors.ErrNotEnrolled)
}

func TestMarkAttendanceRejectsUnknownStatus(t *testing.T) {
	svc, store := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 7, ActorID: 3, Status: "Excused"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.records)
}

func TestListForSession(t *testing.T) {
	svc, _ := newAttendanceFixture()
	ctx := context.Background()

	_, err := svc.Mark(ctx, dto.MarkAttendanceRequest{LessonID: 10, ParticipantID: 7, ActorID: 3, Status: models.AttendanceStatusPresent})
	require.NoError(t, err)

	rows, err := svc.ListForSession(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = svc.ListForSession(ctx, 11)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = svc.ListForSession(ctx, 12)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
