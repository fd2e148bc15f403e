package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/internal/repository"
	"github.com/noah-isme/roster-booking-api/pkg/database"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

type attendanceStore interface {
	Upsert(ctx context.Context, in repository.AttendanceUpsert) (*models.AttendanceRecord, error)
	ListBySession(ctx context.Context, lessonID int64) ([]models.SessionAttendanceRow, error)
}

type lessonFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
}

// AttendanceService records attendance outcomes, one record per enrollment.
type AttendanceService struct {
	store     attendanceStore
	lessons   lessonFinder
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService builds an AttendanceService with sane defaults.
func NewAttendanceService(store attendanceStore, lessons lessonFinder, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{store: store, lessons: lessons, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Mark records the attendance of one participant for one lesson, updating the existing record in place
// when there is one. It fails with NotEnrolled when the participant is not enrolled in the lesson.
func (s *AttendanceService) Mark(ctx context.Context, req dto.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}

	record, err := s.store.Upsert(ctx, repository.AttendanceUpsert{
		LessonID:      req.LessonID,
		ParticipantID: req.ParticipantID,
		Status:        req.Status,
		Notes:         req.Notes,
		RecordedAt:    s.now().UTC(),
		RecordedBy:    req.ActorID,
	})
	if err != nil {
		// the enrollment can also disappear between lookup and write when its lesson is deleted concurrently
		if errors.Is(err, sql.ErrNoRows) || database.Classify(err) == database.KindIntegrity {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return nil, storeError(err, "failed to record attendance")
	}

	_ = s.cache.Invalidate(ctx, scheduleCachePattern)
	s.metrics.RecordAttendanceMark(string(record.Status))
	s.logger.Info("attendance recorded",
		zap.Int64("lesson_id", req.LessonID),
		zap.Int64("participant_id", req.ParticipantID),
		zap.Int64("enrollment_id", record.EnrollmentID),
		zap.String("status", string(record.Status)),
		zap.Int64("recorded_by", record.RecordedBy),
	)
	return record, nil
}

// ListForSession returns the attendance sheet of a lesson. Enrollments without a record carry no status.
func (s *AttendanceService) ListForSession(ctx context.Context, lessonID int64) ([]models.SessionAttendanceRow, error) {
	if lessonID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson id")
	}
	rows, err := s.store.ListBySession(ctx, lessonID)
	if err != nil {
		return nil, storeError(err, "failed to list attendance")
	}
	if len(rows) > 0 {
		return rows, nil
	}
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, storeError(err, "failed to load lesson")
	}
	return []models.SessionAttendanceRow{}, nil
}
