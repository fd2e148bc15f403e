package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

const weeklyInterval = 7 * 24 * time.Hour

type lessonStore interface {
	CreateSeries(ctx context.Context, lessons []models.Lesson, participantIDs []int64) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteSeriesFrom(ctx context.Context, groupID string, cutoff time.Time) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Lesson, error)
}

// LessonService creates lessons and weekly series and deletes sessions or series tails.
type LessonService struct {
	store          lessonStore
	cache          *CacheService
	metrics        *MetricsService
	maxOccurrences int
	location       *time.Location
	validator      *validator.Validate
	logger         *zap.Logger
	newGroupID     func() string
}

// NewLessonService builds a LessonService with sane defaults.
func NewLessonService(
	store lessonStore,
	cache *CacheService,
	metrics *MetricsService,
	maxOccurrences int,
	loc *time.Location,
	validate *validator.Validate,
	logger *zap.Logger,
) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LessonService{
		store:          store,
		cache:          cache,
		metrics:        metrics,
		maxOccurrences: maxOccurrences,
		location:       loc,
		validator:      validate,
		logger:         logger,
		newGroupID:     uuid.NewString,
	}
}

// CreateSeries creates OccurrenceCount weekly lessons, each enrolling the same participants. A
// recurrence group id is assigned only when more than one occurrence is created. The participant
// count rule for solo and group lessons is the caller's precondition.
func (s *LessonService) CreateSeries(ctx context.Context, req dto.CreateLessonRequest) (*dto.LessonSeriesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lesson payload")
	}
	if s.maxOccurrences > 0 && req.OccurrenceCount > s.maxOccurrences {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("occurrenceCount must not exceed %d", s.maxOccurrences))
	}

	participants := uniqueIDs(req.ParticipantIDs)
	var groupID *string
	if req.OccurrenceCount > 1 {
		id := s.newGroupID()
		groupID = &id
	}

	lessons := buildOccurrences(req, s.location, groupID)
	if err := s.store.CreateSeries(ctx, lessons, participants); err != nil {
		return nil, storeError(err, "failed to create lessons")
	}

	s.invalidateSchedules(ctx)
	s.metrics.AddLessonsCreated(len(lessons))

	result := &dto.LessonSeriesResult{
		RecurrenceGroupID: groupID,
		ParticipantIDs:    participants,
		Sessions:          make([]dto.LessonOccurrence, len(lessons)),
	}
	for i, l := range lessons {
		result.Sessions[i] = dto.LessonOccurrence{ID: l.ID, StartAt: l.StartAt, EndAt: l.EndAt}
	}

	fields := []zap.Field{
		zap.Int64("owner_id", req.OwnerID),
		zap.Int("occurrences", len(lessons)),
		zap.Int("participants", len(participants)),
	}
	if groupID != nil {
		fields = append(fields, zap.String("recurrence_group_id", *groupID))
	}
	s.logger.Info("lessons created", fields...)
	return result, nil
}

// buildOccurrences lays out lesson i at FirstStart + i weeks. The step is a fixed 168 hours on the
// reference timezone, independent of daylight saving transitions.
func buildOccurrences(req dto.CreateLessonRequest, loc *time.Location, groupID *string) []models.Lesson {
	first := req.FirstStart.In(loc)
	duration := time.Duration(req.DurationMinutes) * time.Minute
	lessons := make([]models.Lesson, req.OccurrenceCount)
	for i := range lessons {
		start := first.Add(time.Duration(i) * weeklyInterval)
		lessons[i] = models.Lesson{
			OwnerID:           req.OwnerID,
			SubjectID:         req.SubjectID,
			StartAt:           start,
			EndAt:             start.Add(duration),
			DurationMinutes:   req.DurationMinutes,
			Status:            models.LessonStatusScheduled,
			RecurrenceGroupID: groupID,
		}
	}
	return lessons
}

// Get loads one lesson.
func (s *LessonService) Get(ctx context.Context, id int64) (*models.Lesson, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson id")
	}
	lesson, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, storeError(err, "failed to load lesson")
	}
	return lesson, nil
}

// ListSeries returns every lesson of a recurrence group ordered by start.
func (s *LessonService) ListSeries(ctx context.Context, groupID string) ([]models.Lesson, error) {
	if err := s.validator.Var(groupID, "required,uuid"); err != nil {
		return nil, validationError(err, "invalid recurrence group id")
	}
	lessons, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(err, "failed to list lesson series")
	}
	if len(lessons) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson series not found")
	}
	return lessons, nil
}

// DeleteSession removes a lesson with its enrollments and attendance. A missing lesson reports false.
func (s *LessonService) DeleteSession(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid lesson id")
	}
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, storeError(err, "failed to delete lesson")
	}
	if removed {
		s.invalidateSchedules(ctx)
		s.metrics.AddLessonsDeleted(1)
		s.logger.Info("lesson deleted", zap.Int64("lesson_id", id))
	}
	return removed, nil
}

// DeleteSeriesFrom removes every lesson of the group starting at or after the cutoff and reports how
// many were removed.
func (s *LessonService) DeleteSeriesFrom(ctx context.Context, req dto.DeleteSeriesRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid series deletion payload")
	}
	count, err := s.store.DeleteSeriesFrom(ctx, req.RecurrenceGroupID, req.From)
	if err != nil {
		return 0, storeError(err, "failed to delete lesson series")
	}
	if count > 0 {
		s.invalidateSchedules(ctx)
		s.metrics.AddLessonsDeleted(count)
	}
	s.logger.Info("lesson series truncated",
		zap.String("recurrence_group_id", req.RecurrenceGroupID),
		zap.Time("from", req.From),
		zap.Int64("removed", count),
	)
	return count, nil
}

func (s *LessonService) invalidateSchedules(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, scheduleCachePattern)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
