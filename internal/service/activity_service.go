package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

type activityWriter interface {
	Create(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// ActivityService creates and deletes activities.
type ActivityService struct {
	store     activityWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService builds an ActivityService with sane defaults.
func NewActivityService(store activityWriter, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{store: store, validator: validate, logger: logger}
}

// Create stores an activity with its eligible level set. An empty set admits every level and a zero
// capacity leaves the activity unlimited.
func (s *ActivityService) Create(ctx context.Context, req dto.CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid activity payload")
	}
	activity := &models.Activity{
		Name:             req.Name,
		Description:      req.Description,
		Venue:            req.Venue,
		StartAt:          req.StartAt.UTC(),
		EndAt:            req.EndAt.UTC(),
		Type:             req.Type,
		Capacity:         req.Capacity,
		EligibleLevelIDs: uniqueIDs(req.EligibleLevelIDs),
	}
	if err := s.store.Create(ctx, activity); err != nil {
		return nil, storeError(err, "failed to create activity")
	}
	s.logger.Info("activity created", zap.Int64("activity_id", activity.ID), zap.Int("levels", len(activity.EligibleLevelIDs)))
	return activity, nil
}

// Delete removes an activity with its bookings and level set. A missing activity reports false.
func (s *ActivityService) Delete(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid activity id")
	}
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, storeError(err, "failed to delete activity")
	}
	if removed {
		s.logger.Info("activity deleted", zap.Int64("activity_id", id))
	}
	return removed, nil
}
