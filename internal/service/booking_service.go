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

type bookingStore interface {
	ListBooked(ctx context.Context, activityID int64) ([]models.BookingSummary, error)
	ListBookedAmong(ctx context.Context, activityIDs, participantIDs []int64) ([]models.BookingSummary, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	WithPairLock(ctx context.Context, activityID, participantID int64, fn func(repository.BookingTx) error) error
}

type activityReader interface {
	FindByID(ctx context.Context, id int64) (*models.Activity, error)
	ListEndingAfter(ctx context.Context, instant time.Time) ([]models.Activity, error)
}

type standingReader interface {
	ListUnbookedStandings(ctx context.Context, activityID int64) ([]models.ParticipantStanding, error)
	ListScopedStandings(ctx context.Context, scope models.ParticipantScope) ([]models.ParticipantStanding, error)
}

// BookingRules configures the booking engine.
type BookingRules struct {
	MaxParticipantAge int
	EnforceCapacity   bool
	Location          *time.Location
}

// BookingService computes activity eligibility and performs locked, re-validated bookings.
type BookingService struct {
	bookings        bookingStore
	activities      activityReader
	participants    standingReader
	evaluator       EligibilityEvaluator
	enforceCapacity bool
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	now             func() time.Time
}

// NewBookingService builds a BookingService with sane defaults.
func NewBookingService(
	bookings bookingStore,
	activities activityReader,
	participants standingReader,
	rules BookingRules,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:        bookings,
		activities:      activities,
		participants:    participants,
		evaluator:       NewEligibilityEvaluator(rules.MaxParticipantAge, rules.Location),
		enforceCapacity: rules.EnforceCapacity,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		now:             time.Now,
	}
}

// ListEligible returns the participants that currently qualify for the activity and are not booked on
// it. Age and level are evaluated against the current instant on every call.
func (s *BookingService) ListEligible(ctx context.Context, activityID int64) ([]dto.EligibleParticipant, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	standings, err := s.participants.ListUnbookedStandings(ctx, activityID)
	if err != nil {
		return nil, storeError(err, "failed to list participants")
	}
	return s.filterEligible(*activity, standings, nil, s.now()), nil
}

// ListBooked returns the bookings of the activity ordered by booking time.
func (s *BookingService) ListBooked(ctx context.Context, activityID int64) ([]models.BookingSummary, error) {
	if _, err := s.loadActivity(ctx, activityID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListBooked(ctx, activityID)
	if err != nil {
		return nil, storeError(err, "failed to list bookings")
	}
	if bookings == nil {
		bookings = []models.BookingSummary{}
	}
	return bookings, nil
}

// Book books the participant onto the activity. Under the pair lock it refuses an existing booking,
// re-evaluates eligibility against live data and, when enabled, the activity's capacity.
func (s *BookingService) Book(ctx context.Context, req dto.BookActivityRequest) (*models.ActivityBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid booking payload")
	}

	start := time.Now()
	var booking *models.ActivityBooking
	err := s.bookings.WithPairLock(ctx, req.ActivityID, req.ParticipantID, func(tx repository.BookingTx) error {
		existing, err := tx.ExistingBooking(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return appErrors.Clone(appErrors.ErrAlreadyBooked, "")
		}

		activity, err := tx.LockActivity(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
			}
			return err
		}
		standing, err := tx.Standing(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
			}
			return err
		}

		verdict := s.evaluator.Evaluate(*standing, *activity, false, s.now())
		if !verdict.Eligible {
			s.logger.Info("booking refused on re-validation",
				zap.Int64("activity_id", req.ActivityID),
				zap.Int64("participant_id", req.ParticipantID),
				zap.String("reason", string(verdict.Reason)),
			)
			return appErrors.Clone(appErrors.ErrEligibilityLost, "")
		}

		if s.enforceCapacity && activity.HasCapacityLimit() {
			count, err := tx.CountBookings(ctx)
			if err != nil {
				return err
			}
			if count >= activity.Capacity {
				return appErrors.Clone(appErrors.ErrCapacityReached, "")
			}
		}

		booking, err = tx.Insert(ctx, s.now().UTC(), req.ActingStaffID)
		if err != nil {
			if database.Classify(err) == database.KindUnique {
				return appErrors.WrapAs(appErrors.ErrAlreadyBooked, err, "")
			}
			return err
		}
		return nil
	})
	s.metrics.RecordBookingOutcome(bookingOutcome(err), time.Since(start))
	if err != nil {
		return nil, storeError(err, "failed to book activity")
	}

	s.logger.Info("activity booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("activity_id", booking.ActivityID),
		zap.Int64("participant_id", booking.ParticipantID),
		zap.Int64("booked_by", booking.BookedBy),
	)
	return booking, nil
}

// Cancel removes a booking. Cancelling a missing booking succeeds and reports false.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64) (bool, error) {
	if bookingID <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid booking id")
	}
	removed, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		return false, storeError(err, "failed to cancel booking")
	}
	if removed {
		s.logger.Info("booking cancelled", zap.Int64("booking_id", bookingID))
	}
	return removed, nil
}

// ManagerView lists upcoming activities with the eligible and booked participants among those the
// manager is guardian of.
func (s *BookingService) ManagerView(ctx context.Context, managerID int64) ([]dto.ActivityView, error) {
	return s.scopedView(ctx, models.ParticipantScope{Kind: models.ScopeGuardian, OwnerID: managerID})
}

// TeacherView lists upcoming activities with the eligible and booked participants on the teacher's
// roster.
func (s *BookingService) TeacherView(ctx context.Context, teacherID int64) ([]dto.ActivityView, error) {
	return s.scopedView(ctx, models.ParticipantScope{Kind: models.ScopeRoster, OwnerID: teacherID})
}

func (s *BookingService) scopedView(ctx context.Context, scope models.ParticipantScope) ([]dto.ActivityView, error) {
	views := []dto.ActivityView{}
	now := s.now()

	standings, err := s.participants.ListScopedStandings(ctx, scope)
	if err != nil {
		return nil, storeError(err, "failed to list related participants")
	}
	if len(standings) == 0 {
		return views, nil
	}
	activities, err := s.activities.ListEndingAfter(ctx, now)
	if err != nil {
		return nil, storeError(err, "failed to list activities")
	}
	if len(activities) == 0 {
		return views, nil
	}

	activityIDs := make([]int64, len(activities))
	for i, a := range activities {
		activityIDs[i] = a.ID
	}
	participantIDs := make([]int64, len(standings))
	for i, p := range standings {
		participantIDs[i] = p.ID
	}
	booked, err := s.bookings.ListBookedAmong(ctx, activityIDs, participantIDs)
	if err != nil {
		return nil, storeError(err, "failed to list bookings")
	}
	bookedByActivity := make(map[int64][]models.BookingSummary)
	for _, b := range booked {
		bookedByActivity[b.ActivityID] = append(bookedByActivity[b.ActivityID], b)
	}

	for _, activity := range activities {
		bookings := bookedByActivity[activity.ID]
		bookedSet := make(map[int64]struct{}, len(bookings))
		for _, b := range bookings {
			bookedSet[b.ParticipantID] = struct{}{}
		}
		eligible := s.filterEligible(activity, standings, bookedSet, now)
		if len(eligible) == 0 && len(bookings) == 0 {
			continue
		}
		if bookings == nil {
			bookings = []models.BookingSummary{}
		}
		views = append(views, dto.ActivityView{Activity: activity, Eligible: eligible, Booked: bookings})
	}
	return views, nil
}

func (s *BookingService) filterEligible(activity models.Activity, standings []models.ParticipantStanding, booked map[int64]struct{}, now time.Time) []dto.EligibleParticipant {
	eligible := []dto.EligibleParticipant{}
	for _, standing := range standings {
		_, isBooked := booked[standing.ID]
		verdict := s.evaluator.Evaluate(standing, activity, isBooked, now)
		if !verdict.Eligible {
			continue
		}
		eligible = append(eligible, dto.EligibleParticipant{
			ID:               standing.ID,
			FullName:         standing.FullName,
			Age:              verdict.Age,
			CurrentLevelID:   standing.CurrentLevelID,
			CurrentLevelName: standing.CurrentLevelName,
		})
	}
	return eligible
}

func (s *BookingService) loadActivity(ctx context.Context, activityID int64) (*models.Activity, error) {
	if activityID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid activity id")
	}
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, storeError(err, "failed to load activity")
	}
	return activity, nil
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return BookingOutcomeBooked
	case errors.Is(err, appErrors.ErrAlreadyBooked):
		return BookingOutcomeAlreadyBooked
	case errors.Is(err, appErrors.ErrEligibilityLost):
		return BookingOutcomeEligibilityLost
	case errors.Is(err, appErrors.ErrCapacityReached):
		return BookingOutcomeCapacityReached
	case database.IsTransient(err):
		return BookingOutcomeTransient
	default:
		return BookingOutcomeFailed
	}
}
