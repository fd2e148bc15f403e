package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/roster-booking-api/internal/models"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

type participantStore interface {
	Remove(ctx context.Context, id int64) (bool, error)
	InScope(ctx context.Context, participantID int64, scope models.ParticipantScope) (bool, error)
}

// ParticipantService removes participants together with everything that references them.
type ParticipantService struct {
	store  participantStore
	cache  *CacheService
	logger *zap.Logger
}

// NewParticipantService constructs a ParticipantService.
func NewParticipantService(store participantStore, cache *CacheService, logger *zap.Logger) *ParticipantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipantService{store: store, cache: cache, logger: logger}
}

// Remove deletes the participant with their attendance, enrollments, bookings, guardian links, roster
// entries and level completions. References outside that set fail with IntegrityConflict.
func (s *ParticipantService) Remove(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid participant id")
	}
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return false, storeError(err, "failed to remove participant")
	}
	if removed {
		_ = s.cache.Invalidate(ctx, scheduleCachePattern)
		s.logger.Info("participant removed", zap.Int64("participant_id", id))
	}
	return removed, nil
}

// AuthorizeView decides whether the caller may read the participant's records. Staff read any
// participant, managers only those linked to them through guardian_links and students only the
// participant bound to their own account.
func (s *ParticipantService) AuthorizeView(ctx context.Context, claims *models.JWTClaims, participantID int64) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if participantID <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid participant id")
	}

	var kind models.ScopeKind
	switch claims.Role {
	case models.RoleAdmin, models.RoleTeacher:
		return nil
	case models.RoleManager:
		kind = models.ScopeGuardian
	case models.RoleStudent:
		kind = models.ScopeSelf
	default:
		return appErrors.ErrForbidden
	}

	related, err := s.store.InScope(ctx, participantID, models.ParticipantScope{Kind: kind, OwnerID: claims.UserID})
	if err != nil {
		return storeError(err, "failed to resolve participant access")
	}
	if !related {
		s.logger.Warn("participant access denied",
			zap.Int64("user_id", claims.UserID),
			zap.String("role", string(claims.Role)),
			zap.Int64("participant_id", participantID),
		)
		return appErrors.ErrForbidden
	}
	return nil
}
