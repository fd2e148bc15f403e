package dto

import (
	"time"

	"github.com/noah-isme/roster-booking-api/internal/models"
)

// BookActivityRequest books one participant onto an activity.
type BookActivityRequest struct {
	ActivityID    int64 `json:"-" validate:"required,gt=0"`
	ParticipantID int64 `json:"participantId" validate:"required,gt=0"`
	ActingStaffID int64 `json:"-" validate:"required,gt=0"`
}

// CreateActivityRequest creates an activity with its eligible level set.
type CreateActivityRequest struct {
	Name             string    `json:"name" validate:"required,max=200"`
	Description      string    `json:"description" validate:"max=4000"`
	Venue            string    `json:"venue" validate:"max=200"`
	StartAt          time.Time `json:"startAt" validate:"required"`
	EndAt            time.Time `json:"endAt" validate:"required,gtfield=StartAt"`
	Type             string    `json:"type" validate:"max=50"`
	Capacity         int       `json:"capacity" validate:"gte=0"`
	EligibleLevelIDs []int64   `json:"eligibleLevelIds" validate:"dive,gt=0"`
}

// EligibleParticipant is a participant who currently qualifies for an activity.
type EligibleParticipant struct {
	ID               int64   `json:"id"`
	FullName         string  `json:"fullName"`
	Age              int     `json:"age"`
	CurrentLevelID   *int64  `json:"currentLevelId,omitempty"`
	CurrentLevelName *string `json:"currentLevelName,omitempty"`
}

// ActivityView is a caller-scoped projection of one upcoming activity.
type ActivityView struct {
	Activity models.Activity         `json:"activity"`
	Eligible []EligibleParticipant   `json:"eligible"`
	Booked   []models.BookingSummary `json:"booked"`
}
