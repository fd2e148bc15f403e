package dto

import "github.com/noah-isme/roster-booking-api/internal/models"

// MarkAttendanceRequest records the outcome for one participant of one lesson. A nil Notes keeps the
// stored note; an empty string clears it.
type MarkAttendanceRequest struct {
	LessonID      int64                   `json:"-" validate:"required,gt=0"`
	ParticipantID int64                   `json:"participantId" validate:"required,gt=0"`
	ActorID       int64                   `json:"-" validate:"required,gt=0"`
	Status        models.AttendanceStatus `json:"status" validate:"required,oneof=Pending Present Absent Late"`
	Notes         *string                 `json:"notes" validate:"omitempty,max=2000"`
}
