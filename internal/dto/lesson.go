package dto

import (
	"fmt"
	"time"
)

// LessonKind distinguishes private from group lessons.
type LessonKind string

const (
	LessonKindSolo  LessonKind = "solo"
	LessonKindGroup LessonKind = "group"
)

// CreateLessonRequest creates a single lesson or a weekly series.
type CreateLessonRequest struct {
	OwnerID         int64      `json:"ownerId" validate:"required,gt=0"`
	ParticipantIDs  []int64    `json:"participantIds" validate:"required,min=1,dive,gt=0"`
	SubjectID       int64      `json:"subjectId" validate:"required,gt=0"`
	FirstStart      time.Time  `json:"firstStart" validate:"required"`
	DurationMinutes int        `json:"durationMinutes" validate:"required,gt=0,lte=1440"`
	OccurrenceCount int        `json:"occurrenceCount" validate:"required,gte=1"`
	Kind            LessonKind `json:"kind" validate:"omitempty,oneof=solo group"`
}

// CheckParticipantRule enforces the solo/group participant count business rule. It is applied by the
// request layer; the recurrence engine only requires a non-empty participant set.
func (r CreateLessonRequest) CheckParticipantRule() error {
	switch r.Kind {
	case LessonKindSolo:
		if len(r.ParticipantIDs) != 1 {
			return fmt.Errorf("solo lessons require exactly one participant, got %d", len(r.ParticipantIDs))
		}
	case LessonKindGroup:
		if len(r.ParticipantIDs) < 2 {
			return fmt.Errorf("group lessons require at least two participants, got %d", len(r.ParticipantIDs))
		}
	}
	return nil
}

// LessonOccurrence describes one created lesson.
type LessonOccurrence struct {
	ID      int64     `json:"id"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

// LessonSeriesResult is returned after creating a lesson or series.
type LessonSeriesResult struct {
	RecurrenceGroupID *string            `json:"recurrenceGroupId,omitempty"`
	ParticipantIDs    []int64            `json:"participantIds"`
	Sessions          []LessonOccurrence `json:"sessions"`
}

// DeleteSeriesRequest truncates a series from a cutoff instant onwards.
type DeleteSeriesRequest struct {
	RecurrenceGroupID string    `json:"recurrenceGroupId" validate:"required,uuid"`
	From              time.Time `json:"from" validate:"required"`
}
