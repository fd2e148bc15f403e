package models

import "time"

// LessonStatus represents the lifecycle of a scheduled lesson.
type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "scheduled"
	LessonStatusCompleted LessonStatus = "completed"
	LessonStatusCancelled LessonStatus = "cancelled"
)

// Lesson is one scheduled session owned by a teacher. EndAt always equals StartAt + DurationMinutes.
type Lesson struct {
	ID                int64        `db:"id" json:"id"`
	OwnerID           int64        `db:"owner_id" json:"owner_id"`
	SubjectID         int64        `db:"subject_id" json:"subject_id"`
	StartAt           time.Time    `db:"start_at" json:"start_at"`
	EndAt             time.Time    `db:"end_at" json:"end_at"`
	DurationMinutes   int          `db:"duration_minutes" json:"duration_minutes"`
	Status            LessonStatus `db:"status" json:"status"`
	RecurrenceGroupID *string      `db:"recurrence_group_id" json:"recurrence_group_id,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
}
