package dto

import (
	"time"

	"github.com/noah-isme/roster-booking-api/internal/models"
)

// ScheduleWindow optionally bounds a schedule query to [From, To).
type ScheduleWindow struct {
	From *time.Time
	To   *time.Time
}

// ScheduleRow is one flattened lesson x enrollment row. Enrollment columns are nil for lessons
// without participants.
type ScheduleRow struct {
	LessonID          int64                    `db:"lesson_id"`
	OwnerID           int64                    `db:"owner_id"`
	SubjectID         int64                    `db:"subject_id"`
	SubjectName       *string                  `db:"subject_name"`
	StartAt           time.Time                `db:"start_at"`
	EndAt             time.Time                `db:"end_at"`
	DurationMinutes   int                      `db:"duration_minutes"`
	Status            models.LessonStatus      `db:"status"`
	RecurrenceGroupID *string                  `db:"recurrence_group_id"`
	EnrollmentID      *int64                   `db:"enrollment_id"`
	ParticipantID     *int64                   `db:"participant_id"`
	ParticipantName   *string                  `db:"participant_name"`
	GuardianNote      *string                  `db:"guardian_note"`
	AttendanceStatus  *models.AttendanceStatus `db:"attendance_status"`
	AttendanceNotes   *string                  `db:"attendance_notes"`
	GuardianName      *string                  `db:"guardian_name"`
	GuardianEmail     *string                  `db:"guardian_email"`
	GuardianPhone     *string                  `db:"guardian_phone"`
	SelfManaged       *bool                    `db:"self_managed"`
}

// ScheduleParticipant is an enrolled participant inside a session view.
type ScheduleParticipant struct {
	EnrollmentID     int64                    `json:"enrollmentId"`
	ParticipantID    int64                    `json:"participantId"`
	ParticipantName  string                   `json:"participantName"`
	GuardianNote     *string                  `json:"guardianNote,omitempty"`
	AttendanceStatus *models.AttendanceStatus `json:"attendanceStatus,omitempty"`
	AttendanceNotes  *string                  `json:"attendanceNotes,omitempty"`
	GuardianName     *string                  `json:"guardianName,omitempty"`
	GuardianEmail    *string                  `json:"guardianEmail,omitempty"`
	GuardianPhone    *string                  `json:"guardianPhone,omitempty"`
	SelfManaged      bool                     `json:"selfManaged"`
}

// SessionView is a lesson with its enrolled participants.
type SessionView struct {
	LessonID          int64                 `json:"lessonId"`
	OwnerID           int64                 `json:"ownerId"`
	SubjectID         int64                 `json:"subjectId"`
	SubjectName       *string               `json:"subjectName,omitempty"`
	StartAt           time.Time             `json:"startAt"`
	EndAt             time.Time             `json:"endAt"`
	DurationMinutes   int                   `json:"durationMinutes"`
	Status            models.LessonStatus   `json:"status"`
	RecurrenceGroupID *string               `json:"recurrenceGroupId,omitempty"`
	Participants      []ScheduleParticipant `json:"participants"`
}
