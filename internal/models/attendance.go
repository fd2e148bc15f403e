package models

import "time"

// AttendanceStatus represents the outcome recorded for an enrolled participant.
type AttendanceStatus string

const (
	AttendanceStatusPending AttendanceStatus = "Pending"
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusLate    AttendanceStatus = "Late"
)

// AttendanceRecord is the single attendance outcome of one enrollment.
type AttendanceRecord struct {
	ID           int64            `db:"id" json:"id"`
	EnrollmentID int64            `db:"enrollment_id" json:"enrollment_id"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
	RecordedAt   time.Time        `db:"recorded_at" json:"recorded_at"`
	RecordedBy   int64            `db:"recorded_by" json:"recorded_by"`
}

// SessionAttendanceRow is one line of a lesson's attendance sheet. Attendance fields are nil when
// nothing has been recorded yet.
type SessionAttendanceRow struct {
	EnrollmentID    int64             `db:"enrollment_id" json:"enrollment_id"`
	ParticipantID   int64             `db:"participant_id" json:"participant_id"`
	ParticipantName string            `db:"participant_name" json:"participant_name"`
	Status          *AttendanceStatus `db:"status" json:"status,omitempty"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	RecordedAt      *time.Time        `db:"recorded_at" json:"recorded_at,omitempty"`
	RecordedBy      *int64            `db:"recorded_by" json:"recorded_by,omitempty"`
}
