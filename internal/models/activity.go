package models

import (
	"time"

	"github.com/lib/pq"
)

// Activity is a capacity-limited event booked per participant.
type Activity struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Venue       string    `db:"venue" json:"venue"`
	StartAt     time.Time `db:"start_at" json:"start_at"`
	EndAt       time.Time `db:"end_at" json:"end_at"`
	Type        string    `db:"type" json:"type"`
	Capacity    int       `db:"capacity" json:"capacity"`
	// EligibleLevelIDs is empty when every level is admitted.
	EligibleLevelIDs pq.Int64Array `db:"eligible_level_ids" json:"eligible_level_ids"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// HasCapacityLimit reports whether Capacity constrains bookings.
func (a Activity) HasCapacityLimit() bool {
	return a.Capacity > 0
}

// ActivityBooking records a participant booked onto an activity by a staff member.
type ActivityBooking struct {
	ID            int64     `db:"id" json:"id"`
	ActivityID    int64     `db:"activity_id" json:"activity_id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	BookedAt      time.Time `db:"booked_at" json:"booked_at"`
	BookedBy      int64     `db:"booked_by" json:"booked_by"`
}

// BookingSummary enriches a booking with the participant's display name.
type BookingSummary struct {
	ActivityBooking
	ParticipantName string `db:"participant_name" json:"participant_name"`
}
