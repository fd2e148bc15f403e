package models

import "time"

// ParticipantStanding carries the facts eligibility is decided on: birth date and the most recently
// completed curriculum level.
type ParticipantStanding struct {
	ID               int64     `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"full_name"`
	BirthDate        time.Time `db:"birth_date" json:"birth_date"`
	CurrentLevelID   *int64    `db:"current_level_id" json:"current_level_id,omitempty"`
	CurrentLevelName *string   `db:"current_level_name" json:"current_level_name,omitempty"`
}

// ScopeKind names the relationship a caller-scoped participant set is derived from.
type ScopeKind string

const (
	// ScopeGuardian selects participants linked to a manager through guardian_links.
	ScopeGuardian ScopeKind = "guardian"
	// ScopeRoster selects participants on a teacher's roster.
	ScopeRoster ScopeKind = "roster"
	// ScopeSelf selects the participant record bound to the caller's own user account.
	ScopeSelf ScopeKind = "self"
)

// ParticipantScope restricts a participant listing to one caller's related participants.
type ParticipantScope struct {
	Kind    ScopeKind
	OwnerID int64
}
