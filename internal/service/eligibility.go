package service

import (
	"time"

	"github.com/noah-isme/roster-booking-api/internal/models"
)

// IneligibleReason explains why a participant does not qualify for an activity.
type IneligibleReason string

const (
	ReasonNone          IneligibleReason = ""
	ReasonTooOld        IneligibleReason = "too_old"
	ReasonLevelMismatch IneligibleReason = "level_not_admitted"
	ReasonAlreadyBooked IneligibleReason = "already_booked"
)

// Verdict is the outcome of one eligibility evaluation.
type Verdict struct {
	Eligible bool
	Reason   IneligibleReason
	Age      int
}

// EligibilityEvaluator decides whether a participant currently qualifies for an activity. It holds no
// state beyond its rules and has no side effects.
type EligibilityEvaluator struct {
	maxAge   int
	location *time.Location
}

// NewEligibilityEvaluator builds an evaluator admitting participants up to maxAge whole years inclusive,
// with ages computed on the calendar of loc.
func NewEligibilityEvaluator(maxAge int, loc *time.Location) EligibilityEvaluator {
	if loc == nil {
		loc = time.UTC
	}
	return EligibilityEvaluator{maxAge: maxAge, location: loc}
}

// Evaluate applies the age, level and booking rules in that order, reporting the first that fails.
func (e EligibilityEvaluator) Evaluate(standing models.ParticipantStanding, activity models.Activity, alreadyBooked bool, now time.Time) Verdict {
	age := AgeInYears(standing.BirthDate, now, e.location)
	verdict := Verdict{Age: age}
	switch {
	case age > e.maxAge:
		verdict.Reason = ReasonTooOld
	case !levelAdmitted(activity.EligibleLevelIDs, standing.CurrentLevelID):
		verdict.Reason = ReasonLevelMismatch
	case alreadyBooked:
		verdict.Reason = ReasonAlreadyBooked
	default:
		verdict.Eligible = true
	}
	return verdict
}

// levelAdmitted treats an empty level set as unrestricted. A participant without a completed level is
// admitted only by an unrestricted activity.
func levelAdmitted(levels []int64, current *int64) bool {
	if len(levels) == 0 {
		return true
	}
	if current == nil {
		return false
	}
	for _, id := range levels {
		if id == *current {
			return true
		}
	}
	return false
}

// AgeInYears returns the number of whole years between the birth date and now, read on the calendar of
// loc. The birth date is taken as a calendar date regardless of its location.
func AgeInYears(birthDate, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	by, bm, bd := birthDate.Date()
	ny, nm, nd := now.In(loc).Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
