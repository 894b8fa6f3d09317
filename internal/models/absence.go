package models

import "time"

// AbsenceStatus is the derived state of an absence/coverage pair. It is
// always computed, never stored.
type AbsenceStatus string

const (
	AbsenceStatusPending         AbsenceStatus = "absence-pending"
	AbsenceStatusCoveragePending AbsenceStatus = "coverage-pending"
	AbsenceStatusOpen            AbsenceStatus = "open"
	AbsenceStatusResolved        AbsenceStatus = "resolved"
)

// AbsenceRequest is a volunteer's request to be excused from one shift.
// At most one open request exists per shift, enforced by a unique
// constraint on shift_id.
type AbsenceRequest struct {
	ID          string    `db:"id" json:"id"`
	ShiftID     string    `db:"shift_id" json:"shift_id"`
	VolunteerID string    `db:"volunteer_id" json:"volunteer_id"`
	Category    string    `db:"category" json:"category"`
	Details     string    `db:"details" json:"details"`
	Comments    string    `db:"comments" json:"comments"`
	Approved    bool      `db:"approved" json:"approved"`
	CoveredBy   *string   `db:"covered_by" json:"covered_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Status derives the workflow state from the request row and the number
// of coverage offers currently against it. A standing offer takes
// precedence over the approved flag: the request stays coverage-pending
// until an admin decides the offer, whether or not the absence itself
// was approved first.
func (r AbsenceRequest) Status(coverageOffers int) AbsenceStatus {
	switch {
	case r.CoveredBy != nil:
		return AbsenceStatusResolved
	case coverageOffers > 0:
		return AbsenceStatusCoveragePending
	case r.Approved:
		return AbsenceStatusOpen
	default:
		return AbsenceStatusPending
	}
}

// CoverageRequest is one volunteer's offer to cover an absent shift.
// Several volunteers may offer against the same absence; an admin later
// approves exactly one.
type CoverageRequest struct {
	ID               string    `db:"id" json:"id"`
	AbsenceRequestID string    `db:"absence_request_id" json:"absence_request_id"`
	VolunteerID      string    `db:"volunteer_id" json:"volunteer_id"`
	Message          string    `db:"message" json:"message"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// CoverageNeed is a coverage-board row: an approved, still uncovered
// absence joined with its shift and class context.
type CoverageNeed struct {
	AbsenceRequestID string    `db:"absence_request_id" json:"absence_request_id"`
	ShiftID          string    `db:"shift_id" json:"shift_id"`
	ScheduleID       string    `db:"schedule_id" json:"schedule_id"`
	ClassName        string    `db:"class_name" json:"class_name"`
	Date             time.Time `db:"shift_date" json:"shift_date"`
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	Category         string    `db:"category" json:"category"`
}
