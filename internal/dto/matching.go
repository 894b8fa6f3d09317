package dto

import "github.com/shiftwise/volunteer-api/internal/matching"

// RunMatchingRequest triggers a matching run. Shifts are materialized
// for every date within [from, to] whose weekday matches an assigned
// schedule.
type RunMatchingRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// RunMatchingResponse reports the outcome of a matching run.
type RunMatchingResponse struct {
	RunID         string                `json:"run_id"`
	Assignments   []matching.Assignment `json:"assignments"`
	ShiftsCreated int                   `json:"shifts_created"`
}
