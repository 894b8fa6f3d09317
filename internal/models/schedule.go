package models

import "time"

// Schedule is a single recurring weekly time-slot belonging to a class.
// It is the atomic unit volunteers are matched onto.
type Schedule struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Weekday     int       `db:"weekday" json:"weekday"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	SlotsNeeded int       `db:"slots_needed" json:"slots_needed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	ClassID string
	Weekday int
}
