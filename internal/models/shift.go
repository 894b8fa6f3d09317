package models

import "time"

// Shift is one concrete calendar occurrence of a Schedule, owned by one
// volunteer. Coverage operates on shifts, never on schedules directly.
type Shift struct {
	ID          string    `db:"id" json:"id"`
	ScheduleID  string    `db:"schedule_id" json:"schedule_id"`
	VolunteerID string    `db:"volunteer_id" json:"volunteer_id"`
	Date        time.Time `db:"shift_date" json:"shift_date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CheckedIn   bool      `db:"checked_in" json:"checked_in"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ShiftDetail enriches a shift with descriptive fields for listings.
type ShiftDetail struct {
	Shift
	ClassName     string `db:"class_name" json:"class_name"`
	VolunteerName string `db:"volunteer_name" json:"volunteer_name"`
}
