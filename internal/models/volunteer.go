package models

import "time"

// Volunteer represents a registered volunteer.
type Volunteer struct {
	ID                   string   `db:"id" json:"id"`
	Email                string   `db:"email" json:"email"`
	FullName             string   `db:"full_name" json:"full_name"`
	Phone                string   `db:"phone" json:"phone"`
	PreferredWeeklyHours *float64 `db:"preferred_weekly_hours" json:"preferred_weekly_hours,omitempty"`
	// HoursAssigned is mutated only by matching runs and shift check-in.
	HoursAssigned float64   `db:"hours_assigned" json:"hours_assigned"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// VolunteerFilter describes query params for listing volunteers.
type VolunteerFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
