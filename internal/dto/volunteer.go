package dto

// CreateVolunteerRequest registers a volunteer.
type CreateVolunteerRequest struct {
	Email                string   `json:"email" validate:"required,email"`
	FullName             string   `json:"full_name" validate:"required"`
	Phone                string   `json:"phone"`
	PreferredWeeklyHours *float64 `json:"preferred_weekly_hours" validate:"omitempty,gt=0"`
}

// UpdateVolunteerRequest edits a volunteer.
type UpdateVolunteerRequest struct {
	Email                string   `json:"email" validate:"required,email"`
	FullName             string   `json:"full_name" validate:"required"`
	Phone                string   `json:"phone"`
	PreferredWeeklyHours *float64 `json:"preferred_weekly_hours" validate:"omitempty,gt=0"`
	Active               *bool    `json:"active"`
}

// AvailabilityWindow is one weekly free interval. Times are zero-padded
// 24-hour "HH:MM".
type AvailabilityWindow struct {
	Weekday   int    `json:"weekday" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// ReplaceAvailabilityRequest swaps a volunteer's weekly calendar.
type ReplaceAvailabilityRequest struct {
	Windows []AvailabilityWindow `json:"windows" validate:"dive"`
}

// UpsertPreferenceRequest sets a volunteer's rank for one class.
type UpsertPreferenceRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Rank    int    `json:"rank" validate:"required,min=1"`
}
