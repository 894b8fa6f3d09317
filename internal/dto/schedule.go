package dto

// CreateClassRequest registers a class.
type CreateClassRequest struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
	InstructorName  string `json:"instructor_name" validate:"required"`
	InstructorEmail string `json:"instructor_email" validate:"required,email"`
}

// CreateScheduleRequest adds a recurring weekly slot to a class.
type CreateScheduleRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	Weekday     int    `json:"weekday" validate:"required,min=1,max=7"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
	SlotsNeeded int    `json:"slots_needed" validate:"omitempty,min=1"`
}
