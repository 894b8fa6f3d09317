package models

import "time"

// Class represents a recurring class volunteers can be assigned to.
type Class struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	InstructorName  string    `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string    `db:"instructor_email" json:"instructor_email"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
