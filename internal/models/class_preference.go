package models

import "time"

// ClassPreference records how much a volunteer wants to work a class.
// Lower rank means more preferred. A volunteer has at most one record per
// class; absence of a record means "no preference".
type ClassPreference struct {
	ID          string    `db:"id" json:"id"`
	VolunteerID string    `db:"volunteer_id" json:"volunteer_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Rank        int       `db:"rank" json:"rank"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
