package models

import "time"

// AvailabilityInterval is a weekly window in which a volunteer is free to
// work. Weekday runs 1-7 with 1 = Monday; times are zero-padded "HH:MM"
// strings, which makes lexical comparison equivalent to chronological
// comparison.
type AvailabilityInterval struct {
	ID          string    `db:"id" json:"id"`
	VolunteerID string    `db:"volunteer_id" json:"volunteer_id"`
	Weekday     int       `db:"weekday" json:"weekday"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the interval fully contains the given window on
// the same weekday. Equal endpoints count as covering; partial overlap
// does not.
func (a AvailabilityInterval) Covers(weekday int, start, end string) bool {
	return a.Weekday == weekday && a.StartTime <= start && a.EndTime >= end
}
