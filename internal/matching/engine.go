// Package matching implements the volunteer-to-schedule assignment
// engine: a deterministic, single-pass procedure an admin can audit by
// replaying its three rules in order (availability coverage, preference
// rank, preferred-hours partition). It never backtracks; an earlier
// schedule's assignment is never revisited for a later one.
package matching

import (
	"fmt"
	"sort"

	"github.com/shiftwise/volunteer-api/internal/models"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

// Assignment pairs a volunteer with a schedule. It has no identity of
// its own until persisted.
type Assignment struct {
	VolunteerID string `db:"volunteer_id" json:"volunteer_id"`
	ScheduleID  string `db:"schedule_id" json:"schedule_id"`
}

// Hours accumulates assigned weekly hours per volunteer for one matching
// run. It is passed in explicitly and returned updated so concurrent
// runs stay isolated.
type Hours map[string]float64

// Clone returns an independent copy of the accumulator.
func (h Hours) Clone() Hours {
	out := make(Hours, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Input bundles the matching universe. Match never mutates any of it.
type Input struct {
	Volunteers     []models.Volunteer
	Availabilities []models.AvailabilityInterval
	Preferences    []models.ClassPreference
	Schedules      []models.Schedule
}

// Match assigns volunteers to schedules, processing schedules strictly
// in input order. Per schedule it filters volunteers whose availability
// covers the time window, orders them by ascending preference rank
// (missing rank sorts last, ties keep volunteer input order), stably
// partitions under-cap candidates ahead of at/over-cap ones, and assigns
// up to SlotsNeeded of them. A schedule with no candidates yields no
// assignments and no error; a malformed schedule aborts the whole run.
func Match(in Input, hours Hours) ([]Assignment, Hours, error) {
	acc := hours.Clone()
	ranks := rankIndex(in.Preferences)
	windows := windowIndex(in.Availabilities)

	assignments := make([]Assignment, 0, len(in.Schedules))
	for _, schedule := range in.Schedules {
		duration, err := validateSchedule(schedule)
		if err != nil {
			return nil, nil, err
		}

		candidates := make([]models.Volunteer, 0)
		for _, vol := range in.Volunteers {
			for _, window := range windows[vol.ID] {
				if window.Covers(schedule.Weekday, schedule.StartTime, schedule.EndTime) {
					candidates = append(candidates, vol)
					break
				}
			}
		}

		classRanks := ranks[schedule.ClassID]
		sort.SliceStable(candidates, func(i, j int) bool {
			ri, iOK := classRanks[candidates[i].ID]
			rj, jOK := classRanks[candidates[j].ID]
			switch {
			case iOK && jOK:
				return ri < rj
			case iOK:
				return true
			default:
				return false
			}
		})

		// Under-cap candidates always beat at/over-cap ones, but rank
		// order is preserved inside each partition.
		ordered := make([]models.Volunteer, 0, len(candidates))
		overCap := make([]models.Volunteer, 0)
		for _, vol := range candidates {
			if vol.PreferredWeeklyHours != nil && acc[vol.ID] >= *vol.PreferredWeeklyHours {
				overCap = append(overCap, vol)
				continue
			}
			ordered = append(ordered, vol)
		}
		ordered = append(ordered, overCap...)

		slots := schedule.SlotsNeeded
		if slots <= 0 {
			slots = 1
		}
		if slots > len(ordered) {
			slots = len(ordered)
		}
		for _, vol := range ordered[:slots] {
			assignments = append(assignments, Assignment{VolunteerID: vol.ID, ScheduleID: schedule.ID})
			acc[vol.ID] += duration
		}
	}

	return assignments, acc, nil
}

// rankIndex maps class id -> volunteer id -> rank.
func rankIndex(prefs []models.ClassPreference) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, pref := range prefs {
		byVolunteer, ok := out[pref.ClassID]
		if !ok {
			byVolunteer = make(map[string]int)
			out[pref.ClassID] = byVolunteer
		}
		byVolunteer[pref.VolunteerID] = pref.Rank
	}
	return out
}

func windowIndex(avails []models.AvailabilityInterval) map[string][]models.AvailabilityInterval {
	out := make(map[string][]models.AvailabilityInterval)
	for _, a := range avails {
		out[a.VolunteerID] = append(out[a.VolunteerID], a)
	}
	return out
}

// validateSchedule fails fast on unparseable schedules: a single bad
// record means no assignment in the batch can be trusted.
func validateSchedule(s models.Schedule) (float64, error) {
	if s.ID == "" {
		return 0, appErrors.Clone(appErrors.ErrDataIntegrity, "schedule has no id")
	}
	if s.Weekday < 1 || s.Weekday > 7 {
		return 0, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("schedule %s has invalid weekday %d", s.ID, s.Weekday))
	}
	start, err := minutesOfDay(s.StartTime)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("schedule %s has invalid start time %q", s.ID, s.StartTime))
	}
	end, err := minutesOfDay(s.EndTime)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("schedule %s has invalid end time %q", s.ID, s.EndTime))
	}
	if end <= start {
		return 0, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("schedule %s ends before it starts", s.ID))
	}
	return float64(end-start) / 60.0, nil
}

func minutesOfDay(value string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(value, "%2d:%2d", &hh, &mm); err != nil {
		return 0, err
	}
	if len(value) != 5 || value[2] != ':' || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid time of day: %q", value)
	}
	return hh*60 + mm, nil
}
