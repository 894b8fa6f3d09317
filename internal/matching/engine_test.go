package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/volunteer-api/internal/models"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

func volunteer(id string, cap *float64) models.Volunteer {
	return models.Volunteer{ID: id, FullName: id, PreferredWeeklyHours: cap, Active: true}
}

func window(volID string, weekday int, start, end string) models.AvailabilityInterval {
	return models.AvailabilityInterval{ID: volID + "-w", VolunteerID: volID, Weekday: weekday, StartTime: start, EndTime: end}
}

func pref(volID, classID string, rank int) models.ClassPreference {
	return models.ClassPreference{ID: volID + "-" + classID, VolunteerID: volID, ClassID: classID, Rank: rank}
}

func schedule(id, classID string, weekday int, start, end string, slots int) models.Schedule {
	return models.Schedule{ID: id, ClassID: classID, Weekday: weekday, StartTime: start, EndTime: end, SlotsNeeded: slots}
}

func capOf(v float64) *float64 { return &v }

func TestMatchNoCandidatesYieldsNothing(t *testing.T) {
	in := Input{
		Volunteers:     []models.Volunteer{volunteer("v1", nil)},
		Availabilities: []models.AvailabilityInterval{window("v1", 2, "09:00", "11:00")},
		Schedules:      []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:30", 1)},
	}
	out, hours, err := Match(in, Hours{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, hours)
}

func TestMatchExactWindowCounts(t *testing.T) {
	in := Input{
		Volunteers:     []models.Volunteer{volunteer("v1", nil)},
		Availabilities: []models.AvailabilityInterval{window("v1", 1, "09:00", "10:30")},
		Schedules:      []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:30", 1)},
	}
	out, _, err := Match(in, Hours{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "v1", out[0].VolunteerID)
}

func TestMatchOneMinuteShortExcluded(t *testing.T) {
	in := Input{
		Volunteers:     []models.Volunteer{volunteer("v1", nil)},
		Availabilities: []models.AvailabilityInterval{window("v1", 1, "09:00", "10:29")},
		Schedules:      []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:30", 1)},
	}
	out, _, err := Match(in, Hours{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMatchRankOrdering(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("v2", nil), volunteer("v1", nil)},
		Availabilities: []models.AvailabilityInterval{
			window("v1", 1, "08:00", "12:00"),
			window("v2", 1, "08:00", "12:00"),
		},
		Preferences: []models.ClassPreference{pref("v1", "c1", 1), pref("v2", "c1", 2)},
		Schedules:   []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:30", 1)},
	}
	out, _, err := Match(in, Hours{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "v1", out[0].VolunteerID)
}

func TestMatchMissingRankSortsLast(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("unranked", nil), volunteer("ranked", nil)},
		Availabilities: []models.AvailabilityInterval{
			window("unranked", 1, "08:00", "12:00"),
			window("ranked", 1, "08:00", "12:00"),
		},
		Preferences: []models.ClassPreference{pref("ranked", "c1", 9)},
		Schedules:   []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:30", 1)},
	}
	out, _, err := Match(in, Hours{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ranked", out[0].VolunteerID)
}

func TestMatchTiesKeepInputOrder(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("first", nil), volunteer("second", nil)},
		Availabilities: []models.AvailabilityInterval{
			window("first", 1, "08:00", "12:00"),
			window("second", 1, "08:00", "12:00"),
		},
		Preferences: []models.ClassPreference{pref("first", "c1", 3), pref("second", "c1", 3)},
		Schedules:   []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:30", 1)},
	}
	out, _, err := Match(in, Hours{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].VolunteerID)
}

func TestMatchUnderCapBeatsBetterRankOverCap(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("rank1", capOf(2)), volunteer("rank2", capOf(10))},
		Availabilities: []models.AvailabilityInterval{
			window("rank1", 1, "08:00", "12:00"),
			window("rank2", 1, "08:00", "12:00"),
		},
		Preferences: []models.ClassPreference{pref("rank1", "c1", 1), pref("rank2", "c1", 2)},
		Schedules:   []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:30", 1)},
	}
	// rank1 is already at its 2-hour cap entering the run.
	out, _, err := Match(in, Hours{"rank1": 2})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "rank2", out[0].VolunteerID)
}

func TestMatchRunningHoursAffectLaterSchedules(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("capped", capOf(2)), volunteer("spare", nil)},
		Availabilities: []models.AvailabilityInterval{
			window("capped", 1, "08:00", "12:00"),
			window("spare", 1, "08:00", "12:00"),
		},
		Preferences: []models.ClassPreference{pref("capped", "c1", 1), pref("spare", "c1", 2)},
		Schedules: []models.Schedule{
			schedule("s1", "c1", 1, "08:00", "10:00", 1),
			schedule("s2", "c1", 1, "10:00", "12:00", 1),
		},
	}
	out, hours, err := Match(in, Hours{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	// capped takes s1 (2h, hitting its cap); spare wins s2 despite worse rank.
	assert.Equal(t, Assignment{VolunteerID: "capped", ScheduleID: "s1"}, out[0])
	assert.Equal(t, Assignment{VolunteerID: "spare", ScheduleID: "s2"}, out[1])
	assert.InDelta(t, 2.0, hours["capped"], 1e-9)
	assert.InDelta(t, 2.0, hours["spare"], 1e-9)
}

func TestMatchSlotsNeededLimitsAssignments(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("a", nil), volunteer("b", nil), volunteer("c", nil)},
		Availabilities: []models.AvailabilityInterval{
			window("a", 3, "08:00", "12:00"),
			window("b", 3, "08:00", "12:00"),
			window("c", 3, "08:00", "12:00"),
		},
		Schedules: []models.Schedule{schedule("s1", "c1", 3, "09:00", "11:00", 2)},
	}
	out, _, err := Match(in, Hours{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].VolunteerID)
	assert.Equal(t, "b", out[1].VolunteerID)
}

func TestMatchDeterministic(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("a", capOf(4)), volunteer("b", nil), volunteer("c", nil)},
		Availabilities: []models.AvailabilityInterval{
			window("a", 1, "08:00", "14:00"),
			window("b", 1, "08:00", "14:00"),
			window("c", 1, "08:00", "14:00"),
		},
		Preferences: []models.ClassPreference{pref("b", "c1", 2), pref("c", "c1", 1)},
		Schedules: []models.Schedule{
			schedule("s1", "c1", 1, "09:00", "11:00", 2),
			schedule("s2", "c1", 1, "11:00", "13:00", 1),
		},
	}
	first, firstHours, err := Match(in, Hours{})
	require.NoError(t, err)
	second, secondHours, err := Match(in, Hours{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, firstHours, secondHours)
}

func TestMatchScenarioRankBreaksTie(t *testing.T) {
	in := Input{
		Volunteers: []models.Volunteer{volunteer("A", nil), volunteer("B", nil)},
		Availabilities: []models.AvailabilityInterval{
			window("A", 1, "09:00", "11:00"),
			window("B", 1, "09:00", "10:30"),
		},
		Preferences: []models.ClassPreference{pref("A", "classX", 1), pref("B", "classX", 2)},
		Schedules:   []models.Schedule{schedule("sX", "classX", 1, "09:00", "10:30", 1)},
	}
	out, _, err := Match(in, Hours{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].VolunteerID)
}

func TestMatchMalformedScheduleAbortsRun(t *testing.T) {
	in := Input{
		Volunteers:     []models.Volunteer{volunteer("v1", nil)},
		Availabilities: []models.AvailabilityInterval{window("v1", 1, "08:00", "12:00")},
		Schedules: []models.Schedule{
			schedule("ok", "c1", 1, "09:00", "10:00", 1),
			schedule("bad", "c1", 1, "25:99", "10:00", 1),
		},
	}
	out, hours, err := Match(in, Hours{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErrors.FromError(err).Code)
	assert.Nil(t, out)
	assert.Nil(t, hours)

	in.Schedules[1] = schedule("", "c1", 1, "09:00", "10:00", 1)
	_, _, err = Match(in, Hours{})
	require.Error(t, err)

	in.Schedules[1] = schedule("bad-day", "c1", 0, "09:00", "10:00", 1)
	_, _, err = Match(in, Hours{})
	require.Error(t, err)
}

func TestMatchDoesNotMutateInputAccumulator(t *testing.T) {
	seed := Hours{"v1": 1.5}
	in := Input{
		Volunteers:     []models.Volunteer{volunteer("v1", nil)},
		Availabilities: []models.AvailabilityInterval{window("v1", 1, "08:00", "12:00")},
		Schedules:      []models.Schedule{schedule("s1", "c1", 1, "09:00", "10:00", 1)},
	}
	_, updated, err := Match(in, seed)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, seed["v1"], 1e-9)
	assert.InDelta(t, 2.5, updated["v1"], 1e-9)
}
