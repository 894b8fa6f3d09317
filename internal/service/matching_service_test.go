package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/matching"
	"github.com/shiftwise/volunteer-api/internal/models"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

type matchVolunteerStoreStub struct {
	volunteers []models.Volunteer
	hoursSet   map[string]float64
}

func (s *matchVolunteerStoreStub) ListActive(ctx context.Context) ([]models.Volunteer, error) {
	return s.volunteers, nil
}

func (s *matchVolunteerStoreStub) SetHoursAssigned(ctx context.Context, exec sqlx.ExtContext, id string, hours float64) error {
	if s.hoursSet == nil {
		s.hoursSet = make(map[string]float64)
	}
	s.hoursSet[id] = hours
	return nil
}

type availabilityListerStub struct {
	intervals []models.AvailabilityInterval
}

func (s *availabilityListerStub) ListAll(ctx context.Context) ([]models.AvailabilityInterval, error) {
	return s.intervals, nil
}

type preferenceListerStub struct {
	prefs []models.ClassPreference
}

func (s *preferenceListerStub) ListAll(ctx context.Context) ([]models.ClassPreference, error) {
	return s.prefs, nil
}

type scheduleListerStub struct {
	schedules []models.Schedule
}

func (s *scheduleListerStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	return s.schedules, nil
}

type assignmentWriterStub struct {
	replaced []matching.Assignment
	runID    string
	err      error
}

func (s *assignmentWriterStub) ReplaceAll(ctx context.Context, exec sqlx.ExtContext, runID string, assignments []matching.Assignment) error {
	if s.err != nil {
		return s.err
	}
	s.runID = runID
	s.replaced = assignments
	return nil
}

func (s *assignmentWriterStub) ListByRun(ctx context.Context, runID string) ([]matching.Assignment, error) {
	return s.replaced, nil
}

func fullWeekAvailability(volunteerID string) []models.AvailabilityInterval {
	return []models.AvailabilityInterval{
		{ID: volunteerID + "-mon", VolunteerID: volunteerID, Weekday: 1, StartTime: "08:00", EndTime: "18:00"},
	}
}

func TestMatchingRunMaterializesShiftsPerMatchingDate(t *testing.T) {
	volunteers := &matchVolunteerStoreStub{volunteers: []models.Volunteer{
		{ID: "vol-1", Email: "one@example.org", Active: true},
	}}
	avails := &availabilityListerStub{intervals: fullWeekAvailability("vol-1")}
	schedules := &scheduleListerStub{schedules: []models.Schedule{
		{ID: "sch-1", ClassID: "class-1", Weekday: 1, StartTime: "09:00", EndTime: "12:00", SlotsNeeded: 1},
	}}
	assignments := &assignmentWriterStub{}
	shifts := &shiftStoreStub{shifts: map[string]models.Shift{}}
	notifier := &notifierRec{}
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewMatchingService(volunteers, avails, &preferenceListerStub{}, schedules,
		assignments, shifts, tx, notifier, nil, nil, nil)

	// 2024-06-03 and 2024-06-10 are the Mondays in this window.
	result, err := svc.Run(context.Background(), dto.RunMatchingRequest{From: "2024-06-03", To: "2024-06-14"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "vol-1", result.Assignments[0].VolunteerID)
	assert.Equal(t, 2, result.ShiftsCreated)
	require.Len(t, shifts.created, 2)
	assert.Equal(t, "2024-06-03", shifts.created[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-06-10", shifts.created[1].Date.Format("2006-01-02"))
	assert.Equal(t, "09:00", shifts.created[0].StartTime)
	assert.False(t, shifts.created[0].CheckedIn)

	// One three-hour schedule assigned once.
	assert.Equal(t, 3.0, volunteers.hoursSet["vol-1"])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, []string{"one@example.org"}, notifier.sent[0].recipients)
}

func TestMatchingRunSeedsAccumulatorFromPersistedHours(t *testing.T) {
	limit := 3.0
	volunteers := &matchVolunteerStoreStub{volunteers: []models.Volunteer{
		{ID: "vol-capped", Email: "capped@example.org", Active: true, PreferredWeeklyHours: &limit, HoursAssigned: 3},
		{ID: "vol-fresh", Email: "fresh@example.org", Active: true},
	}}
	avails := &availabilityListerStub{intervals: append(
		fullWeekAvailability("vol-capped"), fullWeekAvailability("vol-fresh")...)}
	prefs := &preferenceListerStub{prefs: []models.ClassPreference{
		{VolunteerID: "vol-capped", ClassID: "class-1", Rank: 1},
	}}
	schedules := &scheduleListerStub{schedules: []models.Schedule{
		{ID: "sch-1", ClassID: "class-1", Weekday: 1, StartTime: "09:00", EndTime: "12:00", SlotsNeeded: 1},
	}}
	assignments := &assignmentWriterStub{}
	shifts := &shiftStoreStub{shifts: map[string]models.Shift{}}
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewMatchingService(volunteers, avails, prefs, schedules,
		assignments, shifts, tx, nil, nil, nil, nil)

	result, err := svc.Run(context.Background(), dto.RunMatchingRequest{From: "2024-06-03", To: "2024-06-03"})
	require.NoError(t, err)

	// The fresh volunteer wins despite the capped one's better rank.
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "vol-fresh", result.Assignments[0].VolunteerID)
}

func TestMatchingRunRejectsInvertedWindow(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	svc := NewMatchingService(&matchVolunteerStoreStub{}, &availabilityListerStub{}, &preferenceListerStub{},
		&scheduleListerStub{}, &assignmentWriterStub{}, &shiftStoreStub{}, tx, nil, nil, nil, nil)

	_, err := svc.Run(context.Background(), dto.RunMatchingRequest{From: "2024-06-14", To: "2024-06-03"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMatchingRunAbortsOnMalformedSchedule(t *testing.T) {
	volunteers := &matchVolunteerStoreStub{volunteers: []models.Volunteer{
		{ID: "vol-1", Email: "one@example.org", Active: true},
	}}
	schedules := &scheduleListerStub{schedules: []models.Schedule{
		{ID: "sch-good", ClassID: "class-1", Weekday: 1, StartTime: "09:00", EndTime: "12:00"},
		{ID: "sch-bad", ClassID: "class-1", Weekday: 0, StartTime: "09:00", EndTime: "12:00"},
	}}
	assignments := &assignmentWriterStub{}
	tx, mock := newTxProviderMock(t)

	svc := NewMatchingService(volunteers, &availabilityListerStub{intervals: fullWeekAvailability("vol-1")},
		&preferenceListerStub{}, schedules, assignments, &shiftStoreStub{}, tx, nil, nil, nil, nil)

	_, err := svc.Run(context.Background(), dto.RunMatchingRequest{From: "2024-06-03", To: "2024-06-14"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErr.Code)

	// Nothing may be persisted from an aborted run.
	assert.Empty(t, assignments.replaced)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchingRunRollsBackWhenPersistenceFails(t *testing.T) {
	volunteers := &matchVolunteerStoreStub{volunteers: []models.Volunteer{
		{ID: "vol-1", Email: "one@example.org", Active: true},
	}}
	schedules := &scheduleListerStub{schedules: []models.Schedule{
		{ID: "sch-1", ClassID: "class-1", Weekday: 1, StartTime: "09:00", EndTime: "12:00"},
	}}
	assignments := &assignmentWriterStub{err: errors.New("insert failed")}
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := NewMatchingService(volunteers, &availabilityListerStub{intervals: fullWeekAvailability("vol-1")},
		&preferenceListerStub{}, schedules, assignments, &shiftStoreStub{}, tx, nil, nil, nil, nil)

	_, err := svc.Run(context.Background(), dto.RunMatchingRequest{From: "2024-06-03", To: "2024-06-14"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
