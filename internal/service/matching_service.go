package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/matching"
	"github.com/shiftwise/volunteer-api/internal/models"
	"github.com/shiftwise/volunteer-api/internal/notify"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

type matchVolunteerStore interface {
	ListActive(ctx context.Context) ([]models.Volunteer, error)
	SetHoursAssigned(ctx context.Context, exec sqlx.ExtContext, id string, hours float64) error
}

type availabilityLister interface {
	ListAll(ctx context.Context) ([]models.AvailabilityInterval, error)
}

type preferenceLister interface {
	ListAll(ctx context.Context) ([]models.ClassPreference, error)
}

type scheduleLister interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
}

type assignmentWriter interface {
	ReplaceAll(ctx context.Context, exec sqlx.ExtContext, runID string, assignments []matching.Assignment) error
	ListByRun(ctx context.Context, runID string) ([]matching.Assignment, error)
}

type shiftWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, shift *models.Shift) error
}

type matchingMetrics interface {
	MatchingRun(schedules, assignments int)
}

// MatchingService loads the matching universe, runs the engine and
// persists the result: the assignment set, one shift per concrete
// calendar date in the requested window, and each volunteer's updated
// weekly-hours tally. Persistence is atomic per run.
type MatchingService struct {
	volunteers  matchVolunteerStore
	avails      availabilityLister
	prefs       preferenceLister
	schedules   scheduleLister
	assignments assignmentWriter
	shifts      shiftWriter
	tx          txProvider
	notifier    notify.Notifier
	metrics     matchingMetrics
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMatchingService wires the matching orchestration dependencies.
func NewMatchingService(
	volunteers matchVolunteerStore,
	avails availabilityLister,
	prefs preferenceLister,
	schedules scheduleLister,
	assignments assignmentWriter,
	shifts shiftWriter,
	tx txProvider,
	notifier notify.Notifier,
	metrics matchingMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *MatchingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &MatchingService{
		volunteers:  volunteers,
		avails:      avails,
		prefs:       prefs,
		schedules:   schedules,
		assignments: assignments,
		shifts:      shifts,
		tx:          tx,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Run executes one matching run over the whole active roster and
// materializes shifts for every date within [from, to] whose weekday
// matches an assigned schedule.
func (s *MatchingService) Run(ctx context.Context, req dto.RunMatchingRequest) (*dto.RunMatchingResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid matching request")
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid from date")
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid to date")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to date precedes from date")
	}

	input, err := s.loadInput(ctx)
	if err != nil {
		return nil, err
	}

	// Seed the accumulator from the persisted tallies so a run respects
	// hours already assigned by earlier runs.
	seed := make(matching.Hours, len(input.Volunteers))
	for _, vol := range input.Volunteers {
		if vol.HoursAssigned > 0 {
			seed[vol.ID] = vol.HoursAssigned
		}
	}

	assignments, hours, err := matching.Match(input, seed)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	shiftsCreated, err := s.persistRun(ctx, runID, input, assignments, hours, from, to)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.MatchingRun(len(input.Schedules), len(assignments))
	}
	s.logger.Info("matching run completed",
		zap.String("run_id", runID),
		zap.Int("schedules", len(input.Schedules)),
		zap.Int("assignments", len(assignments)),
		zap.Int("shifts_created", shiftsCreated))

	s.notifyAssigned(ctx, input, assignments, from, to)

	return &dto.RunMatchingResponse{
		RunID:         runID,
		Assignments:   assignments,
		ShiftsCreated: shiftsCreated,
	}, nil
}

// Assignments returns a persisted run's assignments in engine order.
func (s *MatchingService) Assignments(ctx context.Context, runID string) ([]matching.Assignment, error) {
	assignments, err := s.assignments.ListByRun(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return assignments, nil
}

func (s *MatchingService) loadInput(ctx context.Context) (matching.Input, error) {
	var input matching.Input
	volunteers, err := s.volunteers.ListActive(ctx)
	if err != nil {
		return input, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteers")
	}
	avails, err := s.avails.ListAll(ctx)
	if err != nil {
		return input, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	prefs, err := s.prefs.ListAll(ctx)
	if err != nil {
		return input, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class preferences")
	}
	schedules, err := s.schedules.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return input, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	input = matching.Input{
		Volunteers:     volunteers,
		Availabilities: avails,
		Preferences:    prefs,
		Schedules:      schedules,
	}
	return input, nil
}

func (s *MatchingService) persistRun(
	ctx context.Context,
	runID string,
	input matching.Input,
	assignments []matching.Assignment,
	hours matching.Hours,
	from, to time.Time,
) (created int, err error) {
	if s.tx == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.assignments.ReplaceAll(ctx, tx, runID, assignments); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignments")
		return 0, err
	}

	scheduleByID := make(map[string]models.Schedule, len(input.Schedules))
	for _, sched := range input.Schedules {
		scheduleByID[sched.ID] = sched
	}

	for _, a := range assignments {
		sched, ok := scheduleByID[a.ScheduleID]
		if !ok {
			err = appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("assignment references unknown schedule %s", a.ScheduleID))
			return 0, err
		}
		for _, date := range datesForWeekday(from, to, sched.Weekday) {
			shift := &models.Shift{
				ScheduleID:  sched.ID,
				VolunteerID: a.VolunteerID,
				Date:        date,
				StartTime:   sched.StartTime,
				EndTime:     sched.EndTime,
				CheckedIn:   false,
			}
			if err = s.shifts.Create(ctx, tx, shift); err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create shift")
				return 0, err
			}
			created++
		}
	}

	for volunteerID, total := range hours {
		if err = s.volunteers.SetHoursAssigned(ctx, tx, volunteerID, total); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assigned hours")
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit matching run")
		return 0, err
	}
	return created, nil
}

func (s *MatchingService) notifyAssigned(ctx context.Context, input matching.Input, assignments []matching.Assignment, from, to time.Time) {
	emailByID := make(map[string]string, len(input.Volunteers))
	for _, vol := range input.Volunteers {
		emailByID[vol.ID] = vol.Email
	}
	countByVolunteer := make(map[string]int)
	for _, a := range assignments {
		countByVolunteer[a.VolunteerID]++
	}
	window := fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	for volunteerID, count := range countByVolunteer {
		email, ok := emailByID[volunteerID]
		if !ok || email == "" {
			continue
		}
		s.notifier.Notify(ctx, []string{email}, "New shift assignments",
			fmt.Sprintf("You were assigned to %d weekly slot(s) for %s. Check your schedule for details.", count, window))
	}
}

// datesForWeekday lists every date within [from, to] falling on the
// given ISO weekday (1 = Monday, 7 = Sunday).
func datesForWeekday(from, to time.Time, weekday int) []time.Time {
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		iso := int(d.Weekday())
		if iso == 0 {
			iso = 7
		}
		if iso == weekday {
			dates = append(dates, d)
		}
	}
	return dates
}
