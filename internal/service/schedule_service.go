package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/models"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

type classStore interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	List(ctx context.Context) ([]models.Class, error)
}

type scheduleStore interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

type shiftLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.ShiftDetail, error)
}

// ScheduleService manages classes and their recurring weekly slots.
type ScheduleService struct {
	classes      classStore
	schedules    scheduleStore
	shifts       shiftLister
	defaultSlots int
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(classes classStore, schedules scheduleStore, shifts shiftLister, defaultSlots int, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultSlots <= 0 {
		defaultSlots = 1
	}
	return &ScheduleService{
		classes:      classes,
		schedules:    schedules,
		shifts:       shifts,
		defaultSlots: defaultSlots,
		validator:    validate,
		logger:       logger,
	}
}

// CreateClass registers a class.
func (s *ScheduleService) CreateClass(ctx context.Context, req dto.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{
		Name:            req.Name,
		Description:     req.Description,
		InstructorName:  req.InstructorName,
		InstructorEmail: req.InstructorEmail,
		Active:          true,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// GetClass returns one class.
func (s *ScheduleService) GetClass(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	return class, nil
}

// ListClasses returns all classes.
func (s *ScheduleService) ListClasses(ctx context.Context) ([]models.Class, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// CreateSchedule adds a weekly slot to a class.
func (s *ScheduleService) CreateSchedule(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.EndTime <= req.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule ends before it starts")
	}
	if _, err := s.GetClass(ctx, req.ClassID); err != nil {
		return nil, err
	}

	slots := req.SlotsNeeded
	if slots <= 0 {
		slots = s.defaultSlots
	}
	schedule := &models.Schedule{
		ClassID:     req.ClassID,
		Weekday:     req.Weekday,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SlotsNeeded: slots,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// GetSchedule returns one weekly slot.
func (s *ScheduleService) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedule")
	}
	return schedule, nil
}

// ListSchedules returns weekly slots matching the filter.
func (s *ScheduleService) ListSchedules(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	schedules, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// DeleteSchedule removes a weekly slot.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// ListShifts returns the concrete shifts within a date window, enriched
// with class and volunteer names.
func (s *ScheduleService) ListShifts(ctx context.Context, from, to time.Time) ([]models.ShiftDetail, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to date precedes from date")
	}
	shifts, err := s.shifts.ListBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	return shifts, nil
}
