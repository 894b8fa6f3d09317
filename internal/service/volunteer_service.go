package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/models"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

type volunteerStore interface {
	Create(ctx context.Context, vol *models.Volunteer) error
	FindByID(ctx context.Context, id string) (*models.Volunteer, error)
	List(ctx context.Context, filter models.VolunteerFilter) ([]models.Volunteer, error)
	Update(ctx context.Context, vol *models.Volunteer) error
}

type availabilityStore interface {
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.AvailabilityInterval, error)
	Replace(ctx context.Context, volunteerID string, intervals []models.AvailabilityInterval) error
}

type preferenceStore interface {
	Upsert(ctx context.Context, pref *models.ClassPreference) error
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.ClassPreference, error)
	Delete(ctx context.Context, volunteerID, classID string) error
}

type preferenceClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// VolunteerService manages the volunteer roster, weekly availability and
// class preferences.
type VolunteerService struct {
	volunteers volunteerStore
	avails     availabilityStore
	prefs      preferenceStore
	classes    preferenceClassReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewVolunteerService constructs a VolunteerService.
func NewVolunteerService(volunteers volunteerStore, avails availabilityStore, prefs preferenceStore, classes preferenceClassReader, validate *validator.Validate, logger *zap.Logger) *VolunteerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VolunteerService{
		volunteers: volunteers,
		avails:     avails,
		prefs:      prefs,
		classes:    classes,
		validator:  validate,
		logger:     logger,
	}
}

// Create registers a volunteer.
func (s *VolunteerService) Create(ctx context.Context, req dto.CreateVolunteerRequest) (*models.Volunteer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid volunteer payload")
	}
	vol := &models.Volunteer{
		Email:                req.Email,
		FullName:             req.FullName,
		Phone:                req.Phone,
		PreferredWeeklyHours: req.PreferredWeeklyHours,
		Active:               true,
	}
	if err := s.volunteers.Create(ctx, vol); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create volunteer")
	}
	return vol, nil
}

// Get returns one volunteer.
func (s *VolunteerService) Get(ctx context.Context, id string) (*models.Volunteer, error) {
	vol, err := s.volunteers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch volunteer")
	}
	return vol, nil
}

// List returns volunteers matching the filter.
func (s *VolunteerService) List(ctx context.Context, filter models.VolunteerFilter) ([]models.Volunteer, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	volunteers, err := s.volunteers.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list volunteers")
	}
	return volunteers, nil
}

// Update edits a volunteer's profile.
func (s *VolunteerService) Update(ctx context.Context, id string, req dto.UpdateVolunteerRequest) (*models.Volunteer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid volunteer payload")
	}
	vol, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vol.Email = req.Email
	vol.FullName = req.FullName
	vol.Phone = req.Phone
	vol.PreferredWeeklyHours = req.PreferredWeeklyHours
	if req.Active != nil {
		vol.Active = *req.Active
	}
	if err := s.volunteers.Update(ctx, vol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update volunteer")
	}
	return vol, nil
}

// Availability returns a volunteer's weekly calendar.
func (s *VolunteerService) Availability(ctx context.Context, volunteerID string) ([]models.AvailabilityInterval, error) {
	if _, err := s.Get(ctx, volunteerID); err != nil {
		return nil, err
	}
	intervals, err := s.avails.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return intervals, nil
}

// ReplaceAvailability swaps a volunteer's entire weekly calendar.
func (s *VolunteerService) ReplaceAvailability(ctx context.Context, volunteerID string, req dto.ReplaceAvailabilityRequest) ([]models.AvailabilityInterval, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	for _, w := range req.Windows {
		if w.EndTime <= w.StartTime {
			return nil, appErrors.Clone(appErrors.ErrValidation, "availability window ends before it starts")
		}
	}
	if _, err := s.Get(ctx, volunteerID); err != nil {
		return nil, err
	}

	intervals := make([]models.AvailabilityInterval, 0, len(req.Windows))
	for _, w := range req.Windows {
		intervals = append(intervals, models.AvailabilityInterval{
			Weekday:   w.Weekday,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
		})
	}
	if err := s.avails.Replace(ctx, volunteerID, intervals); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace availability")
	}
	return intervals, nil
}

// Preferences returns a volunteer's class rankings.
func (s *VolunteerService) Preferences(ctx context.Context, volunteerID string) ([]models.ClassPreference, error) {
	if _, err := s.Get(ctx, volunteerID); err != nil {
		return nil, err
	}
	prefs, err := s.prefs.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list preferences")
	}
	return prefs, nil
}

// UpsertPreference sets a volunteer's rank for one class, replacing any
// previous rank for that class.
func (s *VolunteerService) UpsertPreference(ctx context.Context, volunteerID string, req dto.UpsertPreferenceRequest) (*models.ClassPreference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	if _, err := s.Get(ctx, volunteerID); err != nil {
		return nil, err
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}

	pref := &models.ClassPreference{
		VolunteerID: volunteerID,
		ClassID:     req.ClassID,
		Rank:        req.Rank,
	}
	if err := s.prefs.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preference")
	}
	return pref, nil
}

// DeletePreference removes a volunteer's rank for one class.
func (s *VolunteerService) DeletePreference(ctx context.Context, volunteerID, classID string) error {
	if err := s.prefs.Delete(ctx, volunteerID, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "preference not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete preference")
	}
	return nil
}
