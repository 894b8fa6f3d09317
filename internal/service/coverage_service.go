package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shiftwise/volunteer-api/internal/models"
	"github.com/shiftwise/volunteer-api/internal/notify"
	"github.com/shiftwise/volunteer-api/internal/repository"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

const coverageBoardCacheKey = "coverage:board"

type absenceStore interface {
	Create(ctx context.Context, req *models.AbsenceRequest) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.AbsenceRequest, error)
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	SetCoveredBy(ctx context.Context, exec sqlx.ExtContext, id, volunteerID string) error
	ListCoverageNeeds(ctx context.Context) ([]models.CoverageNeed, error)
}

type coverageStore interface {
	Create(ctx context.Context, req *models.CoverageRequest) error
	FindByID(ctx context.Context, id string) (*models.CoverageRequest, error)
	ListByAbsence(ctx context.Context, absenceRequestID string) ([]models.CoverageRequest, error)
	FindByAbsenceAndVolunteer(ctx context.Context, absenceRequestID, volunteerID string) (*models.CoverageRequest, error)
	DeleteByAbsenceAndVolunteer(ctx context.Context, absenceRequestID, volunteerID string) error
	Delete(ctx context.Context, id string) error
}

type shiftStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, shift *models.Shift) error
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	SelectByID(ctx context.Context, exec sqlx.ExtContext, id string) ([]models.Shift, error)
	SetCheckedIn(ctx context.Context, id string) error
}

type volunteerDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Volunteer, error)
}

type scheduleDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

type classDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type userDirectory interface {
	ListAdminEmails(ctx context.Context) ([]string, error)
	ListVolunteerEmails(ctx context.Context) ([]string, error)
}

type boardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type workflowMetrics interface {
	WorkflowTransition(operation, outcome string)
}

// AbsenceRequestView is an absence request with its derived workflow
// state and the coverage offers standing against it.
type AbsenceRequestView struct {
	models.AbsenceRequest
	Status models.AbsenceStatus    `json:"status"`
	Offers []models.CoverageRequest `json:"offers"`
}

// CoverageService runs the absence and cover-shift workflow. Every
// mutation is a single statement except ApproveCoverShift, which marks
// the absence covered and creates the replacement shift atomically.
type CoverageService struct {
	absences   absenceStore
	coverage   coverageStore
	shifts     shiftStore
	volunteers volunteerDirectory
	schedules  scheduleDirectory
	classes    classDirectory
	users      userDirectory
	cache      boardCache
	tx         txProvider
	notifier   notify.Notifier
	metrics    workflowMetrics
	validator  *validator.Validate
	logger     *zap.Logger
	boardTTL   time.Duration
}

// NewCoverageService wires the workflow dependencies.
func NewCoverageService(
	absences absenceStore,
	coverage coverageStore,
	shifts shiftStore,
	volunteers volunteerDirectory,
	schedules scheduleDirectory,
	classes classDirectory,
	users userDirectory,
	cache boardCache,
	tx txProvider,
	notifier notify.Notifier,
	metrics workflowMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	boardTTL time.Duration,
) *CoverageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if boardTTL <= 0 {
		boardTTL = time.Minute
	}
	return &CoverageService{
		absences:   absences,
		coverage:   coverage,
		shifts:     shifts,
		volunteers: volunteers,
		schedules:  schedules,
		classes:    classes,
		users:      users,
		cache:      cache,
		tx:         tx,
		notifier:   notifier,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		boardTTL:   boardTTL,
	}
}

// RequestAbsence opens an absence request for one of the caller's
// shifts. A shift can carry at most one open request; a second attempt
// fails with a duplicate error instead of silently stacking.
func (s *CoverageService) RequestAbsence(ctx context.Context, volunteerID, shiftID, category, details, comments string) (*models.AbsenceRequest, error) {
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("request_absence", "not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	if shift.VolunteerID != volunteerID {
		s.transition("request_absence", "forbidden")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "shift belongs to another volunteer")
	}

	req := &models.AbsenceRequest{
		ShiftID:     shiftID,
		VolunteerID: volunteerID,
		Category:    category,
		Details:     details,
		Comments:    comments,
	}
	if err := s.absences.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrOpenRequestExists) {
			s.transition("request_absence", "duplicate")
			return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "shift already has an open absence request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create absence request")
	}

	s.transition("request_absence", "success")
	s.notifyAdmins(ctx, "New absence request",
		fmt.Sprintf("An absence request was opened for the shift on %s (%s-%s).",
			shift.Date.Format("2006-01-02"), shift.StartTime, shift.EndTime))
	return req, nil
}

// WithdrawAbsenceRequest deletes the caller's own absence request. The
// ownership check runs before the delete so an authorization failure
// never reaches the side effect.
func (s *CoverageService) WithdrawAbsenceRequest(ctx context.Context, requestID, volunteerID string) error {
	req, err := s.absences.FindByID(ctx, nil, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("withdraw_absence", "not_found")
			return appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence request")
	}
	if req.VolunteerID != volunteerID {
		s.transition("withdraw_absence", "forbidden")
		return appErrors.Clone(appErrors.ErrForbidden, "absence request belongs to another volunteer")
	}
	if err := s.absences.Delete(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete absence request")
	}
	s.transition("withdraw_absence", "success")
	s.invalidateBoard(ctx)
	return nil
}

// ApproveAbsenceRequest marks an absence approved. The requester and
// the instructor learn the outcome; all volunteers are invited to cover
// the now-open shift.
func (s *CoverageService) ApproveAbsenceRequest(ctx context.Context, requestID string) error {
	if err := s.absences.Approve(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("approve_absence", "not_found")
			return appErrors.Clone(appErrors.ErrNotFound, "absence request not found or already approved")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve absence request")
	}
	s.transition("approve_absence", "success")
	s.invalidateBoard(ctx)

	req, err := s.absences.FindByID(ctx, nil, requestID)
	if err != nil {
		s.logger.Warn("approved absence request vanished before notification", zap.String("request_id", requestID), zap.Error(err))
		return nil
	}
	shift, shiftErr := s.shifts.FindByID(ctx, req.ShiftID)
	when := ""
	if shiftErr == nil {
		when = fmt.Sprintf(" on %s (%s-%s)", shift.Date.Format("2006-01-02"), shift.StartTime, shift.EndTime)
	}

	s.notifyVolunteer(ctx, req.VolunteerID, "Absence approved",
		fmt.Sprintf("Your absence request%s was approved.", when))
	if shiftErr == nil {
		s.notifyInstructor(ctx, shift.ScheduleID, "Volunteer absence approved",
			fmt.Sprintf("A volunteer absence%s was approved. The shift needs coverage.", when))
	}
	s.notifyAllVolunteers(ctx, "Shift needs coverage",
		fmt.Sprintf("A shift%s needs coverage. Offer to cover it from the coverage board.", when))
	return nil
}

// RejectAbsenceRequest notifies the requester of the denial and then
// deletes the request. Notification comes first: if the delete fails,
// the requester still learns the outcome.
func (s *CoverageService) RejectAbsenceRequest(ctx context.Context, requestID string) error {
	req, err := s.absences.FindByID(ctx, nil, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("reject_absence", "not_found")
			return appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence request")
	}

	s.notifyVolunteer(ctx, req.VolunteerID, "Absence request denied",
		"Your absence request was denied. You are still expected for the shift.")

	if err := s.absences.Delete(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete absence request")
	}
	s.transition("reject_absence", "success")
	s.invalidateBoard(ctx)
	return nil
}

// RequestCoverShift records a volunteer's offer to cover an absence.
// Offers may arrive before the absence itself is approved. Several
// volunteers may offer against the same absence; an admin later
// approves exactly one.
func (s *CoverageService) RequestCoverShift(ctx context.Context, absenceRequestID, volunteerID, message string) (*models.CoverageRequest, error) {
	req, err := s.absences.FindByID(ctx, nil, absenceRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("request_cover", "not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence request")
	}
	if req.CoveredBy != nil {
		s.transition("request_cover", "already_covered")
		return nil, appErrors.Clone(appErrors.ErrAlreadyCovered, "absence is already covered")
	}
	if req.VolunteerID == volunteerID {
		s.transition("request_cover", "own_shift")
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot offer to cover your own absence")
	}

	offer := &models.CoverageRequest{
		AbsenceRequestID: absenceRequestID,
		VolunteerID:      volunteerID,
		Message:          message,
	}
	if err := s.coverage.Create(ctx, offer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coverage request")
	}

	s.transition("request_cover", "success")
	s.notifyAdmins(ctx, "New coverage offer",
		"A volunteer offered to cover an open shift. Review the offer on the coverage board.")
	return offer, nil
}

// WithdrawCoverShift deletes the caller's own coverage offer, checking
// ownership before the delete.
func (s *CoverageService) WithdrawCoverShift(ctx context.Context, coverageRequestID, volunteerID string) error {
	offer, err := s.coverage.FindByID(ctx, coverageRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("withdraw_cover", "not_found")
			return appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coverage request")
	}
	if offer.VolunteerID != volunteerID {
		s.transition("withdraw_cover", "forbidden")
		return appErrors.Clone(appErrors.ErrForbidden, "coverage request belongs to another volunteer")
	}
	if err := s.coverage.Delete(ctx, coverageRequestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete coverage request")
	}
	s.transition("withdraw_cover", "success")
	return nil
}

// ApproveCoverShift accepts one volunteer's offer against an absence.
// Marking the absence covered and creating the replacement shift commit
// atomically or not at all; a covered absence with no replacement shift
// must never be observable.
func (s *CoverageService) ApproveCoverShift(ctx context.Context, absenceRequestID, volunteerID, signoff string) (shift *models.Shift, err error) {
	offer, err := s.coverage.FindByAbsenceAndVolunteer(ctx, absenceRequestID, volunteerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("approve_cover", "not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coverage request")
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.absences.SetCoveredBy(ctx, tx, absenceRequestID, volunteerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = s.coveredByConflict(ctx, tx, absenceRequestID)
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark absence covered")
		return nil, err
	}

	req, findErr := s.absences.FindByID(ctx, tx, absenceRequestID)
	if findErr != nil {
		err = appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence request")
		return nil, err
	}

	originals, selErr := s.shifts.SelectByID(ctx, tx, req.ShiftID)
	if selErr != nil {
		err = appErrors.Wrap(selErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load original shift")
		return nil, err
	}
	if len(originals) != 1 {
		s.transition("approve_cover", "integrity")
		err = appErrors.Clone(appErrors.ErrDataIntegrity,
			fmt.Sprintf("expected exactly one shift for id %s, found %d", req.ShiftID, len(originals)))
		return nil, err
	}
	original := originals[0]

	replacement := &models.Shift{
		ScheduleID:  original.ScheduleID,
		VolunteerID: volunteerID,
		Date:        original.Date,
		StartTime:   original.StartTime,
		EndTime:     original.EndTime,
		CheckedIn:   false,
	}
	if err = s.shifts.Create(ctx, tx, replacement); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create replacement shift")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit coverage approval")
		return nil, err
	}

	s.transition("approve_cover", "success")
	s.invalidateBoard(ctx)
	s.logger.Info("coverage approved",
		zap.String("absence_request_id", absenceRequestID),
		zap.String("volunteer_id", volunteerID),
		zap.String("signoff", signoff))

	when := fmt.Sprintf("%s (%s-%s)", original.Date.Format("2006-01-02"), original.StartTime, original.EndTime)
	s.notifyVolunteer(ctx, offer.VolunteerID, "Coverage offer accepted",
		fmt.Sprintf("Your offer was accepted. You are scheduled for the shift on %s.", when))
	s.notifyInstructor(ctx, original.ScheduleID, "Shift covered",
		fmt.Sprintf("The open shift on %s has been covered.", when))
	return replacement, nil
}

// coveredByConflict decides whether a zero-row covered-by update means
// the absence is gone or already claimed. The two are distinct,
// reportable conditions.
func (s *CoverageService) coveredByConflict(ctx context.Context, exec sqlx.ExtContext, absenceRequestID string) error {
	req, err := s.absences.FindByID(ctx, exec, absenceRequestID)
	if err != nil {
		s.transition("approve_cover", "not_found")
		return appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
	}
	if req.CoveredBy != nil {
		s.transition("approve_cover", "already_covered")
		return appErrors.Clone(appErrors.ErrAlreadyCovered, "absence is already covered")
	}
	s.transition("approve_cover", "not_found")
	return appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
}

// RejectCoverShift notifies the offering volunteer of the denial before
// deleting the offer. A delete affecting zero rows is reported as "not
// found or already approved" rather than a silent success.
func (s *CoverageService) RejectCoverShift(ctx context.Context, absenceRequestID, volunteerID, signoff string) error {
	offer, err := s.coverage.FindByAbsenceAndVolunteer(ctx, absenceRequestID, volunteerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("reject_cover", "not_found")
			return appErrors.Clone(appErrors.ErrNotFound, "coverage request not found or already approved")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coverage request")
	}

	s.notifyVolunteer(ctx, offer.VolunteerID, "Coverage offer declined",
		"Your offer to cover a shift was declined. Thank you for volunteering.")

	if err := s.coverage.DeleteByAbsenceAndVolunteer(ctx, absenceRequestID, volunteerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.transition("reject_cover", "not_found")
			return appErrors.Clone(appErrors.ErrNotFound, "coverage request not found or already approved")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete coverage request")
	}
	s.transition("reject_cover", "success")
	s.logger.Info("coverage rejected",
		zap.String("absence_request_id", absenceRequestID),
		zap.String("volunteer_id", volunteerID),
		zap.String("signoff", signoff))
	return nil
}

// GetAbsenceRequest returns one request with its derived status and the
// standing coverage offers.
func (s *CoverageService) GetAbsenceRequest(ctx context.Context, requestID string) (*AbsenceRequestView, error) {
	req, err := s.absences.FindByID(ctx, nil, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence request")
	}
	offers, err := s.coverage.ListByAbsence(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coverage requests")
	}
	return &AbsenceRequestView{
		AbsenceRequest: *req,
		Status:         req.Status(len(offers)),
		Offers:         offers,
	}, nil
}

// ListCoverageBoard returns the approved, still uncovered absences with
// their shift context. The board is cached briefly since every
// volunteer polls it.
func (s *CoverageService) ListCoverageBoard(ctx context.Context) ([]models.CoverageNeed, error) {
	if s.cache != nil {
		var cached []models.CoverageNeed
		if err := s.cache.Get(ctx, coverageBoardCacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("coverage board cache read failed", zap.Error(err))
		}
	}

	needs, err := s.absences.ListCoverageNeeds(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coverage board")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, coverageBoardCacheKey, needs, s.boardTTL); err != nil {
			s.logger.Warn("coverage board cache write failed", zap.Error(err))
		}
	}
	return needs, nil
}

// CheckInShift marks a shift's volunteer as having shown up.
func (s *CoverageService) CheckInShift(ctx context.Context, shiftID string) error {
	if err := s.shifts.SetCheckedIn(ctx, shiftID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check in shift")
	}
	return nil
}

func (s *CoverageService) transition(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.WorkflowTransition(operation, outcome)
	}
}

func (s *CoverageService) invalidateBoard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, coverageBoardCacheKey); err != nil {
		s.logger.Warn("coverage board cache invalidation failed", zap.Error(err))
	}
}

func (s *CoverageService) notifyAdmins(ctx context.Context, subject, body string) {
	emails, err := s.users.ListAdminEmails(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve admin recipients", zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, emails, subject, body)
}

func (s *CoverageService) notifyAllVolunteers(ctx context.Context, subject, body string) {
	emails, err := s.users.ListVolunteerEmails(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve volunteer recipients", zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, emails, subject, body)
}

func (s *CoverageService) notifyVolunteer(ctx context.Context, volunteerID, subject, body string) {
	vol, err := s.volunteers.FindByID(ctx, volunteerID)
	if err != nil {
		s.logger.Warn("failed to resolve volunteer recipient", zap.String("volunteer_id", volunteerID), zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, []string{vol.Email}, subject, body)
}

func (s *CoverageService) notifyInstructor(ctx context.Context, scheduleID, subject, body string) {
	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		s.logger.Warn("failed to resolve schedule for notification", zap.String("schedule_id", scheduleID), zap.Error(err))
		return
	}
	class, err := s.classes.FindByID(ctx, sched.ClassID)
	if err != nil {
		s.logger.Warn("failed to resolve class for notification", zap.String("class_id", sched.ClassID), zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, []string{class.InstructorEmail}, subject, body)
}
