package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/volunteer-api/internal/models"
)

// CoverageRequestRepository persists offers to cover absent shifts.
type CoverageRequestRepository struct {
	db *sqlx.DB
}

// NewCoverageRequestRepository constructs the repository.
func NewCoverageRequestRepository(db *sqlx.DB) *CoverageRequestRepository {
	return &CoverageRequestRepository{db: db}
}

const coverageColumns = `id, absence_request_id, volunteer_id, message, created_at`

// Create inserts a coverage offer. Several volunteers may offer against
// the same absence.
func (r *CoverageRequestRepository) Create(ctx context.Context, req *models.CoverageRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO coverage_requests (id, absence_request_id, volunteer_id, message, created_at)
		VALUES (:id, :absence_request_id, :volunteer_id, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("insert coverage request: %w", err)
	}
	return nil
}

// FindByID returns one coverage offer.
func (r *CoverageRequestRepository) FindByID(ctx context.Context, id string) (*models.CoverageRequest, error) {
	query := `SELECT ` + coverageColumns + ` FROM coverage_requests WHERE id = $1`
	var req models.CoverageRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByAbsence returns all offers against one absence request.
func (r *CoverageRequestRepository) ListByAbsence(ctx context.Context, absenceRequestID string) ([]models.CoverageRequest, error) {
	query := `SELECT ` + coverageColumns + ` FROM coverage_requests WHERE absence_request_id = $1 ORDER BY created_at ASC`
	requests := []models.CoverageRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, absenceRequestID); err != nil {
		return nil, fmt.Errorf("list coverage requests: %w", err)
	}
	return requests, nil
}

// CountByAbsence returns the number of open offers against an absence.
func (r *CoverageRequestRepository) CountByAbsence(ctx context.Context, absenceRequestID string) (int, error) {
	const query = `SELECT COUNT(*) FROM coverage_requests WHERE absence_request_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, absenceRequestID); err != nil {
		return 0, fmt.Errorf("count coverage requests: %w", err)
	}
	return count, nil
}

// FindByAbsenceAndVolunteer returns the single offer a volunteer holds
// against an absence request.
func (r *CoverageRequestRepository) FindByAbsenceAndVolunteer(ctx context.Context, absenceRequestID, volunteerID string) (*models.CoverageRequest, error) {
	query := `SELECT ` + coverageColumns + ` FROM coverage_requests WHERE absence_request_id = $1 AND volunteer_id = $2`
	var req models.CoverageRequest
	if err := r.db.GetContext(ctx, &req, query, absenceRequestID, volunteerID); err != nil {
		return nil, err
	}
	return &req, nil
}

// DeleteByAbsenceAndVolunteer removes a volunteer's offer against an
// absence request, reporting sql.ErrNoRows when nothing matched.
func (r *CoverageRequestRepository) DeleteByAbsenceAndVolunteer(ctx context.Context, absenceRequestID, volunteerID string) error {
	const query = `DELETE FROM coverage_requests WHERE absence_request_id = $1 AND volunteer_id = $2`
	result, err := r.db.ExecContext(ctx, query, absenceRequestID, volunteerID)
	if err != nil {
		return fmt.Errorf("delete coverage request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("coverage request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one offer. Zero affected rows means it was never there
// or was concurrently consumed by an approval; sql.ErrNoRows lets the
// caller report that distinctly instead of claiming success.
func (r *CoverageRequestRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM coverage_requests WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete coverage request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("coverage request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
