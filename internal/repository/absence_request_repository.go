package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shiftwise/volunteer-api/internal/models"
)

// ErrOpenRequestExists is returned when inserting a second open absence
// request for the same shift. The unique constraint on shift_id is the
// authority; this error just names the violation.
var ErrOpenRequestExists = errors.New("shift already has an open absence request")

// AbsenceRequestRepository persists absence requests.
type AbsenceRequestRepository struct {
	db *sqlx.DB
}

// NewAbsenceRequestRepository constructs the repository.
func NewAbsenceRequestRepository(db *sqlx.DB) *AbsenceRequestRepository {
	return &AbsenceRequestRepository{db: db}
}

func (r *AbsenceRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const absenceColumns = `id, shift_id, volunteer_id, category, details, comments, approved, covered_by, created_at, updated_at`

// Create inserts an absence request. The insert itself fails on a
// duplicate open request rather than silently creating one.
func (r *AbsenceRequestRepository) Create(ctx context.Context, req *models.AbsenceRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	const query = `INSERT INTO absence_requests (id, shift_id, volunteer_id, category, details, comments, approved, covered_by, created_at, updated_at)
		VALUES (:id, :shift_id, :volunteer_id, :category, :details, :comments, :approved, :covered_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrOpenRequestExists
		}
		return fmt.Errorf("insert absence request: %w", err)
	}
	return nil
}

// FindByID returns one absence request, reading through the caller's
// transaction when one is given.
func (r *AbsenceRequestRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.AbsenceRequest, error) {
	query := `SELECT ` + absenceColumns + ` FROM absence_requests WHERE id = $1`
	var req models.AbsenceRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve flips the pending flag. Zero affected rows means the request
// does not exist or was already approved; either way sql.ErrNoRows.
func (r *AbsenceRequestRepository) Approve(ctx context.Context, id string) error {
	const query = `UPDATE absence_requests SET approved = true, updated_at = $1 WHERE id = $2 AND approved = false`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("approve absence request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("absence request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request; coverage offers against it cascade away.
func (r *AbsenceRequestRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM absence_requests WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete absence request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("absence request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetCoveredBy records the covering volunteer, guarding against a second
// concurrent approval: the WHERE clause only matches an uncovered row,
// so the loser of a race sees zero affected rows.
func (r *AbsenceRequestRepository) SetCoveredBy(ctx context.Context, exec sqlx.ExtContext, id, volunteerID string) error {
	const query = `UPDATE absence_requests SET covered_by = $1, updated_at = $2 WHERE id = $3 AND covered_by IS NULL`
	result, err := r.exec(exec).ExecContext(ctx, query, volunteerID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set covered_by on absence request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("absence request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCoverageNeeds returns approved, still uncovered absences with
// shift and class context, for the coverage board.
func (r *AbsenceRequestRepository) ListCoverageNeeds(ctx context.Context) ([]models.CoverageNeed, error) {
	const query = `SELECT ar.id AS absence_request_id, s.id AS shift_id, s.schedule_id, c.name AS class_name,
			s.shift_date, s.start_time, s.end_time, ar.category
		FROM absence_requests ar
		JOIN shifts s ON s.id = ar.shift_id
		JOIN schedules sc ON sc.id = s.schedule_id
		JOIN classes c ON c.id = sc.class_id
		WHERE ar.approved = true AND ar.covered_by IS NULL
		ORDER BY s.shift_date ASC, s.start_time ASC`
	needs := []models.CoverageNeed{}
	if err := r.db.SelectContext(ctx, &needs, query); err != nil {
		return nil, fmt.Errorf("list coverage needs: %w", err)
	}
	return needs, nil
}
