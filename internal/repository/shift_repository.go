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

// ShiftRepository persists concrete shift occurrences.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

func (r *ShiftRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const shiftColumns = `id, schedule_id, volunteer_id, shift_date, start_time, end_time, checked_in, created_at`

// Create inserts one shift, optionally inside a caller-owned transaction.
func (r *ShiftRepository) Create(ctx context.Context, exec sqlx.ExtContext, shift *models.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO shifts (id, schedule_id, volunteer_id, shift_date, start_time, end_time, checked_in, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.exec(exec).ExecContext(ctx, query,
		shift.ID, shift.ScheduleID, shift.VolunteerID, shift.Date,
		shift.StartTime, shift.EndTime, shift.CheckedIn, shift.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert shift: %w", err)
	}
	return nil
}

// FindByID returns one shift.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// SelectByID returns every row matching the id. Coverage approval uses
// this inside its transaction: anything other than exactly one row is a
// data-integrity problem the caller must surface, not paper over.
func (r *ShiftRepository) SelectByID(ctx context.Context, exec sqlx.ExtContext, id string) ([]models.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`
	shifts := []models.Shift{}
	if err := sqlx.SelectContext(ctx, r.exec(exec), &shifts, query, id); err != nil {
		return nil, fmt.Errorf("select shift %s: %w", id, err)
	}
	return shifts, nil
}

// ListBetween returns shift details in a date range, for rota exports.
func (r *ShiftRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.ShiftDetail, error) {
	const query = `SELECT s.id, s.schedule_id, s.volunteer_id, s.shift_date, s.start_time, s.end_time, s.checked_in, s.created_at,
			c.name AS class_name, v.full_name AS volunteer_name
		FROM shifts s
		JOIN schedules sc ON sc.id = s.schedule_id
		JOIN classes c ON c.id = sc.class_id
		JOIN volunteers v ON v.id = s.volunteer_id
		WHERE s.shift_date BETWEEN $1 AND $2
		ORDER BY s.shift_date ASC, s.start_time ASC`
	details := []models.ShiftDetail{}
	if err := r.db.SelectContext(ctx, &details, query, from, to); err != nil {
		return nil, fmt.Errorf("list shifts between: %w", err)
	}
	return details, nil
}

// SetCheckedIn marks a shift attended and returns sql.ErrNoRows when the
// shift does not exist.
func (r *ShiftRepository) SetCheckedIn(ctx context.Context, id string) error {
	const query = `UPDATE shifts SET checked_in = true WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("check in shift: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("shift rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
