package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/volunteer-api/internal/models"
)

// VolunteerRepository persists volunteer records.
type VolunteerRepository struct {
	db *sqlx.DB
}

// NewVolunteerRepository constructs the repository.
func NewVolunteerRepository(db *sqlx.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

const volunteerColumns = `id, email, full_name, phone, preferred_weekly_hours, hours_assigned, active, created_at, updated_at`

// Create inserts a new volunteer.
func (r *VolunteerRepository) Create(ctx context.Context, vol *models.Volunteer) error {
	if vol.ID == "" {
		vol.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vol.CreatedAt = now
	vol.UpdatedAt = now

	const query = `INSERT INTO volunteers (id, email, full_name, phone, preferred_weekly_hours, hours_assigned, active, created_at, updated_at)
		VALUES (:id, :email, :full_name, :phone, :preferred_weekly_hours, :hours_assigned, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vol); err != nil {
		return fmt.Errorf("insert volunteer: %w", err)
	}
	return nil
}

// FindByID returns one volunteer.
func (r *VolunteerRepository) FindByID(ctx context.Context, id string) (*models.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE id = $1`
	var vol models.Volunteer
	if err := r.db.GetContext(ctx, &vol, query, id); err != nil {
		return nil, err
	}
	return &vol, nil
}

// List returns volunteers matching the filter.
func (r *VolunteerRepository) List(ctx context.Context, filter models.VolunteerFilter) ([]models.Volunteer, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", idx, idx))
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", idx))
		args = append(args, *filter.Active)
		idx++
	}

	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY full_name ASC`
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	volunteers := []models.Volunteer{}
	if err := r.db.SelectContext(ctx, &volunteers, query, args...); err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	return volunteers, nil
}

// ListActive returns all active volunteers ordered by creation time. The
// matching run depends on this ordering being stable between calls.
func (r *VolunteerRepository) ListActive(ctx context.Context) ([]models.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE active = true ORDER BY created_at ASC, id ASC`
	volunteers := []models.Volunteer{}
	if err := r.db.SelectContext(ctx, &volunteers, query); err != nil {
		return nil, fmt.Errorf("list active volunteers: %w", err)
	}
	return volunteers, nil
}

// SetHoursAssigned overwrites a volunteer's accumulated weekly hours.
func (r *VolunteerRepository) SetHoursAssigned(ctx context.Context, exec sqlx.ExtContext, id string, hours float64) error {
	const query = `UPDATE volunteers SET hours_assigned = $1, updated_at = $2 WHERE id = $3`
	if _, err := exec.ExecContext(ctx, query, hours, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set hours assigned for %s: %w", id, err)
	}
	return nil
}

// Update persists mutable volunteer fields.
func (r *VolunteerRepository) Update(ctx context.Context, vol *models.Volunteer) error {
	vol.UpdatedAt = time.Now().UTC()
	const query = `UPDATE volunteers
		SET email = :email, full_name = :full_name, phone = :phone,
		    preferred_weekly_hours = :preferred_weekly_hours, active = :active, updated_at = :updated_at
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, vol)
	if err != nil {
		return fmt.Errorf("update volunteer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("volunteer rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
