package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/volunteer-api/internal/models"
)

// UserRepository persists application accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, full_name, password_hash, role, volunteer_id, active, created_at, updated_at`

// Create inserts a user account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, full_name, password_hash, role, volunteer_id, active, created_at, updated_at)
		VALUES (:id, :email, :full_name, :password_hash, :role, :volunteer_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail returns the account for an email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns one account.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListAdminEmails returns notification recipients with the admin role.
func (r *UserRepository) ListAdminEmails(ctx context.Context) ([]string, error) {
	const query = `SELECT email FROM users WHERE role = 'ADMIN' AND active = true`
	emails := []string{}
	if err := r.db.SelectContext(ctx, &emails, query); err != nil {
		return nil, fmt.Errorf("list admin emails: %w", err)
	}
	return emails, nil
}

// ListVolunteerEmails returns every active volunteer account email, used
// for the "shift needs coverage" broadcast.
func (r *UserRepository) ListVolunteerEmails(ctx context.Context) ([]string, error) {
	const query = `SELECT email FROM users WHERE role = 'VOLUNTEER' AND active = true`
	emails := []string{}
	if err := r.db.SelectContext(ctx, &emails, query); err != nil {
		return nil, fmt.Errorf("list volunteer emails: %w", err)
	}
	return emails, nil
}
