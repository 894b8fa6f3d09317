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

// ClassPreferenceRepository persists volunteer class preferences.
type ClassPreferenceRepository struct {
	db *sqlx.DB
}

// NewClassPreferenceRepository constructs the repository.
func NewClassPreferenceRepository(db *sqlx.DB) *ClassPreferenceRepository {
	return &ClassPreferenceRepository{db: db}
}

// Upsert creates or updates the single preference a volunteer holds for
// a class.
func (r *ClassPreferenceRepository) Upsert(ctx context.Context, pref *models.ClassPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO class_preferences (id, volunteer_id, class_id, rank, created_at)
		VALUES (:id, :volunteer_id, :class_id, :rank, :created_at)
		ON CONFLICT (volunteer_id, class_id) DO UPDATE SET rank = EXCLUDED.rank`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert class preference: %w", err)
	}
	return nil
}

// ListByVolunteer returns the ranked preferences of one volunteer.
func (r *ClassPreferenceRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.ClassPreference, error) {
	const query = `SELECT id, volunteer_id, class_id, rank, created_at
		FROM class_preferences WHERE volunteer_id = $1 ORDER BY rank ASC`
	prefs := []models.ClassPreference{}
	if err := r.db.SelectContext(ctx, &prefs, query, volunteerID); err != nil {
		return nil, fmt.Errorf("list preferences for %s: %w", volunteerID, err)
	}
	return prefs, nil
}

// ListAll returns every preference, for matching runs.
func (r *ClassPreferenceRepository) ListAll(ctx context.Context) ([]models.ClassPreference, error) {
	const query = `SELECT id, volunteer_id, class_id, rank, created_at FROM class_preferences`
	prefs := []models.ClassPreference{}
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Delete removes one preference record.
func (r *ClassPreferenceRepository) Delete(ctx context.Context, volunteerID, classID string) error {
	const query = `DELETE FROM class_preferences WHERE volunteer_id = $1 AND class_id = $2`
	result, err := r.db.ExecContext(ctx, query, volunteerID, classID)
	if err != nil {
		return fmt.Errorf("delete class preference: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("class preference rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
