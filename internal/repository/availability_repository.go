package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/volunteer-api/internal/models"
)

// AvailabilityRepository persists volunteer availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByVolunteer returns the weekly windows of one volunteer.
func (r *AvailabilityRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.AvailabilityInterval, error) {
	const query = `SELECT id, volunteer_id, weekday, start_time, end_time, created_at
		FROM availability_intervals WHERE volunteer_id = $1 ORDER BY weekday ASC, start_time ASC`
	intervals := []models.AvailabilityInterval{}
	if err := r.db.SelectContext(ctx, &intervals, query, volunteerID); err != nil {
		return nil, fmt.Errorf("list availability for %s: %w", volunteerID, err)
	}
	return intervals, nil
}

// ListAll returns every availability window, for matching runs.
func (r *AvailabilityRepository) ListAll(ctx context.Context) ([]models.AvailabilityInterval, error) {
	const query = `SELECT id, volunteer_id, weekday, start_time, end_time, created_at
		FROM availability_intervals ORDER BY volunteer_id ASC, weekday ASC, start_time ASC`
	intervals := []models.AvailabilityInterval{}
	if err := r.db.SelectContext(ctx, &intervals, query); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return intervals, nil
}

// Replace swaps a volunteer's entire weekly calendar in one transaction.
func (r *AvailabilityRepository) Replace(ctx context.Context, volunteerID string, intervals []models.AvailabilityInterval) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM availability_intervals WHERE volunteer_id = $1`, volunteerID); err != nil {
		return fmt.Errorf("clear availability for %s: %w", volunteerID, err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO availability_intervals (id, volunteer_id, weekday, start_time, end_time, created_at)
		VALUES (:id, :volunteer_id, :weekday, :start_time, :end_time, :created_at)`
	for i := range intervals {
		intervals[i].ID = uuid.NewString()
		intervals[i].VolunteerID = volunteerID
		intervals[i].CreatedAt = now
		if _, err = tx.NamedExecContext(ctx, insert, intervals[i]); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}
	return nil
}
