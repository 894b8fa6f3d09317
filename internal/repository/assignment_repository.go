package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/volunteer-api/internal/matching"
)

// AssignmentRepository persists the output of matching runs.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ReplaceAll swaps the persisted assignment set for a new matching
// result inside the caller's transaction. A run replaces the whole
// steady state, so partial writes are never acceptable here.
func (r *AssignmentRepository) ReplaceAll(ctx context.Context, exec sqlx.ExtContext, runID string, assignments []matching.Assignment) error {
	target := sqlx.ExtContext(r.db)
	if exec != nil {
		target = exec
	}

	if _, err := target.ExecContext(ctx, `DELETE FROM assignments`); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO assignments (id, run_id, volunteer_id, schedule_id, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i, a := range assignments {
		if _, err := target.ExecContext(ctx, insert, uuid.NewString(), runID, a.VolunteerID, a.ScheduleID, i, now); err != nil {
			return fmt.Errorf("insert assignment %s/%s: %w", a.VolunteerID, a.ScheduleID, err)
		}
	}
	return nil
}

// ListByRun returns a run's assignments in engine output order.
func (r *AssignmentRepository) ListByRun(ctx context.Context, runID string) ([]matching.Assignment, error) {
	const query = `SELECT volunteer_id, schedule_id FROM assignments WHERE run_id = $1 ORDER BY position ASC`
	assignments := []matching.Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query, runID); err != nil {
		return nil, fmt.Errorf("list assignments for run %s: %w", runID, err)
	}
	return assignments, nil
}
