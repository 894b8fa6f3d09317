package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/volunteer-api/internal/matching"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { _ = db.Close() }
}

func TestAssignmentReplaceAllClearsBeforeInsert(t *testing.T) {
	db, mock, closeFn := newAssignmentMock(t)
	defer closeFn()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM assignments`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO assignments").
		WithArgs(sqlmock.AnyArg(), "run-1", "vol-1", "sch-1", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assignments").
		WithArgs(sqlmock.AnyArg(), "run-1", "vol-2", "sch-2", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ReplaceAll(context.Background(), tx, "run-1", []matching.Assignment{
		{VolunteerID: "vol-1", ScheduleID: "sch-1"},
		{VolunteerID: "vol-2", ScheduleID: "sch-2"},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentReplaceAllInsertFailure(t *testing.T) {
	db, mock, closeFn := newAssignmentMock(t)
	defer closeFn()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM assignments`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ReplaceAll(context.Background(), tx, "run-1", []matching.Assignment{
		{VolunteerID: "vol-1", ScheduleID: "sch-1"},
	})
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListByRunPreservesOrder(t *testing.T) {
	db, mock, closeFn := newAssignmentMock(t)
	defer closeFn()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"volunteer_id", "schedule_id"}).
		AddRow("vol-2", "sch-1").
		AddRow("vol-1", "sch-2")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT volunteer_id, schedule_id FROM assignments WHERE run_id = $1 ORDER BY position ASC`)).
		WithArgs("run-1").
		WillReturnRows(rows)

	assignments, err := repo.ListByRun(context.Background(), "run-1")

	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "vol-2", assignments[0].VolunteerID)
	assert.Equal(t, "sch-2", assignments[1].ScheduleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
