package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/volunteer-api/internal/models"
)

func newAbsenceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { _ = db.Close() }
}

func TestAbsenceRequestCreateAssignsID(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectExec("INSERT INTO absence_requests").
		WithArgs(sqlmock.AnyArg(), "shift-1", "vol-1", "sickness", "flu", "", false, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := &models.AbsenceRequest{
		ShiftID:     "shift-1",
		VolunteerID: "vol-1",
		Category:    "sickness",
		Details:     "flu",
	}
	err := repo.Create(context.Background(), req)

	assert.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.False(t, req.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestCreateDuplicateOpenRequest(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectExec("INSERT INTO absence_requests").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "absence_requests_shift_id_key"})

	err := repo.Create(context.Background(), &models.AbsenceRequest{ShiftID: "shift-1", VolunteerID: "vol-1", Category: "sickness"})

	assert.ErrorIs(t, err, ErrOpenRequestExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestFindByID(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "shift_id", "volunteer_id", "category", "details", "comments", "approved", "covered_by", "created_at", "updated_at"}).
		AddRow("abs-1", "shift-1", "vol-1", "sickness", "flu", "", true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, shift_id, volunteer_id, category, details, comments, approved, covered_by, created_at, updated_at FROM absence_requests WHERE id = $1`)).
		WithArgs("abs-1").
		WillReturnRows(rows)

	req, err := repo.FindByID(context.Background(), nil, "abs-1")

	require.NoError(t, err)
	assert.Equal(t, "shift-1", req.ShiftID)
	assert.True(t, req.Approved)
	assert.Nil(t, req.CoveredBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestFindByIDInsideTransaction(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "shift_id", "volunteer_id", "category", "details", "comments", "approved", "covered_by", "created_at", "updated_at"}).
		AddRow("abs-1", "shift-1", "vol-1", "sickness", "", "", true, nil, now, now)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, shift_id, volunteer_id, category, details, comments, approved, covered_by, created_at, updated_at FROM absence_requests WHERE id = $1`)).
		WithArgs("abs-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	req, err := repo.FindByID(context.Background(), tx, "abs-1")
	require.NoError(t, err)
	assert.Equal(t, "vol-1", req.VolunteerID)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestApproveAlreadyApproved(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE absence_requests SET approved = true, updated_at = $1 WHERE id = $2 AND approved = false`)).
		WithArgs(sqlmock.AnyArg(), "abs-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Approve(context.Background(), "abs-1")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestApprovePending(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE absence_requests SET approved = true, updated_at = $1 WHERE id = $2 AND approved = false`)).
		WithArgs(sqlmock.AnyArg(), "abs-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Approve(context.Background(), "abs-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestSetCoveredByRaceLoser(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE absence_requests SET covered_by = $1, updated_at = $2 WHERE id = $3 AND covered_by IS NULL`)).
		WithArgs("vol-2", sqlmock.AnyArg(), "abs-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.SetCoveredBy(context.Background(), tx, "abs-1", "vol-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestSetCoveredByUncovered(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE absence_requests SET covered_by = $1, updated_at = $2 WHERE id = $3 AND covered_by IS NULL`)).
		WithArgs("vol-2", sqlmock.AnyArg(), "abs-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetCoveredBy(context.Background(), nil, "abs-1", "vol-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestDeleteMissing(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM absence_requests WHERE id = $1`)).
		WithArgs("abs-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "abs-9")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestListCoverageNeeds(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"absence_request_id", "shift_id", "schedule_id", "class_name", "shift_date", "start_time", "end_time", "category"}).
		AddRow("abs-1", "shift-1", "sch-1", "Pottery", date, "09:00", "12:00", "sickness").
		AddRow("abs-2", "shift-2", "sch-2", "Weaving", date, "13:00", "16:00", "vacation")
	mock.ExpectQuery("SELECT ar.id AS absence_request_id").
		WillReturnRows(rows)

	needs, err := repo.ListCoverageNeeds(context.Background())

	require.NoError(t, err)
	require.Len(t, needs, 2)
	assert.Equal(t, "Pottery", needs[0].ClassName)
	assert.Equal(t, "vacation", needs[1].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRequestCreateOtherErrorPassesThrough(t *testing.T) {
	db, mock, closeFn := newAbsenceMock(t)
	defer closeFn()
	repo := NewAbsenceRequestRepository(db)

	mock.ExpectExec("INSERT INTO absence_requests").
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.AbsenceRequest{ShiftID: "shift-1", VolunteerID: "vol-1", Category: "sickness"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOpenRequestExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
