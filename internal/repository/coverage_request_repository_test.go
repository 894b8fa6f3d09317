package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/volunteer-api/internal/models"
)

func newCoverageMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { _ = db.Close() }
}

func TestCoverageRequestCreate(t *testing.T) {
	db, mock, closeFn := newCoverageMock(t)
	defer closeFn()
	repo := NewCoverageRequestRepository(db)

	mock.ExpectExec("INSERT INTO coverage_requests").
		WithArgs(sqlmock.AnyArg(), "abs-1", "vol-2", "happy to step in", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := &models.CoverageRequest{
		AbsenceRequestID: "abs-1",
		VolunteerID:      "vol-2",
		Message:          "happy to step in",
	}
	err := repo.Create(context.Background(), req)

	assert.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoverageRequestListByAbsence(t *testing.T) {
	db, mock, closeFn := newCoverageMock(t)
	defer closeFn()
	repo := NewCoverageRequestRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "absence_request_id", "volunteer_id", "message", "created_at"}).
		AddRow("cov-1", "abs-1", "vol-2", "", now.Add(-time.Hour)).
		AddRow("cov-2", "abs-1", "vol-3", "can swap", now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, absence_request_id, volunteer_id, message, created_at FROM coverage_requests WHERE absence_request_id = $1 ORDER BY created_at ASC`)).
		WithArgs("abs-1").
		WillReturnRows(rows)

	offers, err := repo.ListByAbsence(context.Background(), "abs-1")

	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "vol-2", offers[0].VolunteerID)
	assert.Equal(t, "can swap", offers[1].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoverageRequestFindByAbsenceAndVolunteer(t *testing.T) {
	db, mock, closeFn := newCoverageMock(t)
	defer closeFn()
	repo := NewCoverageRequestRepository(db)

	rows := sqlmock.NewRows([]string{"id", "absence_request_id", "volunteer_id", "message", "created_at"}).
		AddRow("cov-1", "abs-1", "vol-2", "", time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, absence_request_id, volunteer_id, message, created_at FROM coverage_requests WHERE absence_request_id = $1 AND volunteer_id = $2`)).
		WithArgs("abs-1", "vol-2").
		WillReturnRows(rows)

	offer, err := repo.FindByAbsenceAndVolunteer(context.Background(), "abs-1", "vol-2")

	require.NoError(t, err)
	assert.Equal(t, "cov-1", offer.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoverageRequestFindByAbsenceAndVolunteerMissing(t *testing.T) {
	db, mock, closeFn := newCoverageMock(t)
	defer closeFn()
	repo := NewCoverageRequestRepository(db)

	mock.ExpectQuery("SELECT id, absence_request_id").
		WithArgs("abs-1", "vol-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByAbsenceAndVolunteer(context.Background(), "abs-1", "vol-9")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoverageRequestDeleteByAbsenceAndVolunteerConsumed(t *testing.T) {
	db, mock, closeFn := newCoverageMock(t)
	defer closeFn()
	repo := NewCoverageRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM coverage_requests WHERE absence_request_id = $1 AND volunteer_id = $2`)).
		WithArgs("abs-1", "vol-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByAbsenceAndVolunteer(context.Background(), "abs-1", "vol-2")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoverageRequestDelete(t *testing.T) {
	db, mock, closeFn := newCoverageMock(t)
	defer closeFn()
	repo := NewCoverageRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM coverage_requests WHERE id = $1`)).
		WithArgs("cov-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "cov-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
