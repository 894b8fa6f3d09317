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

func newShiftMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { _ = db.Close() }
}

func TestShiftCreateOutsideTransaction(t *testing.T) {
	db, mock, closeFn := newShiftMock(t)
	defer closeFn()
	repo := NewShiftRepository(db)

	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO shifts").
		WithArgs(sqlmock.AnyArg(), "sch-1", "vol-1", date, "09:00", "12:00", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	shift := &models.Shift{
		ScheduleID:  "sch-1",
		VolunteerID: "vol-1",
		Date:        date,
		StartTime:   "09:00",
		EndTime:     "12:00",
	}
	err := repo.Create(context.Background(), nil, shift)

	assert.NoError(t, err)
	assert.NotEmpty(t, shift.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftCreateInsideTransaction(t *testing.T) {
	db, mock, closeFn := newShiftMock(t)
	defer closeFn()
	repo := NewShiftRepository(db)

	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO shifts").
		WithArgs(sqlmock.AnyArg(), "sch-1", "vol-2", date, "09:00", "12:00", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.Create(context.Background(), tx, &models.Shift{
		ScheduleID:  "sch-1",
		VolunteerID: "vol-2",
		Date:        date,
		StartTime:   "09:00",
		EndTime:     "12:00",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftSelectByIDReturnsDuplicates(t *testing.T) {
	db, mock, closeFn := newShiftMock(t)
	defer closeFn()
	repo := NewShiftRepository(db)

	now := time.Now().UTC()
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "volunteer_id", "shift_date", "start_time", "end_time", "checked_in", "created_at"}).
		AddRow("shift-1", "sch-1", "vol-1", date, "09:00", "12:00", false, now).
		AddRow("shift-1", "sch-1", "vol-1", date, "09:00", "12:00", false, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, schedule_id, volunteer_id, shift_date, start_time, end_time, checked_in, created_at FROM shifts WHERE id = $1`)).
		WithArgs("shift-1").
		WillReturnRows(rows)

	shifts, err := repo.SelectByID(context.Background(), nil, "shift-1")

	require.NoError(t, err)
	assert.Len(t, shifts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftListBetween(t *testing.T) {
	db, mock, closeFn := newShiftMock(t)
	defer closeFn()
	repo := NewShiftRepository(db)

	from := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "volunteer_id", "shift_date", "start_time", "end_time", "checked_in", "created_at", "class_name", "volunteer_name"}).
		AddRow("shift-1", "sch-1", "vol-1", from.AddDate(0, 0, 7), "09:00", "12:00", true, now, "Pottery", "Ada Volunteer")
	mock.ExpectQuery("SELECT s.id, s.schedule_id").
		WithArgs(from, to).
		WillReturnRows(rows)

	details, err := repo.ListBetween(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Pottery", details[0].ClassName)
	assert.Equal(t, "Ada Volunteer", details[0].VolunteerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftSetCheckedInMissing(t *testing.T) {
	db, mock, closeFn := newShiftMock(t)
	defer closeFn()
	repo := NewShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shifts SET checked_in = true WHERE id = $1`)).
		WithArgs("shift-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetCheckedIn(context.Background(), "shift-9")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
