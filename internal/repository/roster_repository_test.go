package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/oncall-roster-api/internal/models"
)

func newRosterRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRosterRepositoryReplaceMonth(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shift_assignments WHERE year = $1 AND month = $2")).
		WithArgs(2024, 4).
		WillReturnResult(sqlmock.NewResult(0, 35))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_assignments")).
		WithArgs(2024, 4, 1, models.ShiftTypeNight, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_assignments")).
		WithArgs(2024, 4, 7, models.ShiftTypeDay, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	rows := []models.ShiftAssignment{
		{Year: 2024, Month: 4, Day: 1, ShiftType: models.ShiftTypeNight, DoctorIndex: 0},
		{Year: 2024, Month: 4, Day: 7, ShiftType: models.ShiftTypeDay, DoctorIndex: 2},
	}
	require.NoError(t, repo.ReplaceMonth(context.Background(), 2024, 4, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryReplaceMonthRollsBackOnInsertError(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shift_assignments")).
		WithArgs(2024, 4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_assignments")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	rows := []models.ShiftAssignment{
		{Year: 2024, Month: 4, Day: 1, ShiftType: models.ShiftTypeNight, DoctorIndex: 0},
	}
	require.Error(t, repo.ReplaceMonth(context.Background(), 2024, 4, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryListMonth(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "year", "month", "day", "shift_type", "doctor_index", "created_at"}).
		AddRow(1, 2024, 4, 1, models.ShiftTypeNight, 3, time.Now()).
		AddRow(2, 2024, 4, 7, models.ShiftTypeNight, 1, time.Now()).
		AddRow(3, 2024, 4, 7, models.ShiftTypeDay, 4, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year, month, day, shift_type, doctor_index, created_at FROM shift_assignments WHERE year = $1 AND month = $2 ORDER BY day ASC, shift_type DESC")).
		WithArgs(2024, 4).
		WillReturnRows(rows)

	got, err := repo.ListMonth(context.Background(), 2024, 4)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.ShiftTypeNight, got[0].ShiftType)
	assert.Equal(t, 4, got[2].DoctorIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}
