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

	"github.com/tutorlink/tutorlink-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAvailabilityRepositoryListWeeklyRules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("r1", "t1", 1, "09:00:00", "12:00:00", time.Now(), time.Now()).
		AddRow("r2", "t1", 3, "14:00:00", "17:00:00", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, teacher_id, day_of_week, start_time, end_time, created_at, updated_at").
		WithArgs("t1").
		WillReturnRows(rows)

	rules, err := repo.ListWeeklyRules(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, models.ClockTime(540), rules[0].StartTime)
	assert.Equal(t, models.ClockTime(720), rules[0].EndTime)
	assert.Equal(t, 3, rules[1].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceWeeklyRules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_rules WHERE teacher_id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO weekly_rules").
		WithArgs(sqlmock.AnyArg(), "t1", 1, "09:00:00", "12:00:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceWeeklyRules(context.Background(), "t1", []models.WeeklyRule{
		{DayOfWeek: 1, StartTime: 540, EndTime: 720},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceWeeklyRulesEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_rules WHERE teacher_id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceWeeklyRules(context.Background(), "t1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListOverrides(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "date", "is_unavailable", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("o1", "t1", from, true, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, teacher_id, date, is_unavailable, start_time, end_time").
		WithArgs("t1", from, to).
		WillReturnRows(rows)

	overrides, err := repo.ListOverrides(context.Background(), "t1", from, to)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.True(t, overrides[0].IsUnavailable)
	assert.Nil(t, overrides[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryUpsertOverride(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	start := models.ClockTime(840)
	end := models.ClockTime(960)
	override := &models.Override{
		TeacherID: "t1",
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: &start,
		EndTime:   &end,
	}

	mock.ExpectExec("INSERT INTO availability_overrides").
		WithArgs(sqlmock.AnyArg(), "t1", override.Date, false, "14:00:00", "16:00:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpsertOverride(context.Background(), override))
	assert.NotEmpty(t, override.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeleteOverride(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_overrides WHERE teacher_id = $1 AND date = $2")).
		WithArgs("t1", date).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteOverride(context.Background(), "t1", date)
	require.NoError(t, err)
	assert.True(t, deleted)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_overrides WHERE teacher_id = $1 AND date = $2")).
		WithArgs("t1", date).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.DeleteOverride(context.Background(), "t1", date)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
