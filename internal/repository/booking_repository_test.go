package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlink/tutorlink-api/internal/models"
)

func TestBookingRepositoryListByTeacherAndRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "student_id", "booking_date", "start_time", "end_time", "status", "note", "created_at", "updated_at"}).
		AddRow("b1", "t1", "s1", from, "10:00:00", "11:00:00", "confirmed", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, teacher_id, student_id, booking_date, start_time, end_time, status, note").
		WithArgs("t1", from, to, "cancelled").
		WillReturnRows(rows)

	bookings, err := repo.ListByTeacherAndRange(context.Background(), "t1", from, to)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.ClockTime(600), bookings[0].StartTime)
	assert.Equal(t, models.BookingStatusConfirmed, bookings[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateIfFree(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		TeacherID:   "t1",
		StudentID:   "s1",
		BookingDate: date,
		StartTime:   600,
		EndTime:     660,
		Status:      models.BookingStatusPending,
	}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("t1", "2026-03-02").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id FROM bookings").
		WithArgs("t1", date, "cancelled", "10:00:00", "11:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), "t1", "s1", date, "10:00:00", "11:00:00", "pending", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateIfFree(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateIfFreeConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		TeacherID:   "t1",
		StudentID:   "s1",
		BookingDate: date,
		StartTime:   600,
		EndTime:     660,
		Status:      models.BookingStatusPending,
	}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("t1", "2026-03-02").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id FROM bookings").
		WithArgs("t1", date, "cancelled", "10:00:00", "11:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing"))
	mock.ExpectRollback()

	err := repo.CreateIfFree(context.Background(), booking)
	require.ErrorIs(t, err, ErrBookingOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "student_id", "booking_date", "start_time", "end_time", "status", "note", "created_at", "updated_at"}).
		AddRow("b1", "t1", "s1", time.Now(), "10:00:00", "11:00:00", "pending", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE 1=1 AND teacher_id = $1 AND status = $2 ORDER BY booking_date ASC, start_time ASC LIMIT 20 OFFSET 0")).
		WithArgs("t1", "pending").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE 1=1 AND teacher_id = $1 AND status = $2")).
		WithArgs("t1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{TeacherID: "t1", Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("b1", "confirmed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "b1", models.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
