package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorlink/tutorlink-api/internal/models"
)

// ErrBookingOverlap is returned when a booking insert loses the race for
// an interval. The transactional check below is the authoritative guard
// against double booking; slot computation only narrows the search space.
var ErrBookingOverlap = errors.New("booking overlaps an existing booking")

// BookingRepository provides persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = "id, teacher_id, student_id, booking_date, start_time, end_time, status, note, created_at, updated_at"

// ListByTeacherAndRange returns blocking bookings for a teacher within
// the inclusive date range, ordered by date then start time.
func (r *BookingRepository) ListByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings
		WHERE teacher_id = $1 AND booking_date >= $2 AND booking_date <= $3 AND status <> $4
		ORDER BY booking_date ASC, start_time ASC`, bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, teacherID, from, to, models.BookingStatusCancelled); err != nil {
		return nil, fmt.Errorf("list bookings by range: %w", err)
	}
	return bookings, nil
}

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("booking_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("booking_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY booking_date ASC, start_time ASC LIMIT %d OFFSET %d", bookingColumns, base, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateIfFree inserts a booking only when no blocking booking overlaps
// the requested interval. A transaction-scoped advisory lock on the
// (teacher, date) pair serializes concurrent inserts for the same day,
// so two writers racing on a free day cannot both pass the overlap
// check. Row locks alone are not enough: with no conflicting rows the
// probe locks nothing.
func (r *BookingRepository) CreateIfFree(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const dayLock = `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`
	if _, err := tx.ExecContext(ctx, dayLock,
		booking.TeacherID, booking.BookingDate.Format(models.DateLayout)); err != nil {
		return fmt.Errorf("lock booking day: %w", err)
	}

	const overlapQuery = `SELECT id FROM bookings
		WHERE teacher_id = $1 AND booking_date = $2 AND status <> $3
		AND start_time < $5 AND end_time > $4
		FOR UPDATE`
	var conflicting []string
	if err := tx.SelectContext(ctx, &conflicting, overlapQuery,
		booking.TeacherID, booking.BookingDate, models.BookingStatusCancelled,
		booking.StartTime, booking.EndTime); err != nil {
		return fmt.Errorf("check booking overlap: %w", err)
	}
	if len(conflicting) > 0 {
		return ErrBookingOverlap
	}

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	const insert = `INSERT INTO bookings (id, teacher_id, student_id, booking_date, start_time, end_time, status, note, created_at, updated_at)
		VALUES (:id, :teacher_id, :student_id, :booking_date, :start_time, :end_time, :status, :note, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, booking); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

// UpdateStatus transitions a booking to the given status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	const query = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}
