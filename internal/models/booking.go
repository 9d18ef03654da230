package models

import (
	"encoding/json"
	"time"
)

// BookingStatus enumerates the booking lifecycle.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Blocking reports whether a booking in this status still occupies its
// interval. Cancelled bookings free the slot.
func (s BookingStatus) Blocking() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed || s == BookingStatusCompleted
}

// Booking is a reserved interval on a teacher's calendar.
type Booking struct {
	ID          string        `db:"id" json:"id"`
	TeacherID   string        `db:"teacher_id" json:"teacher_id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	BookingDate time.Time     `db:"booking_date" json:"-"`
	StartTime   ClockTime     `db:"start_time" json:"start_time"`
	EndTime     ClockTime     `db:"end_time" json:"end_time"`
	Status      BookingStatus `db:"status" json:"status"`
	Note        *string       `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// DateString renders the booking date in DateLayout form.
func (b Booking) DateString() string {
	return b.BookingDate.Format(DateLayout)
}

type bookingJSON struct {
	ID          string        `json:"id"`
	TeacherID   string        `json:"teacher_id"`
	StudentID   string        `json:"student_id"`
	BookingDate string        `json:"booking_date"`
	StartTime   ClockTime     `json:"start_time"`
	EndTime     ClockTime     `json:"end_time"`
	Status      BookingStatus `json:"status"`
	Note        *string       `json:"note,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// MarshalJSON renders the booking date as "YYYY-MM-DD".
func (b Booking) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingJSON{
		ID:          b.ID,
		TeacherID:   b.TeacherID,
		StudentID:   b.StudentID,
		BookingDate: b.DateString(),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Status:      b.Status,
		Note:        b.Note,
		CreatedAt:   b.CreatedAt,
	})
}

// BookingFilter captures query options for listing bookings.
type BookingFilter struct {
	TeacherID string
	StudentID string
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}
