package models

import (
	"encoding/json"
	"time"
)

// DateLayout is the ISO calendar date form used on every API surface.
const DateLayout = "2006-01-02"

// WeeklyRule is a recurring open window for one weekday. Day numbering
// follows time.Weekday: 0 = Sunday through 6 = Saturday. A teacher may
// hold several disjoint windows on the same weekday.
type WeeklyRule struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime ClockTime `db:"start_time" json:"start_time"`
	EndTime   ClockTime `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Override replaces the weekly rules for one specific calendar date.
// When IsUnavailable is set the window fields are meaningless and the
// day is fully closed. At most one override exists per (teacher, date),
// enforced by a unique constraint.
type Override struct {
	ID            string     `db:"id" json:"id"`
	TeacherID     string     `db:"teacher_id" json:"teacher_id"`
	Date          time.Time  `db:"date" json:"-"`
	IsUnavailable bool       `db:"is_unavailable" json:"is_unavailable"`
	StartTime     *ClockTime `db:"start_time" json:"start_time,omitempty"`
	EndTime       *ClockTime `db:"end_time" json:"end_time,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// DateString renders the override date in DateLayout form.
func (o Override) DateString() string {
	return o.Date.Format(DateLayout)
}

type overrideJSON struct {
	ID            string     `json:"id"`
	TeacherID     string     `json:"teacher_id"`
	Date          string     `json:"date"`
	IsUnavailable bool       `json:"is_unavailable"`
	StartTime     *ClockTime `json:"start_time,omitempty"`
	EndTime       *ClockTime `json:"end_time,omitempty"`
}

// MarshalJSON renders the date as "YYYY-MM-DD" instead of a timestamp.
func (o Override) MarshalJSON() ([]byte, error) {
	return json.Marshal(overrideJSON{
		ID:            o.ID,
		TeacherID:     o.TeacherID,
		Date:          o.DateString(),
		IsUnavailable: o.IsUnavailable,
		StartTime:     o.StartTime,
		EndTime:       o.EndTime,
	})
}
