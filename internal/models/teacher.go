package models

import (
	"time"

	"github.com/lib/pq"
)

// TeacherProfile represents a tutor listed on the marketplace. The
// profile shares its primary key with the owning user account, so the
// same teacher id flows through rules, overrides and bookings.
type TeacherProfile struct {
	ID         string         `db:"id" json:"id"`
	FullName   string         `db:"full_name" json:"full_name"`
	Headline   *string        `db:"headline" json:"headline,omitempty"`
	Bio        *string        `db:"bio" json:"bio,omitempty"`
	Subjects   pq.StringArray `db:"subjects" json:"subjects"`
	HourlyRate int            `db:"hourly_rate" json:"hourly_rate"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Subject   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
