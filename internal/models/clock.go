package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a local time of day expressed as minutes since midnight.
// Valid values are 0 through 1439. It replaces raw "HH:mm" strings across
// layers so that parsing happens exactly once, at the boundary.
type ClockTime int

const (
	// MinutesPerDay bounds the valid ClockTime range.
	MinutesPerDay = 24 * 60
)

// ParseClock parses "HH:mm" or "HH:mm:ss" clock strings. Seconds are
// accepted and discarded since the scheduling domain is whole-minute.
func ParseClock(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("parse clock %q: want HH:mm or HH:mm:ss", raw)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", raw)
	}

	return ClockTime(hour*60 + minute), nil
}

// Valid reports whether the value lies inside a single day.
func (t ClockTime) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// String renders the canonical "HH:mm" form.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON encodes the clock time as its "HH:mm" string.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "HH:mm" or "HH:mm:ss" strings.
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer so clock times persist as "HH:mm:ss".
func (t ClockTime) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("clock time %d out of range", int(t))
	}
	return fmt.Sprintf("%02d:%02d:00", int(t)/60, int(t)%60), nil
}

// Scan implements sql.Scanner for TIME columns, tolerating the string,
// byte-slice and time.Time representations drivers produce.
func (t *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = 0
		return nil
	case string:
		parsed, err := ParseClock(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := ParseClock(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case time.Time:
		*t = ClockTime(v.Hour()*60 + v.Minute())
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}
