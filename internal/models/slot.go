package models

// TimeSlot is a candidate bookable interval. It is derived on every
// request and never persisted.
type TimeSlot struct {
	Date      string    `json:"date"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
}
