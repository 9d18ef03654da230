package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlink/tutorlink-api/internal/models"
	"github.com/tutorlink/tutorlink-api/pkg/config"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
)

type availabilityReader interface {
	ListWeeklyRules(ctx context.Context, teacherID string) ([]models.WeeklyRule, error)
	ListOverrides(ctx context.Context, teacherID string, from, to time.Time) ([]models.Override, error)
}

type bookingRangeReader interface {
	ListByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time) ([]models.Booking, error)
}

// AvailableSlotsQuery is the input for the slot computation.
type AvailableSlotsQuery struct {
	TeacherID       string
	StartDate       time.Time
	EndDate         time.Time
	DurationMinutes int
	BufferMinutes   int
}

// SlotService computes bookable time slots from a teacher's weekly
// rules, date overrides and existing bookings. It never writes; the
// result is advisory and the booking write path holds the real guard.
type SlotService struct {
	availability availabilityReader
	bookings     bookingRangeReader
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
	config       config.SlotsConfig
}

// NewSlotService wires the slot computation dependencies.
func NewSlotService(availability availabilityReader, bookings bookingRangeReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg config.SlotsConfig) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 62
	}
	return &SlotService{
		availability: availability,
		bookings:     bookings,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		config:       cfg,
	}
}

// GetAvailableSlots returns every bookable slot for the teacher between
// StartDate and EndDate inclusive, ordered by date then start time.
func (s *SlotService) GetAvailableSlots(ctx context.Context, query AvailableSlotsQuery) ([]models.TimeSlot, error) {
	if err := s.validateQuery(query); err != nil {
		return nil, err
	}

	cacheKey := slotCacheKey(query)
	var cached []models.TimeSlot
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	started := time.Now()
	rules, overrides, bookings, err := s.fetchInputs(ctx, query)
	if err != nil {
		return nil, err
	}

	overridesByDate := make(map[string]models.Override, len(overrides))
	for _, o := range overrides {
		overridesByDate[o.DateString()] = o
	}

	bookingsByDate := make(map[string][]models.Booking, len(bookings))
	for _, b := range bookings {
		if !b.Status.Blocking() {
			continue
		}
		key := b.DateString()
		bookingsByDate[key] = append(bookingsByDate[key], b)
	}

	slots := make([]models.TimeSlot, 0)
	for date := query.StartDate; !date.After(query.EndDate); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		windows, err := resolveDay(date, rules, overridesByDate)
		if err != nil {
			if s.config.SkipMalformedInProd {
				s.logger.Error("skipping day with malformed availability",
					zap.String("teacher_id", query.TeacherID),
					zap.String("date", date.Format(models.DateLayout)),
					zap.Error(err),
				)
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, "inconsistent availability data")
		}

		dateKey := date.Format(models.DateLayout)
		dayBookings := bookingsByDate[dateKey]
		for _, w := range windows {
			for _, slot := range tileSlots(dateKey, w, query.DurationMinutes, query.BufferMinutes) {
				if slotFree(slot, dayBookings) {
					slots = append(slots, slot)
				}
			}
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveSlotComputation(time.Since(started), len(slots))
	}

	_ = s.cache.Set(ctx, cacheKey, slots, s.config.CacheTTL)

	return slots, nil
}

func (s *SlotService) validateQuery(query AvailableSlotsQuery) error {
	if query.TeacherID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if query.StartDate.IsZero() || query.EndDate.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "start and end dates are required")
	}
	if query.EndDate.Before(query.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	if query.DurationMinutes <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "duration must be positive")
	}
	if query.DurationMinutes > models.MinutesPerDay {
		return appErrors.Clone(appErrors.ErrValidation, "duration exceeds one day")
	}
	if query.BufferMinutes < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "buffer must not be negative")
	}
	if days := int(query.EndDate.Sub(query.StartDate).Hours()/24) + 1; days > s.config.MaxRangeDays {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.config.MaxRangeDays))
	}
	return nil
}

// fetchInputs issues the three independent reads concurrently. Each is
// fetched exactly once for the whole range.
func (s *SlotService) fetchInputs(ctx context.Context, query AvailableSlotsQuery) ([]models.WeeklyRule, []models.Override, []models.Booking, error) {
	var (
		wg        sync.WaitGroup
		rules     []models.WeeklyRule
		overrides []models.Override
		bookings  []models.Booking

		rulesErr     error
		overridesErr error
		bookingsErr  error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		rules, rulesErr = s.availability.ListWeeklyRules(ctx, query.TeacherID)
	}()
	go func() {
		defer wg.Done()
		overrides, overridesErr = s.availability.ListOverrides(ctx, query.TeacherID, query.StartDate, query.EndDate)
	}()
	go func() {
		defer wg.Done()
		bookings, bookingsErr = s.bookings.ListByTeacherAndRange(ctx, query.TeacherID, query.StartDate, query.EndDate)
	}()
	wg.Wait()

	if rulesErr != nil {
		return nil, nil, nil, appErrors.Wrap(rulesErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly rules")
	}
	if overridesErr != nil {
		return nil, nil, nil, appErrors.Wrap(overridesErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
	}
	if bookingsErr != nil {
		return nil, nil, nil, appErrors.Wrap(bookingsErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	return rules, overrides, bookings, nil
}

func slotCacheKey(query AvailableSlotsQuery) string {
	return fmt.Sprintf("slots:%s:%s:%s:%d:%d",
		query.TeacherID,
		query.StartDate.Format(models.DateLayout),
		query.EndDate.Format(models.DateLayout),
		query.DurationMinutes,
		query.BufferMinutes,
	)
}

// window is an open interval within one day, in minutes since midnight.
type window struct {
	start models.ClockTime
	end   models.ClockTime
}

// resolveDay decides the open windows for one calendar date. An
// override fully supersedes the weekly rules for that date: an
// unavailable override closes the day, a window override replaces the
// recurring windows. Without an override the union of every weekly rule
// matching the weekday applies.
func resolveDay(date time.Time, rules []models.WeeklyRule, overridesByDate map[string]models.Override) ([]window, error) {
	if override, ok := overridesByDate[date.Format(models.DateLayout)]; ok {
		if override.IsUnavailable {
			return nil, nil
		}
		if override.StartTime == nil || override.EndTime == nil {
			return nil, fmt.Errorf("override %s has no window and is not marked unavailable", override.ID)
		}
		w := window{start: *override.StartTime, end: *override.EndTime}
		if err := checkWindow(w); err != nil {
			return nil, fmt.Errorf("override %s: %w", override.ID, err)
		}
		return []window{w}, nil
	}

	weekday := int(date.Weekday())
	var windows []window
	for _, rule := range rules {
		if rule.DayOfWeek != weekday {
			continue
		}
		w := window{start: rule.StartTime, end: rule.EndTime}
		if err := checkWindow(w); err != nil {
			return nil, fmt.Errorf("weekly rule %s: %w", rule.ID, err)
		}
		windows = append(windows, w)
	}

	return mergeWindows(windows), nil
}

func checkWindow(w window) error {
	if !w.start.Valid() || !w.end.Valid() {
		return fmt.Errorf("window %s-%s out of range", w.start, w.end)
	}
	if w.start >= w.end {
		return fmt.Errorf("window %s-%s is empty or inverted", w.start, w.end)
	}
	return nil
}

// mergeWindows unions overlapping or touching windows so multiple
// weekly rules on the same weekday never produce duplicate slots.
func mergeWindows(windows []window) []window {
	if len(windows) < 2 {
		return windows
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })

	merged := windows[:1]
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.start <= last.end {
			if w.end > last.end {
				last.end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// tileSlots discretizes a window into fixed-duration slots. Consecutive
// slots are separated by buffer minutes; the final slot must end at or
// before the window end.
func tileSlots(date string, w window, duration, buffer int) []models.TimeSlot {
	var slots []models.TimeSlot
	for cursor := int(w.start); cursor+duration <= int(w.end); cursor += duration + buffer {
		slots = append(slots, models.TimeSlot{
			Date:      date,
			StartTime: models.ClockTime(cursor),
			EndTime:   models.ClockTime(cursor + duration),
		})
	}
	return slots
}

// slotFree reports whether the candidate conflicts with none of the
// day's bookings. Intervals are half-open, so back-to-back slots and
// bookings do not collide.
func slotFree(slot models.TimeSlot, bookings []models.Booking) bool {
	for _, b := range bookings {
		if slot.StartTime < b.EndTime && slot.EndTime > b.StartTime {
			return false
		}
	}
	return true
}
