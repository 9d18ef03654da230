package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlink/tutorlink-api/internal/models"
	"github.com/tutorlink/tutorlink-api/internal/repository"
	"github.com/tutorlink/tutorlink-api/pkg/config"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
)

type bookingRepository interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	CreateIfFree(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

// CreateBookingRequest is the payload for reserving a slot.
type CreateBookingRequest struct {
	TeacherID string           `json:"teacher_id" validate:"required"`
	Date      string           `json:"date" validate:"required"`
	StartTime models.ClockTime `json:"start_time"`
	EndTime   models.ClockTime `json:"end_time"`
	Note      *string          `json:"note" validate:"omitempty,max=500"`
}

// BookingService orchestrates the booking write path. Its transactional
// overlap check is the authoritative double-booking guard; the slot
// computation only narrows what is offered to the student.
type BookingService struct {
	repo         bookingRepository
	availability availabilityReader
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
	minLead      time.Duration
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo bookingRepository, availability availabilityReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg config.BookingsConfig) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		repo:         repo,
		availability: availability,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		minLead:      cfg.MinLeadTime,
	}
}

// List returns bookings plus pagination data.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return bookings, pagination, nil
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// Create reserves an interval for the student. The interval must lie
// inside the teacher's resolved availability for that date, and the
// transactional insert rejects overlaps with existing bookings.
func (s *BookingService) Create(ctx context.Context, studentID string, req CreateBookingRequest) (*models.Booking, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if !req.StartTime.Valid() || !req.EndTime.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking time out of range")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking must start before it ends")
	}
	if s.minLead > 0 {
		// Dates and clock times are UTC wall clocks throughout, so the
		// booking start is an instant on the UTC timeline.
		startAt := date.Add(time.Duration(req.StartTime) * time.Minute)
		if startAt.Before(time.Now().UTC().Add(s.minLead)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("booking must start at least %s from now", s.minLead))
		}
	}

	within, err := s.intervalWithinAvailability(ctx, req.TeacherID, date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !within {
		return nil, appErrors.Clone(appErrors.ErrSlotTaken, "requested interval is outside the teacher's availability")
	}

	booking := &models.Booking{
		TeacherID:   req.TeacherID,
		StudentID:   studentID,
		BookingDate: date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      models.BookingStatusPending,
		Note:        req.Note,
	}

	if err := s.repo.CreateIfFree(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrBookingOverlap) {
			return nil, appErrors.Clone(appErrors.ErrSlotTaken, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.invalidateSlots(ctx, req.TeacherID)

	return booking, nil
}

// Confirm transitions a pending booking to confirmed.
func (s *BookingService) Confirm(ctx context.Context, id string, actor *models.JWTClaims) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role != models.RoleAdmin && actor.UserID != booking.TeacherID {
		return nil, appErrors.ErrForbidden
	}
	if booking.Status != models.BookingStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending bookings can be confirmed")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.BookingStatusConfirmed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm booking")
	}
	booking.Status = models.BookingStatusConfirmed
	return booking, nil
}

// Cancel releases the booking's interval.
func (s *BookingService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role != models.RoleAdmin &&
		actor.UserID != booking.StudentID && actor.UserID != booking.TeacherID {
		return nil, appErrors.ErrForbidden
	}
	switch booking.Status {
	case models.BookingStatusCancelled:
		return nil, appErrors.Clone(appErrors.ErrConflict, "booking is already cancelled")
	case models.BookingStatusCompleted:
		return nil, appErrors.Clone(appErrors.ErrConflict, "completed bookings cannot be cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.BookingStatusCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	booking.Status = models.BookingStatusCancelled

	s.invalidateSlots(ctx, booking.TeacherID)

	return booking, nil
}

// intervalWithinAvailability checks the requested interval against the
// teacher's resolved windows for the date.
func (s *BookingService) intervalWithinAvailability(ctx context.Context, teacherID string, date time.Time, start, end models.ClockTime) (bool, error) {
	rules, err := s.availability.ListWeeklyRules(ctx, teacherID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly rules")
	}
	overrides, err := s.availability.ListOverrides(ctx, teacherID, date, date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
	}

	overridesByDate := make(map[string]models.Override, len(overrides))
	for _, o := range overrides {
		overridesByDate[o.DateString()] = o
	}

	windows, err := resolveDay(date, rules, overridesByDate)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, "inconsistent availability data")
	}

	for _, w := range windows {
		if start >= w.start && end <= w.end {
			return true, nil
		}
	}
	return false, nil
}

func (s *BookingService) invalidateSlots(ctx context.Context, teacherID string) {
	if err := s.cache.Invalidate(ctx, "slots:"+teacherID+":*"); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}
