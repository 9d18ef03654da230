package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlink/tutorlink-api/internal/models"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
)

type availabilityRepository interface {
	ListWeeklyRules(ctx context.Context, teacherID string) ([]models.WeeklyRule, error)
	ReplaceWeeklyRules(ctx context.Context, teacherID string, rules []models.WeeklyRule) error
	ListOverrides(ctx context.Context, teacherID string, from, to time.Time) ([]models.Override, error)
	UpsertOverride(ctx context.Context, override *models.Override) error
	DeleteOverride(ctx context.Context, teacherID string, date time.Time) (bool, error)
}

// WeeklyWindowInput is one recurring open window in the bulk save payload.
type WeeklyWindowInput struct {
	DayOfWeek int              `json:"day_of_week" validate:"min=0,max=6"`
	StartTime models.ClockTime `json:"start_time"`
	EndTime   models.ClockTime `json:"end_time"`
}

// SaveWeeklySettingsRequest replaces a teacher's full weekly rule set.
type SaveWeeklySettingsRequest struct {
	Windows []WeeklyWindowInput `json:"windows" validate:"dive"`
}

// UpsertOverrideRequest creates or replaces the override for one date.
type UpsertOverrideRequest struct {
	Date          string            `json:"date" validate:"required"`
	IsUnavailable bool              `json:"is_unavailable"`
	StartTime     *models.ClockTime `json:"start_time"`
	EndTime       *models.ClockTime `json:"end_time"`
}

// AvailabilityService manages weekly rules and date overrides.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// GetWeeklySettings returns the teacher's recurring rules.
func (s *AvailabilityService) GetWeeklySettings(ctx context.Context, teacherID string) ([]models.WeeklyRule, error) {
	rules, err := s.repo.ListWeeklyRules(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly rules")
	}
	return rules, nil
}

// SaveWeeklySettings validates and replaces the teacher's weekly rule
// set as a whole. Windows on the same weekday must not overlap.
func (s *AvailabilityService) SaveWeeklySettings(ctx context.Context, teacherID string, req SaveWeeklySettingsRequest) ([]models.WeeklyRule, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly settings payload")
	}

	for _, w := range req.Windows {
		if !w.StartTime.Valid() || !w.EndTime.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "window time out of range")
		}
		if w.StartTime >= w.EndTime {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %s-%s must start before it ends", w.StartTime, w.EndTime))
		}
	}
	if err := checkWeeklyOverlaps(req.Windows); err != nil {
		return nil, err
	}

	rules := make([]models.WeeklyRule, len(req.Windows))
	for i, w := range req.Windows {
		rules[i] = models.WeeklyRule{
			TeacherID: teacherID,
			DayOfWeek: w.DayOfWeek,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
		}
	}

	if err := s.repo.ReplaceWeeklyRules(ctx, teacherID, rules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save weekly settings")
	}

	s.invalidateSlots(ctx, teacherID)

	return rules, nil
}

// ListOverrides returns overrides inside the inclusive date range.
func (s *AvailabilityService) ListOverrides(ctx context.Context, teacherID string, from, to time.Time) ([]models.Override, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	overrides, err := s.repo.ListOverrides(ctx, teacherID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	return overrides, nil
}

// UpsertOverride creates or replaces the single override for a date.
func (s *AvailabilityService) UpsertOverride(ctx context.Context, teacherID string, req UpsertOverrideRequest) (*models.Override, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}

	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	override := &models.Override{
		TeacherID:     teacherID,
		Date:          date,
		IsUnavailable: req.IsUnavailable,
	}

	if !req.IsUnavailable {
		if req.StartTime == nil || req.EndTime == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "window times are required unless the day is unavailable")
		}
		if !req.StartTime.Valid() || !req.EndTime.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "window time out of range")
		}
		if *req.StartTime >= *req.EndTime {
			return nil, appErrors.Clone(appErrors.ErrValidation, "window must start before it ends")
		}
		override.StartTime = req.StartTime
		override.EndTime = req.EndTime
	}

	if err := s.repo.UpsertOverride(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save override")
	}

	s.invalidateSlots(ctx, teacherID)

	return override, nil
}

// DeleteOverride removes the override for a date.
func (s *AvailabilityService) DeleteOverride(ctx context.Context, teacherID, dateStr string) error {
	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	deleted, err := s.repo.DeleteOverride(ctx, teacherID, date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete override")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "override not found")
	}

	s.invalidateSlots(ctx, teacherID)

	return nil
}

func (s *AvailabilityService) invalidateSlots(ctx context.Context, teacherID string) {
	if err := s.cache.Invalidate(ctx, "slots:"+teacherID+":*"); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}

// checkWeeklyOverlaps rejects window sets where two windows on the same
// weekday intersect.
func checkWeeklyOverlaps(windows []WeeklyWindowInput) error {
	byDay := make(map[int][]WeeklyWindowInput)
	for _, w := range windows {
		byDay[w.DayOfWeek] = append(byDay[w.DayOfWeek], w)
	}

	for day, dayWindows := range byDay {
		sort.Slice(dayWindows, func(i, j int) bool { return dayWindows[i].StartTime < dayWindows[j].StartTime })
		for i := 1; i < len(dayWindows); i++ {
			if dayWindows[i].StartTime < dayWindows[i-1].EndTime {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("windows %s-%s and %s-%s overlap on day %d",
						dayWindows[i-1].StartTime, dayWindows[i-1].EndTime,
						dayWindows[i].StartTime, dayWindows[i].EndTime, day))
			}
		}
	}
	return nil
}
