package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorlink/tutorlink-api/internal/models"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
)

type mockAvailabilityRepo struct {
	rules     []models.WeeklyRule
	overrides map[string]*models.Override

	replaced     []models.WeeklyRule
	replaceCalls int
	deleteCalls  int
}

func (m *mockAvailabilityRepo) ListWeeklyRules(ctx context.Context, teacherID string) ([]models.WeeklyRule, error) {
	return m.rules, nil
}

func (m *mockAvailabilityRepo) ReplaceWeeklyRules(ctx context.Context, teacherID string, rules []models.WeeklyRule) error {
	m.replaceCalls++
	m.replaced = rules
	return nil
}

func (m *mockAvailabilityRepo) ListOverrides(ctx context.Context, teacherID string, from, to time.Time) ([]models.Override, error) {
	var out []models.Override
	for _, o := range m.overrides {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockAvailabilityRepo) UpsertOverride(ctx context.Context, override *models.Override) error {
	if m.overrides == nil {
		m.overrides = make(map[string]*models.Override)
	}
	if override.ID == "" {
		override.ID = "generated"
	}
	cp := *override
	m.overrides[override.DateString()] = &cp
	return nil
}

func (m *mockAvailabilityRepo) DeleteOverride(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	m.deleteCalls++
	key := date.Format(models.DateLayout)
	if _, ok := m.overrides[key]; !ok {
		return false, nil
	}
	delete(m.overrides, key)
	return true, nil
}

func TestSaveWeeklySettings(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	service := NewAvailabilityService(repo, nil, validator.New(), zap.NewNop())

	rules, err := service.SaveWeeklySettings(context.Background(), "t1", SaveWeeklySettingsRequest{
		Windows: []WeeklyWindowInput{
			{DayOfWeek: 1, StartTime: clock(9, 0), EndTime: clock(12, 0)},
			{DayOfWeek: 3, StartTime: clock(14, 0), EndTime: clock(17, 0)},
		},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, repo.replaceCalls)
	assert.Equal(t, "t1", repo.replaced[0].TeacherID)
}

func TestSaveWeeklySettingsEmptyClearsRules(t *testing.T) {
	repo := &mockAvailabilityRepo{
		rules: []models.WeeklyRule{{ID: "r1", TeacherID: "t1", DayOfWeek: 1, StartTime: clock(9, 0), EndTime: clock(12, 0)}},
	}
	service := NewAvailabilityService(repo, nil, validator.New(), zap.NewNop())

	rules, err := service.SaveWeeklySettings(context.Background(), "t1", SaveWeeklySettingsRequest{})
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Equal(t, 1, repo.replaceCalls)
	assert.Empty(t, repo.replaced)
}

func TestSaveWeeklySettingsRejectsInvertedWindow(t *testing.T) {
	service := NewAvailabilityService(&mockAvailabilityRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.SaveWeeklySettings(context.Background(), "t1", SaveWeeklySettingsRequest{
		Windows: []WeeklyWindowInput{{DayOfWeek: 1, StartTime: clock(12, 0), EndTime: clock(9, 0)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveWeeklySettingsRejectsSameDayOverlap(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	service := NewAvailabilityService(repo, nil, validator.New(), zap.NewNop())

	_, err := service.SaveWeeklySettings(context.Background(), "t1", SaveWeeklySettingsRequest{
		Windows: []WeeklyWindowInput{
			{DayOfWeek: 1, StartTime: clock(9, 0), EndTime: clock(11, 0)},
			{DayOfWeek: 1, StartTime: clock(10, 0), EndTime: clock(12, 0)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 0, repo.replaceCalls)
}

func TestSaveWeeklySettingsAllowsTouchingWindows(t *testing.T) {
	service := NewAvailabilityService(&mockAvailabilityRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.SaveWeeklySettings(context.Background(), "t1", SaveWeeklySettingsRequest{
		Windows: []WeeklyWindowInput{
			{DayOfWeek: 1, StartTime: clock(9, 0), EndTime: clock(11, 0)},
			{DayOfWeek: 1, StartTime: clock(11, 0), EndTime: clock(13, 0)},
		},
	})
	require.NoError(t, err)
}

func TestSaveWeeklySettingsRejectsBadWeekday(t *testing.T) {
	service := NewAvailabilityService(&mockAvailabilityRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.SaveWeeklySettings(context.Background(), "t1", SaveWeeklySettingsRequest{
		Windows: []WeeklyWindowInput{{DayOfWeek: 7, StartTime: clock(9, 0), EndTime: clock(12, 0)}},
	})
	require.Error(t, err)
}

func TestUpsertOverrideWindow(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	service := NewAvailabilityService(repo, nil, validator.New(), zap.NewNop())

	start := clock(14, 0)
	end := clock(16, 0)
	override, err := service.UpsertOverride(context.Background(), "t1", UpsertOverrideRequest{
		Date:      "2026-03-02",
		StartTime: &start,
		EndTime:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", override.DateString())
	require.Len(t, repo.overrides, 1)
}

func TestUpsertOverrideReplacesSameDate(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	service := NewAvailabilityService(repo, nil, validator.New(), zap.NewNop())

	start := clock(14, 0)
	end := clock(16, 0)
	_, err := service.UpsertOverride(context.Background(), "t1", UpsertOverrideRequest{
		Date: "2026-03-02", StartTime: &start, EndTime: &end,
	})
	require.NoError(t, err)

	_, err = service.UpsertOverride(context.Background(), "t1", UpsertOverrideRequest{
		Date: "2026-03-02", IsUnavailable: true,
	})
	require.NoError(t, err)

	require.Len(t, repo.overrides, 1)
	assert.True(t, repo.overrides["2026-03-02"].IsUnavailable)
}

func TestUpsertOverrideRequiresWindowWhenAvailable(t *testing.T) {
	service := NewAvailabilityService(&mockAvailabilityRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.UpsertOverride(context.Background(), "t1", UpsertOverrideRequest{Date: "2026-03-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertOverrideRejectsBadDate(t *testing.T) {
	service := NewAvailabilityService(&mockAvailabilityRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.UpsertOverride(context.Background(), "t1", UpsertOverrideRequest{Date: "02-03-2026", IsUnavailable: true})
	require.Error(t, err)
}

func TestDeleteOverride(t *testing.T) {
	repo := &mockAvailabilityRepo{
		overrides: map[string]*models.Override{
			"2026-03-02": {ID: "o1", TeacherID: "t1", Date: monday, IsUnavailable: true},
		},
	}
	service := NewAvailabilityService(repo, nil, validator.New(), zap.NewNop())

	require.NoError(t, service.DeleteOverride(context.Background(), "t1", "2026-03-02"))
	assert.Empty(t, repo.overrides)
}

func TestDeleteOverrideMissing(t *testing.T) {
	service := NewAvailabilityService(&mockAvailabilityRepo{}, nil, validator.New(), zap.NewNop())

	err := service.DeleteOverride(context.Background(), "t1", "2026-03-02")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
