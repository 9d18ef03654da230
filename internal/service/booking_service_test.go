package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorlink/tutorlink-api/internal/models"
	"github.com/tutorlink/tutorlink-api/internal/repository"
	"github.com/tutorlink/tutorlink-api/pkg/config"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
)

type mockBookingRepo struct {
	items map[string]*models.Booking

	createErr     error
	statusUpdates map[string]models.BookingStatus
}

func (m *mockBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	var out []models.Booking
	for _, b := range m.items {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.items[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) CreateIfFree(ctx context.Context, booking *models.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.items == nil {
		m.items = make(map[string]*models.Booking)
	}
	if booking.ID == "" {
		booking.ID = "generated"
	}
	cp := *booking
	m.items[booking.ID] = &cp
	return nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	if m.statusUpdates == nil {
		m.statusUpdates = make(map[string]models.BookingStatus)
	}
	m.statusUpdates[id] = status
	if b, ok := m.items[id]; ok {
		b.Status = status
	}
	return nil
}

func mondayAvailability() *mockAvailability {
	return &mockAvailability{
		rules: []models.WeeklyRule{
			{ID: "r1", TeacherID: "t1", DayOfWeek: 1, StartTime: clock(9, 0), EndTime: clock(12, 0)},
		},
	}
}

func validCreateRequest() CreateBookingRequest {
	return CreateBookingRequest{
		TeacherID: "t1",
		Date:      "2026-03-02",
		StartTime: clock(10, 0),
		EndTime:   clock(11, 0),
	}
}

func TestBookingCreate(t *testing.T) {
	repo := &mockBookingRepo{}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	booking, err := service.Create(context.Background(), "s1", validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, "s1", booking.StudentID)
	assert.Len(t, repo.items, 1)
}

func TestBookingCreateOutsideAvailability(t *testing.T) {
	repo := &mockBookingRepo{}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	req := validCreateRequest()
	req.StartTime = clock(13, 0)
	req.EndTime = clock(14, 0)

	_, err := service.Create(context.Background(), "s1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestBookingCreateCrossingWindowEdge(t *testing.T) {
	service := NewBookingService(&mockBookingRepo{}, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	req := validCreateRequest()
	req.StartTime = clock(11, 30)
	req.EndTime = clock(12, 30)

	_, err := service.Create(context.Background(), "s1", req)
	require.Error(t, err)
}

func TestBookingCreateOnUnavailableOverride(t *testing.T) {
	availability := mondayAvailability()
	availability.overrides = []models.Override{
		{ID: "o1", TeacherID: "t1", Date: monday, IsUnavailable: true},
	}
	service := NewBookingService(&mockBookingRepo{}, availability, nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	_, err := service.Create(context.Background(), "s1", validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, appErrors.FromError(err).Code)
}

func TestBookingCreateOverlapConflict(t *testing.T) {
	repo := &mockBookingRepo{createErr: repository.ErrBookingOverlap}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	_, err := service.Create(context.Background(), "s1", validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, appErrors.FromError(err).Code)
}

func TestBookingCreateInvalidPayload(t *testing.T) {
	service := NewBookingService(&mockBookingRepo{}, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	cases := []struct {
		name string
		req  CreateBookingRequest
	}{
		{"missing teacher", CreateBookingRequest{Date: "2026-03-02", StartTime: clock(10, 0), EndTime: clock(11, 0)}},
		{"bad date", CreateBookingRequest{TeacherID: "t1", Date: "02/03/2026", StartTime: clock(10, 0), EndTime: clock(11, 0)}},
		{"inverted interval", CreateBookingRequest{TeacherID: "t1", Date: "2026-03-02", StartTime: clock(11, 0), EndTime: clock(10, 0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), "s1", tc.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestBookingCreateLeadTimeEnforced(t *testing.T) {
	repo := &mockBookingRepo{}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{
		MinLeadTime: time.Hour,
	})

	// 2026-03-02 lies in the past relative to any test run after it.
	_, err := service.Create(context.Background(), "s1", validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestBookingCreateLeadTimeAllowsFutureStart(t *testing.T) {
	repo := &mockBookingRepo{}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{
		MinLeadTime: time.Hour,
	})

	// A Monday at least a week out keeps the 10:00 start past the
	// configured lead whenever the test runs.
	next := time.Now().UTC().AddDate(0, 0, 7)
	for next.Weekday() != time.Monday {
		next = next.AddDate(0, 0, 1)
	}
	req := validCreateRequest()
	req.Date = next.Format(models.DateLayout)

	booking, err := service.Create(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Len(t, repo.items, 1)
}

func TestBookingConfirm(t *testing.T) {
	repo := &mockBookingRepo{
		items: map[string]*models.Booking{
			"b1": {ID: "b1", TeacherID: "t1", StudentID: "s1", Status: models.BookingStatusPending},
		},
	}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	booking, err := service.Confirm(context.Background(), "b1", actor)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, models.BookingStatusConfirmed, repo.statusUpdates["b1"])
}

func TestBookingConfirmForbiddenForOtherTeacher(t *testing.T) {
	repo := &mockBookingRepo{
		items: map[string]*models.Booking{
			"b1": {ID: "b1", TeacherID: "t1", StudentID: "s1", Status: models.BookingStatusPending},
		},
	}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	actor := &models.JWTClaims{UserID: "t2", Role: models.RoleTeacher}
	_, err := service.Confirm(context.Background(), "b1", actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBookingConfirmRejectsNonPending(t *testing.T) {
	repo := &mockBookingRepo{
		items: map[string]*models.Booking{
			"b1": {ID: "b1", TeacherID: "t1", StudentID: "s1", Status: models.BookingStatusCancelled},
		},
	}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	_, err := service.Confirm(context.Background(), "b1", actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingCancelByStudent(t *testing.T) {
	repo := &mockBookingRepo{
		items: map[string]*models.Booking{
			"b1": {ID: "b1", TeacherID: "t1", StudentID: "s1", Status: models.BookingStatusConfirmed},
		},
	}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	actor := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	booking, err := service.Cancel(context.Background(), "b1", actor)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)
}

func TestBookingCancelAlreadyCancelled(t *testing.T) {
	repo := &mockBookingRepo{
		items: map[string]*models.Booking{
			"b1": {ID: "b1", TeacherID: "t1", StudentID: "s1", Status: models.BookingStatusCancelled},
		},
	}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	actor := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	_, err := service.Cancel(context.Background(), "b1", actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingCancelCompletedRejected(t *testing.T) {
	repo := &mockBookingRepo{
		items: map[string]*models.Booking{
			"b1": {ID: "b1", TeacherID: "t1", StudentID: "s1", Status: models.BookingStatusCompleted},
		},
	}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	actor := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	_, err := service.Cancel(context.Background(), "b1", actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusUpdates)
}

func TestBookingCancelForbiddenForStranger(t *testing.T) {
	repo := &mockBookingRepo{
		items: map[string]*models.Booking{
			"b1": {ID: "b1", TeacherID: "t1", StudentID: "s1", Status: models.BookingStatusPending},
		},
	}
	service := NewBookingService(repo, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	actor := &models.JWTClaims{UserID: "s2", Role: models.RoleStudent}
	_, err := service.Cancel(context.Background(), "b1", actor)
	require.Error(t, err)
}

func TestBookingGetMissing(t *testing.T) {
	service := NewBookingService(&mockBookingRepo{}, mondayAvailability(), nil, validator.New(), zap.NewNop(), config.BookingsConfig{})

	_, err := service.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
