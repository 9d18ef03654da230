package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlink/tutorlink-api/internal/models"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherProfile, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherProfile, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, teacher *models.TeacherProfile) error
	Update(ctx context.Context, teacher *models.TeacherProfile) error
	Deactivate(ctx context.Context, id string) error
}

// CreateTeacherRequest represents payload for publishing a teacher profile.
type CreateTeacherRequest struct {
	UserID     string   `json:"user_id" validate:"required"`
	FullName   string   `json:"full_name" validate:"required"`
	Headline   *string  `json:"headline" validate:"omitempty,max=200"`
	Bio        *string  `json:"bio" validate:"omitempty,max=2000"`
	Subjects   []string `json:"subjects" validate:"omitempty,dive,min=1,max=100"`
	HourlyRate int      `json:"hourly_rate" validate:"min=0"`
}

// UpdateTeacherRequest represents payload for updating a teacher profile.
type UpdateTeacherRequest struct {
	FullName   string   `json:"full_name" validate:"required"`
	Headline   *string  `json:"headline" validate:"omitempty,max=200"`
	Bio        *string  `json:"bio" validate:"omitempty,max=2000"`
	Subjects   []string `json:"subjects" validate:"omitempty,dive,min=1,max=100"`
	HourlyRate int      `json:"hourly_rate" validate:"min=0"`
	Active     *bool    `json:"active"`
}

// TeacherService orchestrates teacher profile operations.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns teacher profiles plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherProfile, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
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
	return teachers, pagination, nil
}

// Get returns a teacher profile by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherProfile, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create publishes a new teacher profile for a user account.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	exists, err := s.repo.Exists(ctx, req.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check profile existence")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher profile already exists for this user")
	}

	teacher := &models.TeacherProfile{
		ID:         req.UserID,
		FullName:   strings.TrimSpace(req.FullName),
		Headline:   normalizeOptional(req.Headline),
		Bio:        normalizeOptional(req.Bio),
		Subjects:   req.Subjects,
		HourlyRate: req.HourlyRate,
		Active:     true,
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies an existing teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	teacher.FullName = strings.TrimSpace(req.FullName)
	teacher.Headline = normalizeOptional(req.Headline)
	teacher.Bio = normalizeOptional(req.Bio)
	teacher.Subjects = req.Subjects
	teacher.HourlyRate = req.HourlyRate
	if req.Active != nil {
		teacher.Active = *req.Active
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Deactivate hides a teacher profile from the marketplace.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
