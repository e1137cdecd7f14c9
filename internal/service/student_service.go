package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	StudentID     string     `json:"student_id" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	Email         *string    `json:"email" validate:"omitempty,email"`
	Class         string     `json:"class" validate:"required"`
	Section       string     `json:"section" validate:"required"`
	Roll          string     `json:"roll" validate:"required"`
	GuardianName  string     `json:"guardian_name" validate:"required"`
	GuardianPhone string     `json:"guardian_phone" validate:"required"`
	Phone         *string    `json:"phone"`
	Address       *string    `json:"address"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	Name          string     `json:"name" validate:"required"`
	Email         *string    `json:"email" validate:"omitempty,email"`
	Class         string     `json:"class" validate:"required"`
	Section       string     `json:"section" validate:"required"`
	Roll          string     `json:"roll" validate:"required"`
	GuardianName  string     `json:"guardian_name" validate:"required"`
	GuardianPhone string     `json:"guardian_phone" validate:"required"`
	Phone         *string    `json:"phone"`
	Address       *string    `json:"address"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	Status        string     `json:"status" validate:"required,oneof=active inactive"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		StudentID:     req.StudentID,
		Name:          req.Name,
		Email:         req.Email,
		Class:         req.Class,
		Section:       req.Section,
		Roll:          req.Roll,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Phone:         req.Phone,
		Address:       req.Address,
		DateOfBirth:   req.DateOfBirth,
		Status:        "active",
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student.Name = req.Name
	student.Email = req.Email
	student.Class = req.Class
	student.Section = req.Section
	student.Roll = req.Roll
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.Phone = req.Phone
	student.Address = req.Address
	student.DateOfBirth = req.DateOfBirth
	student.Status = req.Status
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
