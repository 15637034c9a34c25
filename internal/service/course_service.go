package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/acadsuite/campus-core/internal/models"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

type courseStore interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
}

// CreateCourseRequest is the payload for adding a catalogue entry.
type CreateCourseRequest struct {
	CourseCode   string          `json:"course_code" validate:"required,max=20"`
	CourseName   string          `json:"course_name" validate:"required,max=200"`
	Credits      int             `json:"credits" validate:"required,gte=1,lte=10"`
	FeePerCredit decimal.Decimal `json:"fee_per_credit"`
	DepartmentID *string         `json:"department_id,omitempty"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	courses  courseStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseStore, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, validate: validate, logger: logger}
}

// Create adds a catalogue entry. Credit fees feed both tuition and salary
// computations, so negative rates are rejected up front.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course request")
	}
	if req.FeePerCredit.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee_per_credit must not be negative")
	}

	course := &models.Course{
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Credits:      req.Credits,
		FeePerCredit: req.FeePerCredit,
		DepartmentID: req.DepartmentID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	return s.courses.FindByID(ctx, id)
}

// List returns the full catalogue.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	return s.courses.List(ctx)
}
