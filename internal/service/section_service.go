package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/internal/repository"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

type sectionStore interface {
	Create(ctx context.Context, section *models.CourseSection) error
	Update(ctx context.Context, id string, update models.SectionUpdate) (*repository.SectionChange, error)
	FindByID(ctx context.Context, id string) (*models.CourseSection, error)
	Availability(ctx context.Context, semester string, year int) ([]models.SectionAvailability, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type salaryEngine interface {
	RecomputeBestEffort(ctx context.Context, facultyID string)
}

// CreateSectionRequest is the payload for scheduling a section.
type CreateSectionRequest struct {
	CourseID    string  `json:"course_id" validate:"required"`
	FacultyID   *string `json:"faculty_id,omitempty"`
	SectionCode string  `json:"section_code" validate:"required,max=20"`
	Semester    string  `json:"semester" validate:"required,max=20"`
	Year        int     `json:"year" validate:"required,gte=2000"`
	Schedule    *string `json:"schedule,omitempty"`
	Room        *string `json:"room,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty" validate:"omitempty,gte=1"`
}

// SectionService schedules sections and keeps derived salaries in step with
// assignment changes. The section write commits first; salary recomputation
// follows best effort for every faculty member whose assignment changed.
type SectionService struct {
	sections        sectionStore
	courses         courseFinder
	salaries        salaryEngine
	cache           *CacheService
	metrics         *MetricsService
	validate        *validator.Validate
	logger          *zap.Logger
	defaultCapacity int
}

// NewSectionService constructs SectionService.
func NewSectionService(sections sectionStore, courses courseFinder, salaries salaryEngine, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultCapacity int) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCapacity <= 0 {
		defaultCapacity = 30
	}
	return &SectionService{
		sections:        sections,
		courses:         courses,
		salaries:        salaries,
		cache:           cache,
		metrics:         metrics,
		validate:        validate,
		logger:          logger,
		defaultCapacity: defaultCapacity,
	}
}

// Create schedules a new section. Assigning a faculty member at creation
// time changes their teaching load, so their salary is rebuilt afterwards.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.CourseSection, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section request")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	capacity := s.defaultCapacity
	if req.MaxCapacity != nil {
		capacity = *req.MaxCapacity
	}

	section := &models.CourseSection{
		CourseID:    req.CourseID,
		FacultyID:   req.FacultyID,
		SectionCode: req.SectionCode,
		Semester:    req.Semester,
		Year:        req.Year,
		Schedule:    req.Schedule,
		Room:        req.Room,
		MaxCapacity: capacity,
		IsActive:    true,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, "availability:*")
	if section.FacultyID != nil {
		s.salaries.RecomputeBestEffort(ctx, *section.FacultyID)
	}
	return section, nil
}

// Update applies a partial section update, then rebuilds the salary of
// every faculty member the change touched. Reassignment affects two
// members; deactivation affects the current one.
func (s *SectionService) Update(ctx context.Context, id string, update models.SectionUpdate) (*models.CourseSection, error) {
	change, err := s.sections.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, "availability:*")
	for _, facultyID := range affectedFaculty(change) {
		s.salaries.RecomputeBestEffort(ctx, facultyID)
	}

	return s.sections.FindByID(ctx, id)
}

// Get returns a section by id.
func (s *SectionService) Get(ctx context.Context, id string) (*models.CourseSection, error) {
	return s.sections.FindByID(ctx, id)
}

// Availability lists active sections with seats left, served from cache
// when possible. Cached numbers are advisory; enroll re-checks capacity
// under the section lock.
func (s *SectionService) Availability(ctx context.Context, semester string, year int) ([]models.SectionAvailability, error) {
	key := fmt.Sprintf("availability:%s:%d", semester, year)

	var cached []models.SectionAvailability
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	sections, err := s.sections.Availability(ctx, semester, year)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, sections)
	return sections, nil
}

// affectedFaculty returns the distinct non-nil faculty ids in the change.
func affectedFaculty(change *repository.SectionChange) []string {
	var ids []string
	if change.OldFacultyID != nil {
		ids = append(ids, *change.OldFacultyID)
	}
	if change.NewFacultyID != nil &&
		(change.OldFacultyID == nil || *change.NewFacultyID != *change.OldFacultyID) {
		ids = append(ids, *change.NewFacultyID)
	}
	return ids
}
