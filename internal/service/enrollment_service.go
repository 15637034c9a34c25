package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsuite/campus-core/internal/models"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

type enrollmentStore interface {
	Enroll(ctx context.Context, studentID, sectionID string) (*models.EnrollResult, error)
	Drop(ctx context.Context, studentID, sectionID string) (*models.DropResult, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type feeEngine interface {
	RecomputeBestEffort(ctx context.Context, studentID, semester string)
}

// EnrollRequest is the payload for enrolling a student into a section.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

// EnrollmentService orchestrates enroll and drop. The seat change commits
// in the repository transaction; fee recomputation then runs as a separate
// best-effort step so a recompute failure never rolls back a held seat.
type EnrollmentService struct {
	enrollments enrollmentStore
	fees        feeEngine
	cache       *CacheService
	metrics     *MetricsService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentStore, fees feeEngine, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		fees:        fees,
		cache:       cache,
		metrics:     metrics,
		validate:    validate,
		logger:      logger,
	}
}

// Enroll registers the student and then refreshes their fees for the
// section's semester.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment request")
	}

	result, err := s.enrollments.Enroll(ctx, req.StudentID, req.SectionID)
	if err != nil {
		s.recordOutcome("enroll", err)
		return nil, err
	}
	s.metrics.RecordEnrollment("enroll", "success")

	s.afterSeatChange(ctx, req.StudentID, result.Semester)
	return result, nil
}

// Drop releases the student's seat and then refreshes their fees.
func (s *EnrollmentService) Drop(ctx context.Context, req EnrollRequest) (*models.DropResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop request")
	}

	result, err := s.enrollments.Drop(ctx, req.StudentID, req.SectionID)
	if err != nil {
		s.recordOutcome("drop", err)
		return nil, err
	}
	s.metrics.RecordEnrollment("drop", "success")

	s.afterSeatChange(ctx, req.StudentID, result.Semester)
	return result, nil
}

// ListByStudent returns the student's enrollment history.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return s.enrollments.ListByStudent(ctx, studentID)
}

// afterSeatChange runs the post-commit steps shared by enroll and drop:
// availability listings are stale and the student's fees need a rebuild.
func (s *EnrollmentService) afterSeatChange(ctx context.Context, studentID, semester string) {
	s.cache.Invalidate(ctx, "availability:*")
	s.fees.RecomputeBestEffort(ctx, studentID, semester)
}

// recordOutcome counts the failed attempt. Expected outcomes like a full
// section are domain results, not faults, and are logged at info.
func (s *EnrollmentService) recordOutcome(operation string, err error) {
	outcome := "error"
	if e := appErrors.FromError(err); appErrors.IsBusinessOutcome(err) {
		outcome = "rejected"
		s.logger.Info("enrollment request rejected",
			zap.String("operation", operation),
			zap.String("code", e.Code),
		)
	} else {
		s.logger.Error("enrollment operation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	s.metrics.RecordEnrollment(operation, outcome)
}
