package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/acadsuite/campus-core/internal/models"
)

type feeStore interface {
	RecomputeSemester(ctx context.Context, studentID, semester string) error
	MarkPaid(ctx context.Context, feeID string) (*models.StudentSemester, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.FeeDetail, error)
}

type recomputeScheduler interface {
	ScheduleFeeRecompute(studentID, semester string)
	ScheduleSalaryRecompute(facultyID string)
}

// FeeService drives fee recomputation. The repository does the rebuild;
// this layer adds timing, the best-effort failure policy and handoff to the
// reconciliation queue when a recompute cannot complete.
type FeeService struct {
	fees      feeStore
	scheduler recomputeScheduler
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewFeeService constructs FeeService. scheduler may be nil, in which case
// failed recomputes wait for the periodic sweep.
func NewFeeService(fees feeStore, scheduler recomputeScheduler, metrics *MetricsService, logger *zap.Logger) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{fees: fees, scheduler: scheduler, metrics: metrics, logger: logger}
}

// Recompute rebuilds the student's fees for the semester and reports the
// error to the caller.
func (s *FeeService) Recompute(ctx context.Context, studentID, semester string) error {
	start := time.Now()
	err := s.fees.RecomputeSemester(ctx, studentID, semester)
	s.metrics.ObserveRecompute("fee", time.Since(start))
	return err
}

// RecomputeBestEffort runs the recompute after a committed primary change.
// The enrollment or payment already holds; a failure here leaves stale
// derived fees, so it is logged, counted and queued for the reconciler
// instead of being surfaced to the caller.
func (s *FeeService) RecomputeBestEffort(ctx context.Context, studentID, semester string) {
	if err := s.Recompute(ctx, studentID, semester); err != nil {
		s.metrics.RecordRecomputeFailure("fee")
		s.logger.Error("fee recompute failed, deferring to reconciler",
			zap.String("student_id", studentID),
			zap.String("semester", semester),
			zap.Error(err),
		)
		if s.scheduler != nil {
			s.scheduler.ScheduleFeeRecompute(studentID, semester)
		}
	}
}

// MarkPaid settles the fee row, then rebuilds the student's balance so it
// reflects the payment. The settlement commits first; the recompute follows
// best effort.
func (s *FeeService) MarkPaid(ctx context.Context, feeID string) error {
	target, err := s.fees.MarkPaid(ctx, feeID)
	if err != nil {
		return err
	}
	s.RecomputeBestEffort(ctx, target.StudentID, target.Semester)
	return nil
}

// ListByStudent returns the student's fee ledger.
func (s *FeeService) ListByStudent(ctx context.Context, studentID string) ([]models.FeeDetail, error) {
	return s.fees.ListByStudent(ctx, studentID)
}
