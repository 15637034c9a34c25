package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/config"
	"github.com/acadsuite/campus-core/pkg/jobs"
)

const (
	jobRecomputeFee    = "recompute_fee"
	jobRecomputeSalary = "recompute_salary"
)

type feeReconcileStore interface {
	RecomputeSemester(ctx context.Context, studentID, semester string) error
}

type salaryReconcileStore interface {
	RecomputeSalary(ctx context.Context, facultyID string) error
	ListIDs(ctx context.Context) ([]string, error)
}

type sweepSource interface {
	ActiveStudentSemesters(ctx context.Context) ([]models.StudentSemester, error)
}

// ReconcileService repairs stale derived values. Failed best-effort
// recomputes land on its queue for prompt retry; the periodic sweep
// additionally recomputes everything, catching failures that never made it
// onto the queue (a crash between commit and recompute). Both paths rely on
// the recomputations being idempotent.
type ReconcileService struct {
	fees        feeReconcileStore
	faculty     salaryReconcileStore
	enrollments sweepSource
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         config.ReconcileConfig

	queue  *jobs.Queue
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconcileService constructs ReconcileService.
func NewReconcileService(fees feeReconcileStore, faculty salaryReconcileStore, enrollments sweepSource, cfg config.ReconcileConfig, metrics *MetricsService, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconcileService{
		fees:        fees,
		faculty:     faculty,
		enrollments: enrollments,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
	s.queue = jobs.NewQueue("reconcile", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the retry queue and, when enabled, the periodic sweep.
func (s *ReconcileService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	if !s.cfg.Enabled {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
	s.logger.Info("reconciliation sweep enabled", zap.Duration("interval", s.cfg.Interval))
}

// Stop shuts down the sweep and the queue, waiting for in-flight work.
func (s *ReconcileService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.queue.Stop()
}

// ScheduleFeeRecompute queues a fee rebuild for prompt retry. Repeated
// requests for the same pair collapse onto the waiting job.
func (s *ReconcileService) ScheduleFeeRecompute(studentID, semester string) {
	err := s.queue.Enqueue(jobs.Job{
		Key:     fmt.Sprintf("fee:%s:%s", studentID, semester),
		Type:    jobRecomputeFee,
		Payload: models.StudentSemester{StudentID: studentID, Semester: semester},
	})
	if err != nil {
		// The sweep will still repair it.
		s.logger.Warn("failed to queue fee recompute",
			zap.String("student_id", studentID),
			zap.String("semester", semester),
			zap.Error(err),
		)
	}
}

// ScheduleSalaryRecompute queues a salary rebuild for prompt retry.
func (s *ReconcileService) ScheduleSalaryRecompute(facultyID string) {
	err := s.queue.Enqueue(jobs.Job{
		Key:     "salary:" + facultyID,
		Type:    jobRecomputeSalary,
		Payload: facultyID,
	})
	if err != nil {
		s.logger.Warn("failed to queue salary recompute",
			zap.String("faculty_id", facultyID),
			zap.Error(err),
		)
	}
}

func (s *ReconcileService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobRecomputeFee:
		pair, ok := job.Payload.(models.StudentSemester)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
		}
		start := time.Now()
		err := s.fees.RecomputeSemester(ctx, pair.StudentID, pair.Semester)
		s.metrics.ObserveRecompute("fee", time.Since(start))
		return err
	case jobRecomputeSalary:
		facultyID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
		}
		start := time.Now()
		err := s.faculty.RecomputeSalary(ctx, facultyID)
		s.metrics.ObserveRecompute("salary", time.Since(start))
		return err
	default:
		return fmt.Errorf("unknown job type %s", job.Type)
	}
}

// Sweep recomputes every fee pair and every salary. Failures are logged
// and counted but do not stop the pass; the next sweep retries them.
func (s *ReconcileService) Sweep(ctx context.Context) {
	pairs, err := s.enrollments.ActiveStudentSemesters(ctx)
	if err != nil {
		s.logger.Error("sweep failed to list student semesters", zap.Error(err))
	}
	for _, pair := range pairs {
		start := time.Now()
		err := s.fees.RecomputeSemester(ctx, pair.StudentID, pair.Semester)
		s.metrics.ObserveRecompute("fee", time.Since(start))
		if err != nil {
			s.metrics.RecordRecomputeFailure("fee")
			s.logger.Error("sweep fee recompute failed",
				zap.String("student_id", pair.StudentID),
				zap.String("semester", pair.Semester),
				zap.Error(err),
			)
		}
	}

	facultyIDs, err := s.faculty.ListIDs(ctx)
	if err != nil {
		s.logger.Error("sweep failed to list faculty", zap.Error(err))
	}
	for _, facultyID := range facultyIDs {
		start := time.Now()
		err := s.faculty.RecomputeSalary(ctx, facultyID)
		s.metrics.ObserveRecompute("salary", time.Since(start))
		if err != nil {
			s.metrics.RecordRecomputeFailure("salary")
			s.logger.Error("sweep salary recompute failed",
				zap.String("faculty_id", facultyID),
				zap.Error(err),
			)
		}
	}

	s.logger.Debug("reconciliation sweep completed",
		zap.Int("fee_pairs", len(pairs)),
		zap.Int("faculty", len(facultyIDs)),
	)
}
