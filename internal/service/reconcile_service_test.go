package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/config"
)

type recordingReconcileStore struct {
	mu sync.Mutex

	feePairs []models.StudentSemester
	feeErr   error

	salaryCalls []string
	salaryErr   error
	facultyIDs  []string

	sweepPairs []models.StudentSemester
}

func (r *recordingReconcileStore) RecomputeSemester(_ context.Context, studentID, semester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feePairs = append(r.feePairs, models.StudentSemester{StudentID: studentID, Semester: semester})
	return r.feeErr
}

func (r *recordingReconcileStore) RecomputeSalary(_ context.Context, facultyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.salaryCalls = append(r.salaryCalls, facultyID)
	return r.salaryErr
}

func (r *recordingReconcileStore) ListIDs(_ context.Context) ([]string, error) {
	return r.facultyIDs, nil
}

func (r *recordingReconcileStore) ActiveStudentSemesters(_ context.Context) ([]models.StudentSemester, error) {
	return r.sweepPairs, nil
}

func (r *recordingReconcileStore) snapshotFees() []models.StudentSemester {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.StudentSemester(nil), r.feePairs...)
}

func (r *recordingReconcileStore) snapshotSalaries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.salaryCalls...)
}

func newReconcileService(store *recordingReconcileStore) *ReconcileService {
	return NewReconcileService(store, store, store, config.ReconcileConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	}, nil, nil)
}

func TestReconcileServiceProcessesScheduledFeeRecompute(t *testing.T) {
	store := &recordingReconcileStore{}
	svc := newReconcileService(store)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.ScheduleFeeRecompute("s-1", "Fall 2026")

	require.Eventually(t, func() bool {
		pairs := store.snapshotFees()
		return len(pairs) == 1 && pairs[0].StudentID == "s-1" && pairs[0].Semester == "Fall 2026"
	}, time.Second, 10*time.Millisecond)
}

func TestReconcileServiceProcessesScheduledSalaryRecompute(t *testing.T) {
	store := &recordingReconcileStore{}
	svc := newReconcileService(store)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.ScheduleSalaryRecompute("f-1")

	require.Eventually(t, func() bool {
		calls := store.snapshotSalaries()
		return len(calls) == 1 && calls[0] == "f-1"
	}, time.Second, 10*time.Millisecond)
}

func TestReconcileServiceScheduleBeforeStartDoesNotPanic(t *testing.T) {
	store := &recordingReconcileStore{}
	svc := newReconcileService(store)

	svc.ScheduleFeeRecompute("s-1", "Fall 2026")
	require.Empty(t, store.snapshotFees())
}

func TestReconcileServiceSweepRecomputesEverything(t *testing.T) {
	store := &recordingReconcileStore{
		sweepPairs: []models.StudentSemester{
			{StudentID: "s-1", Semester: "Fall 2026"},
			{StudentID: "s-2", Semester: "Fall 2026"},
		},
		facultyIDs: []string{"f-1", "f-2", "f-3"},
	}
	svc := newReconcileService(store)

	svc.Sweep(context.Background())

	require.Len(t, store.snapshotFees(), 2)
	require.Equal(t, []string{"f-1", "f-2", "f-3"}, store.snapshotSalaries())
}

func TestReconcileServiceSweepContinuesPastFailures(t *testing.T) {
	store := &recordingReconcileStore{
		sweepPairs: []models.StudentSemester{
			{StudentID: "s-1", Semester: "Fall 2026"},
			{StudentID: "s-2", Semester: "Fall 2026"},
		},
		facultyIDs: []string{"f-1"},
		feeErr:     context.DeadlineExceeded,
	}
	svc := newReconcileService(store)

	svc.Sweep(context.Background())

	require.Len(t, store.snapshotFees(), 2)
	require.Len(t, store.snapshotSalaries(), 1)
}
