package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acadsuite/campus-core/internal/models"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

type stubEnrollmentStore struct {
	enrollResult *models.EnrollResult
	enrollErr    error
	dropResult   *models.DropResult
	dropErr      error
}

func (s *stubEnrollmentStore) Enroll(_ context.Context, _, _ string) (*models.EnrollResult, error) {
	return s.enrollResult, s.enrollErr
}

func (s *stubEnrollmentStore) Drop(_ context.Context, _, _ string) (*models.DropResult, error) {
	return s.dropResult, s.dropErr
}

func (s *stubEnrollmentStore) ListByStudent(_ context.Context, _ string) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

type recordingFeeEngine struct {
	calls []models.StudentSemester
}

func (f *recordingFeeEngine) RecomputeBestEffort(_ context.Context, studentID, semester string) {
	f.calls = append(f.calls, models.StudentSemester{StudentID: studentID, Semester: semester})
}

func TestEnrollmentServiceEnrollTriggersFeeRecompute(t *testing.T) {
	store := &stubEnrollmentStore{
		enrollResult: &models.EnrollResult{EnrollmentID: "e-1", Semester: "Fall 2026"},
	}
	fees := &recordingFeeEngine{}
	svc := NewEnrollmentService(store, fees, nil, nil, nil, nil)

	result, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s-1", SectionID: "sec-1"})
	require.NoError(t, err)
	require.Equal(t, "e-1", result.EnrollmentID)

	require.Len(t, fees.calls, 1)
	require.Equal(t, "s-1", fees.calls[0].StudentID)
	require.Equal(t, "Fall 2026", fees.calls[0].Semester)
}

func TestEnrollmentServiceEnrollSectionFullSkipsRecompute(t *testing.T) {
	store := &stubEnrollmentStore{enrollErr: appErrors.ErrSectionFull}
	fees := &recordingFeeEngine{}
	svc := NewEnrollmentService(store, fees, nil, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s-1", SectionID: "sec-1"})
	require.ErrorIs(t, err, appErrors.ErrSectionFull)
	require.Empty(t, fees.calls)
}

func TestEnrollmentServiceEnrollValidatesRequest(t *testing.T) {
	store := &stubEnrollmentStore{}
	fees := &recordingFeeEngine{}
	svc := NewEnrollmentService(store, fees, nil, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s-1"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, fees.calls)
}

func TestEnrollmentServiceDropTriggersFeeRecompute(t *testing.T) {
	store := &stubEnrollmentStore{dropResult: &models.DropResult{Semester: "Spring 2026"}}
	fees := &recordingFeeEngine{}
	svc := NewEnrollmentService(store, fees, nil, nil, nil, nil)

	result, err := svc.Drop(context.Background(), EnrollRequest{StudentID: "s-2", SectionID: "sec-9"})
	require.NoError(t, err)
	require.Equal(t, "Spring 2026", result.Semester)

	require.Len(t, fees.calls, 1)
	require.Equal(t, "s-2", fees.calls[0].StudentID)
	require.Equal(t, "Spring 2026", fees.calls[0].Semester)
}

func TestEnrollmentServiceDropNotEnrolled(t *testing.T) {
	store := &stubEnrollmentStore{dropErr: appErrors.ErrNotEnrolled}
	fees := &recordingFeeEngine{}
	svc := NewEnrollmentService(store, fees, nil, nil, nil, nil)

	_, err := svc.Drop(context.Background(), EnrollRequest{StudentID: "s-2", SectionID: "sec-9"})
	require.ErrorIs(t, err, appErrors.ErrNotEnrolled)
	require.Empty(t, fees.calls)
}
