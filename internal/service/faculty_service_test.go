package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/acadsuite/campus-core/internal/models"
)

type stubFacultyStore struct {
	createErr error
	faculty   *models.Faculty

	recomputeErr   error
	recomputeCalls []string
}

func (s *stubFacultyStore) CreateTx(_ context.Context, _ *sqlx.Tx, faculty *models.Faculty) error {
	if s.createErr != nil {
		return s.createErr
	}
	faculty.ID = "faculty-1"
	s.faculty = faculty
	return nil
}

func (s *stubFacultyStore) FindByID(_ context.Context, _ string) (*models.Faculty, error) {
	return s.faculty, nil
}

func (s *stubFacultyStore) RecomputeSalary(_ context.Context, facultyID string) error {
	s.recomputeCalls = append(s.recomputeCalls, facultyID)
	return s.recomputeErr
}

func TestFacultyServiceCreateCommitsAccountCodeAndProfile(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	users := &stubUserCreator{}
	store := &stubFacultyStore{}
	codes := &stubCodeMinter{code: "26f-003"}
	svc := NewFacultyService(db, users, store, codes, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	faculty, err := svc.Create(context.Background(), CreateFacultyRequest{
		Username:  "rsmith",
		Password:  "correct horse",
		Email:     "rsmith@example.edu",
		FirstName: "Riley",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	require.Equal(t, "26f-003", faculty.FacultyCode)
	require.Equal(t, "user-1", faculty.UserID)
	require.Equal(t, models.FacultyStatusActive, faculty.Status)
	require.True(t, faculty.Salary.IsZero())
	require.Equal(t, models.RoleFaculty, users.user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyServiceCreateRollsBackOnProfileFailure(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	store := &stubFacultyStore{createErr: errors.New("connection reset")}
	svc := NewFacultyService(db, &stubUserCreator{}, store, &stubCodeMinter{code: "26f-003"}, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateFacultyRequest{
		Username:  "rsmith",
		Password:  "correct horse",
		Email:     "rsmith@example.edu",
		FirstName: "Riley",
		LastName:  "Smith",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyServiceRecomputeBestEffortSchedulesOnFailure(t *testing.T) {
	db, _, cleanup := newServiceMock(t)
	defer cleanup()

	store := &stubFacultyStore{recomputeErr: errors.New("connection reset")}
	scheduler := &recordingScheduler{}
	svc := NewFacultyService(db, &stubUserCreator{}, store, &stubCodeMinter{}, scheduler, nil, nil, nil)

	svc.RecomputeBestEffort(context.Background(), "f-1")

	require.Equal(t, []string{"f-1"}, store.recomputeCalls)
	require.Equal(t, []string{"f-1"}, scheduler.facultyIDs)
}

func TestFacultyServiceRecomputeBestEffortNoScheduleOnSuccess(t *testing.T) {
	db, _, cleanup := newServiceMock(t)
	defer cleanup()

	store := &stubFacultyStore{}
	scheduler := &recordingScheduler{}
	svc := NewFacultyService(db, &stubUserCreator{}, store, &stubCodeMinter{}, scheduler, nil, nil, nil)

	svc.RecomputeBestEffort(context.Background(), "f-1")

	require.Equal(t, []string{"f-1"}, store.recomputeCalls)
	require.Empty(t, scheduler.facultyIDs)
}
