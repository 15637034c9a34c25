package service

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/acadsuite/campus-core/internal/models"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

func newServiceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type stubUserCreator struct {
	err  error
	user *models.User
}

func (s *stubUserCreator) CreateTx(_ context.Context, _ *sqlx.Tx, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	user.ID = "user-1"
	s.user = user
	return nil
}

type stubStudentStore struct {
	err     error
	student *models.Student
}

func (s *stubStudentStore) CreateTx(_ context.Context, _ *sqlx.Tx, student *models.Student) error {
	if s.err != nil {
		return s.err
	}
	student.ID = "student-1"
	s.student = student
	return nil
}

func (s *stubStudentStore) FindByID(_ context.Context, _ string) (*models.Student, error) {
	return s.student, nil
}

func (s *stubStudentStore) FindByCode(_ context.Context, _ string) (*models.Student, error) {
	return s.student, nil
}

func (s *stubStudentStore) List(_ context.Context, _ models.StudentFilter) ([]models.Student, int, error) {
	return nil, 0, nil
}

type stubCodeMinter struct {
	code string
	err  error
}

func (s *stubCodeMinter) GenerateTx(_ context.Context, _ *sqlx.Tx, _ models.EntityType, _ int) (string, error) {
	return s.code, s.err
}

func TestStudentServiceCreateCommitsAccountCodeAndProfile(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	users := &stubUserCreator{}
	students := &stubStudentStore{}
	codes := &stubCodeMinter{code: "26k-001"}
	svc := NewStudentService(db, users, students, codes, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Username:  "jdoe",
		Password:  "correct horse",
		Email:     "jdoe@example.edu",
		FirstName: "Jordan",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.Equal(t, "26k-001", student.StudentCode)
	require.Equal(t, "user-1", student.UserID)
	require.Equal(t, models.StudentStatusActive, student.Status)
	require.Equal(t, 1, student.CurrentSemester)
	require.True(t, student.FeeBalance.IsZero())

	require.Equal(t, models.RoleStudent, users.user.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.user.PasswordHash), []byte("correct horse")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceCreateRollsBackOnCodeFailure(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	students := &stubStudentStore{}
	codes := &stubCodeMinter{err: errors.New("connection reset")}
	svc := NewStudentService(db, &stubUserCreator{}, students, codes, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Username:  "jdoe",
		Password:  "correct horse",
		Email:     "jdoe@example.edu",
		FirstName: "Jordan",
		LastName:  "Doe",
	})
	require.Error(t, err)
	require.Nil(t, students.student)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceCreateValidatesRequest(t *testing.T) {
	db, _, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewStudentService(db, &stubUserCreator{}, &stubStudentStore{}, &stubCodeMinter{code: "26k-001"}, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Username:  "jdoe",
		Password:  "short",
		Email:     "not-an-email",
		FirstName: "Jordan",
		LastName:  "Doe",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceListPagination(t *testing.T) {
	db, _, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewStudentService(db, &stubUserCreator{}, &stubStudentStore{}, &stubCodeMinter{}, nil, nil)

	_, pagination, err := svc.List(context.Background(), models.StudentFilter{Page: 0, PageSize: 0})
	require.NoError(t, err)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PageSize)
}
