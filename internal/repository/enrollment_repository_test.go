package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/acadsuite/campus-core/internal/models"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

func TestEnrollmentRepositoryEnrollSuccess(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_capacity, semester FROM course_sections WHERE id = $1 FOR UPDATE")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity", "semester"}).AddRow(30, "Fall 2024"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status = $2")).
		WithArgs("sec-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3 LIMIT 1")).
		WithArgs("stu-1", "sec-1", models.EnrollmentStatusEnrolled).
		WillReturnError(errNoRows())
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "stu-1", "sec-1", sqlmock.AnyArg(), models.EnrollmentStatusEnrolled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Enroll(context.Background(), "stu-1", "sec-1")
	require.NoError(t, err)
	require.NotEmpty(t, result.EnrollmentID)
	require.Equal(t, "Fall 2024", result.Semester)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollSectionFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT max_capacity, semester FROM course_sections").
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity", "semester"}).AddRow(2, "Fall 2024"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments")).
		WithArgs("sec-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "stu-1", "sec-1")
	require.ErrorIs(t, err, appErrors.ErrSectionFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT max_capacity, semester FROM course_sections").
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity", "semester"}).AddRow(30, "Fall 2024"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments")).
		WithArgs("sec-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("stu-1", "sec-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "stu-1", "sec-1")
	require.ErrorIs(t, err, appErrors.ErrAlreadyEnrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollSectionMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT max_capacity, semester FROM course_sections").
		WithArgs("ghost").
		WillReturnError(errNoRows())
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "stu-1", "ghost")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDropSuccess(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3 FOR UPDATE")).
		WithArgs("stu-1", "sec-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("enr-1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusDropped).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT semester FROM course_sections WHERE id = $1")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"semester"}).AddRow("Fall 2024"))
	mock.ExpectCommit()

	result, err := repo.Drop(context.Background(), "stu-1", "sec-1")
	require.NoError(t, err)
	require.Equal(t, "Fall 2024", result.Semester)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDropNotEnrolled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM enrollments").
		WithArgs("stu-1", "sec-1", models.EnrollmentStatusEnrolled).
		WillReturnError(errNoRows())
	mock.ExpectRollback()

	_, err := repo.Drop(context.Background(), "stu-1", "sec-1")
	require.ErrorIs(t, err, appErrors.ErrNotEnrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "enrollment_date", "status",
		"section_code", "semester", "year", "course_code", "course_name", "credits"}).
		AddRow("enr-1", "stu-1", "sec-1", time.Now(), models.EnrollmentStatusEnrolled,
			"CS101-A", "Fall 2024", 2024, "CS101", "Intro to Computing", 3)
	mock.ExpectQuery("SELECT e.id, e.student_id, e.section_id").
		WithArgs("stu-1").
		WillReturnRows(rows)

	details, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Equal(t, "CS101", details[0].CourseCode)
	require.NoError(t, mock.ExpectationsWereMet())
}
