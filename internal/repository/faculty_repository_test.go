package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFacultyRepositoryRecomputeSalary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits * c.fee_per_credit), 0)")).
		WithArgs("fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("9000.00"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE faculty SET salary = $2 WHERE id = $1")).
		WithArgs("fac-1", decimal.RequireFromString("9000.00")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RecomputeSalary(context.Background(), "fac-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryRecomputeSalaryNoActiveSections(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits * c.fee_per_credit), 0)")).
		WithArgs("fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))
	mock.ExpectExec("UPDATE faculty SET salary").
		WithArgs("fac-1", decimal.RequireFromString("0")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RecomputeSalary(context.Background(), "fac-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
