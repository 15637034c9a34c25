package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/acadsuite/campus-core/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func errNoRows() error {
	return sql.ErrNoRows
}

func TestSequenceRepositoryAllocateNextFirstAllocation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSequenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO code_sequences (entity_type, year, last_seq)")).
		WithArgs(models.EntityStudent, 2024).
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(1))
	mock.ExpectCommit()

	seq, err := repo.AllocateNext(context.Background(), models.EntityStudent, 2024)
	require.NoError(t, err)
	require.Equal(t, 1, seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepositoryAllocateNextIncrements(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSequenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO code_sequences").
		WithArgs(models.EntityFaculty, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(8))
	mock.ExpectCommit()

	seq, err := repo.AllocateNext(context.Background(), models.EntityFaculty, 2025)
	require.NoError(t, err)
	require.Equal(t, 8, seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepositoryAllocateNextRollsBackOnStorageError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSequenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO code_sequences").
		WithArgs(models.EntityStudent, 2024).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.AllocateNext(context.Background(), models.EntityStudent, 2024)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
