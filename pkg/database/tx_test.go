package database

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRunInTxCommitsOnSuccess(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := RunInTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE students SET fee_balance = 0")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := RunInTx(context.Background(), db, func(tx *sqlx.Tx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.Panics(t, func() {
		_ = RunInTx(context.Background(), db, func(tx *sqlx.Tx) error {
			panic("worker died")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
